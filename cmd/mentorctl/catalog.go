package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
)

func newCatalogCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect stage catalogs",
	}

	validate := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a catalog file, or the built-in catalog when none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(args)
			if err != nil {
				return err
			}
			missing := 0
			for _, st := range cat.Stages() {
				if st.Template == nil && (st.AutoGenerated || st.Summary) {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s generates without a template, the fallback prompt will be used\n", st.ID)
					missing++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d stages in %d phases", cat.Len(), cat.MaxPhase())
			if missing > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", %d without templates", missing)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	var locale string
	stages := &cobra.Command{
		Use:   "stages [file]",
		Short: "List stages in workflow order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(args)
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), cat.Phases())
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tPHASE\tSTAGE\tKIND\tDATA KEY\tTITLE")
			for _, st := range cat.Stages() {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
					st.Order+1, st.Phase, st.ID, stageKind(st), st.DataKey, st.Title.In(locale))
			}
			return w.Flush()
		},
	}
	stages.Flags().StringVar(&locale, "locale", catalog.LocaleEnglish, "title language")

	cmd.AddCommand(validate, stages)
	return cmd
}

func loadCatalog(args []string) (*catalog.Catalog, error) {
	if len(args) == 0 {
		return catalog.Default()
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, err
	}
	return catalog.Parse(data)
}

func stageKind(st *catalog.Stage) string {
	switch {
	case st.Summary:
		return "summary"
	case st.AutoGenerated:
		return "auto"
	case st.InputRequired:
		return "input"
	default:
		return "info"
	}
}
