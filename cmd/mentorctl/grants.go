package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
)

func newPlanCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage plan assignments",
	}

	var (
		months  int
		expires string
	)
	grant := &cobra.Command{
		Use:   "grant <subject> <plan>",
		Short: "Replace a subject's grants with a plan's feature set",
		Long:  "Replace a subject's grants with the feature set of free, starter, pro or enterprise.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := access.ParsePlan(args[1])
			if err != nil {
				return err
			}
			exp, err := expiry(expires, months, time.Now())
			if err != nil {
				return err
			}
			gate, _, err := c.gate()
			if err != nil {
				return err
			}
			if err := gate.GrantPlan(cmd.Context(), args[0], plan, c.actorName(), exp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Granted %s to %s\n", plan, args[0])
			return nil
		},
	}
	grant.Flags().IntVar(&months, "months", 0, "expire after this many months")
	grant.Flags().StringVar(&expires, "expires", "", "expiry time (RFC 3339)")

	cmd.AddCommand(grant)
	return cmd
}

func newFeatureCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature",
		Short: "Manage individual feature grants",
	}

	var (
		enabled bool
		notes   string
		expires string
	)
	set := &cobra.Command{
		Use:   "set <subject> <feature>",
		Short: "Enable or disable one feature for a subject",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			feature, err := access.ParseFeature(args[1])
			if err != nil {
				return err
			}
			exp, err := expiry(expires, 0, time.Now())
			if err != nil {
				return err
			}
			gate, _, err := c.gate()
			if err != nil {
				return err
			}
			if err := gate.SetFeature(cmd.Context(), args[0], feature, enabled, c.actorName(), notes, exp); err != nil {
				return err
			}
			state := "enabled"
			if !enabled {
				state = "disabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s for %s\n", feature, state, args[0])
			return nil
		},
	}
	set.Flags().BoolVar(&enabled, "enabled", true, "enable (true) or disable (false) the feature")
	set.Flags().StringVar(&notes, "notes", "", "note stored with the grant")
	set.Flags().StringVar(&expires, "expires", "", "expiry time (RFC 3339)")

	cmd.AddCommand(set)
	return cmd
}

func newGrantsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grants",
		Short: "Inspect feature grants",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list <subject>",
		Short: "List a subject's grants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gate, _, err := c.gate()
			if err != nil {
				return err
			}
			status, err := gate.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), status.Grants)
			}

			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FEATURE\tENABLED\tACTIVE\tEXPIRES\tGRANTED BY")
			for _, g := range status.Grants {
				exp := "-"
				if g.ExpiresAt != nil {
					exp = g.ExpiresAt.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%t\t%t\t%s\t%s\n", g.Feature, g.Enabled, g.Active(now), exp, g.GrantedBy)
			}
			return w.Flush()
		},
	})
	return cmd
}

func newLimitsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Inspect derived limits",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <subject>",
		Short: "Show a subject's plan and limits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gate, _, err := c.gate()
			if err != nil {
				return err
			}
			status, err := gate.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), status)
			}

			l := status.Limits
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "plan\t%s\n", status.Plan)
			fmt.Fprintf(w, "projects\t%s\n", formatLimit(l.MaxProjects))
			fmt.Fprintf(w, "ai_messages\t%s\n", formatLimit(l.MaxAICredits))
			fmt.Fprintf(w, "team_members\t%s\n", formatLimit(l.MaxTeamMembers))
			fmt.Fprintf(w, "max_phase\t%d\n", l.MaxPhase)
			fmt.Fprintf(w, "export\t%s\n", l.Export)
			fmt.Fprintf(w, "storage_bytes\t%s\n", formatLimit(l.MaxStorage))
			return w.Flush()
		},
	})
	return cmd
}

func newAuditCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the admin audit log",
	}

	var (
		subject string
		limit   int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent administrative actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, audit, err := c.gate()
			if err != nil {
				return err
			}
			entries, err := audit.List(cmd.Context(), subject, limit)
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tACTOR\tACTION\tSUBJECT")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					strconv.FormatInt(e.ID, 10), e.CreatedAt.UTC().Format(time.RFC3339), e.Actor, e.Action, e.Subject)
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&subject, "subject", "", "only actions on this subject")
	list.Flags().IntVar(&limit, "limit", 50, "maximum entries")

	cmd.AddCommand(list)
	return cmd
}
