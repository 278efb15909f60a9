package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/upgrade"
)

func newUpgradeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Review plan upgrade requests",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List upgrade requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter upgrade.Status
			if status != "" {
				var ok bool
				if filter, ok = upgrade.ParseStatus(status); !ok {
					return fmt.Errorf("unknown status %q", status)
				}
			}
			svc, err := c.upgrades()
			if err != nil {
				return err
			}
			reqs, err := svc.List(cmd.Context(), filter, "")
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), reqs)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSER\tPLAN\tSTATUS\tCREATED\tEXPIRES")
			for _, r := range reqs {
				exp := "-"
				if r.ExpiresAt != nil {
					exp = r.ExpiresAt.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.UserID, r.RequestedPlan, r.Status, r.CreatedAt.UTC().Format(time.RFC3339), exp)
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter by status (pending, approved, rejected, expired)")

	var (
		months int
		notes  string
	)
	approve := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending request and grant its plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.upgrades()
			if err != nil {
				return err
			}
			r, err := svc.Approve(cmd.Context(), args[0], c.actorName(), months, notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Approved %s: %s has %s until %s\n",
				r.ID, r.UserID, r.RequestedPlan, r.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	approve.Flags().IntVar(&months, "months", 0, "plan duration in months (default $UPGRADE_DEFAULT_MONTHS)")
	approve.Flags().StringVar(&notes, "notes", "", "note stored on the request")

	var rejectNotes string
	reject := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.upgrades()
			if err != nil {
				return err
			}
			r, err := svc.Reject(cmd.Context(), args[0], c.actorName(), rejectNotes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s\n", r.ID)
			return nil
		},
	}
	reject.Flags().StringVar(&rejectNotes, "notes", "", "note stored on the request")

	var extendMonths int
	extend := &cobra.Command{
		Use:   "extend <id>",
		Short: "Push an approved request's expiry out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.upgrades()
			if err != nil {
				return err
			}
			r, err := svc.Extend(cmd.Context(), args[0], c.actorName(), extendMonths)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extended %s until %s\n", r.ID, r.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	extend.Flags().IntVar(&extendMonths, "months", 0, "months to add (default $UPGRADE_DEFAULT_MONTHS)")

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Expire lapsed upgrades now and return their subjects to the free plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.upgrades()
			if err != nil {
				return err
			}
			n, err := svc.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expired %d request(s)\n", n)
			return nil
		},
	}

	cmd.AddCommand(list, approve, reject, extend, sweep)
	return cmd
}
