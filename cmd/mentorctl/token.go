package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/api"
)

func newTokenCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint API bearer tokens",
	}

	var (
		role string
		ttl  time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue <subject>",
		Short: "Sign a token for subject with $JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl == 0 {
				ttl = c.cfg.TokenTTL
			}
			tok, err := api.IssueToken(c.cfg.JWTSecret, c.cfg.JWTIssuer, args[0], role, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	issue.Flags().StringVar(&role, "role", api.RoleUser, "role claim (user or admin)")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default $TOKEN_TTL)")

	cmd.AddCommand(issue)
	return cmd
}
