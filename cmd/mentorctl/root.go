package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/config"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/store"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/upgrade"
)

// cli carries the flags shared by every command and opens the services lazily.
type cli struct {
	dbPath  string
	actor   string
	asJSON  bool
	verbose bool

	cfg    *config.Config
	ds     *store.Store
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "mentorctl",
		Short:         "Administer the startup mentor service",
		Long:          `mentorctl manages plan grants, upgrade requests, API tokens and the stage catalog of a mentor database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			if c.dbPath == "" {
				c.dbPath = cfg.DBPath
			}
			if c.verbose {
				c.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.ds != nil {
				return c.ds.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "database path (default $DB_PATH)")
	root.PersistentFlags().StringVar(&c.actor, "actor", "cli", "name recorded in the audit log")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print JSON instead of tables")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newPlanCmd(c),
		newFeatureCmd(c),
		newGrantsCmd(c),
		newLimitsCmd(c),
		newAuditCmd(c),
		newUpgradeCmd(c),
		newTokenCmd(c),
		newCatalogCmd(c),
	)
	return root
}

func (c *cli) store() (*store.Store, error) {
	if c.ds != nil {
		return c.ds, nil
	}
	ds, err := store.New(c.dbPath, c.logger)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.dbPath, err)
	}
	c.ds = ds
	return ds, nil
}

func (c *cli) gate() (*access.Gate, *access.AuditLog, error) {
	ds, err := c.store()
	if err != nil {
		return nil, nil, err
	}
	audit := access.NewAuditLog(ds, c.logger)
	return access.NewGate(access.NewSQLiteGrantStore(ds, c.logger), audit, c.logger), audit, nil
}

func (c *cli) upgrades() (*upgrade.Service, error) {
	gate, _, err := c.gate()
	if err != nil {
		return nil, err
	}
	months := 1
	if c.cfg != nil {
		months = c.cfg.UpgradeDefaultMonths
	}
	return upgrade.NewService(upgrade.NewStore(c.ds, c.logger), gate, nil, nil, months, c.logger), nil
}

func (c *cli) actorName() string {
	return "cli:" + c.actor
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// expiry resolves --expires (RFC 3339) or --months into an expiry time. Neither means none.
func expiry(expires string, months int, now time.Time) (*time.Time, error) {
	switch {
	case expires != "" && months > 0:
		return nil, fmt.Errorf("use either --expires or --months")
	case expires != "":
		t, err := time.Parse(time.RFC3339, expires)
		if err != nil {
			return nil, fmt.Errorf("invalid --expires: %w", err)
		}
		return &t, nil
	case months > 0:
		t := now.AddDate(0, months, 0)
		return &t, nil
	}
	return nil, nil
}

func formatLimit(v int64) string {
	if v == access.Unlimited {
		return "unlimited"
	}
	return fmt.Sprint(v)
}
