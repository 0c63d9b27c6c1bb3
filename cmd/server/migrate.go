package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/guestlist/internal/config"
	sqliteRepo "github.com/sakif/guestlist/internal/repository/sqlite"
)

func newMigrateCmd(envFile *string) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(*envFile, func(db *sqliteRepo.DB) error {
				n, err := db.MigrateUp(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(*envFile, func(db *sqliteRepo.DB) error {
				rolledBack, err := db.MigrateDown(cmd.Context())
				if err != nil {
					return err
				}
				if !rolledBack {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back 1 migration")
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(*envFile, func(db *sqliteRepo.DB) error {
				statuses, err := db.MigrateStatus(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tSTATE\tFILE")
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, state, s.Name)
				}
				return tw.Flush()
			})
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, statusCmd)
	return migrateCmd
}

// withDB opens the configured database without migrating it, runs fn, and
// closes it again.
func withDB(envFile string, fn func(db *sqliteRepo.DB) error) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sqliteRepo.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db)
}
