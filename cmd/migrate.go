package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/karua/hostcore/pkg/config"
	"github.com/karua/hostcore/pkg/logx"
	"github.com/karua/hostcore/pkg/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Long:  "Apply every pending migration by default. With --step N only the next N are applied.",
	RunE: func(cmd *cobra.Command, args []string) error {
		step, _ := cmd.Flags().GetInt("step")
		return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
			n, err := m.Up(cmd.Context(), step)
			if err != nil {
				return err
			}
			logx.Infof("applied %d migration(s)", n)
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert applied migrations",
	Long:  "Revert the most recent migration by default. With --step N the last N are reverted; --step 0 reverts all.",
	RunE: func(cmd *cobra.Command, args []string) error {
		step, _ := cmd.Flags().GetInt("step")
		return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
			n, err := m.Down(cmd.Context(), step)
			if err != nil {
				return err
			}
			logx.Infof("reverted %d migration(s)", n)
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
			statuses, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %s\n", s.Version, s.Name, state)
			}
			return nil
		})
	},
}

func withMigrator(ctx context.Context, fn func(*migrations.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := connectDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func(db *sqlx.DB) { db.Close() }(db)
	return fn(migrations.NewMigrator(db))
}

func init() {
	migrateUpCmd.Flags().IntP("step", "s", 0, "number of migrations to apply (0 = all)")
	migrateDownCmd.Flags().IntP("step", "s", 1, "number of migrations to revert (0 = all)")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
