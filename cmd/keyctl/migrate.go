package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jwks-server/config"
	"jwks-server/internal/infra"
	"jwks-server/internal/repository"
	"jwks-server/internal/usecase"
	"jwks-server/migrations"
)

// newMigrationService はDATABASE_URLに接続したMigrationServiceを生成する。
func newMigrationService() (*usecase.MigrationService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	db, err := infra.NewDB(cfg.DatabaseURL, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return usecase.NewMigrationService(repository.NewMigrationRepository(db), db, migrations.FS), nil
}

// migrateCmd はスキーママイグレーションのコマンド。
func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the issuance log schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newMigrationService()
			if err != nil {
				return err
			}
			applied, err := svc.Apply(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if applied == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", applied)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newMigrationService()
			if err != nil {
				return err
			}
			all, err := svc.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
			for _, m := range all {
				appliedAt := "-"
				if m.AppliedAt != nil {
					appliedAt = m.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Version, m.Name, m.Status, appliedAt)
			}
			return w.Flush()
		},
	})

	return cmd
}
