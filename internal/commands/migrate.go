package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Singh-Sg/loan-app/internal/bootstrap"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/persistence/postgres"
	pkgpostgres "github.com/Singh-Sg/loan-app/pkg/postgres"
)

func newMigrateCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := g.load(cmd)
			if err != nil {
				return err
			}
			if err := pkgpostgres.RunMigrations(bootstrap.DatabaseConfig(cfg).DSN(), postgres.Migrations, postgres.MigrationsDir); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := g.load(cmd)
			if err != nil {
				return err
			}
			if err := pkgpostgres.RunMigrationsDown(bootstrap.DatabaseConfig(cfg).DSN(), postgres.Migrations, postgres.MigrationsDir); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
			return err
		},
	})
	return cmd
}
