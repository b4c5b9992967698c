package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuwago/lending/internal/infrastructure/config"
	pkgpostgres "github.com/kuwago/lending/pkg/postgres"
)

const defaultMigrationsSource = "file://internal/infrastructure/postgres/migrations"

func dbConfig(cfg config.Config) pkgpostgres.Config {
	return pkgpostgres.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
		AppName:  "lendingctl",
		MaxConns: int32(cfg.DB.MaxConns),
	}
}

func migrateCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long: `Apply or roll back the lending schema with golang-migrate.

Connection settings come from the DB_* environment variables used by lendingd.

Examples:
  lendingctl migrate up
  lendingctl migrate down --steps 1
  lendingctl migrate version`,
	}
	cmd.PersistentFlags().StringVar(&source, "source", defaultMigrationsSource, "golang-migrate source URL")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn := dbConfig(config.Load()).DSN()
			if err := pkgpostgres.RunMigrations(dsn, source); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn := dbConfig(config.Load()).DSN()
			if err := pkgpostgres.RunMigrationsDown(dsn, source, steps); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back, 0 for all")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, dirty, err := pkgpostgres.MigrationVersion(dbConfig(config.Load()).DSN(), source)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
