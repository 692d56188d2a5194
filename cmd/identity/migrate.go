// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/nativetranslate/identity/internal/config"
	"github.com/nativetranslate/identity/internal/store"
)

// NewMigrateCmd creates the migrate subcommand with up, down, and version.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back, or inspect the schema migrations for the identity database.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Migrations rolled back")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if version == 0 {
					cmd.Println("No migrations applied")
					return nil
				}
				cmd.Printf("Version: %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(*store.Migrator) error) error {
	databaseURL, err := resolveDatabaseURL()
	if err != nil {
		return err
	}

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			cmd.PrintErrln("warning: closing migrator:", closeErr)
		}
	}()

	return fn(migrator)
}

// resolveDatabaseURL reads the database URL from the config file when one
// was given, falling back to the DATABASE_URL environment variable.
func resolveDatabaseURL() (string, error) {
	if configFile != "" {
		cfg, err := config.Load(configFile, nil)
		if err == nil {
			return cfg.Database.URL, nil
		}
		// A config file may legitimately omit everything except the
		// database section for migration runs, so only a load failure
		// of the file itself is fatal.
		if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == "CONFIG_LOAD_FAILED" {
			return "", err
		}
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}
	return databaseURL, nil
}
