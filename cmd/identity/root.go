// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the identity CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "NativeTranslate identity service",
		Long: `The identity service owns accounts, invite-gated registration,
stateless session tokens, and the password reset flow for the
NativeTranslate platform.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
