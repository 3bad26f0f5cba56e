// SPDX-License-Identifier: MIT

// Package commands wires the quarto-wizard cobra CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRootCmd constructs the quarto-wizard root command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("QUARTO_WIZARD_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "quarto-wizard",
		Short:         "Editor tooling for Quarto extension configuration",
		Long:          "quarto-wizard validates Quarto configuration against installed extension schemas and serves diagnostics, completion, and hover over LSP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of quarto-wizard",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "quarto-wizard version %s\n", version)
		},
	})

	cmd.AddCommand(newLSPCmd(version))
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newExtensionsCmd())

	return cmd
}

// newLogger builds the command logger. LSP traffic uses stdout, so logs
// always go to stderr.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
