// SPDX-License-Identifier: MIT

package commands

import (
	"github.com/spf13/cobra"

	"github.com/quarto-wizard/quarto-wizard/cmd/quarto-wizard/internal/clierr"
	"github.com/quarto-wizard/quarto-wizard/internal/lsp"
	"github.com/quarto-wizard/quarto-wizard/internal/quartocli"
)

func newLSPCmd(version string) *cobra.Command {
	var debug bool
	var quartoPath string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server on stdio",
		Long:  "Serves diagnostics, completion, and hover for Quarto configuration files, .qmd documents, and extension schema definitions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd)
			srv := lsp.NewServer(log, version, quartocli.New(quartoPath))
			if err := srv.Run(debug); err != nil {
				return clierr.Wrap(1, "language server stopped", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable protocol debug logging")
	cmd.Flags().StringVar(&quartoPath, "quarto-path", "", "path to the quarto binary (default: resolve from PATH)")
	return cmd
}
