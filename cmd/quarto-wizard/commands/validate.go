// SPDX-License-Identifier: MIT

package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/quarto-wizard/quarto-wizard/cmd/quarto-wizard/internal/clierr"
	"github.com/quarto-wizard/quarto-wizard/internal/extensions"
	"github.com/quarto-wizard/quarto-wizard/internal/lsp"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [paths...]",
		Short: "Validate Quarto configuration and schema files",
		Long:  "Validates configuration YAML, .qmd documents, and extension schema definitions against the schemas of installed extensions. Exits 1 when any error-severity finding is reported.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			log := newLogger(cmd)
			engine := lsp.NewEngine(extensions.NewIndex(log), log)

			files, err := collectFiles(args)
			if err != nil {
				return err
			}

			errorCount := 0
			for _, path := range files {
				data, err := os.ReadFile(path)
				if err != nil {
					return clierr.Wrap(1, "reading "+path, err)
				}
				doc := &lsp.Document{
					URI:     lsp.URIFromPath(path),
					Path:    path,
					Kind:    lsp.KindOf(path),
					Content: string(data),
				}
				for _, d := range engine.Diagnose(cmd.Context(), doc) {
					printDiagnostic(cmd, path, d)
					if d.Severity != nil && *d.Severity == protocol.DiagnosticSeverityError {
						errorCount++
					}
				}
			}

			if errorCount > 0 {
				return clierr.Newf(1, "%d error(s) found", errorCount)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) checked, no errors\n", len(files))
			return nil
		},
	}
	return cmd
}

// collectFiles expands the path arguments to the set of validatable files.
// Directories are walked; explicit file arguments are taken as given.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, clierr.Wrap(1, "stat "+arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				switch d.Name() {
				case ".git", "node_modules", "_site", ".quarto":
					return filepath.SkipDir
				}
				return nil
			}
			if lsp.KindOf(path) != lsp.DocOther {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, clierr.Wrap(1, "walking "+arg, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func printDiagnostic(cmd *cobra.Command, path string, d protocol.Diagnostic) {
	sev := "info"
	if d.Severity != nil {
		switch *d.Severity {
		case protocol.DiagnosticSeverityError:
			sev = "error"
		case protocol.DiagnosticSeverityWarning:
			sev = "warning"
		}
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s:%d:%d: %s: %s\n",
		path, d.Range.Start.Line+1, d.Range.Start.Character+1, sev, d.Message)
}
