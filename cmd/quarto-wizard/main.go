// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/quarto-wizard/quarto-wizard/cmd/quarto-wizard/commands"
	"github.com/quarto-wizard/quarto-wizard/cmd/quarto-wizard/internal/clierr"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
