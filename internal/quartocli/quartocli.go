// SPDX-License-Identifier: MIT

// Package quartocli locates and shells out to the quarto binary.
package quartocli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds a single quarto invocation.
const DefaultTimeout = 30 * time.Second

// CLI wraps the quarto command line tool. The zero value is not usable;
// construct with New.
type CLI struct {
	binary  string
	timeout time.Duration

	checkOnce sync.Once
	checkErr  error
	version   string
}

// New returns a CLI that invokes the given binary. An empty binary means
// "quarto" resolved from PATH.
func New(binary string) *CLI {
	if binary == "" {
		binary = "quarto"
	}
	return &CLI{binary: binary, timeout: DefaultTimeout}
}

// Check verifies the binary exists and responds to --version. The probe runs
// once; every caller waits for it and observes the same result.
func (c *CLI) Check(ctx context.Context) error {
	c.checkOnce.Do(func() {
		path, err := exec.LookPath(c.binary)
		if err != nil {
			c.checkErr = fmt.Errorf("quarto binary not found: %w", err)
			return
		}
		out, err := c.run(ctx, path, "--version")
		if err != nil {
			c.checkErr = fmt.Errorf("probing quarto version: %w", err)
			return
		}
		c.version = strings.TrimSpace(out)
	})
	return c.checkErr
}

// Version returns the probed quarto version. It runs Check if it has not run
// yet.
func (c *CLI) Version(ctx context.Context) (string, error) {
	if err := c.Check(ctx); err != nil {
		return "", err
	}
	return c.version, nil
}

// ListExtensions runs `quarto list extensions` in dir and returns its raw
// output. Parsing is left to the caller since the format is unversioned.
func (c *CLI) ListExtensions(ctx context.Context, dir string) (string, error) {
	if err := c.Check(ctx); err != nil {
		return "", err
	}
	cmd, cancel := c.command(ctx, "list", "extensions")
	defer cancel()
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("quarto list extensions: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	// quarto prints the listing on stderr for some versions; prefer
	// whichever stream has content.
	if stdout.Len() > 0 {
		return stdout.String(), nil
	}
	return stderr.String(), nil
}

func (c *CLI) run(ctx context.Context, path string, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return "", fmt.Errorf("%s %s: %w: %s", path, strings.Join(args, " "), err, msg)
	}
	return stdout.String(), nil
}

func (c *CLI) command(ctx context.Context, args ...string) (*exec.Cmd, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	return exec.CommandContext(runCtx, c.binary, args...), cancel
}
