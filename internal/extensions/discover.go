// SPDX-License-Identifier: MIT

// Package extensions discovers installed Quarto extensions in a workspace and
// maintains a cached index of their schema definitions.
package extensions

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// skipDirs are directory names never descended into during discovery.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"_site":        true,
	".quarto":      true,
}

// ID identifies an extension. Owner is empty for extensions installed
// without a namespace directory.
type ID struct {
	Owner string
	Name  string
}

func (id ID) String() string {
	if id.Owner == "" {
		return id.Name
	}
	return id.Owner + "/" + id.Name
}

// Manifest is the decoded _extension.yml.
type Manifest struct {
	Title       string         `yaml:"title"`
	Author      string         `yaml:"author"`
	Version     string         `yaml:"version"`
	QuartoMin   string         `yaml:"quarto-required"`
	Contributes map[string]any `yaml:"contributes"`
	Extra       map[string]any `yaml:",inline"`
}

// Info is one discovered extension.
type Info struct {
	ID        ID
	Directory string
	Manifest  Manifest
}

// Discover walks projectDir for _extension.yml/_extension.yaml manifests and
// returns the extensions they describe, sorted by id.
func Discover(projectDir string) ([]Info, error) {
	var out []Info
	err := filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != "_extension.yml" && d.Name() != "_extension.yaml" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading manifest %s: %w", path, err)
		}
		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			// A malformed manifest is skipped, not fatal: one broken
			// extension must not hide the rest.
			return nil
		}

		dir := filepath.Dir(path)
		out = append(out, Info{
			ID:        idFromDir(projectDir, dir),
			Directory: dir,
			Manifest:  m,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering extensions in %s: %w", projectDir, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// idFromDir derives the extension id from its directory layout:
// _extensions/<owner>/<name> or _extensions/<name>.
func idFromDir(projectDir, dir string) ID {
	rel, err := filepath.Rel(projectDir, dir)
	if err != nil {
		return ID{Name: filepath.Base(dir)}
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, p := range parts {
		if p != "_extensions" {
			continue
		}
		rest := parts[i+1:]
		switch len(rest) {
		case 1:
			return ID{Name: rest[0]}
		case 2:
			return ID{Owner: rest[0], Name: rest[1]}
		}
	}
	return ID{Name: filepath.Base(dir)}
}
