// SPDX-License-Identifier: MIT

package extensions

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/quarto-wizard/quarto-wizard/internal/cache"
	"github.com/quarto-wizard/quarto-wizard/internal/schema"
)

// Snapshot is everything the index knows about one workspace: the installed
// extensions and the merged schema material their definition files provide.
type Snapshot struct {
	Extensions []Info

	// Options, Projects and ElementAttributes merge the corresponding
	// sections from every definition file. Later extensions win on key
	// collision, matching discovery order.
	Options           map[string]*schema.FieldDescriptor
	Projects          map[string]*schema.FieldDescriptor
	ElementAttributes map[string]*schema.FieldDescriptor
	Formats           map[string]map[string]*schema.FieldDescriptor
	Shortcodes        map[string]*schema.ShortcodeSchema

	// Definitions maps definition file path to its parsed schema, for
	// self-validation diagnostics on the files themselves.
	Definitions map[string]*schema.ExtensionSchema
}

// Index caches per-workspace snapshots. Concurrent lookups for the same
// workspace share one scan; entries expire after the cache TTL or when
// Invalidate is called (typically from a file watcher).
type Index struct {
	cache *cache.Keyed[*Snapshot]
	log   zerolog.Logger
}

func NewIndex(log zerolog.Logger) *Index {
	return &Index{
		cache: cache.New[*Snapshot](cache.DefaultTTL),
		log:   log,
	}
}

// Snapshot returns the cached snapshot for workspaceDir, scanning if needed.
func (ix *Index) Snapshot(ctx context.Context, workspaceDir string) (*Snapshot, error) {
	return ix.cache.Get(ctx, workspaceDir, func(ctx context.Context) (*Snapshot, error) {
		return ix.scan(workspaceDir)
	})
}

// Invalidate drops the cached snapshot for workspaceDir.
func (ix *Index) Invalidate(workspaceDir string) {
	ix.cache.Invalidate(workspaceDir)
}

// InvalidateAll drops every cached snapshot.
func (ix *Index) InvalidateAll() {
	ix.cache.InvalidateAll()
}

func (ix *Index) scan(workspaceDir string) (*Snapshot, error) {
	infos, err := Discover(workspaceDir)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Extensions:        infos,
		Options:           map[string]*schema.FieldDescriptor{},
		Projects:          map[string]*schema.FieldDescriptor{},
		ElementAttributes: map[string]*schema.FieldDescriptor{},
		Formats:           map[string]map[string]*schema.FieldDescriptor{},
		Shortcodes:        map[string]*schema.ShortcodeSchema{},
		Definitions:       map[string]*schema.ExtensionSchema{},
	}

	for _, info := range infos {
		for _, name := range schema.DefinitionFileNames {
			path := filepath.Join(info.Directory, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			s, err := schema.Load(path)
			if err != nil {
				ix.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable schema definition")
				continue
			}
			snap.Definitions[path] = s
			snap.merge(s)
		}
	}

	ix.log.Debug().
		Str("workspace", workspaceDir).
		Int("extensions", len(infos)).
		Int("definitions", len(snap.Definitions)).
		Msg("scanned workspace")
	return snap, nil
}

func (s *Snapshot) merge(def *schema.ExtensionSchema) {
	for k, v := range def.Options {
		s.Options[k] = v
	}
	for k, v := range def.Projects {
		s.Projects[k] = v
	}
	for k, v := range def.ElementAttributes {
		s.ElementAttributes[k] = v
	}
	for format, fields := range def.Formats {
		if s.Formats[format] == nil {
			s.Formats[format] = map[string]*schema.FieldDescriptor{}
		}
		for k, v := range fields {
			s.Formats[format][k] = v
		}
	}
	for k, v := range def.Shortcodes {
		s.Shortcodes[k] = v
	}
}

// Find returns the extension with the given id string, if installed.
func (s *Snapshot) Find(id string) (Info, bool) {
	for _, info := range s.Extensions {
		if info.ID.String() == id {
			return info, true
		}
	}
	return Info{}, false
}

// WorkspaceFor walks up from path looking for a directory containing
// _quarto.yml or an _extensions directory. Falls back to the file's own
// directory when no project marker is found.
func WorkspaceFor(path string) string {
	dir := filepath.Dir(path)
	for d := dir; ; {
		for _, marker := range []string{"_quarto.yml", "_quarto.yaml", "_extensions"} {
			if _, err := os.Stat(filepath.Join(d, marker)); err == nil {
				return d
			}
		}
		parent := filepath.Dir(d)
		if parent == d {
			return dir
		}
		d = parent
	}
}
