// SPDX-License-Identifier: MIT

package extensions

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher invalidates an Index when schema definitions or extension
// manifests change under a workspace.
type Watcher struct {
	fsw     *fsnotify.Watcher
	index   *Index
	log     zerolog.Logger
	done    chan struct{}
	onEvent func(workspaceDir string)

	// roots maps a watched dir to its workspace root. AddWorkspace writes
	// it on the caller's goroutine while run reads it on its own.
	mu    sync.Mutex
	roots map[string]string
}

// NewWatcher starts a watcher bound to index. onEvent, if non-nil, is called
// after each invalidation with the affected workspace root.
func NewWatcher(index *Index, log zerolog.Logger, onEvent func(workspaceDir string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{
		fsw:     fsw,
		index:   index,
		log:     log,
		done:    make(chan struct{}),
		roots:   map[string]string{},
		onEvent: onEvent,
	}
	go w.run()
	return w, nil
}

// AddWorkspace recursively watches workspaceDir. fsnotify does not watch
// recursively, so every directory is registered individually; newly created
// directories are picked up from create events in run.
func (w *Watcher) AddWorkspace(workspaceDir string) error {
	return filepath.WalkDir(workspaceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		w.setRoot(path, workspaceDir)
		return nil
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("file watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	base := filepath.Base(event.Name)

	if event.Op.Has(fsnotify.Create) {
		// New directories need their own watch to keep recursion alive.
		if root, ok := w.root(filepath.Dir(event.Name)); ok && !skipDirs[base] {
			if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
				if err := w.fsw.Add(event.Name); err == nil {
					w.setRoot(event.Name, root)
				}
			}
		}
	}

	if !relevantFile(base) {
		return
	}
	root, ok := w.root(filepath.Dir(event.Name))
	if !ok {
		return
	}
	w.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("schema change detected")
	w.index.Invalidate(root)
	if w.onEvent != nil {
		w.onEvent(root)
	}
}

func (w *Watcher) setRoot(dir, workspaceDir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.roots[dir] = workspaceDir
}

func (w *Watcher) root(dir string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	root, ok := w.roots[dir]
	return root, ok
}

// relevantFile reports whether a change to the named file can affect the
// schema index.
func relevantFile(base string) bool {
	switch base {
	case "_schema.yml", "_schema.yaml", "_schema.json",
		"_extension.yml", "_extension.yaml":
		return true
	}
	return false
}
