// SPDX-License-Identifier: MIT

// Package lsp implements the language server: document tracking, diagnostics
// publishing, completion and hover over Quarto configuration, markdown, and
// extension schema definition files.
package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/quarto-wizard/quarto-wizard/internal/schema"
)

// DocKind selects which providers apply to a document.
type DocKind int

const (
	// DocOther gets no diagnostics or completion.
	DocOther DocKind = iota
	// DocConfig is _quarto.yml/_quarto.yaml or _metadata.yml/_metadata.yaml.
	DocConfig
	// DocMarkdown is a .qmd document: front matter YAML plus inline markup.
	DocMarkdown
	// DocSchemaDef is a _schema.{yml,yaml,json} definition file.
	DocSchemaDef
)

// KindOf classifies a file path by the document selectors.
func KindOf(path string) DocKind {
	base := filepath.Base(path)
	switch base {
	case "_quarto.yml", "_quarto.yaml", "_metadata.yml", "_metadata.yaml":
		return DocConfig
	}
	if schema.IsDefinitionFile(path) {
		return DocSchemaDef
	}
	if strings.EqualFold(filepath.Ext(base), ".qmd") {
		return DocMarkdown
	}
	return DocOther
}

// Document is one tracked open document.
type Document struct {
	URI     protocol.DocumentUri
	Path    string
	Kind    DocKind
	Content string
	Version protocol.Integer
}

// Lines splits the content by newline. Carriage returns are trimmed so
// positions line up on CRLF documents.
func (d *Document) Lines() []string {
	lines := strings.Split(d.Content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Store tracks open documents keyed by URI.
type Store struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentUri]*Document
}

func NewStore() *Store {
	return &Store{docs: map[protocol.DocumentUri]*Document{}}
}

func (s *Store) Open(uri protocol.DocumentUri, content string, version protocol.Integer) *Document {
	doc := &Document{
		URI:     uri,
		Path:    PathFromURI(uri),
		Content: content,
		Version: version,
	}
	doc.Kind = KindOf(doc.Path)
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Update replaces the full content of a tracked document. Unknown URIs are
// tracked fresh, which covers clients that skip didOpen after a reload.
func (s *Store) Update(uri protocol.DocumentUri, content string, version protocol.Integer) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri, Path: PathFromURI(uri)}
		doc.Kind = KindOf(doc.Path)
		s.docs[uri] = doc
	}
	doc.Content = content
	doc.Version = version
	return doc
}

func (s *Store) Get(uri protocol.DocumentUri) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

func (s *Store) Close(uri protocol.DocumentUri) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// All returns a snapshot of the tracked documents.
func (s *Store) All() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	return out
}

// PathFromURI converts a file:// URI to a filesystem path. Non-file URIs
// come back as-is so KindOf classifies them as DocOther.
func PathFromURI(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}
	path := u.Path
	// Windows URIs carry a leading slash before the drive letter.
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

// URIFromPath converts a filesystem path to a file:// URI.
func URIFromPath(path string) protocol.DocumentUri {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return protocol.DocumentUri("file://" + p)
}
