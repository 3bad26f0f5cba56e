// SPDX-License-Identifier: MIT

package lsp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/quarto-wizard/quarto-wizard/internal/extensions"
	"github.com/quarto-wizard/quarto-wizard/internal/schema"
)

func newTestCompleter(t *testing.T) *Completer {
	t.Helper()
	return NewCompleter(extensions.NewIndex(zerolog.Nop()), zerolog.Nop())
}

func labels(items []protocol.CompletionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func findItem(t *testing.T, items []protocol.CompletionItem, label string) protocol.CompletionItem {
	t.Helper()
	for _, it := range items {
		if it.Label == label {
			return it
		}
	}
	t.Fatalf("item %q not among %v", label, labels(items))
	return protocol.CompletionItem{}
}

func TestLocateYAML(t *testing.T) {
	lines := []string{"modal:", "  si"}
	spot := locateYAML(lines, protocol.Position{Line: 1, Character: 4})
	assert.False(t, spot.isValue)
	assert.Equal(t, []string{"modal"}, spot.parentPath)
	assert.Equal(t, "si", spot.word)

	lines = []string{"modal:", "  size: la"}
	spot = locateYAML(lines, protocol.Position{Line: 1, Character: 10})
	assert.True(t, spot.isValue)
	assert.Equal(t, "size", spot.key)
	assert.Equal(t, []string{"modal", "size"}, spot.fullPath)
	assert.Equal(t, "la", spot.word)

	// Blank line below a nested block: indentation picks the level.
	lines = []string{"modal:", "  size: large", ""}
	spot = locateYAML(lines, protocol.Position{Line: 2, Character: 2})
	assert.Equal(t, []string{"modal"}, spot.parentPath)
	assert.Contains(t, spot.siblings, "size")
}

func TestCompleteConfigKeys(t *testing.T) {
	dir := testWorkspace(t)
	c := newTestCompleter(t)

	doc := testDoc(filepath.Join(dir, "_quarto.yml"), "modal:\n  si")
	items := c.Complete(context.Background(), doc, protocol.Position{Line: 1, Character: 4})

	item := findItem(t, items, "size")
	require.NotNil(t, item.InsertText)
	assert.Equal(t, "size: ", *item.InsertText)
	require.NotNil(t, item.Command, "key with enum values should re-trigger suggest")
	assert.Equal(t, "editor.action.triggerSuggest", item.Command.Command)
}

func TestCompleteConfigKeysExcludesSiblings(t *testing.T) {
	dir := testWorkspace(t)
	c := newTestCompleter(t)

	doc := testDoc(filepath.Join(dir, "_quarto.yml"), "modal:\n  size: large\n  ")
	items := c.Complete(context.Background(), doc, protocol.Position{Line: 2, Character: 2})
	assert.NotContains(t, labels(items), "size")
}

func TestCompleteConfigValues(t *testing.T) {
	dir := testWorkspace(t)
	c := newTestCompleter(t)

	doc := testDoc(filepath.Join(dir, "_quarto.yml"), "modal:\n  size: ")
	items := c.Complete(context.Background(), doc, protocol.Position{Line: 1, Character: 8})
	assert.ElementsMatch(t, []string{"small", "medium", "large"}, labels(items))
}

func TestCompleteSchemaDef(t *testing.T) {
	dir := testWorkspace(t)
	c := newTestCompleter(t)
	path := filepath.Join(dir, "_extensions", "acme", "modal", "_schema.yml")

	// Root sections.
	doc := testDoc(path, "")
	items := c.Complete(context.Background(), doc, protocol.Position{Line: 0, Character: 0})
	assert.ElementsMatch(t,
		[]string{"$schema", "options", "projects", "formats", "shortcodes", "elementAttributes"},
		labels(items))

	// Descriptor properties under a user-named option.
	doc = testDoc(path, "options:\n  myField:\n    ")
	items = c.Complete(context.Background(), doc, protocol.Position{Line: 2, Character: 4})
	got := labels(items)
	assert.Contains(t, got, "type")
	assert.Contains(t, got, "enum")
	assert.NotContains(t, got, "name", "name is only for shortcode argument descriptors")

	typeItem := findItem(t, items, "type")
	require.NotNil(t, typeItem.Command)

	// Boolean flag value.
	doc = testDoc(path, "options:\n  myField:\n    required: ")
	items = c.Complete(context.Background(), doc, protocol.Position{Line: 2, Character: 14})
	assert.ElementsMatch(t, []string{"true", "false"}, labels(items))

	// Type names.
	doc = testDoc(path, "options:\n  myField:\n    type: ")
	items = c.Complete(context.Background(), doc, protocol.Position{Line: 2, Character: 10})
	assert.ElementsMatch(t, schema.KnownTypes, labels(items))

	// $schema URI.
	doc = testDoc(path, "$schema: ")
	items = c.Complete(context.Background(), doc, protocol.Position{Line: 0, Character: 9})
	assert.Equal(t, []string{schema.VersionURI}, labels(items))

	// Shortcode argument descriptors may carry "name".
	doc = testDoc(path, "shortcodes:\n  modal:\n    arguments:\n      - ")
	items = c.Complete(context.Background(), doc, protocol.Position{Line: 3, Character: 8})
	assert.Contains(t, labels(items), "name")
}

func TestCompleteSchemaDefWithoutManifest(t *testing.T) {
	dir := testWorkspace(t)
	c := newTestCompleter(t)

	path := filepath.Join(dir, "stray", "_schema.yml")
	writeFile(t, path, "")
	doc := testDoc(path, "")
	items := c.Complete(context.Background(), doc, protocol.Position{Line: 0, Character: 0})
	assert.Empty(t, items)
}

func TestCompleteInlineAttributeKey(t *testing.T) {
	dir := testWorkspace(t)
	c := newTestCompleter(t)

	content := "Hello [world]{b"
	doc := testDoc(filepath.Join(dir, "index.qmd"), content)
	items := c.Complete(context.Background(), doc, protocol.Position{Line: 0, Character: 15})

	item := findItem(t, items, "bc")
	require.NotNil(t, item.InsertText)
	assert.Equal(t, "bc=", *item.InsertText)
	require.NotNil(t, item.Command, "enum-valued attribute should re-trigger suggest")
}

func TestCompleteInlineAttributeValue(t *testing.T) {
	dir := testWorkspace(t)
	c := newTestCompleter(t)

	content := "Hello [world]{bc="
	doc := testDoc(filepath.Join(dir, "index.qmd"), content)
	items := c.Complete(context.Background(), doc, protocol.Position{Line: 0, Character: 17})
	assert.ElementsMatch(t, []string{"blue", "red"}, labels(items))
}

func TestCompleteShortcodeName(t *testing.T) {
	dir := testWorkspace(t)
	c := newTestCompleter(t)

	doc := testDoc(filepath.Join(dir, "index.qmd"), "{{< mo")
	items := c.Complete(context.Background(), doc, protocol.Position{Line: 0, Character: 6})

	item := findItem(t, items, "modal")
	require.NotNil(t, item.Kind)
	assert.Equal(t, protocol.CompletionItemKindFunction, *item.Kind)
}

func TestCompleteShortcodeAttribute(t *testing.T) {
	dir := testWorkspace(t)
	c := newTestCompleter(t)

	doc := testDoc(filepath.Join(dir, "index.qmd"), "{{< modal ti")
	items := c.Complete(context.Background(), doc, protocol.Position{Line: 0, Character: 12})
	assert.Contains(t, labels(items), "title")

	doc = testDoc(filepath.Join(dir, "index.qmd"), "{{< modal title=\"x\" ")
	items = c.Complete(context.Background(), doc, protocol.Position{Line: 0, Character: 20})
	assert.NotContains(t, labels(items), "title", "present attributes are excluded")
}

func TestCompleteFrontMatterUsesYAML(t *testing.T) {
	dir := testWorkspace(t)
	c := newTestCompleter(t)

	content := "---\nmodal:\n  si\n---\n"
	doc := testDoc(filepath.Join(dir, "index.qmd"), content)
	items := c.Complete(context.Background(), doc, protocol.Position{Line: 2, Character: 4})
	assert.Contains(t, labels(items), "size")
}
