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
	"github.com/quarto-wizard/quarto-wizard/internal/testutil/golden"
)

func newTestHoverer(t *testing.T) *Hoverer {
	t.Helper()
	return NewHoverer(extensions.NewIndex(zerolog.Nop()), zerolog.Nop())
}

func hoverText(t *testing.T, h *protocol.Hover) string {
	t.Helper()
	require.NotNil(t, h)
	mc, ok := h.Contents.(protocol.MarkupContent)
	require.True(t, ok)
	return mc.Value
}

func TestHoverConfigKey(t *testing.T) {
	dir := testWorkspace(t)
	h := newTestHoverer(t)

	doc := testDoc(filepath.Join(dir, "_quarto.yml"), "modal:\n  size: large\n")
	// Cursor on "size".
	got := h.Hover(context.Background(), doc, protocol.Position{Line: 1, Character: 3})

	text := hoverText(t, got)
	assert.Contains(t, text, "**size**")
	assert.Contains(t, text, "Dialog size preset")
	assert.Contains(t, text, "small")
}

func TestHoverOffKeyReturnsNil(t *testing.T) {
	dir := testWorkspace(t)
	h := newTestHoverer(t)

	doc := testDoc(filepath.Join(dir, "_quarto.yml"), "modal:\n  size: large\n")
	// Cursor on the value, not the key.
	got := h.Hover(context.Background(), doc, protocol.Position{Line: 1, Character: 12})
	assert.Nil(t, got)
}

func TestHoverUnknownKeyReturnsNil(t *testing.T) {
	dir := testWorkspace(t)
	h := newTestHoverer(t)

	doc := testDoc(filepath.Join(dir, "_quarto.yml"), "mystery: 1\n")
	got := h.Hover(context.Background(), doc, protocol.Position{Line: 0, Character: 2})
	assert.Nil(t, got)
}

func TestHoverShortcodeName(t *testing.T) {
	dir := testWorkspace(t)
	h := newTestHoverer(t)

	doc := testDoc(filepath.Join(dir, "index.qmd"), "{{< modal small >}}\n")
	got := h.Hover(context.Background(), doc, protocol.Position{Line: 0, Character: 6})

	text := hoverText(t, got)
	assert.Contains(t, text, "Render a modal dialog")
	assert.Contains(t, text, "`size`")
}

func TestHoverInlineAttribute(t *testing.T) {
	dir := testWorkspace(t)
	h := newTestHoverer(t)

	doc := testDoc(filepath.Join(dir, "index.qmd"), "Hello [world]{bc=blue}\n")
	got := h.Hover(context.Background(), doc, protocol.Position{Line: 0, Character: 15})

	text := hoverText(t, got)
	assert.Contains(t, text, "**bc**")
	assert.Contains(t, text, "blue")
}

func TestDescriptorCardGolden(t *testing.T) {
	dir := golden.TestdataDir(t)
	d := &schema.FieldDescriptor{
		Type:        schema.TypeList{"string"},
		Description: "Dialog size preset",
		Required:    true,
		Default:     "medium",
		Enum:        []any{"small", "medium", "large"},
		Aliases:     []string{"dialog-size"},
		Deprecated:  &schema.Deprecation{Since: "1.2", Message: "use scale instead"},
	}

	got := descriptorCard("size", d)
	if *golden.Update {
		golden.Write(t, dir, "descriptor_card", got)
	}
	assert.Equal(t, golden.Read(t, dir, "descriptor_card"), got)
}

func TestShortcodeCardGolden(t *testing.T) {
	dir := golden.TestdataDir(t)
	sc := &schema.ShortcodeSchema{
		Description: "Render a modal dialog",
		Arguments: []*schema.FieldDescriptor{
			{Name: "size", Type: schema.TypeList{"string"}, Description: "Size preset"},
		},
	}

	got := shortcodeCard("modal", sc)
	if *golden.Update {
		golden.Write(t, dir, "shortcode_card", got)
	}
	assert.Equal(t, golden.Read(t, dir, "shortcode_card"), got)
}

func TestHoverFrontMatterKey(t *testing.T) {
	dir := testWorkspace(t)
	h := newTestHoverer(t)

	content := "---\nmodal:\n  size: large\n---\n"
	doc := testDoc(filepath.Join(dir, "index.qmd"), content)
	got := h.Hover(context.Background(), doc, protocol.Position{Line: 2, Character: 3})

	assert.Contains(t, hoverText(t, got), "**size**")
}
