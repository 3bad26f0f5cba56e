// SPDX-License-Identifier: MIT
package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSchema = `
$schema: "https://quarto-wizard.github.io/schemas/extension-schema.v1.json"
options:
  size:
    type: string
    enum: [small, medium, large]
    enumCaseInsensitive: true
    default: medium
    aliases: [dialog-size]
  width:
    type: [number, string]
    min: 0
    max: 100
  legacy-mode:
    type: boolean
    deprecated:
      since: "1.2"
      message: no longer needed
      replaceWith: mode
  tags:
    type: array
    items:
      type: string
      maxLength: 16
formats:
  html:
    toc:
      type: boolean
shortcodes:
  modal:
    description: Render a modal dialog
    arguments:
      - name: id
        type: string
        required: true
    attributes:
      size:
        type: string
        enum: [small, large]
elementAttributes:
  data-theme:
    type: string
    pattern: "^[a-z-]+$"
    patternExact: true
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleSchema))
	require.NoError(t, err)

	assert.Equal(t, VersionURI, s.SchemaURI)

	size := s.Options["size"]
	require.NotNil(t, size)
	assert.Equal(t, TypeList{"string"}, size.Type)
	assert.Equal(t, []string{"small", "medium", "large"}, size.EnumStrings())
	assert.True(t, size.EnumCaseInsensitive)
	assert.Equal(t, "medium", size.Default)
	assert.Equal(t, []string{"dialog-size"}, size.Aliases)

	width := s.Options["width"]
	require.NotNil(t, width)
	assert.Equal(t, TypeList{"number", "string"}, width.Type)
	require.NotNil(t, width.Min)
	assert.Equal(t, 0.0, *width.Min)

	legacy := s.Options["legacy-mode"]
	require.NotNil(t, legacy)
	require.NotNil(t, legacy.Deprecated)
	assert.Equal(t, "1.2", legacy.Deprecated.Since)
	assert.Equal(t, "mode", legacy.Deprecated.ReplaceWith)

	tags := s.Options["tags"]
	require.NotNil(t, tags)
	require.NotNil(t, tags.Items)
	require.NotNil(t, tags.Items.MaxLength)
	assert.Equal(t, 16, *tags.Items.MaxLength)

	modal := s.Shortcodes["modal"]
	require.NotNil(t, modal)
	require.Len(t, modal.Arguments, 1)
	assert.Equal(t, "id", modal.Arguments[0].Name)
	assert.True(t, modal.Arguments[0].Required)

	theme := s.ElementAttributes["data-theme"]
	require.NotNil(t, theme)
	assert.True(t, theme.PatternExact)
}

func TestParseDeprecationSpellings(t *testing.T) {
	s, err := Parse([]byte("options:\n  a:\n    deprecated: true\n  b:\n    deprecated: use c instead\n"))
	require.NoError(t, err)
	require.NotNil(t, s.Options["a"].Deprecated)
	assert.Empty(t, s.Options["a"].Deprecated.Message)
	require.NotNil(t, s.Options["b"].Deprecated)
	assert.Equal(t, "use c instead", s.Options["b"].Deprecated.Message)
}

func TestParseJSONDefinition(t *testing.T) {
	s, err := Parse([]byte(`{"options": {"size": {"type": "string", "enum": ["a", "b"]}}}`))
	require.NoError(t, err)
	require.NotNil(t, s.Options["size"])
	assert.Equal(t, []string{"a", "b"}, s.Options["size"].EnumStrings())
}

func TestLookupFieldAliasAware(t *testing.T) {
	fields := map[string]*FieldDescriptor{
		"size": {Aliases: []string{"dialog-size"}},
	}
	d, ok := LookupField(fields, "dialog-size")
	require.True(t, ok)
	assert.Same(t, fields["size"], d)

	_, ok = LookupField(fields, "nope")
	assert.False(t, ok)
}

func TestHasSiblingManifest(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "_schema.yml")
	require.NoError(t, os.WriteFile(schemaPath, []byte("options: {}\n"), 0o644))

	assert.False(t, HasSiblingManifest(schemaPath), "schema without manifest is inert")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "_extension.yml"), []byte("title: x\n"), 0o644))
	assert.True(t, HasSiblingManifest(schemaPath))
}

func TestIsDefinitionFile(t *testing.T) {
	assert.True(t, IsDefinitionFile("/a/b/_schema.yml"))
	assert.True(t, IsDefinitionFile("_schema.json"))
	assert.False(t, IsDefinitionFile("schema.yml"))
	assert.False(t, IsDefinitionFile("/a/_quarto.yml"))
}
