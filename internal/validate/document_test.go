// SPDX-License-Identifier: MIT
package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/quarto-wizard/quarto-wizard/internal/schema"
)

func parseDoc(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &node))
	return &node
}

func TestDocumentAnchorsFindings(t *testing.T) {
	fields := map[string]*schema.FieldDescriptor{
		"size":  {Type: schema.TypeList{"string"}, Enum: []any{"small", "large"}},
		"depth": {Type: schema.TypeList{"number"}, Min: fptr(1)},
	}

	doc := parseDoc(t, "size: huge\ndepth: 0\n")
	got := Document(doc, fields)
	require.Len(t, got, 2)

	assert.Equal(t, CodeEnum, got[0].Code)
	assert.Equal(t, "size", got[0].Path)
	assert.Equal(t, 1, got[0].Line)

	assert.Equal(t, CodeRange, got[1].Code)
	assert.Equal(t, "depth", got[1].Path)
	assert.Equal(t, 2, got[1].Line)
}

func TestDocumentNestedProperties(t *testing.T) {
	fields := map[string]*schema.FieldDescriptor{
		"modal": {
			Type: schema.TypeList{"object"},
			Properties: map[string]*schema.FieldDescriptor{
				"size": {Type: schema.TypeList{"string"}, Enum: []any{"small", "large"}},
			},
		},
	}

	doc := parseDoc(t, "modal:\n  size: tiny\n")
	got := Document(doc, fields)
	require.Len(t, got, 1)
	assert.Equal(t, CodeEnum, got[0].Code)
	assert.Equal(t, "modal.size", got[0].Path)
	assert.Equal(t, 2, got[0].Line)
}

func TestDocumentArrayItems(t *testing.T) {
	fields := map[string]*schema.FieldDescriptor{
		"tags": {
			Type:     schema.TypeList{"array"},
			MaxItems: iptr(2),
			Items:    &schema.FieldDescriptor{Type: schema.TypeList{"string"}},
		},
	}

	doc := parseDoc(t, "tags:\n  - ok\n  - 7\n  - extra\n")
	got := Document(doc, fields)
	require.Len(t, got, 2)
	assert.Equal(t, CodeItems, got[0].Code)
	assert.Equal(t, CodeType, got[1].Code)
	assert.Equal(t, "tags[1]", got[1].Path)
}

func TestDocumentUnknownKeysSkipped(t *testing.T) {
	fields := map[string]*schema.FieldDescriptor{
		"size": {Type: schema.TypeList{"string"}},
	}
	doc := parseDoc(t, "someone-elses-option: 42\nsize: fine\n")
	assert.Empty(t, Document(doc, fields))
}

func TestDocumentAliasesAndRequired(t *testing.T) {
	fields := map[string]*schema.FieldDescriptor{
		"size": {Type: schema.TypeList{"string"}, Aliases: []string{"dialog-size"}, Required: true},
	}

	// The alias satisfies both lookup and the required check.
	doc := parseDoc(t, "dialog-size: big\n")
	assert.Empty(t, Document(doc, fields))

	doc = parseDoc(t, "other: 1\n")
	got := Document(doc, fields)
	require.Len(t, got, 1)
	assert.Equal(t, CodeRequired, got[0].Code)
}

func TestDocumentNonMappingRoot(t *testing.T) {
	doc := parseDoc(t, "- a\n- b\n")
	assert.Empty(t, Document(doc, map[string]*schema.FieldDescriptor{"x": {}}))
	assert.Empty(t, Document(nil, nil))
}

func TestDefinition(t *testing.T) {
	s := &schema.ExtensionSchema{
		SchemaURI: "https://example.com/other.json",
		Options: map[string]*schema.FieldDescriptor{
			"bad-type":    {Type: schema.TypeList{"strnig"}},
			"bad-pattern": {Pattern: "("},
			"bad-bounds":  {Min: fptr(10), Max: fptr(1)},
			"fine":        {Type: schema.TypeList{"string"}},
		},
		Shortcodes: map[string]*schema.ShortcodeSchema{
			"modal": {
				Arguments: []*schema.FieldDescriptor{
					{Name: "id", Type: schema.TypeList{"string"}},
					{Name: "id", Type: schema.TypeList{"string"}},
				},
			},
		},
	}

	got := Definition(s)
	require.Len(t, got, 5, "expected $schema, type, pattern, bounds, and duplicate-argument findings: %+v", got)
	for _, f := range got {
		assert.Equal(t, CodeSchemaDef, f.Code)
	}
}

func TestDefinitionCleanSchema(t *testing.T) {
	s := &schema.ExtensionSchema{
		SchemaURI: schema.VersionURI,
		Options: map[string]*schema.FieldDescriptor{
			"size": {Type: schema.TypeList{"string"}, Enum: []any{"a", "b"}},
		},
	}
	assert.Empty(t, Definition(s))
}
