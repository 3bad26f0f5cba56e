// SPDX-License-Identifier: MIT

// Package schema defines the extension schema model: field descriptors
// declaring the contract of Quarto extension configuration keys, loaded from
// _schema.yml/_schema.json files shipped inside extensions.
package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Type names a descriptor may declare.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeContent = "content"
)

// KnownTypes lists every recognised type name, in completion order.
var KnownTypes = []string{TypeString, TypeNumber, TypeBoolean, TypeArray, TypeObject, TypeContent}

// VersionURI is the fixed value of the $schema key in definition files.
const VersionURI = "https://quarto-wizard.github.io/schemas/extension-schema.v1.json"

// TypeList is a descriptor's type: a single scalar name or a union of names.
// In YAML it may be written as a scalar or a sequence.
type TypeList []string

// UnmarshalYAML accepts both `type: string` and `type: [number, string]`.
func (t *TypeList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*t = TypeList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = TypeList(list)
		return nil
	default:
		return fmt.Errorf("line %d: type must be a name or list of names", node.Line)
	}
}

// Contains reports whether the list names typ.
func (t TypeList) Contains(typ string) bool {
	for _, v := range t {
		if v == typ {
			return true
		}
	}
	return false
}

// Deprecation marks a field as deprecated. In YAML it may be a boolean, a
// bare message string, or a {since, message, replaceWith} mapping.
type Deprecation struct {
	Since       string `yaml:"since"`
	Message     string `yaml:"message"`
	ReplaceWith string `yaml:"replaceWith"`
}

// UnmarshalYAML accepts the three deprecation spellings.
func (d *Deprecation) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var b bool
		if err := node.Decode(&b); err == nil {
			if !b {
				return fmt.Errorf("line %d: deprecated: false is meaningless; omit the key", node.Line)
			}
			return nil
		}
		var msg string
		if err := node.Decode(&msg); err != nil {
			return err
		}
		d.Message = msg
		return nil
	}

	type plain Deprecation
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = Deprecation(p)
	return nil
}

// Describe renders the deprecation as a user-facing message.
func (d *Deprecation) Describe(key string) string {
	msg := fmt.Sprintf("%q is deprecated", key)
	if d.Since != "" {
		msg += " since " + d.Since
	}
	if d.Message != "" {
		msg += ": " + d.Message
	}
	if d.ReplaceWith != "" {
		msg += fmt.Sprintf(" (use %q instead)", d.ReplaceWith)
	}
	return msg
}

// FieldDescriptor declares one configuration key's contract. A descriptor
// with Properties describes a nested mapping; one with Items describes an
// array whose elements each satisfy the item descriptor. Descriptors are
// immutable for the duration of a validation pass.
type FieldDescriptor struct {
	// Name is only meaningful on shortcode argument descriptors.
	Name        string   `yaml:"name,omitempty"`
	Type        TypeList `yaml:"type,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Required    bool     `yaml:"required,omitempty"`
	Default     any      `yaml:"default,omitempty"`

	Enum                []any  `yaml:"enum,omitempty"`
	EnumCaseInsensitive bool   `yaml:"enumCaseInsensitive,omitempty"`
	Pattern             string `yaml:"pattern,omitempty"`
	PatternExact        bool   `yaml:"patternExact,omitempty"`

	Min          *float64 `yaml:"min,omitempty"`
	Max          *float64 `yaml:"max,omitempty"`
	ExclusiveMin *float64 `yaml:"exclusiveMinimum,omitempty"`
	ExclusiveMax *float64 `yaml:"exclusiveMaximum,omitempty"`
	MinLength    *int     `yaml:"minLength,omitempty"`
	MaxLength    *int     `yaml:"maxLength,omitempty"`
	MinItems     *int     `yaml:"minItems,omitempty"`
	MaxItems     *int     `yaml:"maxItems,omitempty"`
	Const        any      `yaml:"const,omitempty"`

	Aliases    []string     `yaml:"aliases,omitempty"`
	Deprecated *Deprecation `yaml:"deprecated,omitempty"`

	Properties map[string]*FieldDescriptor `yaml:"properties,omitempty"`
	Items      *FieldDescriptor            `yaml:"items,omitempty"`

	// Completion lists suggested values beyond what Enum implies.
	Completion []string `yaml:"completion,omitempty"`
}

// EnumStrings returns the enum members rendered as strings, for comparison
// against inline (string-typed) values.
func (d *FieldDescriptor) EnumStrings() []string {
	if len(d.Enum) == 0 {
		return nil
	}
	out := make([]string, len(d.Enum))
	for i, v := range d.Enum {
		out[i] = fmt.Sprintf("%v", v)
	}
	return out
}

// Matches reports whether key names this descriptor directly or through an
// alias.
func (d *FieldDescriptor) Matches(name, key string) bool {
	if key == name {
		return true
	}
	for _, a := range d.Aliases {
		if key == a {
			return true
		}
	}
	return false
}

// ShortcodeSchema declares a shortcode's contract: ordered positional
// arguments and named attributes.
type ShortcodeSchema struct {
	Description string                      `yaml:"description,omitempty"`
	Arguments   []*FieldDescriptor          `yaml:"arguments,omitempty"`
	Attributes  map[string]*FieldDescriptor `yaml:"attributes,omitempty"`
}

// ExtensionSchema is the root of a schema definition file.
type ExtensionSchema struct {
	SchemaURI         string                                 `yaml:"$schema,omitempty"`
	Options           map[string]*FieldDescriptor            `yaml:"options,omitempty"`
	Projects          map[string]*FieldDescriptor            `yaml:"projects,omitempty"`
	Formats           map[string]map[string]*FieldDescriptor `yaml:"formats,omitempty"`
	Shortcodes        map[string]*ShortcodeSchema            `yaml:"shortcodes,omitempty"`
	ElementAttributes map[string]*FieldDescriptor            `yaml:"elementAttributes,omitempty"`
}

// LookupField finds a descriptor by key among fields, alias-aware.
func LookupField(fields map[string]*FieldDescriptor, key string) (*FieldDescriptor, bool) {
	if d, ok := fields[key]; ok {
		return d, true
	}
	for name, d := range fields {
		if d.Matches(name, key) {
			return d, true
		}
	}
	return nil, false
}
