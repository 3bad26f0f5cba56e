// SPDX-License-Identifier: MIT
package schema

// ContextKind classifies what part of the schema-definition grammar a cursor
// position occupies. The enum is closed: providers switch exhaustively and a
// new grammar position must be added here first.
type ContextKind int

const (
	// ContextNone means no fixed schema applies at the cursor (for example a
	// user-defined name slot such as the children of "options").
	ContextNone ContextKind = iota
	// ContextRoot is the top level of a definition file.
	ContextRoot
	// ContextFieldDescriptor is inside a field descriptor mapping.
	ContextFieldDescriptor
	// ContextShortcodeEntry is directly inside a shortcodes.<name> mapping.
	ContextShortcodeEntry
	// ContextValue is the value position of a key with enumerable values.
	ContextValue
)

// ValueType names the value grammar for ContextValue positions.
type ValueType string

const (
	// ValueTypeName completes the known descriptor type names.
	ValueTypeName ValueType = "type"
	// ValueBoolean completes true/false.
	ValueBoolean ValueType = "boolean"
	// ValueSchemaURI completes the fixed $schema version URI.
	ValueSchemaURI ValueType = "schema-uri"
)

// Context is the classification result: a tagged variant over
// root | field-descriptor | shortcode-entry | value, with ContextNone for
// positions where no schema applies.
type Context struct {
	Kind ContextKind
	// AllowName is set on field-descriptor contexts that may carry a "name"
	// property (shortcode argument descriptors only).
	AllowName bool
	// ValueType is set on ContextValue.
	ValueType ValueType
}

// booleanFlagKeys are descriptor properties whose values complete as booleans.
var booleanFlagKeys = map[string]bool{
	"required":            true,
	"deprecated":          true,
	"enumCaseInsensitive": true,
	"patternExact":        true,
}

// Classify maps a key path in a schema definition file to its grammar
// context. valuePosition selects the value-side rules for the path's last
// segment.
func Classify(path []string, valuePosition bool) Context {
	if valuePosition {
		return classifyValue(path)
	}
	return classifyKey(path)
}

func classifyKey(path []string) Context {
	if len(path) == 0 {
		return Context{Kind: ContextRoot}
	}

	switch path[0] {
	case "options", "projects", "elementAttributes":
		if len(path) == 1 {
			return Context{Kind: ContextNone}
		}
		return descend(path[2:], false)
	case "formats":
		// formats.<fmt>.<name>.<rest...>
		if len(path) <= 2 {
			return Context{Kind: ContextNone}
		}
		return descend(path[3:], false)
	case "shortcodes":
		return classifyShortcode(path[1:])
	}
	return Context{Kind: ContextNone}
}

func classifyShortcode(path []string) Context {
	switch len(path) {
	case 0:
		return Context{Kind: ContextNone}
	case 1:
		return Context{Kind: ContextShortcodeEntry}
	}

	switch path[1] {
	case "attributes":
		// shortcodes.<name>.attributes.<attr>.<rest...>
		if len(path) == 2 {
			return Context{Kind: ContextNone}
		}
		return descend(path[3:], false)
	case "arguments":
		// Argument descriptors are list entries; the list marker contributes
		// no segment. They may carry a "name" property.
		return descend(path[2:], true)
	}
	return Context{Kind: ContextNone}
}

// descend walks the structural tail of a descriptor path: "items" descends
// one level into the same descriptor grammar; "properties" with a following
// segment skips both; "properties" as the final segment lands on a
// user-defined child name, where no fixed schema applies.
func descend(rest []string, allowName bool) Context {
	i := 0
	for i < len(rest) {
		switch rest[i] {
		case "items":
			i++
		case "properties":
			if i == len(rest)-1 {
				return Context{Kind: ContextNone}
			}
			i += 2
		default:
			return Context{Kind: ContextFieldDescriptor, AllowName: allowName}
		}
	}
	return Context{Kind: ContextFieldDescriptor, AllowName: allowName}
}

func classifyValue(path []string) Context {
	if len(path) == 1 && path[0] == "$schema" {
		return Context{Kind: ContextValue, ValueType: ValueSchemaURI}
	}
	if len(path) == 0 {
		return Context{Kind: ContextNone}
	}

	parent := classifyKey(path[: len(path)-1 : len(path)-1])
	if parent.Kind != ContextFieldDescriptor {
		return Context{Kind: ContextNone}
	}

	key := path[len(path)-1]
	switch {
	case key == "type":
		return Context{Kind: ContextValue, ValueType: ValueTypeName}
	case booleanFlagKeys[key]:
		return Context{Kind: ContextValue, ValueType: ValueBoolean}
	}
	return Context{Kind: ContextNone}
}
