// SPDX-License-Identifier: MIT
package validate

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/quarto-wizard/quarto-wizard/internal/schema"
)

// Document validates a parsed YAML document against a set of field
// descriptors, anchoring findings to node positions. Keys without a
// descriptor are skipped: extensions may legitimately add options this
// schema set does not know about. YAML syntax errors are another tool's
// concern and never surface here.
func Document(root *yaml.Node, fields map[string]*schema.FieldDescriptor) []DocumentFinding {
	mapping := mappingNode(root)
	if mapping == nil {
		return nil
	}
	return walkMapping(mapping, fields, "")
}

func mappingNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	return n
}

func walkMapping(mapping *yaml.Node, fields map[string]*schema.FieldDescriptor, path string) []DocumentFinding {
	var out []DocumentFinding

	present := map[string]bool{}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valNode := mapping.Content[i], mapping.Content[i+1]
		key := keyNode.Value
		present[key] = true

		d, ok := schema.LookupField(fields, key)
		if !ok {
			continue
		}
		out = append(out, checkNode(keyNode, valNode, key, joinPath(path, key), d)...)
	}

	// Required fields are checked at each mapping level where descriptors are
	// known; presence of any alias counts.
	for name, d := range fields {
		if !d.Required {
			continue
		}
		found := present[name]
		for _, a := range d.Aliases {
			found = found || present[a]
		}
		if !found {
			out = append(out, DocumentFinding{
				Finding: Finding{
					Message:  fmt.Sprintf("required key %q is missing", name),
					Severity: SeverityError,
					Code:     CodeRequired,
				},
				Path:   joinPath(path, name),
				Line:   mapping.Line,
				Column: mapping.Column,
			})
		}
	}
	return out
}

func checkNode(keyNode, valNode *yaml.Node, key, path string, d *schema.FieldDescriptor) []DocumentFinding {
	switch valNode.Kind {
	case yaml.MappingNode:
		var out []DocumentFinding
		if d.Deprecated != nil {
			out = append(out, anchor(Finding{
				Message:  d.Deprecated.Describe(key),
				Severity: SeverityWarning,
				Code:     CodeDeprecated,
			}, path, keyNode))
		}
		if len(d.Type) > 0 && !d.Type.Contains(schema.TypeObject) && !d.Type.Contains(schema.TypeContent) {
			out = append(out, anchor(Finding{
				Message:  fmt.Sprintf("%q expects %s, got a mapping", key, d.Type[0]),
				Severity: SeverityError,
				Code:     CodeType,
			}, path, valNode))
			return out
		}
		if len(d.Properties) > 0 {
			out = append(out, walkMapping(valNode, d.Properties, path)...)
		}
		return out

	case yaml.SequenceNode:
		var out []DocumentFinding
		if d.Deprecated != nil {
			out = append(out, anchor(Finding{
				Message:  d.Deprecated.Describe(key),
				Severity: SeverityWarning,
				Code:     CodeDeprecated,
			}, path, keyNode))
		}
		if len(d.Type) > 0 && !d.Type.Contains(schema.TypeArray) && !d.Type.Contains(schema.TypeContent) {
			out = append(out, anchor(Finding{
				Message:  fmt.Sprintf("%q expects %s, got a list", key, d.Type[0]),
				Severity: SeverityError,
				Code:     CodeType,
			}, path, valNode))
			return out
		}
		if f, failed := checkItems(key, len(valNode.Content), d); failed {
			out = append(out, anchor(f, path, valNode))
		}
		if d.Items != nil {
			for i, item := range valNode.Content {
				itemPath := fmt.Sprintf("%s[%d]", path, i)
				if item.Kind == yaml.MappingNode && len(d.Items.Properties) > 0 {
					out = append(out, walkMapping(item, d.Items.Properties, itemPath)...)
					continue
				}
				out = append(out, checkNode(item, item, key, itemPath, d.Items)...)
			}
		}
		return out

	default:
		var value any
		if err := valNode.Decode(&value); err != nil {
			// Undecodable scalars are left to YAML tooling.
			return nil
		}
		var out []DocumentFinding
		for _, f := range SingleValue(key, value, d) {
			node := valNode
			if f.Code == CodeDeprecated {
				node = keyNode
			}
			out = append(out, anchor(f, path, node))
		}
		return out
	}
}

func anchor(f Finding, path string, node *yaml.Node) DocumentFinding {
	return DocumentFinding{Finding: f, Path: path, Line: node.Line, Column: node.Column}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
