// SPDX-License-Identifier: MIT
package validate

import (
	"fmt"
	"regexp"

	"github.com/quarto-wizard/quarto-wizard/internal/schema"
)

// Definition checks a schema definition for authoring mistakes: unknown type
// names, patterns that do not compile, inverted bounds, and a $schema value
// that names a different grammar version. These are warnings against the
// schema author's file, not document errors.
func Definition(s *schema.ExtensionSchema) []Finding {
	var out []Finding

	if s.SchemaURI != "" && s.SchemaURI != schema.VersionURI {
		out = append(out, Finding{
			Message:  fmt.Sprintf("$schema is %q; this tool understands %q", s.SchemaURI, schema.VersionURI),
			Severity: SeverityInformation,
			Code:     CodeSchemaDef,
		})
	}

	for name, d := range s.Options {
		out = append(out, checkDescriptor("options."+name, d)...)
	}
	for name, d := range s.Projects {
		out = append(out, checkDescriptor("projects."+name, d)...)
	}
	for format, fields := range s.Formats {
		for name, d := range fields {
			out = append(out, checkDescriptor(fmt.Sprintf("formats.%s.%s", format, name), d)...)
		}
	}
	for name, d := range s.ElementAttributes {
		out = append(out, checkDescriptor("elementAttributes."+name, d)...)
	}
	for name, sc := range s.Shortcodes {
		if sc == nil {
			continue
		}
		seen := map[string]bool{}
		for i, arg := range sc.Arguments {
			path := fmt.Sprintf("shortcodes.%s.arguments[%d]", name, i)
			if arg.Name != "" && seen[arg.Name] {
				out = append(out, Finding{
					Message:  fmt.Sprintf("%s: duplicate argument name %q", path, arg.Name),
					Severity: SeverityWarning,
					Code:     CodeSchemaDef,
				})
			}
			seen[arg.Name] = true
			out = append(out, checkDescriptor(path, arg)...)
		}
		for attr, d := range sc.Attributes {
			out = append(out, checkDescriptor(fmt.Sprintf("shortcodes.%s.attributes.%s", name, attr), d)...)
		}
	}
	return out
}

func checkDescriptor(path string, d *schema.FieldDescriptor) []Finding {
	if d == nil {
		return nil
	}
	var out []Finding

	for _, t := range d.Type {
		if !knownType(t) {
			out = append(out, Finding{
				Message:  fmt.Sprintf("%s: unknown type %q", path, t),
				Severity: SeverityWarning,
				Code:     CodeSchemaDef,
			})
		}
	}

	if d.Pattern != "" {
		if _, err := regexp.Compile(d.Pattern); err != nil {
			out = append(out, Finding{
				Message:  fmt.Sprintf("%s: pattern does not compile: %v", path, err),
				Severity: SeverityWarning,
				Code:     CodeSchemaDef,
			})
		}
	}

	if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
		out = append(out, boundsFinding(path, "min", "max"))
	}
	if d.MinLength != nil && d.MaxLength != nil && *d.MinLength > *d.MaxLength {
		out = append(out, boundsFinding(path, "minLength", "maxLength"))
	}
	if d.MinItems != nil && d.MaxItems != nil && *d.MinItems > *d.MaxItems {
		out = append(out, boundsFinding(path, "minItems", "maxItems"))
	}

	if len(d.Enum) > 0 && d.Const != nil {
		out = append(out, Finding{
			Message:  fmt.Sprintf("%s: enum and const are mutually exclusive", path),
			Severity: SeverityWarning,
			Code:     CodeSchemaDef,
		})
	}

	for name, child := range d.Properties {
		out = append(out, checkDescriptor(path+".properties."+name, child)...)
	}
	if d.Items != nil {
		out = append(out, checkDescriptor(path+".items", d.Items)...)
	}
	return out
}

func boundsFinding(path, lo, hi string) Finding {
	return Finding{
		Message:  fmt.Sprintf("%s: %s is greater than %s", path, lo, hi),
		Severity: SeverityWarning,
		Code:     CodeSchemaDef,
	}
}

func knownType(t string) bool {
	for _, k := range schema.KnownTypes {
		if t == k {
			return true
		}
	}
	return false
}
