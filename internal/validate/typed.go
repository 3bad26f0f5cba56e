// SPDX-License-Identifier: MIT
package validate

import (
	"fmt"
	"strings"

	"github.com/quarto-wizard/quarto-wizard/internal/schema"
)

// SingleValue validates an already-typed YAML value against a descriptor.
// It mirrors InlineValue's rule order but checks Go types instead of coercing
// strings, and additionally honours const and the exclusive numeric bounds.
func SingleValue(key string, value any, d *schema.FieldDescriptor) []Finding {
	var out []Finding
	if d.Deprecated != nil {
		out = append(out, Finding{
			Message:  d.Deprecated.Describe(key),
			Severity: SeverityWarning,
			Code:     CodeDeprecated,
		})
	}

	if len(d.Type) > 0 && !typeMatches(value, d.Type) {
		out = append(out, Finding{
			Message:  fmt.Sprintf("%q expects %s, got %s", key, strings.Join(d.Type, " or "), typeName(value)),
			Severity: SeverityError,
			Code:     CodeType,
		})
		return out
	}

	if d.Const != nil && !valueEqual(value, d.Const) {
		return append(out, Finding{
			Message:  fmt.Sprintf("%q must be %v", key, d.Const),
			Severity: SeverityError,
			Code:     CodeConst,
		})
	}

	if len(d.Enum) > 0 {
		if f, failed := checkEnum(key, valueString(value), d); failed {
			return append(out, f)
		}
	}

	if num, ok := numeric(value); ok {
		if f, failed := checkRange(key, num, d, true); failed {
			return append(out, f)
		}
	}

	if s, ok := value.(string); ok {
		if f, failed := checkPattern(key, s, d); failed {
			return append(out, f)
		}
		if f, failed := checkLength(key, len(s), d); failed {
			return append(out, f)
		}
	}

	if items, ok := value.([]any); ok {
		if f, failed := checkItems(key, len(items), d); failed {
			return append(out, f)
		}
	}
	return out
}

func checkItems(key string, n int, d *schema.FieldDescriptor) (Finding, bool) {
	switch {
	case d.MinItems != nil && n < *d.MinItems:
		return Finding{
			Message:  fmt.Sprintf("%q needs at least %d items, got %d", key, *d.MinItems, n),
			Severity: SeverityError,
			Code:     CodeItems,
		}, true
	case d.MaxItems != nil && n > *d.MaxItems:
		return Finding{
			Message:  fmt.Sprintf("%q allows at most %d items, got %d", key, *d.MaxItems, n),
			Severity: SeverityError,
			Code:     CodeItems,
		}, true
	}
	return Finding{}, false
}

func typeMatches(value any, types schema.TypeList) bool {
	for _, t := range types {
		switch t {
		case schema.TypeString:
			if _, ok := value.(string); ok {
				return true
			}
		case schema.TypeBoolean:
			if _, ok := value.(bool); ok {
				return true
			}
		case schema.TypeNumber:
			if _, ok := numeric(value); ok {
				return true
			}
		case schema.TypeArray:
			if _, ok := value.([]any); ok {
				return true
			}
		case schema.TypeObject:
			if _, ok := value.(map[string]any); ok {
				return true
			}
		case schema.TypeContent:
			// Content accepts any rendered value.
			return true
		}
	}
	return false
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	return 0, false
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return schema.TypeString
	case bool:
		return schema.TypeBoolean
	case int, int64, float32, float64:
		return schema.TypeNumber
	case []any:
		return schema.TypeArray
	case map[string]any:
		return schema.TypeObject
	}
	return fmt.Sprintf("%T", value)
}

// valueEqual compares scalars with numeric normalisation so 1 and 1.0 agree.
func valueEqual(a, b any) bool {
	if an, ok := numeric(a); ok {
		if bn, ok := numeric(b); ok {
			return an == bn
		}
		return false
	}
	return valueString(a) == valueString(b)
}

func valueString(v any) string {
	return fmt.Sprintf("%v", v)
}
