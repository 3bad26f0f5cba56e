// SPDX-License-Identifier: MIT
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/quarto-wizard/quarto-wizard/internal/schema"
)

// maxPatternLength caps descriptor-supplied regex size as a ReDoS mitigation.
const maxPatternLength = 1024

// InlineValue validates a raw attribute string against a descriptor. Checks
// run in order (deprecation, type, enum, range, pattern, length) and stop at
// the first failure so one broken value does not produce redundant noise.
// Deprecation is independent of validity and always reported.
func InlineValue(key, raw string, d *schema.FieldDescriptor) []Finding {
	var out []Finding
	if d.Deprecated != nil {
		out = append(out, Finding{
			Message:  d.Deprecated.Describe(key),
			Severity: SeverityWarning,
			Code:     CodeDeprecated,
		})
	}

	num := parseFinite(raw)

	if len(d.Type) > 0 {
		first, any := firstRepresentable(d.Type)
		if first == "" {
			// A union of purely non-inline-representable types (array,
			// object, content) cannot be checked against a string.
			return out
		}
		if !any || !coercesAny(raw, d.Type) {
			out = append(out, Finding{
				Message:  fmt.Sprintf("%q is not a valid %s for %q", raw, first, key),
				Severity: SeverityError,
				Code:     CodeType,
			})
			return out
		}
	}

	if f, failed := checkEnum(key, raw, d); failed {
		return append(out, f)
	}
	if num != nil {
		// Inline descriptors use the inclusive bounds only; exclusive bounds
		// belong to the typed validator.
		if f, failed := checkRange(key, *num, d, false); failed {
			return append(out, f)
		}
	}
	if f, failed := checkPattern(key, raw, d); failed {
		return append(out, f)
	}
	if f, failed := checkLength(key, len(raw), d); failed {
		return append(out, f)
	}
	return out
}

// firstRepresentable returns the first inline-representable member of a type
// union and whether the union has any at all.
func firstRepresentable(types schema.TypeList) (first string, ok bool) {
	for _, t := range types {
		switch t {
		case schema.TypeString, schema.TypeNumber, schema.TypeBoolean:
			return t, true
		}
	}
	return "", false
}

// coercesAny reports whether raw coerces to at least one representable member
// of the union. Which member "wins" on conflicting constraints is an
// implementation choice, not a contract.
func coercesAny(raw string, types schema.TypeList) bool {
	for _, t := range types {
		switch t {
		case schema.TypeString:
			return true
		case schema.TypeNumber:
			if parseFinite(raw) != nil {
				return true
			}
		case schema.TypeBoolean:
			if strings.EqualFold(raw, "true") || strings.EqualFold(raw, "false") {
				return true
			}
		}
	}
	return false
}

func parseFinite(raw string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

func checkEnum(key, raw string, d *schema.FieldDescriptor) (Finding, bool) {
	members := d.EnumStrings()
	if len(members) == 0 {
		return Finding{}, false
	}
	for _, m := range members {
		if m == raw || (d.EnumCaseInsensitive && strings.EqualFold(m, raw)) {
			return Finding{}, false
		}
	}
	return Finding{
		Message:  fmt.Sprintf("%q is not one of [%s] for %q", raw, strings.Join(members, ", "), key),
		Severity: SeverityError,
		Code:     CodeEnum,
	}, true
}

func checkRange(key string, v float64, d *schema.FieldDescriptor, exclusive bool) (Finding, bool) {
	switch {
	case d.Min != nil && v < *d.Min:
		return rangeFinding(key, fmt.Sprintf("%v is below the minimum %v", v, *d.Min)), true
	case d.Max != nil && v > *d.Max:
		return rangeFinding(key, fmt.Sprintf("%v is above the maximum %v", v, *d.Max)), true
	case exclusive && d.ExclusiveMin != nil && v <= *d.ExclusiveMin:
		return rangeFinding(key, fmt.Sprintf("%v must be greater than %v", v, *d.ExclusiveMin)), true
	case exclusive && d.ExclusiveMax != nil && v >= *d.ExclusiveMax:
		return rangeFinding(key, fmt.Sprintf("%v must be less than %v", v, *d.ExclusiveMax)), true
	}
	return Finding{}, false
}

func rangeFinding(key, msg string) Finding {
	return Finding{
		Message:  fmt.Sprintf("%s for %q", msg, key),
		Severity: SeverityError,
		Code:     CodeRange,
	}
}

func checkPattern(key, raw string, d *schema.FieldDescriptor) (Finding, bool) {
	if d.Pattern == "" || len(d.Pattern) > maxPatternLength {
		return Finding{}, false
	}
	pattern := d.Pattern
	if d.PatternExact {
		pattern = "^(?:" + pattern + ")$"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		// A broken pattern is a schema-authoring bug, not a document error.
		return Finding{}, false
	}
	if re.MatchString(raw) {
		return Finding{}, false
	}
	return Finding{
		Message:  fmt.Sprintf("%q does not match the pattern %q for %q", raw, d.Pattern, key),
		Severity: SeverityError,
		Code:     CodePattern,
	}, true
}

func checkLength(key string, length int, d *schema.FieldDescriptor) (Finding, bool) {
	switch {
	case d.MinLength != nil && length < *d.MinLength:
		return Finding{
			Message:  fmt.Sprintf("value for %q is shorter than %d characters", key, *d.MinLength),
			Severity: SeverityError,
			Code:     CodeLength,
		}, true
	case d.MaxLength != nil && length > *d.MaxLength:
		return Finding{
			Message:  fmt.Sprintf("value for %q is longer than %d characters", key, *d.MaxLength),
			Severity: SeverityError,
			Code:     CodeLength,
		}, true
	}
	return Finding{}, false
}
