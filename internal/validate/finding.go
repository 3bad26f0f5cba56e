// SPDX-License-Identifier: MIT

// Package validate checks configuration values against field descriptors and
// produces typed findings. Findings are the intended output, not errors: they
// carry their own severity for editor display.
package validate

// Severity grades a finding for editor display.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInformation
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	}
	return "unknown"
}

// Finding codes, stable identifiers surfaced as diagnostic codes.
const (
	CodeDeprecated    = "deprecated"
	CodeType          = "type"
	CodeEnum          = "enum"
	CodeRange         = "range"
	CodePattern       = "pattern"
	CodeLength        = "length"
	CodeItems         = "items"
	CodeConst         = "const"
	CodeRequired      = "required"
	CodeEqualsSpacing = "equals-spacing"
	CodeSchemaDef     = "schema-definition"
	CodeUnknownArg    = "unknown-argument"
)

// Finding is one validation result for a single value.
type Finding struct {
	Message  string
	Severity Severity
	Code     string
}

// DocumentFinding anchors a finding to a position in a YAML document.
// Line and Column are 1-based, as reported by the YAML parser.
type DocumentFinding struct {
	Finding
	Path   string
	Line   int
	Column int
}
