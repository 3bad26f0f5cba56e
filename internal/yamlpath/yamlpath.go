// SPDX-License-Identifier: MIT

// Package yamlpath resolves cursor positions in block-style YAML to key paths
// using an indentation stack. Flow-style mappings ({a: b}) are not parsed;
// Quarto configuration YAML is block style in practice.
package yamlpath

import (
	"regexp"
	"strings"
)

// listItemIndentWidth is the effective indent added by a "- " list prefix.
// List markers contribute no path segment, only indentation.
const listItemIndentWidth = 2

var keyLineRe = regexp.MustCompile(`^([^\s#:][^:]*?)\s*:(?:\s|$)`)

type frame struct {
	indent int
	key    string
}

// KeyPath returns the nested key names from the document root to the cursor's
// line, in root-to-leaf order. lines is the YAML body; cursorLine is an index
// into lines.
func KeyPath(lines []string, cursorLine int) []string {
	return KeyPathAt(lines, cursorLine, -1)
}

// KeyPathAt is KeyPath with an explicit cursor column. When the cursor's line
// is blank, frames at or beyond cursorIndent are popped so the path reflects
// where a new key typed at that column would nest. Pass cursorIndent < 0 to
// disable that adjustment.
func KeyPathAt(lines []string, cursorLine, cursorIndent int) []string {
	if cursorLine < 0 || cursorLine >= len(lines) {
		return nil
	}

	var stack []frame
	for i := 0; i <= cursorLine; i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := Indent(line)
		rest := line[indent:]
		if strings.HasPrefix(rest, "- ") {
			indent += listItemIndentWidth
			rest = rest[listItemIndentWidth:]
		} else if rest == "-" {
			continue
		}

		// Pop siblings and deeper levels.
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}

		m := keyLineRe.FindStringSubmatch(rest)
		if m == nil {
			continue
		}
		stack = append(stack, frame{indent: indent, key: strings.TrimSpace(m[1])})
	}

	if cursorIndent >= 0 && strings.TrimSpace(lines[cursorLine]) == "" {
		for len(stack) > 0 && stack[len(stack)-1].indent >= cursorIndent {
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) == 0 {
		return nil
	}
	keys := make([]string, len(stack))
	for i, f := range stack {
		keys[i] = f.key
	}
	return keys
}

// Indent returns the number of leading space characters in line.
func Indent(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

// KeyOnLine extracts the mapping key declared on line, if any, along with the
// column where the key starts.
func KeyOnLine(line string) (key string, col int, ok bool) {
	indent := Indent(line)
	rest := line[indent:]
	if strings.HasPrefix(rest, "- ") {
		indent += listItemIndentWidth
		rest = rest[listItemIndentWidth:]
	}
	m := keyLineRe.FindStringSubmatch(rest)
	if m == nil {
		return "", 0, false
	}
	return strings.TrimSpace(m[1]), indent, true
}
