// SPDX-License-Identifier: MIT
package inline

import (
	"regexp"
	"strings"
)

// BlockKind distinguishes the two inline attribute syntaxes.
type BlockKind int

const (
	// KindElement is a Pandoc attribute block: {.class #id key=val}.
	KindElement BlockKind = iota
	// KindShortcode is a Quarto shortcode: {{< name ... >}}.
	KindShortcode
)

// BlockMatch is a located occurrence of inline attribute syntax. Offsets are
// absolute within the document text.
type BlockMatch struct {
	Kind          BlockKind
	Content       string
	ContentOffset int
	MatchStart    int
}

var headerPrefixRe = regexp.MustCompile(`^#{1,6}[ \t]+\S.*[ \t]$`)

// BlockAt locates the Pandoc attribute block enclosing offset, if any. The
// opening brace must sit in a recognised attribute position (after a span,
// link, code span, div marker, or header text); a lone brace in prose or YAML
// is rejected.
func BlockAt(text string, offset int) (BlockMatch, bool) {
	if offset < 0 || offset > len(text) {
		return BlockMatch{}, false
	}

	open := findOpenBrace(text, offset)
	if open < 0 || !validAttrContext(text, open) {
		return BlockMatch{}, false
	}

	end := findCloseBrace(text, open+1, lineEnd(text, offset))
	return BlockMatch{
		Kind:          KindElement,
		Content:       text[open+1 : end],
		ContentOffset: open + 1,
		MatchStart:    open,
	}, true
}

// findOpenBrace searches backward from offset for an unescaped, non-nested
// '{', tracking '}' depth so closed blocks between it and the cursor are
// skipped.
func findOpenBrace(text string, offset int) int {
	depth := 0
	for i := offset - 1; i >= 0; i-- {
		switch text[i] {
		case '\n':
			return -1
		case '}':
			depth++
		case '{':
			if i > 0 && text[i-1] == '\\' {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			return i
		}
	}
	return -1
}

// validAttrContext checks what precedes the opening brace at open.
func validAttrContext(text string, open int) bool {
	if open == 0 {
		return false
	}
	switch text[open-1] {
	case ']', ')', '`':
		return true
	}

	start := lineStart(text, open)
	line := text[start:open]

	// Div marker: three or more colons with only leading whitespace.
	colons := 0
	i := len(line)
	for i > 0 && line[i-1] == ' ' {
		i--
	}
	for i > 0 && line[i-1] == ':' {
		colons++
		i--
	}
	if colons >= 3 && strings.TrimSpace(line[:i]) == "" {
		return true
	}

	// ATX header with heading text followed by a space.
	return headerPrefixRe.MatchString(line)
}

// findCloseBrace finds the matching '}' from start, treating quoted
// substrings as opaque. An unclosed block ends at limit (the cursor's line
// end).
func findCloseBrace(text string, start, limit int) int {
	var quote byte
	for i := start; i < limit; i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '}':
			return i
		}
	}
	return limit
}

// ShortcodeAt locates the shortcode enclosing offset: the nearest "{{<"
// before the cursor that a prior ">}}" has not already closed.
func ShortcodeAt(text string, offset int) (BlockMatch, bool) {
	if offset < 0 || offset > len(text) {
		return BlockMatch{}, false
	}
	// Shortcodes are line-local; an unclosed "{{<" on an earlier line must
	// not capture the cursor.
	ls := lineStart(text, offset)
	before := text[:offset]
	open := strings.LastIndex(before, "{{<")
	if open < ls {
		return BlockMatch{}, false
	}
	if strings.Contains(before[open+3:], ">}}") {
		return BlockMatch{}, false
	}

	end := len(text)
	if j := findShortcodeClose(text, open+3); j >= 0 {
		end = j
	} else {
		end = lineEnd(text, offset)
	}
	return BlockMatch{
		Kind:          KindShortcode,
		Content:       text[open+3 : end],
		ContentOffset: open + 3,
		MatchStart:    open,
	}, true
}

// findShortcodeClose finds the ">}}" terminating a shortcode, skipping quoted
// substrings. Returns -1 if not found.
func findShortcodeClose(text string, start int) int {
	var quote byte
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '\n':
			return -1
		case c == '>' && strings.HasPrefix(text[i:], ">}}"):
			return i
		}
	}
	return -1
}

// Blocks scans whole document text for shortcodes and element attribute
// blocks, recomputed on every validation pass. keepLine filters by the line
// index of the match start (for fenced code exclusion); pass nil to keep all.
func Blocks(text string, keepLine func(int) bool) []BlockMatch {
	var out []BlockMatch
	line := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			line++
		case '{':
			if keepLine != nil && !keepLine(line) {
				continue
			}
			if i > 0 && text[i-1] == '\\' {
				continue
			}
			if strings.HasPrefix(text[i:], "{{<") {
				end := findShortcodeClose(text, i+3)
				if end < 0 {
					end = lineEnd(text, i)
				}
				out = append(out, BlockMatch{
					Kind:          KindShortcode,
					Content:       text[i+3 : end],
					ContentOffset: i + 3,
					MatchStart:    i,
				})
				i = end
				continue
			}
			if text[i] == '{' && i+1 < len(text) && text[i+1] == '{' {
				// Non-shortcode double brace; skip the pair.
				i++
				continue
			}
			if !validAttrContext(text, i) {
				continue
			}
			end := findCloseBrace(text, i+1, lineEnd(text, i))
			out = append(out, BlockMatch{
				Kind:          KindElement,
				Content:       text[i+1 : end],
				ContentOffset: i + 1,
				MatchStart:    i,
			})
			i = end
		}
	}
	return out
}

func lineStart(text string, offset int) int {
	i := strings.LastIndexByte(text[:offset], '\n')
	return i + 1
}

func lineEnd(text string, offset int) int {
	if offset >= len(text) {
		return len(text)
	}
	if i := strings.IndexByte(text[offset:], '\n'); i >= 0 {
		return offset + i
	}
	return len(text)
}
