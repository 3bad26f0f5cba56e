// SPDX-License-Identifier: MIT

// Package inline parses Pandoc attribute blocks ({...}) and Quarto shortcodes
// ({{< ... >}}) out of document text: locating block bounds around a cursor,
// tokenising block content, and mapping keys and arguments back to exact
// character offsets for diagnostics.
package inline

import "strings"

// TokenKind classifies one token of attribute or shortcode content.
type TokenKind int

const (
	// TokenWord is a bare word: a positional argument or a shortcode name.
	TokenWord TokenKind = iota
	// TokenClass is a .name class selector.
	TokenClass
	// TokenID is a #name identifier.
	TokenID
	// TokenAttr is a key=value pair, quoted or bare.
	TokenAttr
	// TokenKeyOnly is a trailing key= awaiting its value.
	TokenKeyOnly
)

// Token is one tokenised unit of block content. Start and End are offsets
// relative to the content string.
type Token struct {
	Kind   TokenKind
	Text   string
	Key    string
	Value  string
	Quoted bool
	Start  int
	End    int
}

// Tokenize splits attribute or shortcode content into tokens. Whitespace
// separates tokens except inside quoted substrings, where backslash escapes
// are honoured.
func Tokenize(content string) []Token {
	var out []Token
	i := 0
	for i < len(content) {
		if content[i] == ' ' || content[i] == '\t' {
			i++
			continue
		}
		start := i
		i = scanToken(content, i)
		out = append(out, classify(content[start:i], start))
	}
	return out
}

// scanToken advances past one token starting at i, treating quoted substrings
// as opaque.
func scanToken(s string, i int) int {
	var quote byte
	for i < len(s) {
		c := s[i]
		if quote != 0 {
			if c == '\\' && i+1 < len(s) {
				i += 2
				continue
			}
			if c == quote {
				quote = 0
			}
			i++
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			i++
			continue
		}
		if c == ' ' || c == '\t' {
			return i
		}
		i++
	}
	return i
}

func classify(text string, start int) Token {
	tok := Token{Text: text, Start: start, End: start + len(text)}

	switch {
	case strings.HasPrefix(text, "."):
		tok.Kind = TokenClass
		tok.Value = text[1:]
		return tok
	case strings.HasPrefix(text, "#"):
		tok.Kind = TokenID
		tok.Value = text[1:]
		return tok
	}

	eq := unquotedIndex(text, '=')
	if eq <= 0 {
		tok.Kind = TokenWord
		tok.Value, tok.Quoted = unquote(text)
		return tok
	}

	tok.Key = text[:eq]
	raw := text[eq+1:]
	if raw == "" {
		tok.Kind = TokenKeyOnly
		return tok
	}
	tok.Kind = TokenAttr
	tok.Value, tok.Quoted = unquote(raw)
	return tok
}

// unquotedIndex returns the index of the first c outside quoted substrings,
// or -1.
func unquotedIndex(s string, c byte) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		switch {
		case quote != 0:
			if s[i] == '\\' {
				i++
			} else if s[i] == quote {
				quote = 0
			}
		case s[i] == '"' || s[i] == '\'':
			quote = s[i]
		case s[i] == c:
			return i
		}
	}
	return -1
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		inner := s[1 : len(s)-1]
		if strings.Contains(inner, `\`) {
			var b strings.Builder
			for i := 0; i < len(inner); i++ {
				if inner[i] == '\\' && i+1 < len(inner) {
					i++
				}
				b.WriteByte(inner[i])
			}
			inner = b.String()
		}
		return inner, true
	}
	return s, false
}

// CursorKind classifies what the cursor is positioned to complete inside a
// shortcode.
type CursorKind int

const (
	// CursorName means the shortcode name itself is being typed.
	CursorName CursorKind = iota
	// CursorArgument means the cursor sits after whitespace, ready for a new
	// positional argument or attribute key.
	CursorArgument
	// CursorAttributeKey means a bare token after the name is mid-completion.
	CursorAttributeKey
	// CursorAttributeValue means the value of Key is being typed.
	CursorAttributeValue
)

// Cursor describes the completion context at a relative offset inside
// shortcode content.
type Cursor struct {
	Kind CursorKind
	Key  string
	Word string
}

// ShortcodeCursor derives the cursor context from the content before rel. A
// trailing space means a fresh token position; otherwise the cursor is
// completing the token it touches.
func ShortcodeCursor(content string, rel int) Cursor {
	if rel < 0 {
		rel = 0
	}
	if rel > len(content) {
		rel = len(content)
	}
	before := content[:rel]

	trimmed := strings.TrimSpace(before)
	if trimmed == "" {
		return Cursor{Kind: CursorName}
	}

	toks := Tokenize(before)
	last := toks[len(toks)-1]

	// Trailing whitespace outside a quote means a fresh token position; an
	// open quote keeps the last token extending to the cursor.
	if last.End < len(before) {
		return Cursor{Kind: CursorArgument}
	}

	if len(toks) == 1 {
		return Cursor{Kind: CursorName, Word: last.Text}
	}
	switch last.Kind {
	case TokenAttr, TokenKeyOnly:
		return Cursor{Kind: CursorAttributeValue, Key: last.Key, Word: last.Value}
	default:
		return Cursor{Kind: CursorAttributeKey, Word: last.Text}
	}
}

// AttrCursor derives the cursor context inside an attribute block. Unlike
// shortcodes there is no name token, so the first token is already an
// attribute position.
func AttrCursor(content string, rel int) Cursor {
	if rel < 0 {
		rel = 0
	}
	if rel > len(content) {
		rel = len(content)
	}
	before := content[:rel]

	if strings.TrimSpace(before) == "" {
		return Cursor{Kind: CursorArgument}
	}

	toks := Tokenize(before)
	last := toks[len(toks)-1]
	if last.End < len(before) {
		return Cursor{Kind: CursorArgument}
	}

	switch last.Kind {
	case TokenAttr, TokenKeyOnly:
		return Cursor{Kind: CursorAttributeValue, Key: last.Key, Word: last.Value}
	default:
		return Cursor{Kind: CursorAttributeKey, Word: last.Text}
	}
}
