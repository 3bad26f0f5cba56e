// SPDX-License-Identifier: MIT
package inline

import "strings"

// KeyValueOffset anchors one key=value pair inside block content. All offsets
// are relative to the content string. Value offsets exclude surrounding
// quotes; Token offsets cover the pair exactly as written.
type KeyValueOffset struct {
	KeyStart   int
	KeyEnd     int
	ValueStart int
	ValueEnd   int
	TokenStart int
	TokenEnd   int
}

// FindKeyValueOffset locates the key=value (or key=) pair for key, skipping
// .class and #id prefixes and treating quoted substrings as opaque.
func FindKeyValueOffset(content, key string) (KeyValueOffset, bool) {
	for _, tok := range Tokenize(content) {
		if tok.Kind != TokenAttr && tok.Kind != TokenKeyOnly {
			continue
		}
		if tok.Key != key {
			continue
		}
		kv := KeyValueOffset{
			KeyStart:   tok.Start,
			KeyEnd:     tok.Start + len(tok.Key),
			TokenStart: tok.Start,
			TokenEnd:   tok.End,
		}
		valStart := kv.KeyEnd + 1 // past '='
		valEnd := tok.End
		if tok.Quoted {
			valStart++
			valEnd--
		}
		if tok.Kind == TokenKeyOnly {
			valEnd = valStart
		}
		kv.ValueStart = valStart
		kv.ValueEnd = valEnd
		return kv, true
	}
	return KeyValueOffset{}, false
}

// FindArgumentOffset locates the index-th bare-word token (0-based) in block
// content. Class, id, and key=value tokens do not count as arguments. For
// shortcodes the first word is the name, so callers pass index+1.
func FindArgumentOffset(content string, index int) (start, end int, ok bool) {
	n := 0
	for _, tok := range Tokenize(content) {
		if tok.Kind != TokenWord {
			continue
		}
		if n == index {
			return tok.Start, tok.End, true
		}
		n++
	}
	return 0, 0, false
}

// SpacedEquals flags whitespace around '=' in a key/value pair, which Pandoc
// and Quarto parse as separate tokens rather than an attribute. The range
// covers the key through the space before the value, so replacing it with
// Replacement repairs the pair.
type SpacedEquals struct {
	Start       int
	End         int
	Key         string
	Replacement string
}

// FindSpacedEquals scans block content for key = value patterns.
func FindSpacedEquals(content string) []SpacedEquals {
	toks := Tokenize(content)
	var out []SpacedEquals

	for i, tok := range toks {
		if i+1 >= len(toks) {
			break
		}
		next := toks[i+1]

		// "bc = value" and "bc =value": a bare word followed by a token
		// beginning with '='.
		if tok.Kind == TokenWord && !strings.Contains(tok.Text, "=") && strings.HasPrefix(next.Text, "=") {
			valStart := next.Start + 1
			if next.Text == "=" {
				if i+2 < len(toks) {
					valStart = toks[i+2].Start
				} else {
					valStart = next.End
				}
			}
			out = append(out, SpacedEquals{
				Start:       tok.Start,
				End:         valStart,
				Key:         tok.Text,
				Replacement: tok.Text + "=",
			})
			continue
		}

		// "bc= value": a dangling key= followed by a bare value.
		if tok.Kind == TokenKeyOnly && next.Kind == TokenWord {
			out = append(out, SpacedEquals{
				Start:       tok.Start,
				End:         next.Start,
				Key:         tok.Key,
				Replacement: tok.Key + "=",
			})
		}
	}
	return out
}
