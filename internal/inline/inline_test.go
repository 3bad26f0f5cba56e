// SPDX-License-Identifier: MIT
package inline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Token
	}{
		{
			name:    "shortcode content",
			content: `modal .lg #main size=large title="My Dialog"`,
			want: []Token{
				{Kind: TokenWord, Text: "modal", Value: "modal", Start: 0, End: 5},
				{Kind: TokenClass, Text: ".lg", Value: "lg", Start: 6, End: 9},
				{Kind: TokenID, Text: "#main", Value: "main", Start: 10, End: 15},
				{Kind: TokenAttr, Text: "size=large", Key: "size", Value: "large", Start: 16, End: 26},
				{Kind: TokenAttr, Text: `title="My Dialog"`, Key: "title", Value: "My Dialog", Quoted: true, Start: 27, End: 44},
			},
		},
		{
			name:    "key only",
			content: "size=",
			want: []Token{
				{Kind: TokenKeyOnly, Text: "size=", Key: "size", Start: 0, End: 5},
			},
		},
		{
			name:    "escaped quote in value",
			content: `msg="a \"b\" c"`,
			want: []Token{
				{Kind: TokenAttr, Text: `msg="a \"b\" c"`, Key: "msg", Value: `a "b" c`, Quoted: true, Start: 0, End: 15},
			},
		},
		{
			name:    "empty",
			content: "   ",
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.content))
		})
	}
}

func TestShortcodeCursor(t *testing.T) {
	content := `modal size=large title="My `

	tests := []struct {
		name string
		rel  int
		want Cursor
	}{
		{"typing name", 3, Cursor{Kind: CursorName, Word: "mod"}},
		{"after name space", 6, Cursor{Kind: CursorArgument}},
		{"mid attribute key", 8, Cursor{Kind: CursorAttributeKey, Word: "si"}},
		{"mid attribute value", 14, Cursor{Kind: CursorAttributeValue, Key: "size", Word: "lar"}},
		{"inside open quote with space", len(content), Cursor{Kind: CursorAttributeValue, Key: "title", Word: `"My `}},
		{"at start", 0, Cursor{Kind: CursorName}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortcodeCursor(content, tt.rel))
		})
	}
}

func TestAttrCursor(t *testing.T) {
	tests := []struct {
		name    string
		content string
		rel     int
		want    Cursor
	}{
		{"empty", "", 0, Cursor{Kind: CursorArgument}},
		{"first bare word is a key", "b", 1, Cursor{Kind: CursorAttributeKey, Word: "b"}},
		{"single key awaiting value", "bc=", 3, Cursor{Kind: CursorAttributeValue, Key: "bc"}},
		{"mid value", "bc=bl", 5, Cursor{Kind: CursorAttributeValue, Key: "bc", Word: "bl"}},
		{"after complete pair", "bc=blue ", 8, Cursor{Kind: CursorArgument}},
		{"class then key", ".note wi", 8, Cursor{Kind: CursorAttributeKey, Word: "wi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AttrCursor(tt.content, tt.rel))
		})
	}
}

func TestBlockAt(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		cursor  int
		want    string
		wantOK  bool
	}{
		{
			name:   "span attributes",
			text:   `[text]{.class key=val}`,
			cursor: 10,
			want:   ".class key=val",
			wantOK: true,
		},
		{
			name:   "code span attributes",
			text:   "`code`{.python}",
			cursor: 8,
			want:   ".python",
			wantOK: true,
		},
		{
			name:   "div attributes",
			text:   "::: {.callout}",
			cursor: 7,
			want:   ".callout",
			wantOK: true,
		},
		{
			name:   "header attributes",
			text:   "## Title {#sec-intro}",
			cursor: 12,
			want:   "#sec-intro",
			wantOK: true,
		},
		{
			name:   "brace in prose rejected",
			text:   "some {word} here",
			cursor: 7,
			wantOK: false,
		},
		{
			name:   "escaped brace rejected",
			text:   `[x]\{.a}`,
			cursor: 6,
			wantOK: false,
		},
		{
			name:   "closed block before cursor skipped",
			text:   `[a]{.x} plain`,
			cursor: 10,
			wantOK: false,
		},
		{
			name:   "unclosed block extends to line end",
			text:   "[text]{.cla\nnext line",
			cursor: 9,
			want:   ".cla",
			wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := BlockAt(tt.text, tt.cursor)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, m.Content)
				assert.Equal(t, KindElement, m.Kind)
			}
		})
	}
}

func TestShortcodeAt(t *testing.T) {
	text := `before {{< modal size=large >}} after`

	m, ok := ShortcodeAt(text, 15)
	require.True(t, ok)
	assert.Equal(t, KindShortcode, m.Kind)
	assert.Equal(t, " modal size=large ", m.Content)
	assert.Equal(t, 7, m.MatchStart)
	assert.Equal(t, 10, m.ContentOffset)

	// Past the closing delimiter there is no enclosing shortcode.
	_, ok = ShortcodeAt(text, 35)
	assert.False(t, ok)

	// Unclosed shortcode ends at the cursor's line end.
	m, ok = ShortcodeAt("{{< vid src=", 12)
	require.True(t, ok)
	assert.Equal(t, " vid src=", m.Content)

	// An unclosed opener on an earlier line does not capture the cursor.
	_, ok = ShortcodeAt("{{< vid src=\nplain prose", 20)
	assert.False(t, ok)
}

func TestBlocks(t *testing.T) {
	text := "[a]{.x}\n{{< video src=b >}}\nprose {not-attrs}"
	got := Blocks(text, nil)
	require.Len(t, got, 2)
	assert.Equal(t, KindElement, got[0].Kind)
	assert.Equal(t, ".x", got[0].Content)
	assert.Equal(t, KindShortcode, got[1].Kind)
	assert.Equal(t, " video src=b ", got[1].Content)
}

func TestBlocksLineFilter(t *testing.T) {
	text := "[a]{.x}\n[b]{.y}"
	got := Blocks(text, func(line int) bool { return line != 0 })
	require.Len(t, got, 1)
	assert.Equal(t, ".y", got[0].Content)
}

func TestFindKeyValueOffset(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
		token   string
		value   string
	}{
		{"bare value", ".lg size=large x=1", "size", "size=large", "large"},
		{"quoted value", `title="My Dialog"`, "title", `title="My Dialog"`, "My Dialog"},
		{"key only", "size=", "size", "size=", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, ok := FindKeyValueOffset(tt.content, tt.key)
			require.True(t, ok)

			// Round-trip: the token range reconstructs the pair as written.
			assert.Equal(t, tt.token, tt.content[kv.TokenStart:kv.TokenEnd])
			assert.Equal(t, tt.key, tt.content[kv.KeyStart:kv.KeyEnd])
			assert.Equal(t, tt.value, tt.content[kv.ValueStart:kv.ValueEnd])
		})
	}

	_, ok := FindKeyValueOffset("a=1", "missing")
	assert.False(t, ok)
}

func TestFindArgumentOffset(t *testing.T) {
	content := "modal .lg first key=v second"

	start, end, ok := FindArgumentOffset(content, 1)
	require.True(t, ok)
	assert.Equal(t, "first", content[start:end])

	start, end, ok = FindArgumentOffset(content, 2)
	require.True(t, ok)
	assert.Equal(t, "second", content[start:end])

	_, _, ok = FindArgumentOffset(content, 3)
	assert.False(t, ok)
}

func TestFindSpacedEquals(t *testing.T) {
	content := `bc = "blue"`
	got := FindSpacedEquals(content)
	require.Len(t, got, 1)
	assert.Equal(t, "bc=", got[0].Replacement)
	assert.Equal(t, "bc = ", content[got[0].Start:got[0].End])

	// Space only after '='.
	content = "bc= blue"
	got = FindSpacedEquals(content)
	require.Len(t, got, 1)
	assert.Equal(t, "bc= ", content[got[0].Start:got[0].End])

	// Well-formed pairs are untouched.
	assert.Empty(t, FindSpacedEquals(`a=1 b="x y" .cls`))
}

func TestFindSpacedEqualsInsideQuotesIgnored(t *testing.T) {
	// An '=' with spaces inside a quoted value is content, not syntax.
	assert.Empty(t, FindSpacedEquals(`msg="a = b"`))
}
