// SPDX-License-Identifier: MIT

package lsp

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/quarto-wizard/quarto-wizard/internal/extensions"
	"github.com/quarto-wizard/quarto-wizard/internal/inline"
	"github.com/quarto-wizard/quarto-wizard/internal/schema"
	"github.com/quarto-wizard/quarto-wizard/internal/yamlpath"
)

// Hoverer serves hover requests with descriptor documentation cards.
type Hoverer struct {
	index *extensions.Index
	log   zerolog.Logger
}

func NewHoverer(index *extensions.Index, log zerolog.Logger) *Hoverer {
	return &Hoverer{index: index, log: log}
}

// Hover returns the documentation card for the symbol under the cursor, or
// nil when nothing is known there.
func (h *Hoverer) Hover(ctx context.Context, doc *Document, pos protocol.Position) *protocol.Hover {
	snap, err := h.index.Snapshot(ctx, extensions.WorkspaceFor(doc.Path))
	if err != nil {
		h.log.Warn().Err(err).Str("path", doc.Path).Msg("schema lookup failed, no hover")
		return nil
	}

	switch doc.Kind {
	case DocConfig:
		return h.hoverYAML(doc.Lines(), pos, configFields(snap))
	case DocMarkdown:
		lines := doc.Lines()
		if fm, ok := yamlpath.FrontMatter(lines); ok && fm.Contains(int(pos.Line)) {
			return h.hoverYAML(lines, pos, configFields(snap))
		}
		return h.hoverInline(doc, pos, snap)
	}
	return nil
}

func (h *Hoverer) hoverYAML(lines []string, pos protocol.Position, fields map[string]*schema.FieldDescriptor) *protocol.Hover {
	line := int(pos.Line)
	if line >= len(lines) {
		return nil
	}
	key, col, ok := yamlpath.KeyOnLine(lines[line])
	if !ok || int(pos.Character) < col || int(pos.Character) > col+len(key) {
		return nil
	}

	path := yamlpath.KeyPath(lines, line)
	d := resolveDescriptor(fields, path)
	if d == nil {
		return nil
	}
	return markdownHover(descriptorCard(key, d), &protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)},
		End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col + len(key))},
	})
}

func (h *Hoverer) hoverInline(doc *Document, pos protocol.Position, snap *extensions.Snapshot) *protocol.Hover {
	offset := offsetAt(doc.Content, pos)

	if sc, ok := inline.ShortcodeAt(doc.Content, offset); ok {
		rel := offset - sc.ContentOffset
		for _, tok := range inline.Tokenize(sc.Content) {
			if rel < tok.Start || rel > tok.End {
				continue
			}
			if tok.Kind == inline.TokenWord && tok.Start == firstWordStart(sc.Content) {
				if def, ok := snap.Shortcodes[tok.Text]; ok {
					return markdownHover(shortcodeCard(tok.Text, def), nil)
				}
				return nil
			}
			if tok.Kind == inline.TokenAttr || tok.Kind == inline.TokenKeyOnly {
				name := shortcodeName(sc.Content)
				def, ok := snap.Shortcodes[name]
				if !ok {
					return nil
				}
				if d, ok := schema.LookupField(def.Attributes, tok.Key); ok {
					return markdownHover(descriptorCard(tok.Key, d), nil)
				}
			}
			return nil
		}
		return nil
	}

	if blk, ok := inline.BlockAt(doc.Content, offset); ok {
		rel := offset - blk.ContentOffset
		for _, tok := range inline.Tokenize(blk.Content) {
			if rel < tok.Start || rel > tok.End {
				continue
			}
			if tok.Kind != inline.TokenAttr && tok.Kind != inline.TokenKeyOnly {
				return nil
			}
			if d, ok := schema.LookupField(snap.ElementAttributes, tok.Key); ok {
				return markdownHover(descriptorCard(tok.Key, d), nil)
			}
			return nil
		}
	}
	return nil
}

func firstWordStart(content string) int {
	for _, tok := range inline.Tokenize(content) {
		if tok.Kind == inline.TokenWord {
			return tok.Start
		}
	}
	return -1
}

// descriptorCard renders a field descriptor as a markdown documentation card.
func descriptorCard(key string, d *schema.FieldDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", key)
	if t := strings.Join(d.Type, " | "); t != "" {
		fmt.Fprintf(&b, " `%s`", t)
	}
	if d.Required {
		b.WriteString(" *(required)*")
	}
	b.WriteString("\n")

	if d.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Description)
	}
	if len(d.Enum) > 0 {
		fmt.Fprintf(&b, "\nAllowed values: `%s`\n", strings.Join(d.EnumStrings(), "`, `"))
	}
	if d.Default != nil {
		fmt.Fprintf(&b, "\nDefault: `%s`\n", valueLabel(d.Default))
	}
	if len(d.Aliases) > 0 {
		fmt.Fprintf(&b, "\nAliases: `%s`\n", strings.Join(d.Aliases, "`, `"))
	}
	if d.Deprecated != nil {
		fmt.Fprintf(&b, "\n*%s*\n", d.Deprecated.Describe(key))
	}
	return b.String()
}

func shortcodeCard(name string, sc *schema.ShortcodeSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**{{< %s >}}**\n", name)
	if sc.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", sc.Description)
	}
	if len(sc.Arguments) > 0 {
		b.WriteString("\nArguments:\n")
		for _, arg := range sc.Arguments {
			fmt.Fprintf(&b, "- `%s`", arg.Name)
			if t := strings.Join(arg.Type, " | "); t != "" {
				fmt.Fprintf(&b, " (%s)", t)
			}
			if arg.Description != "" {
				fmt.Fprintf(&b, ": %s", arg.Description)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func markdownHover(value string, rng *protocol.Range) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
		Range: rng,
	}
}
