// SPDX-License-Identifier: MIT

package lsp

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gopkg.in/yaml.v3"

	"github.com/quarto-wizard/quarto-wizard/internal/extensions"
	"github.com/quarto-wizard/quarto-wizard/internal/inline"
	"github.com/quarto-wizard/quarto-wizard/internal/schema"
	"github.com/quarto-wizard/quarto-wizard/internal/validate"
	"github.com/quarto-wizard/quarto-wizard/internal/yamlpath"
)

const diagnosticSource = "quarto-wizard"

// Engine computes the diagnostic set for a document. It is the error
// boundary for validation: lookup or parse failures degrade to an empty
// result and a logged warning, never an error to the client.
type Engine struct {
	index *extensions.Index
	log   zerolog.Logger
}

func NewEngine(index *extensions.Index, log zerolog.Logger) *Engine {
	return &Engine{index: index, log: log}
}

// Diagnose returns the full diagnostic set for doc. The returned slice is
// never nil so publishing always replaces the previous set.
func (e *Engine) Diagnose(ctx context.Context, doc *Document) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}

	snap, err := e.index.Snapshot(ctx, extensions.WorkspaceFor(doc.Path))
	if err != nil {
		e.log.Warn().Err(err).Str("path", doc.Path).Msg("schema lookup failed, skipping validation pass")
		return diags
	}

	switch doc.Kind {
	case DocConfig:
		diags = append(diags, e.diagnoseConfig(doc, snap)...)
	case DocMarkdown:
		diags = append(diags, e.diagnoseMarkdown(doc, snap)...)
	case DocSchemaDef:
		diags = append(diags, e.diagnoseSchemaDef(doc)...)
	}
	return diags
}

// configFields is the root field set for configuration YAML: the merged
// option descriptors, plus a synthetic "project" object wrapping the project
// descriptors when any extension contributes them.
func configFields(snap *extensions.Snapshot) map[string]*schema.FieldDescriptor {
	fields := make(map[string]*schema.FieldDescriptor, len(snap.Options)+1)
	for k, v := range snap.Options {
		fields[k] = v
	}
	if len(snap.Projects) > 0 {
		fields["project"] = &schema.FieldDescriptor{
			Type:       schema.TypeList{schema.TypeObject},
			Properties: snap.Projects,
		}
	}
	return fields
}

func (e *Engine) diagnoseConfig(doc *Document, snap *extensions.Snapshot) []protocol.Diagnostic {
	return e.diagnoseYAML(doc.Content, 0, configFields(snap))
}

func (e *Engine) diagnoseYAML(content string, lineOffset int, fields map[string]*schema.FieldDescriptor) []protocol.Diagnostic {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		// Malformed YAML is other tooling's concern.
		return nil
	}

	var out []protocol.Diagnostic
	for _, f := range validate.Document(&root, fields) {
		line := protocol.UInteger(f.Line - 1 + lineOffset)
		col := protocol.UInteger(f.Column - 1)
		out = append(out, diagnostic(f.Finding, protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: col + 1},
		}))
	}
	return out
}

func (e *Engine) diagnoseMarkdown(doc *Document, snap *extensions.Snapshot) []protocol.Diagnostic {
	lines := doc.Lines()
	var out []protocol.Diagnostic

	fm, hasFM := yamlpath.FrontMatter(lines)
	if hasFM {
		body := strings.Join(lines[fm.Start:fm.End], "\n")
		out = append(out, e.diagnoseYAML(body, fm.Start, configFields(snap))...)
	}

	fences := yamlpath.Fences(lines)
	keep := func(line int) bool {
		if hasFM && fm.Contains(line) {
			return false
		}
		return !yamlpath.InFence(fences, line)
	}

	pos := newLineTable(doc.Content)
	for _, block := range inline.Blocks(doc.Content, keep) {
		switch block.Kind {
		case inline.KindElement:
			out = append(out, e.diagnoseElement(block, snap, pos)...)
		case inline.KindShortcode:
			out = append(out, e.diagnoseShortcode(block, snap, pos)...)
		}
	}
	return out
}

func (e *Engine) diagnoseElement(block inline.BlockMatch, snap *extensions.Snapshot, pos *lineTable) []protocol.Diagnostic {
	var out []protocol.Diagnostic

	for _, se := range inline.FindSpacedEquals(block.Content) {
		out = append(out, diagnostic(validate.Finding{
			Message:  fmt.Sprintf("remove spaces around `=` for attribute %q (use %s)", se.Key, se.Replacement),
			Severity: validate.SeverityWarning,
			Code:     validate.CodeEqualsSpacing,
		}, pos.rangeOf(block.ContentOffset+se.Start, block.ContentOffset+se.End)))
	}

	for _, tok := range inline.Tokenize(block.Content) {
		if tok.Kind != inline.TokenAttr {
			continue
		}
		d, ok := schema.LookupField(snap.ElementAttributes, tok.Key)
		if !ok {
			continue
		}
		r := pos.rangeOf(block.ContentOffset+tok.Start, block.ContentOffset+tok.End)
		if kv, ok := inline.FindKeyValueOffset(block.Content, tok.Key); ok && kv.ValueEnd > kv.ValueStart {
			r = pos.rangeOf(block.ContentOffset+kv.ValueStart, block.ContentOffset+kv.ValueEnd)
		}
		for _, f := range validate.InlineValue(tok.Key, tok.Value, d) {
			out = append(out, diagnostic(f, r))
		}
	}
	return out
}

func (e *Engine) diagnoseShortcode(block inline.BlockMatch, snap *extensions.Snapshot, pos *lineTable) []protocol.Diagnostic {
	toks := inline.Tokenize(block.Content)
	if len(toks) == 0 || toks[0].Kind != inline.TokenWord {
		return nil
	}
	sc, ok := snap.Shortcodes[toks[0].Text]
	if !ok {
		return nil
	}

	var out []protocol.Diagnostic
	argIndex := 0
	for _, tok := range toks[1:] {
		r := pos.rangeOf(block.ContentOffset+tok.Start, block.ContentOffset+tok.End)
		switch tok.Kind {
		case inline.TokenWord:
			if argIndex >= len(sc.Arguments) {
				out = append(out, diagnostic(validate.Finding{
					Message:  fmt.Sprintf("shortcode %q takes %d positional arguments", toks[0].Text, len(sc.Arguments)),
					Severity: validate.SeverityWarning,
					Code:     validate.CodeUnknownArg,
				}, r))
			} else {
				d := sc.Arguments[argIndex]
				for _, f := range validate.InlineValue(d.Name, tok.Text, d) {
					out = append(out, diagnostic(f, r))
				}
			}
			argIndex++
		case inline.TokenAttr:
			d, ok := schema.LookupField(sc.Attributes, tok.Key)
			if !ok {
				continue
			}
			for _, f := range validate.InlineValue(tok.Key, tok.Value, d) {
				out = append(out, diagnostic(f, r))
			}
		}
	}
	return out
}

// diagnoseSchemaDef self-validates a schema definition file. A definition
// without a sibling extension manifest is inert and produces nothing.
func (e *Engine) diagnoseSchemaDef(doc *Document) []protocol.Diagnostic {
	if !schema.HasSiblingManifest(doc.Path) {
		return nil
	}
	s, err := schema.Parse([]byte(doc.Content))
	if err != nil {
		return nil
	}

	var out []protocol.Diagnostic
	for _, f := range validate.Definition(s) {
		out = append(out, diagnostic(f, protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 1},
		}))
	}
	return out
}

func diagnostic(f validate.Finding, r protocol.Range) protocol.Diagnostic {
	sev := severityOf(f.Severity)
	src := diagnosticSource
	d := protocol.Diagnostic{
		Range:    r,
		Severity: &sev,
		Message:  f.Message,
		Source:   &src,
	}
	if f.Code != "" {
		d.Code = &protocol.IntegerOrString{Value: f.Code}
	}
	return d
}

func severityOf(s validate.Severity) protocol.DiagnosticSeverity {
	switch s {
	case validate.SeverityError:
		return protocol.DiagnosticSeverityError
	case validate.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

// lineTable maps byte offsets in a document to protocol positions.
type lineTable struct {
	starts []int
}

func newLineTable(text string) *lineTable {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineTable{starts: starts}
}

func (t *lineTable) position(offset int) protocol.Position {
	line := 0
	for line+1 < len(t.starts) && t.starts[line+1] <= offset {
		line++
	}
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(offset - t.starts[line]),
	}
}

func (t *lineTable) rangeOf(start, end int) protocol.Range {
	return protocol.Range{Start: t.position(start), End: t.position(end)}
}
