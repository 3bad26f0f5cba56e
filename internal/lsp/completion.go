// SPDX-License-Identifier: MIT

package lsp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/quarto-wizard/quarto-wizard/internal/extensions"
	"github.com/quarto-wizard/quarto-wizard/internal/inline"
	"github.com/quarto-wizard/quarto-wizard/internal/schema"
	"github.com/quarto-wizard/quarto-wizard/internal/yamlpath"
)

// retriggerCommand reopens the suggestion list after a key insert, so keys
// with known value completions flow straight into the value pick.
var retriggerCommand = protocol.Command{
	Title:   "Trigger Suggest",
	Command: "editor.action.triggerSuggest",
}

// rootSectionKeys are the fixed top-level keys of a schema definition file.
var rootSectionKeys = []string{
	"$schema", "options", "projects", "formats", "shortcodes", "elementAttributes",
}

// descriptorKeys are the properties a field descriptor may carry. "name" is
// appended only where argument descriptors are allowed.
var descriptorKeys = []string{
	"type", "description", "required", "default",
	"enum", "enumCaseInsensitive", "pattern", "patternExact",
	"min", "max", "exclusiveMinimum", "exclusiveMaximum",
	"minLength", "maxLength", "minItems", "maxItems",
	"const", "aliases", "deprecated", "properties", "items", "completion",
}

var shortcodeEntryKeys = []string{"description", "arguments", "attributes"}

// Completer serves completion requests. It is stateless per request and an
// error boundary: failures log and return no items.
type Completer struct {
	index *extensions.Index
	log   zerolog.Logger
}

func NewCompleter(index *extensions.Index, log zerolog.Logger) *Completer {
	return &Completer{index: index, log: log}
}

// Complete returns completion items for the cursor position in doc.
func (c *Completer) Complete(ctx context.Context, doc *Document, pos protocol.Position) []protocol.CompletionItem {
	snap, err := c.index.Snapshot(ctx, extensions.WorkspaceFor(doc.Path))
	if err != nil {
		c.log.Warn().Err(err).Str("path", doc.Path).Msg("schema lookup failed, no completions")
		return nil
	}

	switch doc.Kind {
	case DocConfig:
		return c.completeYAML(doc.Lines(), pos, configFields(snap))
	case DocSchemaDef:
		if !schema.HasSiblingManifest(doc.Path) {
			return nil
		}
		return c.completeSchemaDef(doc.Lines(), pos)
	case DocMarkdown:
		lines := doc.Lines()
		if fm, ok := yamlpath.FrontMatter(lines); ok && fm.Contains(int(pos.Line)) {
			return c.completeYAML(lines, pos, configFields(snap))
		}
		return c.completeInline(doc, pos, snap)
	}
	return nil
}

// yamlSpot is the parsed cursor situation inside YAML content.
type yamlSpot struct {
	parentPath []string
	fullPath   []string // parentPath plus the cursor line's key, values only
	key        string
	isValue    bool
	word       string
	siblings   []string
}

func locateYAML(lines []string, pos protocol.Position) yamlSpot {
	line := int(pos.Line)
	char := int(pos.Character)
	var cur string
	if line < len(lines) {
		cur = lines[line]
	}
	before := cur
	if char < len(cur) {
		before = cur[:char]
	}

	if key, col, ok := yamlpath.KeyOnLine(cur); ok && char > col+len(key) {
		word := strings.TrimSpace(before[strings.IndexByte(before, ':')+1:])
		return yamlSpot{
			fullPath: yamlpath.KeyPath(lines, line),
			key:      key,
			isValue:  true,
			word:     word,
		}
	}

	trimmed := strings.TrimLeft(before, " \t")
	trimmed = strings.TrimPrefix(trimmed, "- ")
	indent := cursorIndent(before)
	if strings.TrimSpace(cur) == "" {
		// On a blank line the text carries no indentation; the cursor
		// column is the indent the user is typing at.
		indent = char
	}

	blanked := make([]string, len(lines))
	copy(blanked, lines)
	if line < len(blanked) {
		blanked[line] = ""
	} else {
		line = len(blanked)
		blanked = append(blanked, "")
	}
	parent := yamlpath.KeyPathAt(blanked, line, indent)

	return yamlSpot{
		parentPath: parent,
		word:       strings.TrimSpace(trimmed),
		siblings:   siblingKeys(lines, line, indent),
	}
}

// cursorIndent is the effective indentation of the text being typed, with a
// list marker counted the way key-path resolution counts it.
func cursorIndent(before string) int {
	indent := 0
	for indent < len(before) && before[indent] == ' ' {
		indent++
	}
	rest := before[indent:]
	if strings.HasPrefix(rest, "- ") || rest == "-" {
		indent += 2
	}
	return indent
}

// siblingKeys collects keys that share the cursor's mapping block: adjacent
// key lines at exactly the cursor indent, bounded by any shallower key line.
func siblingKeys(lines []string, cursorLine, indent int) []string {
	var keys []string
	scan := func(i, step int) {
		for ; i >= 0 && i < len(lines); i += step {
			l := lines[i]
			if strings.TrimSpace(l) == "" {
				continue
			}
			e, content := effectiveIndent(l)
			if e < indent {
				return
			}
			if e > indent {
				continue
			}
			if key, _, ok := yamlpath.KeyOnLine(content); ok {
				keys = append(keys, key)
			}
		}
	}
	scan(cursorLine-1, -1)
	scan(cursorLine+1, 1)
	sort.Strings(keys)
	return keys
}

func effectiveIndent(line string) (int, string) {
	indent := yamlpath.Indent(line)
	content := line[indent:]
	if strings.HasPrefix(content, "- ") {
		return indent + 2, content[2:]
	}
	return indent, content
}

func (c *Completer) completeYAML(lines []string, pos protocol.Position, fields map[string]*schema.FieldDescriptor) []protocol.CompletionItem {
	spot := locateYAML(lines, pos)

	if spot.isValue {
		d := resolveDescriptor(fields, spot.fullPath)
		if d == nil {
			return nil
		}
		return valueItems(valueCandidates(d), spot.word)
	}

	level := resolveMapping(fields, spot.parentPath)
	if level == nil {
		return nil
	}
	var items []protocol.CompletionItem
	for _, name := range sortedKeys(level) {
		d := level[name]
		if siblingPresent(spot.siblings, name, d) {
			continue
		}
		if !matches(spot.word, name) {
			continue
		}
		items = append(items, keyItem(name, d, len(valueCandidates(d)) > 0))
	}
	return items
}

// resolveMapping walks fields down path to the mapping the cursor's siblings
// live in. An array descriptor is transparent: list entries complete against
// the item properties.
func resolveMapping(fields map[string]*schema.FieldDescriptor, path []string) map[string]*schema.FieldDescriptor {
	current := fields
	for _, seg := range path {
		d, ok := schema.LookupField(current, seg)
		if !ok {
			return nil
		}
		next := d.Properties
		if next == nil && d.Items != nil {
			next = d.Items.Properties
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

func resolveDescriptor(fields map[string]*schema.FieldDescriptor, path []string) *schema.FieldDescriptor {
	if len(path) == 0 {
		return nil
	}
	parent := resolveMapping(fields, path[:len(path)-1])
	if parent == nil {
		return nil
	}
	d, ok := schema.LookupField(parent, path[len(path)-1])
	if !ok {
		return nil
	}
	return d
}

// valueCandidates enumerates the completable values of a descriptor: enum
// members, the completion hints, and boolean literals for boolean fields.
func valueCandidates(d *schema.FieldDescriptor) []string {
	var out []string
	out = append(out, d.EnumStrings()...)
	out = append(out, d.Completion...)
	if d.Type.Contains(schema.TypeBoolean) {
		out = append(out, "true", "false")
	}
	if d.Const != nil && len(out) == 0 {
		out = append(out, valueLabel(d.Const))
	}
	return dedupe(out)
}

func valueLabel(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (c *Completer) completeSchemaDef(lines []string, pos protocol.Position) []protocol.CompletionItem {
	spot := locateYAML(lines, pos)

	if spot.isValue {
		vctx := schema.Classify(spot.fullPath, true)
		if vctx.Kind != schema.ContextValue {
			return nil
		}
		switch vctx.ValueType {
		case schema.ValueTypeName:
			return valueItems(schema.KnownTypes, spot.word)
		case schema.ValueBoolean:
			return valueItems([]string{"true", "false"}, spot.word)
		case schema.ValueSchemaURI:
			return valueItems([]string{schema.VersionURI}, spot.word)
		}
		return nil
	}

	kctx := schema.Classify(spot.parentPath, false)
	var names []string
	switch kctx.Kind {
	case schema.ContextRoot:
		names = rootSectionKeys
	case schema.ContextFieldDescriptor:
		names = descriptorKeys
		if kctx.AllowName {
			names = append([]string{"name"}, names...)
		}
	case schema.ContextShortcodeEntry:
		names = shortcodeEntryKeys
	default:
		return nil
	}

	var items []protocol.CompletionItem
	for _, name := range names {
		if containsString(spot.siblings, name) || !matches(spot.word, name) {
			continue
		}
		retrigger := name == "type" || name == "$schema" ||
			name == "required" || name == "deprecated" ||
			name == "enumCaseInsensitive" || name == "patternExact"
		items = append(items, keyItem(name, nil, retrigger))
	}
	return items
}

func (c *Completer) completeInline(doc *Document, pos protocol.Position, snap *extensions.Snapshot) []protocol.CompletionItem {
	offset := offsetAt(doc.Content, pos)

	if sc, ok := inline.ShortcodeAt(doc.Content, offset); ok {
		return c.completeShortcode(sc, offset, snap)
	}
	if blk, ok := inline.BlockAt(doc.Content, offset); ok {
		return c.completeAttributes(blk, offset, snap.ElementAttributes)
	}
	return nil
}

func (c *Completer) completeShortcode(sc inline.BlockMatch, offset int, snap *extensions.Snapshot) []protocol.CompletionItem {
	cur := inline.ShortcodeCursor(sc.Content, offset-sc.ContentOffset)

	if cur.Kind == inline.CursorName {
		var items []protocol.CompletionItem
		for _, name := range sortedKeys(snap.Shortcodes) {
			if !matches(cur.Word, name) {
				continue
			}
			items = append(items, shortcodeItem(name, snap.Shortcodes[name]))
		}
		return items
	}

	name := shortcodeName(sc.Content)
	scs, ok := snap.Shortcodes[name]
	if !ok {
		return nil
	}

	switch cur.Kind {
	case inline.CursorArgument, inline.CursorAttributeKey:
		present := presentAttrKeys(sc.Content)
		var items []protocol.CompletionItem
		for _, attr := range sortedKeys(scs.Attributes) {
			d := scs.Attributes[attr]
			if siblingPresent(present, attr, d) || !matches(cur.Word, attr) {
				continue
			}
			items = append(items, attrKeyItem(attr, d))
		}
		return items
	case inline.CursorAttributeValue:
		d, ok := schema.LookupField(scs.Attributes, cur.Key)
		if !ok {
			return nil
		}
		return valueItems(valueCandidates(d), cur.Word)
	}
	return nil
}

func (c *Completer) completeAttributes(blk inline.BlockMatch, offset int, fields map[string]*schema.FieldDescriptor) []protocol.CompletionItem {
	cur := inline.AttrCursor(blk.Content, offset-blk.ContentOffset)

	switch cur.Kind {
	case inline.CursorArgument, inline.CursorAttributeKey:
		present := presentAttrKeys(blk.Content)
		var items []protocol.CompletionItem
		for _, attr := range sortedKeys(fields) {
			d := fields[attr]
			if siblingPresent(present, attr, d) || !matches(cur.Word, attr) {
				continue
			}
			items = append(items, attrKeyItem(attr, d))
		}
		return items
	case inline.CursorAttributeValue:
		d, ok := schema.LookupField(fields, cur.Key)
		if !ok {
			return nil
		}
		return valueItems(valueCandidates(d), cur.Word)
	}
	return nil
}

func shortcodeName(content string) string {
	for _, tok := range inline.Tokenize(content) {
		if tok.Kind == inline.TokenWord {
			return tok.Text
		}
	}
	return ""
}

func presentAttrKeys(content string) []string {
	var keys []string
	for _, tok := range inline.Tokenize(content) {
		if tok.Kind == inline.TokenAttr || tok.Kind == inline.TokenKeyOnly {
			keys = append(keys, tok.Key)
		}
	}
	return keys
}

// siblingPresent reports whether name, or any alias of its descriptor, is
// already among the sibling keys.
func siblingPresent(siblings []string, name string, d *schema.FieldDescriptor) bool {
	for _, s := range siblings {
		if s == name {
			return true
		}
		if d != nil && d.Matches(name, s) {
			return true
		}
	}
	return false
}

func keyItem(name string, d *schema.FieldDescriptor, retrigger bool) protocol.CompletionItem {
	kind := protocol.CompletionItemKindProperty
	insert := name + ": "
	item := protocol.CompletionItem{
		Label:      name,
		Kind:       &kind,
		InsertText: &insert,
	}
	if d != nil {
		if detail := strings.Join(d.Type, " | "); detail != "" {
			item.Detail = &detail
		}
		if d.Description != "" {
			item.Documentation = d.Description
		}
	}
	if retrigger {
		cmd := retriggerCommand
		item.Command = &cmd
	}
	return item
}

func attrKeyItem(name string, d *schema.FieldDescriptor) protocol.CompletionItem {
	kind := protocol.CompletionItemKindProperty
	insert := name + "="
	item := protocol.CompletionItem{
		Label:      name,
		Kind:       &kind,
		InsertText: &insert,
	}
	if d.Description != "" {
		item.Documentation = d.Description
	}
	if len(valueCandidates(d)) > 0 {
		cmd := retriggerCommand
		item.Command = &cmd
	}
	return item
}

func shortcodeItem(name string, sc *schema.ShortcodeSchema) protocol.CompletionItem {
	kind := protocol.CompletionItemKindFunction
	item := protocol.CompletionItem{
		Label: name,
		Kind:  &kind,
	}
	if sc.Description != "" {
		item.Documentation = sc.Description
	}
	return item
}

func valueItems(candidates []string, word string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for _, v := range candidates {
		if !matches(word, v) {
			continue
		}
		kind := protocol.CompletionItemKindValue
		items = append(items, protocol.CompletionItem{
			Label: v,
			Kind:  &kind,
		})
	}
	return items
}

// matches applies fuzzy filtering against the partial word, case folded.
// An empty word keeps everything.
func matches(word, candidate string) bool {
	if word == "" {
		return true
	}
	return fuzzy.MatchNormalizedFold(word, candidate)
}

func offsetAt(content string, pos protocol.Position) int {
	offset := 0
	for i := 0; i < int(pos.Line); i++ {
		nl := strings.IndexByte(content[offset:], '\n')
		if nl < 0 {
			break
		}
		offset += nl + 1
	}
	line := content[offset:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	line = strings.TrimSuffix(line, "\r")
	char := int(pos.Character)
	if char > len(line) {
		char = len(line)
	}
	return offset + char
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, v := range list {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
