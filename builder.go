// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package guides

import (
	"fmt"
	"strings"
)

// maxNestingDepth bounds recursive parsing of directive bodies,
// list items and block quotes.
const maxNestingDepth = 32

// A Builder constructs a single [Tree].
// The parser uses a Builder to assemble nodes,
// and directive and role handlers receive it
// to create nodes and to parse nested content.
// A Builder must not be used after [Builder.Finish].
type Builder struct {
	tree        *Tree
	registry    *Registry
	headerLevel int
	diags       []Diagnostic
	finished    bool
	depth       int

	xrefs      int
	sectionIDs map[string]int
	usedIDs    map[string]bool
	adornments []adornment

	// Forward references are resolved in Finish.
	substitutions    map[string]string
	targets          map[string]string
	aliases          map[string]string
	anonymousTargets []string
}

type adornment struct {
	letter   byte
	overline bool
}

// NewBuilder returns a builder for the document at file.
// If reg is nil, [DefaultRegistry] is used.
func NewBuilder(file string, reg *Registry) *Builder {
	if reg == nil {
		reg = DefaultRegistry()
	}
	b := &Builder{
		tree:          &Tree{File: file},
		registry:      reg,
		headerLevel:   1,
		sectionIDs:    make(map[string]int),
		usedIDs:       make(map[string]bool),
		substitutions: make(map[string]string),
		targets:       make(map[string]string),
		aliases:       make(map[string]string),
	}
	b.tree.nodes = append(b.tree.nodes, nodeData{kind: DocumentKind, line: 1})
	return b
}

// File returns the path of the document being built.
func (b *Builder) File() string {
	return b.tree.File
}

// Registry returns the directive and role registry in use.
func (b *Builder) Registry() *Registry {
	return b.registry
}

// Root returns the identifier of the document node.
func (b *Builder) Root() NodeID {
	return 0
}

// Add creates a new node and returns its identifier.
// The node is not attached to the tree
// until it is passed to [Builder.AppendChildren]
// or returned from a handler.
func (b *Builder) Add(kind Kind, line int, attrs Attrs, children ...NodeID) NodeID {
	if b.finished {
		panic("guides: Builder.Add called after Finish")
	}
	id := NodeID(len(b.tree.nodes))
	d := nodeData{kind: kind, line: line, attrs: attrs}
	for _, c := range children {
		if c != NoNode {
			d.children = append(d.children, c)
		}
	}
	b.tree.nodes = append(b.tree.nodes, d)
	return id
}

// AppendChildren attaches children to the end of parent's child list.
// NoNode values are skipped.
func (b *Builder) AppendChildren(parent NodeID, children ...NodeID) {
	d := &b.tree.nodes[parent]
	for _, c := range children {
		if c != NoNode {
			d.children = append(d.children, c)
		}
	}
}

// Node returns a view of a node under construction.
func (b *Builder) Node(id NodeID) Node {
	return b.tree.Node(id)
}

// SetHeader records a document header field,
// as done by the meta directive.
func (b *Builder) SetHeader(key, value string) {
	root := &b.tree.nodes[0]
	if root.attrs.Options == nil {
		root.attrs.Options = make(map[string]string)
	}
	root.attrs.Options[key] = value
}

// SetSubstitution defines the replacement text for |name| references.
func (b *Builder) SetSubstitution(name, text string) {
	b.substitutions[name] = text
}

// SetTarget defines the URL of a named hyperlink target.
func (b *Builder) SetTarget(name, url string) {
	b.targets[normalizeRefName(name)] = url
}

// Warnf records a recoverable problem at the given line.
func (b *Builder) Warnf(line int, format string, args ...any) {
	b.report(Warning, line, format, args...)
}

// Errorf records a problem that caused content to be dropped.
func (b *Builder) Errorf(line int, format string, args ...any) {
	b.report(Error, line, format, args...)
}

func (b *Builder) report(sev Severity, line int, format string, args ...any) {
	b.diags = append(b.diags, Diagnostic{
		File:     b.tree.File,
		Line:     line,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	})
}

// ParseBlocks parses text as a sequence of blocks.
// line is the source line of the first line of text.
// Directive handlers use ParseBlocks for their bodies.
func (b *Builder) ParseBlocks(text string, line int) []NodeID {
	if b.depth >= maxNestingDepth {
		b.Errorf(line, "content nested too deeply")
		return nil
	}
	b.depth++
	defer func() { b.depth-- }()
	return b.parseBlocks(newLineReader(splitLines([]byte(text)), line))
}

// ParseSpan parses text as inline content
// and returns the identifier of a new [SpanKind] node.
func (b *Builder) ParseSpan(text string, line int) NodeID {
	return b.parseSpan(text, line)
}

// NextReferenceID returns a new cross-reference identifier,
// unique within the document.
func (b *Builder) NextReferenceID() string {
	b.xrefs++
	return "xref-" + fmt.Sprint(b.xrefs)
}

// SectionID returns a unique anchor identifier for a section title.
// Identifiers already taken by label targets are skipped.
func (b *Builder) SectionID(title string) string {
	base := Slugify(title)
	if base == "" {
		base = "section"
	}
	for {
		n := b.sectionIDs[base]
		b.sectionIDs[base] = n + 1
		id := base
		if n > 0 {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		if !b.usedIDs[id] {
			b.usedIDs[id] = true
			return id
		}
	}
}

// Finish resolves forward references and returns the completed tree
// along with any diagnostics.
// Nodes that were never attached to the document are left untouched.
func (b *Builder) Finish() (*Tree, []Diagnostic) {
	if b.finished {
		panic("guides: Builder.Finish called twice")
	}
	b.finished = true
	var reachable []NodeID
	Walk(b.tree.Root(), &WalkOptions{
		Pre: func(c *Cursor) bool {
			reachable = append(reachable, c.Node().ID())
			return true
		},
	})
	titles := b.renumberSections(reachable)

	anonymous := 0
	for _, id := range reachable {
		d := &b.tree.nodes[id]
		switch {
		case d.kind == TextKind && d.attrs.Name != "":
			name := d.attrs.Name
			if text, ok := b.substitutions[name]; ok {
				d.attrs.Text = text
			} else {
				b.Warnf(d.line, "undefined substitution |%s|", name)
			}
			d.attrs.Name = ""
		case d.kind == LinkKind && d.attrs.Target == "" && d.attrs.Name == anonymousRefName:
			if anonymous < len(b.anonymousTargets) {
				d.attrs.Target = b.anonymousTargets[anonymous]
				d.attrs.Name = ""
			} else {
				b.Warnf(d.line, "anonymous reference without a matching target")
			}
			anonymous++
		case d.kind == LinkKind && d.attrs.Target == "" && d.attrs.Name != "":
			if url, ok := b.lookupTarget(d.attrs.Name); ok {
				d.attrs.Target = url
			} else if !titles[Slugify(d.attrs.Name)] {
				// Links to section titles are resolved by the renderer.
				b.Warnf(d.line, "unknown link target %q", d.attrs.Name)
			}
		}
	}
	return b.tree, b.diags
}

// renumberSections reassigns section identifiers in document order
// so that none collides with a label anchor.
// It returns the set of slugified section titles.
func (b *Builder) renumberSections(reachable []NodeID) map[string]bool {
	b.sectionIDs = make(map[string]int)
	b.usedIDs = make(map[string]bool)
	for _, id := range reachable {
		if d := &b.tree.nodes[id]; d.kind == AnchorKind && d.attrs.ID != "" {
			b.usedIDs[d.attrs.ID] = true
		}
	}
	titles := make(map[string]bool)
	for _, id := range reachable {
		if d := &b.tree.nodes[id]; d.kind == SectionKind {
			d.attrs.ID = b.SectionID(d.attrs.Title)
			titles[Slugify(d.attrs.Title)] = true
		}
	}
	return titles
}

// anonymousRefName is the link name of an anonymous reference ("text"__).
const anonymousRefName = "__"

// lookupTarget finds the URL of a named target, following indirect targets.
func (b *Builder) lookupTarget(name string) (string, bool) {
	for i := 0; i < 8; i++ {
		if url, ok := b.targets[name]; ok {
			return url, true
		}
		alias, ok := b.aliases[name]
		if !ok {
			return "", false
		}
		name = alias
	}
	return "", false
}

func normalizeRefName(name string) string {
	return NormalizeLabel(name)
}

// NormalizeLabel returns the key under which a link target label is stored:
// lowercased with runs of whitespace collapsed to a single space.
func NormalizeLabel(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
