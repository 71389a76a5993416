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
	"sort"
	"strconv"
	"strings"
)

// Kind is an enumeration of values returned by [Node.Kind].
type Kind uint8

// Block kinds.
const (
	DocumentKind Kind = 1 + iota
	SectionKind
	ParagraphKind
	ListKind
	ListItemKind
	DefinitionListKind
	DefinitionItemKind
	TermKind
	ClassifierKind
	DefinitionKind
	TableKind
	TableRowKind
	TableCellKind
	SeparatorKind
	LiteralKind
	QuoteKind
	// DirectiveKind is a directive that no handler claimed.
	// Its body is kept as a single [LiteralKind] child.
	DirectiveKind
	CodeKind
	ImageKind
	FigureKind
	AdmonitionKind
	SidebarKind
	TopicKind
	TocKind
	ContentsKind
	AnchorKind
	RawKind

	// SpanKind is the container for inline content.
	SpanKind
	TextKind
	EmphasisKind
	StrongKind
	InlineLiteralKind
	SubscriptKind
	SuperscriptKind
	TitleReferenceKind
	LinkKind
	CrossReferenceKind

	kindCount
)

var kindNames = [...]string{
	DocumentKind:       "Document",
	SectionKind:        "Section",
	ParagraphKind:      "Paragraph",
	ListKind:           "List",
	ListItemKind:       "ListItem",
	DefinitionListKind: "DefinitionList",
	DefinitionItemKind: "DefinitionItem",
	TermKind:           "Term",
	ClassifierKind:     "Classifier",
	DefinitionKind:     "Definition",
	TableKind:          "Table",
	TableRowKind:       "TableRow",
	TableCellKind:      "TableCell",
	SeparatorKind:      "Separator",
	LiteralKind:        "Literal",
	QuoteKind:          "Quote",
	DirectiveKind:      "Directive",
	CodeKind:           "Code",
	ImageKind:          "Image",
	FigureKind:         "Figure",
	AdmonitionKind:     "Admonition",
	SidebarKind:        "Sidebar",
	TopicKind:          "Topic",
	TocKind:            "Toc",
	ContentsKind:       "Contents",
	AnchorKind:         "Anchor",
	RawKind:            "Raw",
	SpanKind:           "Span",
	TextKind:           "Text",
	EmphasisKind:       "Emphasis",
	StrongKind:         "Strong",
	InlineLiteralKind:  "InlineLiteral",
	SubscriptKind:      "Subscript",
	SuperscriptKind:    "Superscript",
	TitleReferenceKind: "TitleReference",
	LinkKind:           "Link",
	CrossReferenceKind: "CrossReference",
}

func (k Kind) String() string {
	if k == 0 || k >= kindCount {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// IsInline reports whether nodes of the kind appear inside a [SpanKind] node.
func (k Kind) IsInline() bool {
	return k >= SpanKind && k < kindCount
}

// Attrs holds the variant-specific fields of a node.
// Fields that do not apply to a node's kind are left as zero values.
type Attrs struct {
	// Level is the heading level of a section,
	// the level of a separator
	// or the first ordinal of an enumerated list.
	Level int
	// Name is the directive name, admonition type, code language,
	// anchor label or list marker.
	Name string
	// Title is the section title text,
	// the title of an admonition, sidebar or topic,
	// the caption of a table of contents
	// or the alternate text of an image.
	Title string
	// Text is the content of a text, literal, code or raw node.
	Text string
	// Target is a link destination, an image source
	// or the literal target of a cross-reference.
	Target string
	// ID is the anchor identifier of a section
	// or the unique identifier of a cross-reference within its document.
	ID string

	// Cross-reference fields.
	Role    string
	Domain  string
	Anchor  string
	Display string

	// Ordered reports whether a list is enumerated.
	Ordered bool
	// Header reports whether a table row belongs to the table head.
	Header bool
	// Columns and Rows are the dimensions of a table.
	Columns int
	Rows    int
	// ColSpan and RowSpan are the layout slots a table cell occupies.
	ColSpan int
	RowSpan int

	// Options holds directive options
	// and, on the document node, the document header.
	Options map[string]string
	// Entries lists the documents referenced by a table of contents.
	Entries []string
}

// Option returns the value of the named option.
func (a Attrs) Option(name string) (string, bool) {
	v, ok := a.Options[name]
	return v, ok
}

// NodeID is the index of a node within its [Tree].
type NodeID int32

// NoNode is the [NodeID] returned when no node was produced.
const NoNode NodeID = -1

type nodeData struct {
	kind     Kind
	line     int
	attrs    Attrs
	children []NodeID
}

// A Tree is a parsed document.
// Nodes are stored in an arena owned by the tree
// and refer to their children by index,
// so a tree has no cycles and no node is shared between trees.
// Once returned from a parser, a tree is never modified:
// [Tree.Replace] and [Tree.ReplaceAttrs] return new trees.
type Tree struct {
	// File is the path of the document the tree was parsed from.
	File  string
	nodes []nodeData
}

// Root returns the [DocumentKind] node at the top of the tree.
func (t *Tree) Root() Node {
	if t == nil || len(t.nodes) == 0 {
		return Node{}
	}
	return Node{tree: t, id: 0}
}

// Len returns the number of nodes in the tree's arena.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Node returns the node with the given identifier.
func (t *Tree) Node(id NodeID) Node {
	if t == nil || id < 0 || int(id) >= len(t.nodes) {
		return Node{}
	}
	return Node{tree: t, id: id}
}

// Header returns the document header,
// the key/value pairs collected from meta directives or front matter.
// The returned map is a copy.
func (t *Tree) Header() map[string]string {
	root := t.Root()
	if root.IsZero() {
		return nil
	}
	opts := t.nodes[0].attrs.Options
	h := make(map[string]string, len(opts))
	for k, v := range opts {
		h[k] = v
	}
	return h
}

// Title returns the plain text of the document's title:
// the "title" header if present, otherwise the first section title.
func (t *Tree) Title() string {
	if t.Len() == 0 {
		return ""
	}
	if title := t.nodes[0].attrs.Options["title"]; title != "" {
		return title
	}
	var title string
	Walk(t.Root(), &WalkOptions{
		Pre: func(c *Cursor) bool {
			if title != "" {
				return false
			}
			if c.Node().Kind() == SectionKind {
				title = c.Node().Attrs().Title
				return false
			}
			return !c.Node().Kind().IsInline()
		},
	})
	return title
}

// Node is a reference to a node inside a [Tree].
// The zero value refers to no node.
// Nodes can be compared for equality using the == operator.
type Node struct {
	tree *Tree
	id   NodeID
}

// IsZero reports whether n refers to no node.
func (n Node) IsZero() bool {
	return n.tree == nil
}

// ID returns the node's index in its tree
// or [NoNode] for the zero Node.
func (n Node) ID() NodeID {
	if n.tree == nil {
		return NoNode
	}
	return n.id
}

// Tree returns the tree the node belongs to.
func (n Node) Tree() *Tree {
	return n.tree
}

func (n Node) data() *nodeData {
	if n.tree == nil {
		return nil
	}
	return &n.tree.nodes[n.id]
}

// Kind returns the type of the node or zero for the zero Node.
func (n Node) Kind() Kind {
	if d := n.data(); d != nil {
		return d.kind
	}
	return 0
}

// Line returns the 1-based source line the node started on,
// or zero if unknown.
func (n Node) Line() int {
	if d := n.data(); d != nil {
		return d.line
	}
	return 0
}

// Attrs returns the node's variant-specific fields.
// Callers must not modify the Options map or Entries slice.
func (n Node) Attrs() Attrs {
	if d := n.data(); d != nil {
		return d.attrs
	}
	return Attrs{}
}

// ChildCount returns the number of children the node has.
// Calling ChildCount on the zero value returns 0.
func (n Node) ChildCount() int {
	if d := n.data(); d != nil {
		return len(d.children)
	}
	return 0
}

// Child returns the i'th child of the node.
func (n Node) Child(i int) Node {
	d := n.data()
	if d == nil {
		panic("Child on zero Node")
	}
	return Node{tree: n.tree, id: d.children[i]}
}

// Text returns the plain text of the node:
// the content of leaf nodes or
// the concatenated text of an inline subtree.
func (n Node) Text() string {
	switch n.Kind() {
	case TextKind, InlineLiteralKind, LiteralKind, CodeKind, RawKind:
		return n.data().attrs.Text
	case CrossReferenceKind:
		ref := n.CrossReference()
		if ref.Display != "" {
			return ref.Display
		}
		return ref.Target
	case 0:
		return ""
	}
	sb := new(strings.Builder)
	for i := 0; i < n.ChildCount(); i++ {
		sb.WriteString(n.Child(i).Text())
	}
	return sb.String()
}

// CrossReference is an unresolved inline reference to another document,
// label or symbol. ID, Role and Target are always set.
type CrossReference struct {
	ID      string
	Role    string
	Domain  string
	Target  string
	Anchor  string
	Display string
	Line    int
}

// CrossReference returns the reference data of a [CrossReferenceKind] node.
func (n Node) CrossReference() CrossReference {
	if n.Kind() != CrossReferenceKind {
		return CrossReference{}
	}
	d := n.data()
	return CrossReference{
		ID:      d.attrs.ID,
		Role:    d.attrs.Role,
		Domain:  d.attrs.Domain,
		Target:  d.attrs.Target,
		Anchor:  d.attrs.Anchor,
		Display: d.attrs.Display,
		Line:    d.line,
	}
}

// QualifiedRole returns "domain:role", or just the role without a domain.
func (ref CrossReference) QualifiedRole() string {
	if ref.Domain == "" {
		return ref.Role
	}
	return ref.Domain + ":" + ref.Role
}

// ReplaceAttrs returns a copy of t
// where the node with the given identifier has the given attributes.
// t is not modified.
func (t *Tree) ReplaceAttrs(id NodeID, attrs Attrs) *Tree {
	nt := &Tree{
		File:  t.File,
		nodes: make([]nodeData, len(t.nodes)),
	}
	copy(nt.nodes, t.nodes)
	nt.nodes[id].attrs = attrs
	return nt
}

// Replace returns a copy of t where the subtree rooted at id
// is replaced by a copy of the subtree rooted at repl.
// repl may belong to any tree. t is not modified.
// The result's arena only contains reachable nodes.
func (t *Tree) Replace(id NodeID, repl Node) *Tree {
	nt := &Tree{
		File:  t.File,
		nodes: make([]nodeData, 0, len(t.nodes)),
	}
	var copyNode func(src Node) NodeID
	copyNode = func(src Node) NodeID {
		if src.tree == t && src.id == id && !repl.IsZero() {
			src = repl
		}
		d := src.data()
		newID := NodeID(len(nt.nodes))
		nt.nodes = append(nt.nodes, nodeData{
			kind:  d.kind,
			line:  d.line,
			attrs: d.attrs,
		})
		var children []NodeID
		if len(d.children) > 0 {
			children = make([]NodeID, 0, len(d.children))
		}
		for _, c := range d.children {
			children = append(children, copyNode(Node{tree: src.tree, id: c}))
		}
		nt.nodes[newID].children = children
		return newID
	}
	copyNode(t.Root())
	return nt
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
