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

// Package markdown parses Markdown documents into the same tree model
// as reStructuredText documents.
package markdown

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"zombiezen.com/go/guides"
)

// Parser converts Markdown source into a [guides.Tree].
// The zero value is ready to use.
type Parser struct {
	// Registry is passed to the tree builder.
	// If nil, [guides.DefaultRegistry] is used.
	Registry *guides.Registry
	// InitialHeaderLevel is the section level of "#" headings.
	// Zero is treated as 1.
	InitialHeaderLevel int
}

// Parse parses the document at file.
// A YAML or TOML front matter block becomes the document header.
func (p *Parser) Parse(file string, source []byte) (*guides.Tree, []guides.Diagnostic) {
	b := guides.NewBuilder(file, p.Registry)
	c := &converter{
		b:          b,
		levelShift: max(p.InitialHeaderLevel, 1) - 1,
	}

	body := source
	header := make(map[string]any)
	rest, err := frontmatter.Parse(bytes.NewReader(source), &header)
	if err != nil {
		b.Warnf(1, "invalid front matter: %v", err)
	} else {
		body = rest
		keys := make([]string, 0, len(header))
		for k := range header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.SetHeader(k, fmt.Sprint(header[k]))
		}
	}
	c.firstLine = 1 + bytes.Count(source[:len(source)-len(body)], []byte("\n"))
	c.src = body
	c.lineStarts = []int{0}
	for i, ch := range body {
		if ch == '\n' {
			c.lineStarts = append(c.lineStarts, i+1)
		}
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(body))
	b.AppendChildren(b.Root(), c.sections(root)...)
	return b.Finish()
}

type converter struct {
	b          *guides.Builder
	src        []byte
	lineStarts []int
	firstLine  int
	levelShift int
}

// lineAt returns the source line of a byte offset into the body.
func (c *converter) lineAt(offset int) int {
	i := sort.Search(len(c.lineStarts), func(i int) bool {
		return c.lineStarts[i] > offset
	})
	return c.firstLine + i - 1
}

// line returns the first source line of n, or zero if unknown.
func (c *converter) line(n ast.Node) int {
	for ; n != nil; n = n.FirstChild() {
		if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
			return c.lineAt(n.Lines().At(0).Start)
		}
		if t, ok := n.(*ast.Text); ok {
			return c.lineAt(t.Segment.Start)
		}
	}
	return 0
}

// sections converts the top-level blocks of a document,
// nesting the blocks after each heading into a section.
func (c *converter) sections(root ast.Node) []guides.NodeID {
	type openSection struct {
		id    guides.NodeID
		level int
	}
	var top []guides.NodeID
	var stack []openSection
	emit := func(id guides.NodeID) {
		if id == guides.NoNode {
			return
		}
		if len(stack) == 0 {
			top = append(top, id)
		} else {
			c.b.AppendChildren(stack[len(stack)-1].id, id)
		}
	}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			emit(c.block(n))
			continue
		}
		line := c.line(h)
		span := c.span(h, line)
		title := c.b.Node(span).Text()
		level := h.Level + c.levelShift
		id := c.b.Add(guides.SectionKind, line, guides.Attrs{
			Level: level,
			Title: title,
			ID:    c.b.SectionID(title),
		}, span)
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		emit(id)
		stack = append(stack, openSection{id: id, level: level})
	}
	return top
}

func (c *converter) blocks(parent ast.Node) []guides.NodeID {
	var ids []guides.NodeID
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if id := c.block(n); id != guides.NoNode {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *converter) block(n ast.Node) guides.NodeID {
	line := c.line(n)
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return c.b.Add(guides.ParagraphKind, line, guides.Attrs{}, c.span(n, line))
	case *ast.Heading:
		// Headings nested in containers do not open sections.
		return c.b.Add(guides.ParagraphKind, line, guides.Attrs{},
			c.b.Add(guides.StrongKind, line, guides.Attrs{}, c.span(n, line)))
	case *ast.ThematicBreak:
		return c.b.Add(guides.SeparatorKind, line, guides.Attrs{Level: 1})
	case *ast.FencedCodeBlock:
		return c.b.Add(guides.CodeKind, line, guides.Attrs{
			Name: string(n.Language(c.src)),
			Text: strings.TrimSuffix(c.lines(n), "\n"),
		})
	case *ast.CodeBlock:
		return c.b.Add(guides.LiteralKind, line, guides.Attrs{
			Text: strings.TrimSuffix(c.lines(n), "\n"),
		})
	case *ast.Blockquote:
		return c.b.Add(guides.QuoteKind, line, guides.Attrs{}, c.blocks(n)...)
	case *ast.List:
		attrs := guides.Attrs{Name: string([]byte{n.Marker}), Ordered: n.IsOrdered()}
		if n.IsOrdered() {
			attrs.Name = "d" + attrs.Name
			attrs.Level = n.Start
		}
		list := c.b.Add(guides.ListKind, line, attrs)
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			c.b.AppendChildren(list, c.b.Add(guides.ListItemKind, c.line(item), guides.Attrs{}, c.blocks(item)...))
		}
		return list
	case *ast.HTMLBlock:
		raw := c.lines(n)
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(c.src))
		}
		return c.b.Add(guides.RawKind, line, guides.Attrs{Name: "html", Text: strings.TrimSuffix(raw, "\n")})
	case *east.Table:
		return c.table(n, line)
	default:
		c.b.Warnf(line, "unsupported Markdown block %v", n.Kind())
		return guides.NoNode
	}
}

// lines returns the raw text of a leaf block.
func (c *converter) lines(n ast.Node) string {
	sb := new(strings.Builder)
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		sb.Write(seg.Value(c.src))
	}
	return sb.String()
}

func (c *converter) table(t *east.Table, line int) guides.NodeID {
	var rows []guides.NodeID
	columns := 0
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var header bool
		switch row.(type) {
		case *east.TableHeader:
			header = true
		case *east.TableRow:
		default:
			continue
		}
		rowLine := c.line(row)
		if rowLine == 0 {
			rowLine = line
		}
		rowID := c.b.Add(guides.TableRowKind, rowLine, guides.Attrs{Header: header})
		n := 0
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			c.b.AppendChildren(rowID, c.b.Add(guides.TableCellKind, rowLine, guides.Attrs{
				Text:    plainText(cell, c.src),
				ColSpan: 1,
				RowSpan: 1,
			}, c.span(cell, rowLine)))
			n++
		}
		rows = append(rows, rowID)
		columns = max(columns, n)
	}
	return c.b.Add(guides.TableKind, line, guides.Attrs{
		Rows:    len(rows),
		Columns: columns,
	}, rows...)
}

// span converts the inline children of n into a span node.
func (c *converter) span(n ast.Node, line int) guides.NodeID {
	return c.b.Add(guides.SpanKind, line, guides.Attrs{}, c.inlines(n, line)...)
}

func (c *converter) inlines(parent ast.Node, line int) []guides.NodeID {
	var ids []guides.NodeID
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if t, ok := n.(*ast.Text); ok {
			line = c.lineAt(t.Segment.Start)
		}
		if id := c.inline(n, line); id != guides.NoNode {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *converter) text(line int, s string) guides.NodeID {
	return c.b.Add(guides.TextKind, line, guides.Attrs{Text: s})
}

func (c *converter) inline(n ast.Node, line int) guides.NodeID {
	switch n := n.(type) {
	case *ast.Text:
		s := string(n.Segment.Value(c.src))
		if n.SoftLineBreak() || n.HardLineBreak() {
			s += "\n"
		}
		return c.text(line, s)
	case *ast.String:
		return c.text(line, string(n.Value))
	case *ast.Emphasis:
		kind := guides.EmphasisKind
		if n.Level >= 2 {
			kind = guides.StrongKind
		}
		return c.b.Add(kind, line, guides.Attrs{}, c.inlines(n, line)...)
	case *ast.CodeSpan:
		return c.b.Add(guides.InlineLiteralKind, line, guides.Attrs{Text: plainText(n, c.src)})
	case *ast.Link:
		return c.link(n, line)
	case *ast.AutoLink:
		url := string(n.URL(c.src))
		if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(url, "mailto:") {
			url = "mailto:" + url
		}
		return c.b.Add(guides.LinkKind, line, guides.Attrs{Target: url}, c.text(line, string(n.Label(c.src))))
	case *ast.Image:
		return c.b.Add(guides.ImageKind, line, guides.Attrs{
			Target: string(n.Destination),
			Title:  plainText(n, c.src),
		})
	case *ast.RawHTML:
		sb := new(strings.Builder)
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			sb.Write(seg.Value(c.src))
		}
		return c.text(line, sb.String())
	default:
		return c.b.Add(guides.SpanKind, line, guides.Attrs{}, c.inlines(n, line)...)
	}
}

// link converts a link. Relative links to other source documents
// become doc cross-references so they follow the document's output path.
func (c *converter) link(n *ast.Link, line int) guides.NodeID {
	dest := string(n.Destination)
	target, anchor, _ := strings.Cut(dest, "#")
	if target != "" && !guides.IsAbsoluteURL(target) && isSourcePath(target) {
		return c.b.Add(guides.CrossReferenceKind, line, guides.Attrs{
			ID:      c.b.NextReferenceID(),
			Role:    "doc",
			Target:  target,
			Anchor:  anchor,
			Display: plainText(n, c.src),
		})
	}
	return c.b.Add(guides.LinkKind, line, guides.Attrs{Target: dest}, c.inlines(n, line)...)
}

func isSourcePath(p string) bool {
	ext := path.Ext(p)
	for _, known := range guides.SourceExtensions {
		if strings.EqualFold(ext, known) {
			return true
		}
	}
	return false
}

// plainText returns the concatenated text of n's inline descendants.
func plainText(n ast.Node, src []byte) string {
	sb := new(strings.Builder)
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Text:
				sb.Write(c.Segment.Value(src))
				if c.SoftLineBreak() {
					sb.WriteByte(' ')
				}
			case *ast.String:
				sb.Write(c.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return sb.String()
}
