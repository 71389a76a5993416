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

package render

import (
	"bytes"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"go4.org/bytereplacer"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/metas"
)

// HTMLOptions is the set of parameters to [HTML].
//
// # Security considerations
//
// The raw directive can inject arbitrary markup into the output,
// which can introduce [Cross-Site Scripting (XSS)] vulnerabilities
// when documents come from untrusted authors.
// Set IgnoreRaw to drop raw content,
// or send the resulting HTML through a sanitizer.
//
// [Cross-Site Scripting (XSS)]: https://owasp.org/www-community/attacks/xss/
type HTMLOptions struct {
	// HighlightStyle is the name of the chroma style used for code blocks.
	// If empty, "github" is used.
	HighlightStyle string
	// If IgnoreRaw is true, raw nodes are skipped.
	IgnoreRaw bool
}

// HTML returns the HTML format. A nil opts is the same as the zero value.
func HTML(opts *HTMLOptions) *Format {
	h := new(htmlFormat)
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.HighlightStyle == "" {
		h.opts.HighlightStyle = "github"
	}

	f := NewFormat("HTML", "html")
	f.Page = htmlPage
	f.Handle(guides.SectionKind, htmlSection)
	f.Handle(guides.ParagraphKind, wrapChildren(atom.P))
	f.Handle(guides.ListKind, htmlList)
	f.Handle(guides.ListItemKind, wrapChildren(atom.Li))
	f.Handle(guides.DefinitionListKind, wrapChildren(atom.Dl))
	f.Handle(guides.DefinitionItemKind, htmlDefinitionItem)
	f.Handle(guides.TableKind, htmlTable)
	f.Handle(guides.SeparatorKind, func(s *State, n guides.Node) {
		s.openTag(atom.Hr)
		s.WriteString("\n")
	})
	f.Handle(guides.LiteralKind, htmlLiteral)
	f.Handle(guides.QuoteKind, wrapChildren(atom.Blockquote))
	f.Handle(guides.CodeKind, h.code)
	f.Handle(guides.ImageKind, htmlImage)
	f.Handle(guides.FigureKind, htmlFigure)
	f.Handle(guides.AdmonitionKind, htmlAdmonition)
	f.Handle(guides.SidebarKind, htmlSidebar)
	f.Handle(guides.TopicKind, htmlTopic)
	f.Handle(guides.TocKind, htmlToc)
	f.Handle(guides.ContentsKind, htmlContents)
	f.Handle(guides.AnchorKind, func(s *State, n guides.Node) {
		s.openTagAttr(atom.Span)
		s.attr("id", n.Attrs().ID)
		s.WriteString("></span>")
	})
	f.Handle(guides.RawKind, h.raw)

	f.Handle(guides.TextKind, func(s *State, n guides.Node) {
		s.escapeHTML(n.Attrs().Text)
	})
	f.Handle(guides.EmphasisKind, wrapChildren(atom.Em))
	f.Handle(guides.StrongKind, wrapChildren(atom.Strong))
	f.Handle(guides.SubscriptKind, wrapChildren(atom.Sub))
	f.Handle(guides.SuperscriptKind, wrapChildren(atom.Sup))
	f.Handle(guides.TitleReferenceKind, wrapChildren(atom.Cite))
	f.Handle(guides.InlineLiteralKind, func(s *State, n guides.Node) {
		s.openTag(atom.Code)
		s.escapeHTML(n.Text())
		s.closeTag(atom.Code)
	})
	f.Handle(guides.LinkKind, htmlLink)
	f.Handle(guides.CrossReferenceKind, htmlCrossReference)
	return f
}

type htmlFormat struct {
	opts HTMLOptions
}

var htmlEscaper = bytereplacer.New(
	"&", "&amp;",
	// "&#39;" is shorter than "&apos;" and apos was not in HTML until HTML5.
	"'", "&#39;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func (s *State) escapeHTML(text string) {
	s.dst = append(s.dst, htmlEscaper.Replace([]byte(text))...)
}

func (s *State) openTagAttr(name atom.Atom) {
	s.dst = append(s.dst, '<')
	s.dst = append(s.dst, name.String()...)
}

func (s *State) openTag(name atom.Atom) {
	s.openTagAttr(name)
	s.dst = append(s.dst, '>')
}

func (s *State) closeTag(name atom.Atom) {
	s.dst = append(s.dst, "</"...)
	s.dst = append(s.dst, name.String()...)
	s.dst = append(s.dst, '>')
}

// attr appends an attribute to a tag opened with openTagAttr.
// Empty values are skipped.
func (s *State) attr(key, value string) {
	if value == "" {
		return
	}
	s.dst = append(s.dst, ' ')
	s.dst = append(s.dst, key...)
	s.dst = append(s.dst, `="`...)
	s.escapeHTML(value)
	s.dst = append(s.dst, '"')
}

func wrapChildren(tag atom.Atom) NodeRenderer {
	return func(s *State, n guides.Node) {
		s.openTag(tag)
		s.Children(n)
		s.closeTag(tag)
		if !n.Kind().IsInline() {
			s.WriteString("\n")
		}
	}
}

var headingTags = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func htmlSection(s *State, n guides.Node) {
	a := n.Attrs()
	level := min(max(a.Level, 1), len(headingTags))
	h := headingTags[level-1]
	s.openTagAttr(atom.Div)
	s.attr("class", "section")
	s.attr("id", a.ID)
	s.WriteString(">\n")
	s.openTag(h)
	start := 0
	if n.ChildCount() > 0 && n.Child(0).Kind() == guides.SpanKind {
		s.Render(n.Child(0))
		start = 1
	} else {
		s.escapeHTML(a.Title)
	}
	s.closeTag(h)
	s.WriteString("\n")
	s.ChildrenFrom(n, start)
	s.closeTag(atom.Div)
	s.WriteString("\n")
}

func htmlList(s *State, n guides.Node) {
	a := n.Attrs()
	tag := atom.Ul
	if a.Ordered {
		tag = atom.Ol
	}
	s.openTagAttr(tag)
	if a.Ordered && a.Level > 1 {
		s.attr("start", strconv.Itoa(a.Level))
	}
	s.WriteString(">\n")
	tight := isTightList(n)
	for i := 0; i < n.ChildCount(); i++ {
		item := n.Child(i)
		s.openTag(atom.Li)
		if tight && item.ChildCount() == 1 {
			s.Children(item.Child(0))
		} else {
			s.Children(item)
		}
		s.closeTag(atom.Li)
		s.WriteString("\n")
	}
	s.closeTag(tag)
	s.WriteString("\n")
}

// isTightList reports whether every item of a list
// holds at most a single paragraph.
func isTightList(n guides.Node) bool {
	for i := 0; i < n.ChildCount(); i++ {
		item := n.Child(i)
		if item.ChildCount() > 1 {
			return false
		}
		if item.ChildCount() == 1 && item.Child(0).Kind() != guides.ParagraphKind {
			return false
		}
	}
	return true
}

func htmlDefinitionItem(s *State, n guides.Node) {
	s.openTag(atom.Dt)
	for i := 0; i < n.ChildCount(); i++ {
		switch c := n.Child(i); c.Kind() {
		case guides.TermKind:
			s.Children(c)
		case guides.ClassifierKind:
			s.WriteString(" ")
			s.openTagAttr(atom.Span)
			s.attr("class", "classifier")
			s.WriteString(">")
			s.Children(c)
			s.closeTag(atom.Span)
		}
	}
	s.closeTag(atom.Dt)
	s.WriteString("\n")
	for i := 0; i < n.ChildCount(); i++ {
		if c := n.Child(i); c.Kind() == guides.DefinitionKind {
			s.openTag(atom.Dd)
			s.Children(c)
			s.closeTag(atom.Dd)
			s.WriteString("\n")
		}
	}
}

func htmlTable(s *State, n guides.Node) {
	s.openTag(atom.Table)
	s.WriteString("\n")
	section := atom.Atom(0)
	for i := 0; i < n.ChildCount(); i++ {
		row := n.Child(i)
		want := atom.Tbody
		if row.Attrs().Header {
			want = atom.Thead
		}
		if want != section {
			if section != 0 {
				s.closeTag(section)
				s.WriteString("\n")
			}
			s.openTag(want)
			s.WriteString("\n")
			section = want
		}
		cellTag := atom.Td
		if section == atom.Thead {
			cellTag = atom.Th
		}
		s.openTag(atom.Tr)
		for j := 0; j < row.ChildCount(); j++ {
			cell := row.Child(j)
			ca := cell.Attrs()
			s.openTagAttr(cellTag)
			if ca.ColSpan > 1 {
				s.attr("colspan", strconv.Itoa(ca.ColSpan))
			}
			if ca.RowSpan > 1 {
				s.attr("rowspan", strconv.Itoa(ca.RowSpan))
			}
			s.WriteString(">")
			s.Children(cell)
			s.closeTag(cellTag)
		}
		s.closeTag(atom.Tr)
		s.WriteString("\n")
	}
	if section != 0 {
		s.closeTag(section)
		s.WriteString("\n")
	}
	s.closeTag(atom.Table)
	s.WriteString("\n")
}

func htmlLiteral(s *State, n guides.Node) {
	s.openTag(atom.Pre)
	s.escapeHTML(n.Attrs().Text)
	s.closeTag(atom.Pre)
	s.WriteString("\n")
}

func (h *htmlFormat) code(s *State, n guides.Node) {
	a := n.Attrs()
	s.openTagAttr(atom.Div)
	s.attr("class", strings.TrimSpace("code-block "+a.Options["class"]))
	s.attr("data-language", a.Name)
	if name := a.Options["name"]; name != "" {
		s.attr("id", guides.Slugify(name))
	}
	s.WriteString(">\n")
	if caption := a.Options["caption"]; caption != "" {
		s.openTagAttr(atom.Div)
		s.attr("class", "code-block-caption")
		s.WriteString(">")
		s.escapeHTML(caption)
		s.closeTag(atom.Div)
		s.WriteString("\n")
	}
	out, err := h.highlight(a)
	if err != nil {
		s.Warnf(n.Line(), "highlight %s code: %v", a.Name, err)
		s.openTag(atom.Pre)
		s.openTag(atom.Code)
		s.escapeHTML(a.Text)
		s.closeTag(atom.Code)
		s.closeTag(atom.Pre)
	} else {
		s.WriteString(out)
	}
	s.closeTag(atom.Div)
	s.WriteString("\n")
}

func (h *htmlFormat) highlight(a guides.Attrs) (string, error) {
	lexer := lexers.Get(a.Name)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get(h.opts.HighlightStyle)
	if style == nil {
		style = styles.Fallback
	}
	opts := []chromahtml.Option{chromahtml.TabWidth(8)}
	if _, ok := a.Option("linenos"); ok {
		opts = append(opts, chromahtml.WithLineNumbers(true))
		if start, err := strconv.Atoi(a.Options["lineno-start"]); err == nil {
			opts = append(opts, chromahtml.BaseLineNumber(start))
		}
	}
	if ranges := parseLineRanges(a.Options["emphasize-lines"]); len(ranges) > 0 {
		opts = append(opts, chromahtml.HighlightLines(ranges))
	}
	it, err := lexer.Tokenise(nil, a.Text)
	if err != nil {
		return "", err
	}
	buf := new(bytes.Buffer)
	if err := chromahtml.New(opts...).Format(buf, style, it); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// parseLineRanges parses a line list such as "1,3-5".
// Malformed items are ignored.
func parseLineRanges(list string) [][2]int {
	var ranges [][2]int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			continue
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < start {
				continue
			}
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

func htmlImage(s *State, n guides.Node) {
	a := n.Attrs()
	link := a.Options["target"]
	if link != "" {
		s.openTagAttr(atom.A)
		s.attr("href", NormalizeURI(s.ctx.RelativeURL(link)))
		s.WriteString(">")
	}
	s.openTagAttr(atom.Img)
	s.attr("src", NormalizeURI(s.ctx.RelativeURL(a.Target)))
	s.WriteString(` alt="`)
	s.escapeHTML(a.Title)
	s.WriteString(`"`)
	s.attr("width", a.Options["width"])
	s.attr("height", a.Options["height"])
	class := a.Options["class"]
	if align := a.Options["align"]; align != "" {
		class = strings.TrimSpace(class + " align-" + align)
	}
	s.attr("class", class)
	s.WriteString(">")
	if link != "" {
		s.closeTag(atom.A)
	}
	s.WriteString("\n")
}

func htmlFigure(s *State, n guides.Node) {
	a := n.Attrs()
	s.openTagAttr(atom.Figure)
	s.attr("class", a.Options["class"])
	s.WriteString(">\n")
	if n.ChildCount() > 0 {
		s.Render(n.Child(0))
	}
	if n.ChildCount() > 1 {
		s.openTag(atom.Figcaption)
		caption := n.Child(1)
		if caption.Kind() == guides.ParagraphKind {
			s.Children(caption)
		} else {
			s.Render(caption)
		}
		s.closeTag(atom.Figcaption)
		s.WriteString("\n")
	}
	if n.ChildCount() > 2 {
		s.openTagAttr(atom.Div)
		s.attr("class", "legend")
		s.WriteString(">\n")
		s.ChildrenFrom(n, 2)
		s.closeTag(atom.Div)
		s.WriteString("\n")
	}
	s.closeTag(atom.Figure)
	s.WriteString("\n")
}

var titleCaser = cases.Title(language.English)

// AdmonitionTitle returns the default title of an admonition type.
func AdmonitionTitle(name string) string {
	if name == "seealso" {
		return "See also"
	}
	return titleCaser.String(name)
}

// titledBody renders the title of an admonition, sidebar or topic
// and returns the index of the first body child.
func (s *State) titledBody(n guides.Node, class string) int {
	s.openTagAttr(atom.P)
	s.attr("class", class)
	s.WriteString(">")
	start := 0
	if n.ChildCount() > 0 && n.Child(0).Kind() == guides.SpanKind {
		s.Render(n.Child(0))
		start = 1
	} else if title := n.Attrs().Title; title != "" {
		s.escapeHTML(title)
	} else {
		s.escapeHTML(AdmonitionTitle(n.Attrs().Name))
	}
	s.closeTag(atom.P)
	s.WriteString("\n")
	return start
}

func htmlAdmonition(s *State, n guides.Node) {
	a := n.Attrs()
	class := "admonition " + a.Name
	if a.Name == "admonition" {
		class = "admonition admonition-" + guides.Slugify(a.Title)
	}
	s.openTagAttr(atom.Div)
	s.attr("class", strings.TrimSpace(class+" "+a.Options["class"]))
	s.WriteString(">\n")
	start := s.titledBody(n, "admonition-title")
	s.ChildrenFrom(n, start)
	s.closeTag(atom.Div)
	s.WriteString("\n")
}

func htmlSidebar(s *State, n guides.Node) {
	a := n.Attrs()
	s.openTagAttr(atom.Aside)
	s.attr("class", strings.TrimSpace("sidebar "+a.Options["class"]))
	s.WriteString(">\n")
	start := s.titledBody(n, "sidebar-title")
	if subtitle := a.Options["subtitle"]; subtitle != "" {
		s.openTagAttr(atom.P)
		s.attr("class", "sidebar-subtitle")
		s.WriteString(">")
		s.escapeHTML(subtitle)
		s.closeTag(atom.P)
		s.WriteString("\n")
	}
	s.ChildrenFrom(n, start)
	s.closeTag(atom.Aside)
	s.WriteString("\n")
}

func htmlTopic(s *State, n guides.Node) {
	s.openTagAttr(atom.Div)
	s.attr("class", strings.TrimSpace("topic "+n.Attrs().Options["class"]))
	s.WriteString(">\n")
	start := s.titledBody(n, "topic-title")
	s.ChildrenFrom(n, start)
	s.closeTag(atom.Div)
	s.WriteString("\n")
}

func htmlToc(s *State, n guides.Node) {
	a := n.Attrs()
	entries := s.tocTree(n)
	if _, hidden := a.Option("hidden"); hidden {
		return
	}
	s.openTagAttr(atom.Div)
	s.attr("class", "toctree-wrapper")
	s.WriteString(">\n")
	if a.Title != "" {
		s.openTagAttr(atom.P)
		s.attr("class", "caption")
		s.WriteString(">")
		s.escapeHTML(a.Title)
		s.closeTag(atom.P)
		s.WriteString("\n")
	}
	s.tocList(entries, 1)
	s.closeTag(atom.Div)
	s.WriteString("\n")
}

func htmlContents(s *State, n guides.Node) {
	a := n.Attrs()
	s.openTagAttr(atom.Div)
	s.attr("class", "contents topic")
	s.attr("id", guides.Slugify(a.Title))
	s.WriteString(">\n")
	s.openTagAttr(atom.P)
	s.attr("class", "topic-title")
	s.WriteString(">")
	s.escapeHTML(a.Title)
	s.closeTag(atom.P)
	s.WriteString("\n")
	s.tocList(s.localContents(n), 1)
	s.closeTag(atom.Div)
	s.WriteString("\n")
}

func (s *State) tocList(entries []tocEntry, level int) {
	if len(entries) == 0 {
		return
	}
	s.openTag(atom.Ul)
	s.WriteString("\n")
	for _, e := range entries {
		s.openTagAttr(atom.Li)
		s.attr("class", "toctree-l"+strconv.Itoa(level))
		s.WriteString(">")
		s.openTagAttr(atom.A)
		s.attr("href", NormalizeURI(e.url))
		s.WriteString(">")
		s.escapeHTML(e.title)
		s.closeTag(atom.A)
		if len(e.children) > 0 {
			s.WriteString("\n")
			s.tocList(e.children, level+1)
		}
		s.closeTag(atom.Li)
		s.WriteString("\n")
	}
	s.closeTag(atom.Ul)
	s.WriteString("\n")
}

func (h *htmlFormat) raw(s *State, n guides.Node) {
	a := n.Attrs()
	if h.opts.IgnoreRaw || a.Name != "html" {
		return
	}
	s.WriteString(a.Text)
	if !strings.HasSuffix(a.Text, "\n") {
		s.WriteString("\n")
	}
}

func htmlLink(s *State, n guides.Node) {
	a := n.Attrs()
	href := a.Target
	if href == "" {
		id, ok := s.sectionID(a.Name)
		if !ok {
			s.Children(n)
			return
		}
		href = "#" + id
	}
	s.openTagAttr(atom.A)
	s.attr("href", NormalizeURI(href))
	s.WriteString(">")
	s.Children(n)
	s.closeTag(atom.A)
}

// sectionID finds a heading of the current document
// whose text matches a reference name.
func (s *State) sectionID(name string) (string, bool) {
	e, ok := s.ctx.Entry()
	if !ok || name == "" {
		return "", false
	}
	want := guides.Slugify(name)
	var search func(titles []metas.Title) (string, bool)
	search = func(titles []metas.Title) (string, bool) {
		for _, t := range titles {
			if guides.Slugify(t.Text) == want {
				return t.ID, true
			}
			if id, ok := search(t.Children); ok {
				return id, true
			}
		}
		return "", false
	}
	return search(e.Titles)
}

func htmlCrossReference(s *State, n guides.Node) {
	ref, caption := s.ResolveReference(n)
	if ref == nil {
		s.escapeHTML(caption)
		return
	}
	s.openTagAttr(atom.A)
	s.attr("href", NormalizeURI(s.ctx.RelativeURL(ref.URL)))
	attrs := ref.Attributes()
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.attr(k, attrs[k])
	}
	s.WriteString(">")
	s.escapeHTML(caption)
	s.closeTag(atom.A)
}

func htmlPage(s *State, tree *guides.Tree, body string) {
	title := tree.Title()
	if p := s.ctx.Project; p != "" {
		if title != "" {
			title += " - "
		}
		title += p
	}
	s.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	s.openTag(atom.Title)
	s.escapeHTML(title)
	s.closeTag(atom.Title)
	s.WriteString("\n</head>\n<body>\n")
	s.WriteString(body)
	s.WriteString("</body>\n</html>\n")
}

// NormalizeURI percent-encodes any characters in a string
// that are not reserved or unreserved URI characters.
// Existing percent escapes are kept.
// A URI with a scheme outside of [SafeSchemes] becomes "#".
func NormalizeURI(s string) string {
	if !isSafeURI(s) {
		return "#"
	}
	// RFC 3986 reserved and unreserved characters.
	const safeSet = `;/?:@&=+$,-_.!~*'()#`

	sb := new(strings.Builder)
	sb.Grow(len(s))
	skip := 0
	var buf [utf8.UTFMax]byte
	for i, c := range s {
		if skip > 0 {
			skip--
			sb.WriteRune(c)
			continue
		}
		switch {
		case c == '%':
			if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
				skip = 2
				sb.WriteByte('%')
			} else {
				sb.WriteString("%25")
			}
		case c < 0x80 && (isASCIILetter(byte(c)) || isASCIIDigit(byte(c))) || strings.ContainsRune(safeSet, c):
			sb.WriteRune(c)
		default:
			n := utf8.EncodeRune(buf[:], c)
			for _, b := range buf[:n] {
				sb.WriteByte('%')
				sb.WriteByte(urlHexDigit(b >> 4))
				sb.WriteByte(urlHexDigit(b & 0x0f))
			}
		}
	}
	return sb.String()
}

// SafeSchemes is the set of URI schemes that [NormalizeURI] keeps.
// Relative references are always kept.
var SafeSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"ftp":    true,
	"tel":    true,
}

func isSafeURI(s string) bool {
	// Browsers ignore leading whitespace and embedded tabs or newlines.
	s = strings.TrimLeft(s, "\x00\x01\x02\x03\x04\x05\x06\x07\x08\t\n\v\f\r ")
	s = strings.NewReplacer("\t", "", "\n", "", "\r", "").Replace(s)
	if gmhtml.IsDangerousURL([]byte(s)) {
		return false
	}
	scheme, ok := uriScheme(s)
	if !ok {
		return true
	}
	scheme = strings.ToLower(scheme)
	// IsDangerousURL has already rejected data URIs other than images.
	return SafeSchemes[scheme] || scheme == "data"
}

// uriScheme returns the scheme of an absolute URI.
func uriScheme(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ':':
			return s[:i], i > 0
		case isASCIILetter(c):
		case i > 0 && (isASCIIDigit(c) || c == '+' || c == '-' || c == '.'):
		default:
			return "", false
		}
	}
	return "", false
}

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHex(c byte) bool {
	return 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F' || isASCIIDigit(c)
}

func urlHexDigit(x byte) byte {
	switch {
	case x < 0xa:
		return '0' + x
	case x < 0x10:
		return 'A' + x - 0xa
	default:
		panic("out of bounds")
	}
}
