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
	"regexp"
	"strconv"
	"strings"
)

var (
	// listMarkerPattern matches bullet list markers and
	// arabic or auto-enumerated markers of the forms "1.", "1)" and "(1)".
	listMarkerPattern = regexp.MustCompile(`^([-+*\x{2022}\x{2023}\x{2043}]|[0-9#]+\.|[0-9#]+\)|\([0-9#]+\))(?: +|$)`)
	digitsPattern     = regexp.MustCompile(`[0-9]+`)

	directivePattern = regexp.MustCompile(`^\.\. +(?:\|([^|]+)\| +)?(\S+?)::(?:\s+(.*))?$`)
	optionPattern    = regexp.MustCompile(`^:([^:\s][^:]*):(?:\s+(.*))?$`)
	targetPattern    = regexp.MustCompile("^\\.\\. +_(`[^`]+`|[^:]+|_):(?:\\s+(.*))?$")
)

// minSeparatorLength is the shortest adornment line that forms a transition.
const minSeparatorLength = 4

type openSection struct {
	id    NodeID
	level int
}

// parseBlocks consumes r and returns the top-level nodes it contains.
// Block rules are tried in order and the first match wins.
func (b *Builder) parseBlocks(r *lineReader) []NodeID {
	var out []NodeID
	var sections []openSection
	emit := func(ids ...NodeID) {
		for _, id := range ids {
			if id == NoNode {
				continue
			}
			if len(sections) == 0 {
				out = append(out, id)
			} else {
				b.AppendChildren(sections[len(sections)-1].id, id)
			}
		}
	}

	expectLiteral := false
	for !r.eof() {
		line := r.current()
		if isBlank(line) {
			r.advance()
			continue
		}
		if expectLiteral {
			expectLiteral = false
			if indentOf(line) > 0 {
				emit(b.literalBlock(r))
				continue
			}
			b.Warnf(r.lineno(), "literal block expected; none found")
		}
		if indentOf(line) > 0 {
			emit(b.blockQuote(r))
			continue
		}

		switch {
		case line == ".." || strings.HasPrefix(line, ".. "):
			emit(b.explicitMarkup(r)...)
		case strings.HasPrefix(line, "__ "):
			b.anonymousTarget(r, strings.TrimSpace(line[3:]))
		case isTableStart(line):
			emit(b.table(r))
		case isDefinitionStart(r):
			emit(b.definitionList(r))
		case isListStart(r):
			emit(b.list(r))
		case isTitleStart(r):
			id, level := b.title(r)
			for len(sections) > 0 && sections[len(sections)-1].level >= level {
				sections = sections[:len(sections)-1]
			}
			emit(id)
			sections = append(sections, openSection{id: id, level: level})
		case line == "::":
			r.advance()
			expectLiteral = true
		case isSeparatorLine(r):
			emit(b.Add(SeparatorKind, r.lineno(), Attrs{Level: 1}))
			r.advance()
		default:
			id, literal := b.paragraph(r)
			emit(id)
			expectLiteral = literal
		}
	}
	if expectLiteral {
		b.Warnf(r.lineno(), "literal block expected; none found")
	}
	return out
}

// adornmentLetter returns the character an adornment line repeats,
// or zero if line is not an adornment line.
// Adornment lines are at least two repetitions of one ASCII punctuation character.
func adornmentLetter(line string) byte {
	if len(line) < 2 {
		return 0
	}
	c := line[0]
	if !isASCIIPunct(c) {
		return 0
	}
	for i := 1; i < len(line); i++ {
		if line[i] != c {
			return 0
		}
	}
	return c
}

func isASCIIPunct(c byte) bool {
	return '!' <= c && c <= '/' ||
		':' <= c && c <= '@' ||
		'[' <= c && c <= '`' ||
		'{' <= c && c <= '~'
}

func isTitleStart(r *lineReader) bool {
	line := r.current()
	next, ok := r.peek(1)
	if !ok || isBlank(next) {
		return false
	}
	if adornmentLetter(line) != 0 {
		return true
	}
	return adornmentLetter(next) != 0
}

// title consumes a section title and returns a new section node and its level.
func (b *Builder) title(r *lineReader) (NodeID, int) {
	lineno := r.lineno()
	var style adornment
	var text string
	if over := adornmentLetter(r.current()); over != 0 {
		r.advance()
		text = strings.TrimSpace(r.current())
		r.advance()
		if !r.eof() && adornmentLetter(r.current()) == over {
			r.advance()
		} else {
			b.Warnf(lineno, "title overline without matching underline")
		}
		style = adornment{letter: over, overline: true}
	} else {
		text = strings.TrimSpace(r.current())
		r.advance()
		style = adornment{letter: adornmentLetter(r.current())}
		r.advance()
	}

	level := b.headerLevel + b.adornmentIndex(style)
	span := b.parseSpan(text, lineno)
	title := b.Node(span).Text()
	id := b.Add(SectionKind, lineno, Attrs{
		Level: level,
		Title: title,
		ID:    b.SectionID(title),
	}, span)
	return id, level
}

// adornmentIndex returns the order in which a title style was first seen.
func (b *Builder) adornmentIndex(style adornment) int {
	for i, a := range b.adornments {
		if a == style {
			return i
		}
	}
	b.adornments = append(b.adornments, style)
	return len(b.adornments) - 1
}

// isSeparatorLine reports whether the current line is a transition:
// an adornment line followed by a blank line or the end of input.
func isSeparatorLine(r *lineReader) bool {
	line := r.current()
	if len(line) < minSeparatorLength || adornmentLetter(line) == 0 {
		return false
	}
	next, ok := r.peek(1)
	return !ok || isBlank(next)
}

// paragraph consumes lines up to the next blank or indented line.
// literal reports whether the paragraph ended with "::",
// which introduces a literal block.
func (b *Builder) paragraph(r *lineReader) (id NodeID, literal bool) {
	start := r.lineno()
	var lines []string
	for !r.eof() {
		line := r.current()
		if isBlank(line) || len(lines) > 0 && indentOf(line) > 0 {
			break
		}
		lines = append(lines, line)
		r.advance()
	}
	text := strings.Join(lines, "\n")
	if strings.HasSuffix(text, "::") {
		literal = true
		switch {
		case text == "::":
			return NoNode, true
		case strings.HasSuffix(text, " ::") || strings.HasSuffix(text, "\n::"):
			text = strings.TrimRight(text[:len(text)-2], " \n")
		default:
			text = text[:len(text)-1]
		}
	}
	if !literal && !r.eof() && !isBlank(r.current()) {
		b.Warnf(r.lineno(), "unexpected indentation")
	}
	return b.Add(ParagraphKind, start, Attrs{}, b.parseSpan(text, start)), literal
}

func (b *Builder) literalBlock(r *lineReader) NodeID {
	lines, start := r.consumeIndented(1)
	text, first := joinBody(lines, start)
	return b.Add(LiteralKind, first, Attrs{Text: text})
}

func (b *Builder) blockQuote(r *lineReader) NodeID {
	lines, start := r.consumeIndented(1)
	text, first := joinBody(lines, start)
	return b.Add(QuoteKind, first, Attrs{}, b.ParseBlocks(text, first)...)
}

// joinBody joins lines, dropping leading and trailing blank lines,
// and returns the line number of the first kept line.
func joinBody(lines []string, start int) (string, int) {
	for len(lines) > 0 && isBlank(lines[0]) {
		lines = lines[1:]
		start++
	}
	for len(lines) > 0 && isBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n"), start
}

// skipBlankLinesIf advances past blank lines
// if the first non-blank line after them satisfies cont.
func skipBlankLinesIf(r *lineReader, cont func(r *lineReader) bool) bool {
	save := r.pos
	for !r.eof() && isBlank(r.current()) {
		r.advance()
	}
	if r.eof() || !cont(r) {
		r.pos = save
		return false
	}
	return true
}

// listMarker reports whether line starts a list item.
// Enumerated markers are only accepted when the next line
// continues the item or starts another item of the same kind.
func listMarker(line, next string, hasNext bool) (marker string, offset int, ok bool) {
	m := listMarkerPattern.FindStringSubmatch(line)
	if m == nil {
		return "", 0, false
	}
	offset = len(m[0])
	marker = digitsPattern.ReplaceAllString(m[1], "d")
	if marker != m[1] && hasNext && !isBlank(next) && indentOf(next) < offset {
		if nextMarker, _, ok := listMarker(next, "", false); !ok || nextMarker != marker {
			return "", 0, false
		}
	}
	return marker, offset, true
}

func isListStart(r *lineReader) bool {
	next, ok := r.peek(1)
	_, _, isList := listMarker(r.current(), next, ok)
	return isList
}

func isBulletMarker(marker string) bool {
	switch marker {
	case "-", "+", "*", "•", "‣", "⁃":
		return true
	default:
		return false
	}
}

// list consumes consecutive items that share a marker style.
func (b *Builder) list(r *lineReader) NodeID {
	next, ok := r.peek(1)
	marker, _, _ := listMarker(r.current(), next, ok)
	attrs := Attrs{
		Name:    marker,
		Ordered: !isBulletMarker(marker),
	}
	if attrs.Ordered {
		attrs.Level = 1
		if n, err := strconv.Atoi(digitsPattern.FindString(listMarkerPattern.FindString(r.current()))); err == nil {
			attrs.Level = n
		}
	}
	listID := b.Add(ListKind, r.lineno(), attrs)
	sameMarker := func(r *lineReader) bool {
		next, ok := r.peek(1)
		m, _, ok := listMarker(r.current(), next, ok)
		return ok && m == marker
	}
	for !r.eof() && sameMarker(r) {
		itemLine := r.lineno()
		next, ok := r.peek(1)
		_, offset, _ := listMarker(r.current(), next, ok)
		lines := []string{r.current()[offset:]}
		r.advance()
		for !r.eof() {
			line := r.current()
			if isBlank(line) {
				if !skipBlankLinesIf(r, func(r *lineReader) bool { return indentOf(r.current()) > 0 }) {
					break
				}
				lines = append(lines, "")
				continue
			}
			if indentOf(line) == 0 {
				break
			}
			if indentOf(line) >= offset {
				lines = append(lines, line[offset:])
			} else {
				lines = append(lines, strings.TrimLeft(line, " "))
			}
			r.advance()
		}
		text, first := joinBody(lines, itemLine)
		item := b.Add(ListItemKind, itemLine, Attrs{}, b.ParseBlocks(text, first)...)
		b.AppendChildren(listID, item)
		if !skipBlankLinesIf(r, sameMarker) {
			break
		}
	}
	return listID
}

// isDefinitionStart reports whether the current line is a definition list term:
// an unindented line directly followed by an indented one.
func isDefinitionStart(r *lineReader) bool {
	line := r.current()
	if isBlank(line) || indentOf(line) > 0 || strings.HasSuffix(line, "::") {
		return false
	}
	next, ok := r.peek(1)
	if !ok || isBlank(next) || indentOf(next) == 0 {
		return false
	}
	_, _, isList := listMarker(line, next, true)
	return !isList
}

func (b *Builder) definitionList(r *lineReader) NodeID {
	listID := b.Add(DefinitionListKind, r.lineno(), Attrs{})
	for !r.eof() && isDefinitionStart(r) {
		termLine := r.lineno()
		parts := strings.Split(r.current(), " : ")
		r.advance()
		lines, start := r.consumeIndented(1)
		text, first := joinBody(lines, start)

		item := b.Add(DefinitionItemKind, termLine, Attrs{},
			b.Add(TermKind, termLine, Attrs{}, b.parseSpan(strings.TrimSpace(parts[0]), termLine)))
		for _, c := range parts[1:] {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			b.AppendChildren(item, b.Add(ClassifierKind, termLine, Attrs{}, b.parseSpan(c, termLine)))
		}
		b.AppendChildren(item, b.Add(DefinitionKind, first, Attrs{}, b.ParseBlocks(text, first)...))
		b.AppendChildren(listID, item)
		if !skipBlankLinesIf(r, isDefinitionStart) {
			break
		}
	}
	return listID
}

// explicitMarkup consumes a block starting with "..":
// a directive, a hyperlink target or a comment.
func (b *Builder) explicitMarkup(r *lineReader) []NodeID {
	line := r.current()
	if m := directivePattern.FindStringSubmatch(line); m != nil {
		return b.directive(r, m)
	}
	if m := targetPattern.FindStringSubmatch(line); m != nil {
		return []NodeID{b.target(r, m[1], m[2])}
	}
	// Comment.
	r.advance()
	r.consumeIndented(1)
	return nil
}

// target consumes a hyperlink target.
// A target without a URL is an internal anchor for the following element.
func (b *Builder) target(r *lineReader, name, url string) NodeID {
	lineno := r.lineno()
	r.advance()
	cont, _ := r.consumeIndented(1)
	for _, line := range cont {
		url += strings.TrimSpace(line)
	}
	url = strings.TrimSpace(url)
	if name == "_" {
		b.anonymousTargets = append(b.anonymousTargets, url)
		return NoNode
	}
	name = strings.Trim(name, "`")
	if url != "" {
		if strings.HasSuffix(url, "_") && !strings.ContainsAny(url, "/:") {
			// Indirect target.
			b.aliases[normalizeRefName(name)] = normalizeRefName(strings.Trim(strings.TrimSuffix(url, "_"), "`"))
			return NoNode
		}
		b.SetTarget(name, url)
		return NoNode
	}
	label := normalizeRefName(name)
	b.SetTarget(label, "#"+Slugify(label))
	return b.Add(AnchorKind, lineno, Attrs{Name: label, ID: Slugify(label)})
}

func (b *Builder) anonymousTarget(r *lineReader, url string) {
	r.advance()
	cont, _ := r.consumeIndented(1)
	for _, line := range cont {
		url += strings.TrimSpace(line)
	}
	b.anonymousTargets = append(b.anonymousTargets, url)
}

// directive consumes a directive block:
// the marker line, an option field list and an indented body.
func (b *Builder) directive(r *lineReader, m []string) []NodeID {
	d := &Directive{
		Variable: strings.TrimSpace(m[1]),
		Name:     m[2],
		Data:     strings.TrimSpace(m[3]),
		Line:     r.lineno(),
	}
	r.advance()
	var opts []rawOption
	for !r.eof() {
		line := r.current()
		if isBlank(line) || indentOf(line) == 0 {
			break
		}
		om := optionPattern.FindStringSubmatch(strings.TrimSpace(line))
		if om == nil {
			break
		}
		opts = append(opts, rawOption{name: strings.TrimSpace(om[1]), value: strings.TrimSpace(om[2]), line: r.lineno()})
		r.advance()
	}
	lines, start := r.consumeIndented(1)
	d.Content, d.ContentLine = joinBody(lines, start)
	return b.dispatchDirective(d, opts)
}
