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
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	rolePattern       = regexp.MustCompile("^:([A-Za-z0-9][A-Za-z0-9_.+-]*(?::[A-Za-z0-9][A-Za-z0-9_.+-]*)?):`")
	suffixRolePattern = regexp.MustCompile(`^:([A-Za-z0-9][A-Za-z0-9_.+-]*(?::[A-Za-z0-9][A-Za-z0-9_.+-]*)?):`)
	urlPattern        = regexp.MustCompile(`^(?:https?|ftp)://[^\s<>]*[^\s<>.,;:!?'")\]}]|^mailto:[^\s<>]*[^\s<>.,;:!?'")\]}]`)
	emailPattern      = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)+`)
	simpleRefPattern  = regexp.MustCompile(`^([A-Za-z0-9]+(?:[-._+:][A-Za-z0-9]+)*)(__?)(?:[\s.,;:!?'")\]}>]|$)`)
)

// spanParser tokenizes the text of a single block.
type spanParser struct {
	b     *Builder
	line  int
	s     string
	nodes []NodeID
	buf   strings.Builder
}

func (b *Builder) parseSpan(text string, line int) NodeID {
	p := &spanParser{b: b, line: line, s: text}
	p.parse()
	return b.Add(SpanKind, line, Attrs{}, p.nodes...)
}

func (p *spanParser) parse() {
	s := p.s
	for i := 0; i < len(s); {
		if n := p.markup(i); n > 0 {
			i += n
			continue
		}
		if s[i] == '\\' {
			i++
			if i < len(s) {
				c, size := utf8.DecodeRuneInString(s[i:])
				if c != ' ' && c != '\n' {
					p.buf.WriteRune(c)
				}
				i += size
			}
			continue
		}
		c, size := utf8.DecodeRuneInString(s[i:])
		p.buf.WriteRune(c)
		i += size
	}
	p.flush()
}

// markup tries the inline constructs at s[i:]
// and returns the number of bytes consumed, or zero if none matched.
func (p *spanParser) markup(i int) int {
	s := p.s
	if !p.atStart(i) {
		return 0
	}
	switch c := s[i]; {
	case strings.HasPrefix(s[i:], "``"):
		return p.inlineLiteral(i)
	case c == ':':
		return p.prefixRole(i)
	case c == '*':
		return p.emphasis(i)
	case c == '`':
		return p.interpreted(i)
	case c == '|':
		return p.substitution(i)
	case c < utf8.RuneSelf && (c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'):
		return p.word(i)
	}
	return 0
}

// atStart reports whether inline markup may start at s[i]:
// at the beginning of the text or after whitespace or opening punctuation.
func (p *spanParser) atStart(i int) bool {
	if i == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(p.s[:i])
	return unicode.IsSpace(prev) || strings.ContainsRune(`'"([{<-/:`, prev)
}

// findEnd returns the index of the end-string delim for markup
// whose content starts at from, or -1.
// The end-string must follow a non-space character
// and be followed by whitespace, punctuation or the end of the text.
func (p *spanParser) findEnd(from int, delim string, escapes bool) int {
	s := p.s
	if from >= len(s) || s[from] == ' ' || s[from] == '\n' {
		return -1
	}
	for j := from + 1; j <= len(s)-len(delim); j++ {
		if !strings.HasPrefix(s[j:], delim) {
			continue
		}
		if s[j-1] == ' ' || s[j-1] == '\n' || escapes && s[j-1] == '\\' {
			continue
		}
		after := j + len(delim)
		if after < len(s) {
			next, _ := utf8.DecodeRuneInString(s[after:])
			if !unicode.IsSpace(next) && !strings.ContainsRune(`'")]}>-/:.,;!?\_`, next) {
				continue
			}
		}
		return j
	}
	return -1
}

func (p *spanParser) flush() {
	if p.buf.Len() == 0 {
		return
	}
	p.emit(p.b.Add(TextKind, p.line, Attrs{Text: p.buf.String()}))
	p.buf.Reset()
}

func (p *spanParser) emit(id NodeID) {
	p.nodes = append(p.nodes, id)
}

func (p *spanParser) text(s string) NodeID {
	return p.b.Add(TextKind, p.line, Attrs{Text: s})
}

func (p *spanParser) inlineLiteral(i int) int {
	end := p.findEnd(i+2, "``", false)
	if end < 0 {
		return 0
	}
	p.flush()
	p.emit(p.b.Add(InlineLiteralKind, p.line, Attrs{Text: p.s[i+2 : end]}))
	return end + 2 - i
}

func (p *spanParser) emphasis(i int) int {
	kind, delim := EmphasisKind, "*"
	if strings.HasPrefix(p.s[i:], "**") {
		kind, delim = StrongKind, "**"
	}
	end := p.findEnd(i+len(delim), delim, true)
	if end < 0 {
		return 0
	}
	p.flush()
	p.emit(p.b.Add(kind, p.line, Attrs{}, p.text(unescape(p.s[i+len(delim):end]))))
	return end + len(delim) - i
}

func (p *spanParser) substitution(i int) int {
	end := p.findEnd(i+1, "|", true)
	if end < 0 {
		return 0
	}
	name := p.s[i+1 : end]
	p.flush()
	p.emit(p.b.Add(TextKind, p.line, Attrs{Name: name, Text: "|" + name + "|"}))
	return end + 1 - i
}

// prefixRole parses :role:`content` and :domain:role:`content`.
func (p *spanParser) prefixRole(i int) int {
	m := rolePattern.FindStringSubmatch(p.s[i:])
	if m == nil {
		return 0
	}
	start := i + len(m[0])
	end := p.findEnd(start, "`", true)
	if end < 0 {
		return 0
	}
	p.flush()
	p.emit(p.role(m[1], p.s[start:end]))
	return end + 1 - i
}

// interpreted parses text enclosed in single backquotes:
// hyperlink references, suffix roles and title references.
func (p *spanParser) interpreted(i int) int {
	end := p.findEnd(i+1, "`", true)
	if end < 0 {
		return 0
	}
	content := p.s[i+1 : end]
	rest := p.s[end+1:]
	switch {
	case strings.HasPrefix(rest, "__"):
		p.flush()
		p.emit(p.hyperlink(content, true))
		return end + 3 - i
	case strings.HasPrefix(rest, "_"):
		p.flush()
		p.emit(p.hyperlink(content, false))
		return end + 2 - i
	}
	if m := suffixRolePattern.FindStringSubmatch(rest); m != nil {
		p.flush()
		p.emit(p.role(m[1], content))
		return end + 1 + len(m[0]) - i
	}
	p.flush()
	p.emit(p.b.Add(TitleReferenceKind, p.line, Attrs{}, p.text(unescape(content))))
	return end + 1 - i
}

// hyperlink creates a link from `text <url>`_ or `name`_.
// A named reference with an embedded URL also defines the target.
func (p *spanParser) hyperlink(content string, anonymous bool) NodeID {
	display, url, hasURL := splitEmbeddedTarget(unescape(content))
	if !hasURL {
		name := normalizeRefName(display)
		if anonymous {
			name = anonymousRefName
		}
		return p.b.Add(LinkKind, p.line, Attrs{Name: name}, p.text(display))
	}
	if display == "" {
		display = url
	}
	if strings.HasSuffix(url, "_") && !strings.ContainsAny(url, "/:") {
		// Embedded alias: `text <name_>`_.
		return p.b.Add(LinkKind, p.line, Attrs{Name: normalizeRefName(strings.TrimSuffix(url, "_"))}, p.text(display))
	}
	if !anonymous {
		p.b.SetTarget(display, url)
	}
	return p.b.Add(LinkKind, p.line, Attrs{Target: url}, p.text(display))
}

// word parses standalone URLs, e-mail addresses and name_ references.
func (p *spanParser) word(i int) int {
	rest := p.s[i:]
	if m := urlPattern.FindString(rest); m != "" {
		p.flush()
		p.emit(p.b.Add(LinkKind, p.line, Attrs{Target: m}, p.text(m)))
		return len(m)
	}
	wordEnd := strings.IndexFunc(rest, unicode.IsSpace)
	if wordEnd < 0 {
		wordEnd = len(rest)
	}
	if strings.Contains(rest[:wordEnd], "@") {
		if m := emailPattern.FindString(rest); m != "" {
			p.flush()
			p.emit(p.b.Add(LinkKind, p.line, Attrs{Target: "mailto:" + m}, p.text(m)))
			return len(m)
		}
	}
	if m := simpleRefPattern.FindStringSubmatch(rest); m != nil {
		name := normalizeRefName(m[1])
		if m[2] == "__" {
			name = anonymousRefName
		}
		p.flush()
		p.emit(p.b.Add(LinkKind, p.line, Attrs{Name: name}, p.text(m[1])))
		return len(m[1]) + len(m[2])
	}
	// Consume the whole alphanumeric run so markup is not recognized mid-word.
	n := strings.IndexFunc(rest, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
	if n < 0 {
		n = len(rest)
	}
	p.buf.WriteString(rest[:n])
	return n
}

// role creates the node for an interpreted text role.
// Registered roles build their own nodes;
// any other role becomes a cross-reference.
func (p *spanParser) role(name, content string) NodeID {
	b := p.b
	domain, role := "", name
	if d, r, ok := strings.Cut(name, ":"); ok {
		domain, role = d, r
	}
	if h := b.registry.Role(name); h != nil {
		return b.dispatchRole(h, &Role{
			Name:    role,
			Domain:  domain,
			Content: unescape(content),
			Line:    p.line,
		})
	}

	target, display, anchor, trailing := ParseReferenceTarget(content)
	if trailing != "" {
		b.Warnf(p.line, "unexpected text %q after reference target in :%s:", trailing, name)
	}
	if target == "" {
		b.Warnf(p.line, "empty target in :%s: reference", name)
		return p.text(unescape(content))
	}
	return b.Add(CrossReferenceKind, p.line, Attrs{
		ID:      b.NextReferenceID(),
		Role:    role,
		Domain:  domain,
		Target:  target,
		Anchor:  anchor,
		Display: display,
	})
}

// ParseReferenceTarget splits the content of a cross-reference role.
// For "display <target>", the text before "<" is the display text
// and the bracketed text is the target;
// otherwise the whole content is the target.
// A trailing "#fragment" is split off the target as the anchor.
// Any text after the closing ">" is returned as trailing.
func ParseReferenceTarget(content string) (target, display, anchor, trailing string) {
	content = strings.Join(strings.Fields(content), " ")
	target = content
	if lt := strings.LastIndexByte(content, '<'); lt >= 0 && (lt == 0 || content[lt-1] != '\\') {
		if gt := strings.IndexByte(content[lt:], '>'); gt > 0 {
			display = strings.TrimSpace(content[:lt])
			target = strings.TrimSpace(content[lt+1 : lt+gt])
			trailing = strings.TrimSpace(content[lt+gt+1:])
		}
	}
	display = unescape(display)
	if hash := strings.LastIndexByte(target, '#'); hash >= 0 {
		anchor = target[hash+1:]
		target = target[:hash]
		if target == "" {
			// A bare fragment is the target.
			target, anchor = anchor, ""
		}
	}
	return unescape(target), display, anchor, trailing
}

// splitEmbeddedTarget splits "text <url>" hyperlink content.
func splitEmbeddedTarget(content string) (display, url string, ok bool) {
	content = strings.TrimSpace(content)
	if !strings.HasSuffix(content, ">") {
		return content, "", false
	}
	lt := strings.LastIndexByte(content, '<')
	if lt < 0 {
		return content, "", false
	}
	url = strings.Join(strings.Fields(content[lt+1:len(content)-1]), "")
	return strings.TrimSpace(content[:lt]), url, true
}

// unescape removes backslash escapes.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	sb := new(strings.Builder)
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			if s[i] == ' ' || s[i] == '\n' {
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
