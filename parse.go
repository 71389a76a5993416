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
	"bytes"
	"strings"
)

// tabStopSize is the multiple of columns that a tab advances to.
const tabStopSize = 8

// A Parser converts reStructuredText source into a [Tree].
// The zero value uses [DefaultRegistry] and starts headings at level 1.
// A Parser is safe to use from multiple goroutines
// as long as its fields are not modified.
type Parser struct {
	// Registry holds the directive and role handlers.
	// If nil, [DefaultRegistry] is used.
	Registry *Registry
	// InitialHeaderLevel is the level given to the first title style.
	// Zero is treated as 1.
	InitialHeaderLevel int
}

// Parse parses source with the default registry.
func Parse(source []byte) (*Tree, []Diagnostic) {
	return new(Parser).Parse("", source)
}

// Parse parses the document at file.
// Parsing never fails: problems are reported as diagnostics
// and the parser resynchronizes at the next block.
func (p *Parser) Parse(file string, source []byte) (*Tree, []Diagnostic) {
	b := NewBuilder(file, p.Registry)
	if p.InitialHeaderLevel > 0 {
		b.headerLevel = p.InitialHeaderLevel
	}
	children := b.parseBlocks(newLineReader(splitLines(source), 1))
	b.AppendChildren(b.Root(), children...)
	return b.Finish()
}

// splitLines splits source into lines.
// Any of "\n", "\r\n" or "\r" end a line.
// Tabs are expanded, NUL bytes are replaced with U+FFFD
// and trailing whitespace is removed.
func splitLines(source []byte) []string {
	if bytes.IndexByte(source, 0) >= 0 {
		source = bytes.ReplaceAll(source, []byte{0}, []byte("\ufffd"))
	}
	var lines []string
	for len(source) > 0 {
		i := bytes.IndexAny(source, "\r\n")
		if i < 0 {
			lines = append(lines, cleanLine(source))
			break
		}
		lines = append(lines, cleanLine(source[:i]))
		if source[i] == '\r' && i+1 < len(source) && source[i+1] == '\n' {
			i++
		}
		source = source[i+1:]
	}
	return lines
}

func cleanLine(line []byte) string {
	line = bytes.TrimRight(line, " \t\f\v")
	if bytes.IndexByte(line, '\t') < 0 {
		return string(line)
	}
	sb := new(strings.Builder)
	col := 0
	for _, c := range string(line) {
		if c == '\t' {
			n := tabStopSize - col%tabStopSize
			sb.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		sb.WriteRune(c)
		col++
	}
	return sb.String()
}

// lineReader is a cursor over a block of lines.
type lineReader struct {
	lines []string
	pos   int
	first int // line number of lines[0]
}

func newLineReader(lines []string, first int) *lineReader {
	return &lineReader{lines: lines, first: first}
}

func (r *lineReader) eof() bool {
	return r.pos >= len(r.lines)
}

// peek returns the line i lines after the current one.
func (r *lineReader) peek(i int) (string, bool) {
	if r.pos+i >= len(r.lines) {
		return "", false
	}
	return r.lines[r.pos+i], true
}

func (r *lineReader) current() string {
	line, _ := r.peek(0)
	return line
}

func (r *lineReader) advance() {
	r.pos++
}

// lineno returns the source line number of the current line.
func (r *lineReader) lineno() int {
	return r.first + r.pos
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// indentOf returns the number of leading spaces in line.
func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// consumeIndented reads lines while they are blank or indented by at least min columns.
// Trailing blank lines are left unread.
// The returned lines have their common indentation removed.
func (r *lineReader) consumeIndented(min int) (lines []string, start int) {
	start = r.lineno()
	end := r.pos
	for i := r.pos; i < len(r.lines); i++ {
		line := r.lines[i]
		if isBlank(line) {
			continue
		}
		if indentOf(line) < min {
			break
		}
		end = i + 1
	}
	lines = r.lines[r.pos:end]
	r.pos = end
	return dedent(lines), start
}

// dedent removes the smallest indentation of the non-blank lines from every line.
func dedent(lines []string) []string {
	common := -1
	for _, line := range lines {
		if isBlank(line) {
			continue
		}
		if n := indentOf(line); common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return append([]string(nil), lines...)
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if len(line) >= common {
			out[i] = line[common:]
		}
	}
	return out
}
