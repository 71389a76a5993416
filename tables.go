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
	"regexp"
	"sort"
	"strings"
)

// partialSeparatorPattern finds a grid row that is part separator, part content,
// as produced by a cell spanning several rows.
var partialSeparatorPattern = regexp.MustCompile(`\+-+\+`)

// tableSeparator is a parsed table border line.
type tableSeparator struct {
	grid   bool
	header bool
	letter rune
	// parts are the [start, end) column ranges of the line's segments.
	parts [][2]int
}

// parseTableSeparator reports whether line is a table border.
// Grid borders alternate "+" with runs of "-" (or "=" for the header border);
// simple borders alternate runs of "=" or "-" with spaces.
func parseTableSeparator(line string) (tableSeparator, bool) {
	runes := []rune(strings.TrimSpace(line))
	if len(runes) == 0 {
		return tableSeparator{}, false
	}
	lineChar, spaceChar, ok := tableChars(runes)
	if !ok {
		return tableSeparator{}, false
	}
	var sep tableSeparator
	switch {
	case lineChar == '+' && spaceChar == '-':
		sep.grid = true
		lineChar, spaceChar = '-', '+'
	case lineChar == '+' && spaceChar == '=':
		sep.grid = true
		sep.header = true
		lineChar, spaceChar = '=', '+'
	case (lineChar == '=' || lineChar == '-') && spaceChar == ' ':
	default:
		return tableSeparator{}, false
	}
	sep.letter = lineChar

	start := -1
	for i, c := range runes {
		if c == lineChar {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			sep.parts = append(sep.parts, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		sep.parts = append(sep.parts, [2]int{start, len(runes)})
	}
	if sep.grid && len(sep.parts) > 0 || len(sep.parts) > 1 {
		return sep, true
	}
	return tableSeparator{}, false
}

// tableChars returns the two characters a border line is made of.
func tableChars(line []rune) (lineChar, spaceChar rune, ok bool) {
	lineChar = line[0]
	for _, c := range line[1:] {
		switch {
		case c == lineChar:
		case spaceChar == 0:
			spaceChar = c
		case c != spaceChar:
			return 0, 0, false
		}
	}
	return lineChar, spaceChar, spaceChar != 0
}

func isTableStart(line string) bool {
	_, ok := parseTableSeparator(line)
	return ok
}

// tableLine is one line of a table: either a border or content.
type tableLine struct {
	sep     *tableSeparator
	content []rune
	raw     string
}

type tableCell struct {
	content string
	colSpan int
	rowSpan int
	removed bool
}

// completelyEmpty reports whether the cell has no content at all.
// A cell holding a single backslash is displayed empty but is not completely empty.
func (c *tableCell) completelyEmpty() bool {
	return c.content == ""
}

func (c *tableCell) displayContent() string {
	if c.content == `\` {
		return ""
	}
	return c.content
}

func (c *tableCell) addContent(s string) {
	c.content = strings.TrimSpace(c.content + s)
}

type tableRow struct {
	index int
	cells []*tableCell
}

func (row *tableRow) add(content string, colSpan int) {
	row.cells = append(row.cells, &tableCell{
		content: strings.TrimSpace(content),
		colSpan: colSpan,
		rowSpan: 1,
	})
}

// cell returns the cell at the given position in the row as it was first read,
// or nil if there is none.
func (row *tableRow) cell(i int) *tableCell {
	if i < 0 || i >= len(row.cells) || row.cells[i].removed {
		return nil
	}
	return row.cells[i]
}

func (row *tableRow) firstCell() *tableCell {
	for _, c := range row.cells {
		if !c.removed {
			return c
		}
	}
	return nil
}

func (row *tableRow) absorb(other *tableRow) error {
	for i, c := range row.cells {
		if c.removed {
			continue
		}
		target := other.cell(i)
		if target == nil {
			return fmt.Errorf("malformed table: rows %d and %d do not appear to be in the same table", row.index+1, other.index+1)
		}
		c.addContent("\n" + target.content)
	}
	return nil
}

// table consumes a grid or simple table.
// A malformed table is reported and kept as a literal block.
func (b *Builder) table(r *lineReader) NodeID {
	start := r.lineno()
	first, _ := parseTableSeparator(r.current())
	var lines []tableLine
	closed := false
	for !r.eof() {
		raw := r.current()
		if first.grid {
			if isBlank(raw) || !strings.HasPrefix(raw, "+") && !strings.HasPrefix(raw, "|") {
				break
			}
		} else if isBlank(raw) {
			break
		}
		line := tableLine{raw: raw, content: []rune(raw)}
		if sep, ok := parseTableSeparator(raw); ok && sep.grid == first.grid {
			line.sep = &sep
		}
		lines = append(lines, line)
		r.advance()
		if !first.grid && line.sep != nil && len(lines) > 1 {
			next, ok := r.peek(0)
			closed = !ok || isBlank(next)
			if closed {
				break
			}
		}
	}

	var rows []*tableRow
	var headerRows int
	var errs []string
	if first.grid {
		rows, headerRows, errs = compileGridTable(lines)
	} else {
		if !closed {
			b.Warnf(start, "simple table is not closed by a border line")
		}
		rows, headerRows, errs = compileSimpleTable(lines)
	}
	if len(errs) > 0 {
		raws := make([]string, len(lines))
		for i, l := range lines {
			raws[i] = l.raw
		}
		b.Errorf(start, "%s", errs[0])
		return b.Add(LiteralKind, start, Attrs{Text: strings.Join(raws, "\n")})
	}

	tableID := b.Add(TableKind, start, Attrs{Rows: len(rows)})
	columns := 0
	for i, row := range rows {
		rowID := b.Add(TableRowKind, start+row.index, Attrs{Header: i < headerRows})
		width := 0
		for _, c := range row.cells {
			if c.removed {
				continue
			}
			width += c.colSpan
			b.AppendChildren(rowID, b.tableCell(c, start+row.index))
		}
		if width > columns {
			columns = width
		}
		b.AppendChildren(tableID, rowID)
	}
	b.tree.nodes[tableID].attrs.Columns = columns
	return tableID
}

// tableCell creates a cell node.
// Cells starting with a list are parsed as blocks, others as a span.
func (b *Builder) tableCell(c *tableCell, line int) NodeID {
	content := c.displayContent()
	cell := b.Add(TableCellKind, line, Attrs{
		Text:    c.content,
		ColSpan: c.colSpan,
		RowSpan: c.rowSpan,
	})
	if content == "" {
		return cell
	}
	firstLine, _, _ := strings.Cut(content, "\n")
	if _, _, isList := listMarker(firstLine, "", false); isList {
		b.AppendChildren(cell, b.ParseBlocks(content, line)...)
	} else {
		b.AppendChildren(cell, b.parseSpan(content, line))
	}
	return cell
}

// compileSimpleTable splits content lines at the columns of the first border.
// A second "=" border before the last content line ends the header rows.
func compileSimpleTable(lines []tableLine) (rows []*tableRow, headerRows int, errs []string) {
	finalHeader := 0
	lastContent := -1
	for i, l := range lines {
		if l.sep == nil {
			lastContent = i
		} else if i > 0 && l.sep.letter == '=' && finalHeader == 0 {
			finalHeader = i
		}
	}
	if finalHeader > lastContent {
		finalHeader = 0
	}

	ranges := lines[0].sep.parts
	lastEnd := ranges[len(ranges)-1][1]
	var all []*tableRow
	for i, l := range lines {
		if l.sep != nil {
			continue
		}
		row := &tableRow{index: i}
		prevEnd := -1
		for _, rg := range ranges {
			beyond := rg[0] >= len(l.content)
			if prevEnd >= 0 && !beyond {
				gap := string(l.content[prevEnd:rg[0]])
				if strings.TrimSpace(gap) != "" {
					errs = append(errs, fmt.Sprintf("malformed table: content %q appears in the gap on row %q", gap, l.raw))
				}
			}
			var content string
			switch {
			case beyond:
			case rg[1] == lastEnd || rg[1] > len(l.content):
				// Content in the last column may extend past the border.
				content = string(l.content[rg[0]:])
			default:
				content = string(l.content[rg[0]:rg[1]])
			}
			row.add(content, 1)
			prevEnd = rg[1]
		}
		all = append(all, row)
	}

	// A row with an empty first column continues the previous row.
	var prev *tableRow
	for _, row := range all {
		if prev != nil && row.firstCell().completelyEmpty() {
			if err := prev.absorb(row); err != nil {
				errs = append(errs, err.Error())
			}
			continue
		}
		rows = append(rows, row)
		if row.index <= finalHeader {
			headerRows++
		}
		prev = row
	}
	return rows, headerRows, errs
}

// compileGridTable splits content lines at the column boundaries
// found across all borders, detecting column spans from missing cell walls
// and row spans from partial border rows.
func compileGridTable(lines []tableLine) (rows []*tableRow, headerRows int, errs []string) {
	finalHeader := 0
	ends := make(map[int]int)
	for i, l := range lines {
		if l.sep == nil {
			continue
		}
		if l.sep.header {
			if finalHeader != 0 {
				errs = append(errs, fmt.Sprintf("malformed table: multiple header borders found on table lines %d and %d", finalHeader+2, i+1))
			}
			finalHeader = i - 1
		}
		for _, part := range l.sep.parts {
			start, end := part[0], part[1]
			prevEnd, seen := ends[start]
			if !seen {
				ends[start] = end
				continue
			}
			if prevEnd <= end {
				// Same column, or a column spanning recorded ones.
				continue
			}
			// A narrower column than the one recorded: split it.
			ends[start] = end
			ends[end+1] = prevEnd
		}
	}
	starts := make([]int, 0, len(ends))
	for s := range ends {
		starts = append(starts, s)
	}
	sort.Ints(starts)
	for i := 1; i < len(starts); i++ {
		if ends[starts[i-1]] >= starts[i] {
			errs = append(errs, "malformed table: column borders do not line up")
			return nil, 0, errs
		}
	}

	byIndex := make(map[int]*tableRow)
	var order []int
	partial := make(map[int]bool)
	for i, l := range lines {
		if l.sep != nil {
			continue
		}
		row := &tableRow{index: i}
		if partialSeparatorPattern.MatchString(l.raw) {
			partial[i] = true
		}
		cur, span, prevEnd := -1, 1, -1
		for _, start := range starts {
			end := ends[start]
			if end >= len(l.content) {
				errs = append(errs, fmt.Sprintf("malformed table: line %q does not appear to be a complete table row", l.raw))
				break
			}
			if cur >= 0 {
				gap := string(l.content[prevEnd:start])
				if !strings.ContainsAny(gap, "|+") {
					span++
				} else {
					row.add(string(l.content[cur:prevEnd]), span)
					span = 1
					cur = -1
				}
			}
			if cur < 0 {
				cur = start
			}
			prevEnd = end
		}
		if cur >= 0 {
			row.add(string(l.content[cur:prevEnd]), span)
		}
		byIndex[i] = row
		order = append(order, i)
	}

	findAbove := func(col, current int) *tableCell {
		for j := len(order) - 1; j >= 0; j-- {
			k := order[j]
			row, ok := byIndex[k]
			if !ok || k >= current {
				continue
			}
			if c := row.cell(col); c != nil {
				return c
			}
		}
		return nil
	}

	var inRowSpan []int
	for _, i := range order {
		row, ok := byIndex[i]
		if !ok {
			continue
		}
		if partial[i] {
			// Content in a partial border row belongs to the cell above.
			for col, c := range row.cells {
				if !c.completelyEmpty() && strings.Trim(c.content, "-") == "" {
					continue
				}
				target := findAbove(col, i)
				if target == nil {
					errs = append(errs, fmt.Sprintf("malformed table: no cell above column %d on table line %d", col+1, i+1))
					continue
				}
				target.addContent("\n" + c.content)
				target.rowSpan++
				inRowSpan = append(inRowSpan, col)
			}
			delete(byIndex, i)
			continue
		}

		for _, col := range inRowSpan {
			target := findAbove(col, i)
			c := row.cell(col)
			if target == nil || c == nil {
				errs = append(errs, fmt.Sprintf("malformed table: cannot continue column %d on table line %d", col+1, i+1))
				continue
			}
			target.addContent("\n" + c.content)
			c.removed = true
		}
		inRowSpan = nil

		// Consecutive content lines without a border form one row.
		for next := i + 1; ; next++ {
			nextRow, ok := byIndex[next]
			if !ok || partial[next] {
				break
			}
			delete(byIndex, next)
			if err := row.absorb(nextRow); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}

	for _, i := range order {
		row, ok := byIndex[i]
		if !ok {
			continue
		}
		rows = append(rows, row)
		if i <= finalHeader {
			headerRows++
		}
	}
	return rows, headerRows, errs
}
