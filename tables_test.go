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

import "testing"

func TestParseTables(t *testing.T) {
	runParseTests(t, []parseTest{
		{
			name: "Simple",
			source: "=====  =====\n" +
				"A      B\n" +
				"=====  =====\n" +
				"1      \\\n" +
				"2      x\n" +
				"=====  =====\n",
			want: "Document @1\n" +
				"  Table @1 columns=2 rows=3\n" +
				"    TableRow @2 header\n" +
				"      TableCell @2 text=\"A\"\n" +
				"        Span @2\n" +
				"          Text @2 text=\"A\"\n" +
				"      TableCell @2 text=\"B\"\n" +
				"        Span @2\n" +
				"          Text @2 text=\"B\"\n" +
				"    TableRow @4\n" +
				"      TableCell @4 text=\"1\"\n" +
				"        Span @4\n" +
				"          Text @4 text=\"1\"\n" +
				"      TableCell @4 text=\"\\\\\"\n" +
				"    TableRow @5\n" +
				"      TableCell @5 text=\"2\"\n" +
				"        Span @5\n" +
				"          Text @5 text=\"2\"\n" +
				"      TableCell @5 text=\"x\"\n" +
				"        Span @5\n" +
				"          Text @5 text=\"x\"\n",
		},
		{
			name: "SimpleContinuation",
			source: "=====  =====\n" +
				"a      one\n" +
				"       more\n" +
				"=====  =====\n",
			want: "Document @1\n" +
				"  Table @1 columns=2 rows=1\n" +
				"    TableRow @2\n" +
				"      TableCell @2 text=\"a\"\n" +
				"        Span @2\n" +
				"          Text @2 text=\"a\"\n" +
				"      TableCell @2 text=\"one\\nmore\"\n" +
				"        Span @2\n" +
				"          Text @2 text=\"one\\nmore\"\n",
		},
		{
			name: "GridColSpan",
			source: "+-----+-----+\n" +
				"| A   | B   |\n" +
				"+=====+=====+\n" +
				"| wide      |\n" +
				"+-----+-----+\n" +
				"| 1   | \\   |\n" +
				"+-----+-----+\n",
			want: "Document @1\n" +
				"  Table @1 columns=2 rows=3\n" +
				"    TableRow @2 header\n" +
				"      TableCell @2 text=\"A\"\n" +
				"        Span @2\n" +
				"          Text @2 text=\"A\"\n" +
				"      TableCell @2 text=\"B\"\n" +
				"        Span @2\n" +
				"          Text @2 text=\"B\"\n" +
				"    TableRow @4\n" +
				"      TableCell @4 text=\"wide\" colspan=2\n" +
				"        Span @4\n" +
				"          Text @4 text=\"wide\"\n" +
				"    TableRow @6\n" +
				"      TableCell @6 text=\"1\"\n" +
				"        Span @6\n" +
				"          Text @6 text=\"1\"\n" +
				"      TableCell @6 text=\"\\\\\"\n",
		},
		{
			name: "GridRowSpan",
			source: "+-----+-----+\n" +
				"| A   | B   |\n" +
				"+     +-----+\n" +
				"|     | C   |\n" +
				"+-----+-----+\n",
			want: "Document @1\n" +
				"  Table @1 columns=2 rows=2\n" +
				"    TableRow @2\n" +
				"      TableCell @2 text=\"A\" rowspan=2\n" +
				"        Span @2\n" +
				"          Text @2 text=\"A\"\n" +
				"      TableCell @2 text=\"B\"\n" +
				"        Span @2\n" +
				"          Text @2 text=\"B\"\n" +
				"    TableRow @4\n" +
				"      TableCell @4 text=\"C\"\n" +
				"        Span @4\n" +
				"          Text @4 text=\"C\"\n",
		},
		{
			name: "Malformed",
			source: "=====  =====\n" +
				"A    xxB\n" +
				"=====  =====\n",
			want: "Document @1\n" +
				"  Literal @1 text=\"=====  =====\\nA    xxB\\n=====  =====\"\n",
			diags: []string{`1: error: malformed table: content "xx" appears in the gap on row "A    xxB"`},
		},
		{
			name: "GridMisalignedBorders",
			source: "+---+---+\n" +
				"| a | b |\n" +
				"+-----+-+\n" +
				"| c   |d|\n" +
				"+-----+-+\n",
			want: "Document @1\n" +
				"  Literal @1 text=\"+---+---+\\n| a | b |\\n+-----+-+\\n| c   |d|\\n+-----+-+\"\n",
			diags: []string{"1: error: malformed table: column borders do not line up"},
		},
		{
			name: "Unclosed",
			source: "=====  =====\n" +
				"A      B\n",
			want: "Document @1\n" +
				"  Table @1 columns=2 rows=1\n" +
				"    TableRow @2\n" +
				"      TableCell @2 text=\"A\"\n" +
				"        Span @2\n" +
				"          Text @2 text=\"A\"\n" +
				"      TableCell @2 text=\"B\"\n" +
				"        Span @2\n" +
				"          Text @2 text=\"B\"\n",
			diags: []string{"1: warning: simple table is not closed by a border line"},
		},
	})
}

// A cell holding only a backslash displays nothing
// but occupies its layout slot like any other cell.
func TestBackslashCellSpan(t *testing.T) {
	tree, _ := Parse([]byte("=====  =====  =====\n" +
		"\\      b      \\\n" +
		"=====  =====  =====\n"))
	tables := Find(tree.Root(), TableKind)
	if len(tables) != 1 {
		t.Fatalf("found %d tables; want 1", len(tables))
	}
	if got := tables[0].Attrs().Columns; got != 3 {
		t.Errorf("columns = %d; want 3", got)
	}
	cells := Find(tables[0], TableCellKind)
	if len(cells) != 3 {
		t.Fatalf("found %d cells; want 3", len(cells))
	}
	for i, c := range cells {
		a := c.Attrs()
		if a.ColSpan != 1 || a.RowSpan != 1 {
			t.Errorf("cell %d span = %dx%d; want 1x1", i, a.ColSpan, a.RowSpan)
		}
	}
	for _, i := range []int{0, 2} {
		if n := cells[i].ChildCount(); n != 0 {
			t.Errorf("cell %d has %d children; want 0", i, n)
		}
	}
}
