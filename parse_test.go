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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func dumpString(t *testing.T, tree *Tree) string {
	t.Helper()
	sb := new(strings.Builder)
	if err := tree.Dump(sb); err != nil {
		t.Fatal(err)
	}
	return sb.String()
}

func diagStrings(diags []Diagnostic) []string {
	var s []string
	for _, d := range diags {
		s = append(s, fmt.Sprintf("%d: %v: %s", d.Line, d.Severity, d.Message))
	}
	return s
}

type parseTest struct {
	name   string
	source string
	want   string
	diags  []string
}

func runParseTests(t *testing.T, tests []parseTest) {
	t.Helper()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tree, diags := new(Parser).Parse("doc", []byte(test.source))
			if diff := cmp.Diff(test.want, dumpString(t, tree)); diff != "" {
				t.Errorf("tree (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.diags, diagStrings(diags)); diff != "" {
				t.Errorf("diagnostics (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseBlocks(t *testing.T) {
	runParseTests(t, []parseTest{
		{
			name:   "Empty",
			source: "",
			want:   "Document @1\n",
		},
		{
			name:   "Paragraph",
			source: "Hello, **World**!\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Hello, \"\n" +
				"      Strong @1\n" +
				"        Text @1 text=\"World\"\n" +
				"      Text @1 text=\"!\"\n",
		},
		{
			name: "Sections",
			source: "Title\n" +
				"=====\n" +
				"\n" +
				"Intro.\n" +
				"\n" +
				"Sub\n" +
				"---\n" +
				"\n" +
				"Body.\n" +
				"\n" +
				"Next\n" +
				"====\n",
			want: "Document @1\n" +
				"  Section @1 level=1 title=\"Title\" id=\"title\"\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Title\"\n" +
				"    Paragraph @4\n" +
				"      Span @4\n" +
				"        Text @4 text=\"Intro.\"\n" +
				"    Section @6 level=2 title=\"Sub\" id=\"sub\"\n" +
				"      Span @6\n" +
				"        Text @6 text=\"Sub\"\n" +
				"      Paragraph @9\n" +
				"        Span @9\n" +
				"          Text @9 text=\"Body.\"\n" +
				"  Section @11 level=1 title=\"Next\" id=\"next\"\n" +
				"    Span @11\n" +
				"      Text @11 text=\"Next\"\n",
		},
		{
			name: "OverlineTitle",
			source: "=====\n" +
				"Title\n" +
				"=====\n" +
				"\n" +
				"Sub\n" +
				"=====\n",
			want: "Document @1\n" +
				"  Section @1 level=1 title=\"Title\" id=\"title\"\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Title\"\n" +
				"    Section @5 level=2 title=\"Sub\" id=\"sub\"\n" +
				"      Span @5\n" +
				"        Text @5 text=\"Sub\"\n",
		},
		{
			name: "DuplicateTitles",
			source: "Setup\n" +
				"=====\n" +
				"\n" +
				"Setup\n" +
				"=====\n",
			want: "Document @1\n" +
				"  Section @1 level=1 title=\"Setup\" id=\"setup\"\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Setup\"\n" +
				"  Section @4 level=1 title=\"Setup\" id=\"setup-1\"\n" +
				"    Span @4\n" +
				"      Text @4 text=\"Setup\"\n",
		},
		{
			name: "Lists",
			source: "- one\n" +
				"- two\n" +
				"\n" +
				"3. three\n" +
				"4. four\n",
			want: "Document @1\n" +
				"  List @1 name=\"-\"\n" +
				"    ListItem @1\n" +
				"      Paragraph @1\n" +
				"        Span @1\n" +
				"          Text @1 text=\"one\"\n" +
				"    ListItem @2\n" +
				"      Paragraph @2\n" +
				"        Span @2\n" +
				"          Text @2 text=\"two\"\n" +
				"  List @4 level=3 name=\"d.\" ordered\n" +
				"    ListItem @4\n" +
				"      Paragraph @4\n" +
				"        Span @4\n" +
				"          Text @4 text=\"three\"\n" +
				"    ListItem @5\n" +
				"      Paragraph @5\n" +
				"        Span @5\n" +
				"          Text @5 text=\"four\"\n",
		},
		{
			name: "DefinitionList",
			source: "term : classifier\n" +
				"   Definition.\n",
			want: "Document @1\n" +
				"  DefinitionList @1\n" +
				"    DefinitionItem @1\n" +
				"      Term @1\n" +
				"        Span @1\n" +
				"          Text @1 text=\"term\"\n" +
				"      Classifier @1\n" +
				"        Span @1\n" +
				"          Text @1 text=\"classifier\"\n" +
				"      Definition @2\n" +
				"        Paragraph @2\n" +
				"          Span @2\n" +
				"            Text @2 text=\"Definition.\"\n",
		},
		{
			name: "LiteralBlock",
			source: "Example::\n" +
				"\n" +
				"   code here\n" +
				"     indented\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Example:\"\n" +
				"  Literal @3 text=\"code here\\n  indented\"\n",
		},
		{
			name: "ExpandedLiteral",
			source: "Example ::\n" +
				"\n" +
				"   code\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Example\"\n" +
				"  Literal @3 text=\"code\"\n",
		},
		{
			name:   "MissingLiteral",
			source: "Example::\n\nNot indented.\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Example:\"\n" +
				"  Paragraph @3\n" +
				"    Span @3\n" +
				"      Text @3 text=\"Not indented.\"\n",
			diags: []string{"3: warning: literal block expected; none found"},
		},
		{
			name:   "BlockQuote",
			source: "Said:\n\n   Quoted.\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Said:\"\n" +
				"  Quote @3\n" +
				"    Paragraph @3\n" +
				"      Span @3\n" +
				"        Text @3 text=\"Quoted.\"\n",
		},
		{
			name:   "Comment",
			source: ".. This is a comment\n   spanning lines.\n\nText.\n",
			want: "Document @1\n" +
				"  Paragraph @4\n" +
				"    Span @4\n" +
				"      Text @4 text=\"Text.\"\n",
		},
		{
			name: "UnknownDirective",
			source: ".. bogus:: data\n" +
				"   :opt: 1\n" +
				"\n" +
				"   body\n",
			want: "Document @1\n" +
				"  Directive @1 name=\"bogus\" title=\"data\" text=\"body\" :opt:=\"1\"\n" +
				"    Literal @4 text=\"body\"\n",
			diags: []string{`1: warning: unknown directive "bogus"`},
		},
		{
			name: "Anchor",
			source: ".. _setup:\n" +
				"\n" +
				"Setup\n" +
				"=====\n" +
				"\n" +
				"See setup_.\n",
			want: "Document @1\n" +
				"  Anchor @1 name=\"setup\" id=\"setup\"\n" +
				"  Section @3 level=1 title=\"Setup\" id=\"setup-1\"\n" +
				"    Span @3\n" +
				"      Text @3 text=\"Setup\"\n" +
				"    Paragraph @6\n" +
				"      Span @6\n" +
				"        Text @6 text=\"See \"\n" +
				"        Link @6 name=\"setup\" target=\"#setup\"\n" +
				"          Text @6 text=\"setup\"\n" +
				"        Text @6 text=\".\"\n",
		},
		{
			name: "SectionTitleLink",
			source: "Setup\n" +
				"=====\n" +
				"\n" +
				"See Setup_.\n",
			want: "Document @1\n" +
				"  Section @1 level=1 title=\"Setup\" id=\"setup\"\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Setup\"\n" +
				"    Paragraph @4\n" +
				"      Span @4\n" +
				"        Text @4 text=\"See \"\n" +
				"        Link @4 name=\"setup\"\n" +
				"          Text @4 text=\"Setup\"\n" +
				"        Text @4 text=\".\"\n",
		},
		{
			name: "LabelBeforeSameTitle",
			source: ".. _installing:\n" +
				"\n" +
				"Installing\n" +
				"==========\n" +
				"\n" +
				"Installing\n" +
				"==========\n",
			want: "Document @1\n" +
				"  Anchor @1 name=\"installing\" id=\"installing\"\n" +
				"  Section @3 level=1 title=\"Installing\" id=\"installing-1\"\n" +
				"    Span @3\n" +
				"      Text @3 text=\"Installing\"\n" +
				"  Section @6 level=1 title=\"Installing\" id=\"installing-2\"\n" +
				"    Span @6\n" +
				"      Text @6 text=\"Installing\"\n",
		},
		{
			name: "NamedTarget",
			source: "Read the docs_.\n" +
				"\n" +
				".. _docs: https://example.com/docs\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Read the \"\n" +
				"      Link @1 name=\"docs\" target=\"https://example.com/docs\"\n" +
				"        Text @1 text=\"docs\"\n" +
				"      Text @1 text=\".\"\n",
		},
	})
}

// A meta directive's options become the document header.
func TestMetaHeader(t *testing.T) {
	tree, diags := Parse([]byte(".. meta::\n   :key: value\n   :author: Ada\n"))
	if len(diags) > 0 {
		t.Errorf("diagnostics: %v", diags)
	}
	want := map[string]string{"key": "value", "author": "Ada"}
	if diff := cmp.Diff(want, tree.Header()); diff != "" {
		t.Errorf("header (-want +got):\n%s", diff)
	}
	if n := tree.Root().ChildCount(); n != 0 {
		t.Errorf("root has %d children; want 0", n)
	}
}

// A transition is a level 1 separator no matter how long its marker line is.
func TestSeparator(t *testing.T) {
	for _, n := range []int{4, 40} {
		for _, c := range []string{"-", "=", "*"} {
			marker := strings.Repeat(c, n)
			t.Run(fmt.Sprintf("%s×%d", c, n), func(t *testing.T) {
				source := "Before.\n\n" + marker + "\n\nAfter.\n"
				tree, diags := Parse([]byte(source))
				if len(diags) > 0 {
					t.Errorf("diagnostics: %v", diags)
				}
				seps := Find(tree.Root(), SeparatorKind)
				if len(seps) != 1 {
					t.Fatalf("found %d separators; want 1\n%s", len(seps), dumpString(t, tree))
				}
				if got := seps[0].Attrs().Level; got != 1 {
					t.Errorf("separator level = %d; want 1", got)
				}
				if got := seps[0].Line(); got != 3 {
					t.Errorf("separator line = %d; want 3", got)
				}
			})
		}
	}
}

func TestInitialHeaderLevel(t *testing.T) {
	p := &Parser{InitialHeaderLevel: 3}
	tree, _ := p.Parse("doc", []byte("Title\n=====\n\nSub\n---\n"))
	var levels []int
	for _, n := range Find(tree.Root(), SectionKind) {
		levels = append(levels, n.Attrs().Level)
	}
	if diff := cmp.Diff([]int{3, 4}, levels); diff != "" {
		t.Errorf("levels (-want +got):\n%s", diff)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		source string
		want   []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\nb\n", []string{"a", "b"}},
		{"a\r\nb\rc", []string{"a", "b", "c"}},
		{"a  \t\n", []string{"a"}},
		{"\tx", []string{"        x"}},
		{"ab\tx", []string{"ab      x"}},
		{"a\x00b", []string{"a�b"}},
	}
	for _, test := range tests {
		got := splitLines([]byte(test.source))
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("splitLines(%q) (-want +got):\n%s", test.source, diff)
		}
	}
}
