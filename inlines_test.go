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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseInlines(t *testing.T) {
	runParseTests(t, []parseTest{
		{
			name:   "Literal",
			source: "Use ``x = *1*`` here.\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Use \"\n" +
				"      InlineLiteral @1 text=\"x = *1*\"\n" +
				"      Text @1 text=\" here.\"\n",
		},
		{
			name:   "Emphasis",
			source: "An *emphasized* word.\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"An \"\n" +
				"      Emphasis @1\n" +
				"        Text @1 text=\"emphasized\"\n" +
				"      Text @1 text=\" word.\"\n",
		},
		{
			name:   "Escapes",
			source: `\*not emphasis\*` + "\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"*not emphasis*\"\n",
		},
		{
			name:   "MidWordAsterisk",
			source: "2*3*4\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"2*3*4\"\n",
		},
		{
			name:   "DocReference",
			source: "See :doc:`Intro <guide/intro#setup>` now.\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"See \"\n" +
				"      CrossReference @1 target=\"guide/intro\" id=\"xref-1\" role=\"doc\" anchor=\"setup\" display=\"Intro\"\n" +
				"      Text @1 text=\" now.\"\n",
		},
		{
			name:   "DomainRole",
			source: ":php:class:`Foo` and :ref:`bar`\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      CrossReference @1 target=\"Foo\" id=\"xref-1\" role=\"class\" domain=\"php\"\n" +
				"      Text @1 text=\" and \"\n" +
				"      CrossReference @1 target=\"bar\" id=\"xref-2\" role=\"ref\"\n",
		},
		{
			name:   "TrailingText",
			source: ":ref:`x <y> z`\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      CrossReference @1 target=\"y\" id=\"xref-1\" role=\"ref\" display=\"x\"\n",
			diags: []string{`1: warning: unexpected text "z" after reference target in :ref:`},
		},
		{
			name:   "SuffixRole",
			source: "`Foo`:doc:\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      CrossReference @1 target=\"Foo\" id=\"xref-1\" role=\"doc\"\n",
		},
		{
			name:   "BuiltinRole",
			source: "H :sub:`2` O\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"H \"\n" +
				"      Subscript @1\n" +
				"        Text @1 text=\"2\"\n" +
				"      Text @1 text=\" O\"\n",
		},
		{
			name:   "TitleReference",
			source: "`Dune`\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      TitleReference @1\n" +
				"        Text @1 text=\"Dune\"\n",
		},
		{
			name:   "EmbeddedURL",
			source: "`Go <https://go.dev/>`_ and Go_.\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Link @1 target=\"https://go.dev/\"\n" +
				"        Text @1 text=\"Go\"\n" +
				"      Text @1 text=\" and \"\n" +
				"      Link @1 name=\"go\" target=\"https://go.dev/\"\n" +
				"        Text @1 text=\"Go\"\n" +
				"      Text @1 text=\".\"\n",
		},
		{
			name:   "UnknownNamedTarget",
			source: "See nowhere_.\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"See \"\n" +
				"      Link @1 name=\"nowhere\"\n" +
				"        Text @1 text=\"nowhere\"\n" +
				"      Text @1 text=\".\"\n",
			diags: []string{`1: warning: unknown link target "nowhere"`},
		},
		{
			name: "Anonymous",
			source: "`one`__ and `two`__\n" +
				"\n" +
				"__ https://one.example/\n" +
				"__ https://two.example/\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Link @1 target=\"https://one.example/\"\n" +
				"        Text @1 text=\"one\"\n" +
				"      Text @1 text=\" and \"\n" +
				"      Link @1 target=\"https://two.example/\"\n" +
				"        Text @1 text=\"two\"\n",
		},
		{
			name:   "StandaloneURL",
			source: "Visit https://example.com/x. Mail me@example.com\n",
			want: "Document @1\n" +
				"  Paragraph @1\n" +
				"    Span @1\n" +
				"      Text @1 text=\"Visit \"\n" +
				"      Link @1 target=\"https://example.com/x\"\n" +
				"        Text @1 text=\"https://example.com/x\"\n" +
				"      Text @1 text=\". Mail \"\n" +
				"      Link @1 target=\"mailto:me@example.com\"\n" +
				"        Text @1 text=\"me@example.com\"\n",
		},
		{
			name: "Substitution",
			source: ".. |name| replace:: Widget\n" +
				"   Pro\n" +
				"\n" +
				"The |name| tool and |other|.\n",
			want: "Document @1\n" +
				"  Paragraph @4\n" +
				"    Span @4\n" +
				"      Text @4 text=\"The \"\n" +
				"      Text @4 text=\"Widget Pro\"\n" +
				"      Text @4 text=\" tool and \"\n" +
				"      Text @4 text=\"|other|\"\n" +
				"      Text @4 text=\".\"\n",
			diags: []string{"4: warning: undefined substitution |other|"},
		},
	})
}

func TestParseReferenceTarget(t *testing.T) {
	tests := []struct {
		content  string
		target   string
		display  string
		anchor   string
		trailing string
	}{
		{content: "page", target: "page"},
		{content: "page#frag", target: "page", anchor: "frag"},
		{content: "#frag", target: "frag"},
		{content: "Title <page>", target: "page", display: "Title"},
		{content: "Title <page#frag>", target: "page", display: "Title", anchor: "frag"},
		{content: "a <b> c", target: "b", display: "a", trailing: "c"},
		{content: "multi\n  line <t>", target: "t", display: "multi line"},
		{content: `less \< than`, target: "less < than"},
		{content: `\\Foo\\Bar`, target: `\Foo\Bar`},
	}
	for _, test := range tests {
		target, display, anchor, trailing := ParseReferenceTarget(test.content)
		got := []string{target, display, anchor, trailing}
		want := []string{test.target, test.display, test.anchor, test.trailing}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ParseReferenceTarget(%q) [target display anchor trailing] (-want +got):\n%s", test.content, diff)
		}
	}
}
