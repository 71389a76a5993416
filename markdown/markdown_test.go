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

package markdown

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/guides"
)

const sample = `---
title: Getting Started
author: Ada
---
# Install

Read [usage](usage.md#flags) or the [site](https://example.com/).

## Linux

` + "```go\nfmt.Println(\"hi\")\n```" + `

- one
- two

| A | B |
|---|---|
| 1 | 2 |

# Next

---

Done.
`

func TestParse(t *testing.T) {
	tree, diags := new(Parser).Parse("guide/start", []byte(sample))
	if len(diags) > 0 {
		t.Errorf("diagnostics: %v", diags)
	}

	wantHeader := map[string]string{"title": "Getting Started", "author": "Ada"}
	if diff := cmp.Diff(wantHeader, tree.Header()); diff != "" {
		t.Errorf("header (-want +got):\n%s", diff)
	}
	if got, want := tree.Title(), "Getting Started"; got != want {
		t.Errorf("Title() = %q; want %q", got, want)
	}

	type section struct {
		Title string
		Level int
		Depth int
		Line  int
	}
	var sections []section
	var refs []guides.CrossReference
	var links []string
	var code []string
	kinds := make(map[guides.Kind]int)
	guides.Walk(tree.Root(), &guides.WalkOptions{
		Pre: func(c *guides.Cursor) bool {
			n := c.Node()
			kinds[n.Kind()]++
			switch n.Kind() {
			case guides.SectionKind:
				sections = append(sections, section{n.Attrs().Title, n.Attrs().Level, c.Depth(), n.Line()})
			case guides.CrossReferenceKind:
				ref := n.CrossReference()
				ref.ID = ""
				ref.Line = 0
				refs = append(refs, ref)
			case guides.LinkKind:
				links = append(links, n.Attrs().Target)
			case guides.CodeKind:
				code = append(code, n.Attrs().Name+":"+n.Attrs().Text)
			}
			return true
		},
	})

	wantSections := []section{
		{"Install", 1, 1, 5},
		{"Linux", 2, 2, 9},
		{"Next", 1, 1, 22},
	}
	if diff := cmp.Diff(wantSections, sections); diff != "" {
		t.Errorf("sections (-want +got):\n%s", diff)
	}
	wantRefs := []guides.CrossReference{{
		Role:    "doc",
		Target:  "usage.md",
		Anchor:  "flags",
		Display: "usage",
	}}
	if diff := cmp.Diff(wantRefs, refs); diff != "" {
		t.Errorf("cross-references (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"https://example.com/"}, links); diff != "" {
		t.Errorf("links (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"go:fmt.Println(\"hi\")"}, code); diff != "" {
		t.Errorf("code (-want +got):\n%s", diff)
	}
	for _, k := range []guides.Kind{guides.ListKind, guides.TableKind, guides.SeparatorKind} {
		if kinds[k] != 1 {
			t.Errorf("found %d %v nodes; want 1", kinds[k], k)
		}
	}
	if got := kinds[guides.TableCellKind]; got != 4 {
		t.Errorf("found %d table cells; want 4", got)
	}
}

func TestParseInitialHeaderLevel(t *testing.T) {
	p := &Parser{InitialHeaderLevel: 2}
	tree, _ := p.Parse("doc", []byte("# Top\n"))
	root := tree.Root()
	if root.ChildCount() != 1 {
		t.Fatalf("root has %d children; want 1", root.ChildCount())
	}
	if got := root.Child(0).Attrs().Level; got != 2 {
		t.Errorf("section level = %d; want 2", got)
	}
}
