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

package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/metas"
)

func testMetas() *metas.Metas {
	m := metas.New()
	m.Set("index", metas.Entry{
		URL:   "index.html",
		Title: "Home",
	})
	m.Set("guide/install", metas.Entry{
		URL:   "guide/install.html",
		Title: "Install",
		Titles: []metas.Title{{
			Text:  "Install",
			ID:    "install",
			Level: 1,
			Children: []metas.Title{
				{Text: "On Linux", ID: "on-linux", Level: 2},
			},
		}},
		Labels: map[string]string{"linux setup": "On Linux"},
	})
	return m
}

// Two resolvers claiming the same reference: the first one wins,
// even though the later one would also have found a destination.
func TestChainFirstSupportWins(t *testing.T) {
	symbols := &SymbolResolver{
		Index: MapIndex{"index": "https://symbols.example.com/index"},
	}
	chain := NewChain(DocResolver{}, symbols)
	ref := guides.CrossReference{ID: "xref-1", Role: "ref", Target: "linux setup"}
	ctx := guides.RenderContext{CurrentFile: "index", Metas: testMetas()}

	r, i := chain.Select(ref, ctx)
	if _, ok := r.(DocResolver); !ok || i != 0 {
		t.Errorf("Select(...) = %T, %d; want DocResolver, 0", r, i)
	}
	got := chain.Resolve(ref, ctx)
	if got == nil || got.URL != "guide/install.html#linux-setup" {
		t.Errorf("Resolve(...) = %+v; want URL guide/install.html#linux-setup", got)
	}

	// The selected resolver's miss is final.
	miss := guides.CrossReference{ID: "xref-2", Role: "ref", Target: "index"}
	if got := chain.Resolve(miss, ctx); got != nil {
		t.Errorf("Resolve(%q) = %+v; want nil", miss.Target, got)
	}

	unsupported := guides.CrossReference{ID: "xref-3", Role: "class", Domain: "py", Target: "x"}
	if r, i := chain.Select(unsupported, ctx); r != nil || i != -1 {
		t.Errorf("Select(py:class) = %v, %d; want nil, -1", r, i)
	}
	if got := (*Chain)(nil).Resolve(ref, ctx); got != nil {
		t.Errorf("nil chain Resolve(...) = %+v; want nil", got)
	}

	chain = NewChain(symbols)
	chain.Append(DocResolver{})
	if _, i := chain.Select(ref, ctx); i != 0 {
		t.Errorf("after reordering, Select(...) position = %d; want 0", i)
	}
}

func TestDocResolver(t *testing.T) {
	ctx := guides.RenderContext{CurrentFile: "guide/usage", Metas: testMetas()}
	tests := []struct {
		name string
		ref  guides.CrossReference
		want *ResolvedReference
	}{
		{
			name: "Relative",
			ref:  guides.CrossReference{Role: "doc", Target: "install"},
			want: &ResolvedReference{File: "guide/install", Title: "Install", URL: "guide/install.html"},
		},
		{
			name: "RootRelativeWithExtension",
			ref:  guides.CrossReference{Role: "doc", Target: "/index.rst"},
			want: &ResolvedReference{File: "index", Title: "Home", URL: "index.html"},
		},
		{
			name: "Anchor",
			ref:  guides.CrossReference{Role: "doc", Target: "install", Anchor: "on-linux"},
			want: &ResolvedReference{File: "guide/install", Title: "On Linux", URL: "guide/install.html#on-linux"},
		},
		{
			name: "Label",
			ref:  guides.CrossReference{Role: "ref", Target: "Linux\n  Setup"},
			want: &ResolvedReference{File: "guide/install", Title: "On Linux", URL: "guide/install.html#linux-setup"},
		},
		{
			name: "MissingDocument",
			ref:  guides.CrossReference{Role: "doc", Target: "missing"},
		},
		{
			name: "MissingLabel",
			ref:  guides.CrossReference{Role: "ref", Target: "nope"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := DocResolver{}.Resolve(test.ref, ctx)
			diff := cmp.Diff(test.want, got,
				cmp.AllowUnexported(ResolvedReference{}),
				cmpopts.IgnoreFields(ResolvedReference{}, "Titles"))
			if diff != "" {
				t.Errorf("Resolve(...) (-want +got):\n%s", diff)
			}
		})
	}

	if got := (DocResolver{}).Resolve(tests[0].ref, guides.RenderContext{}); got != nil {
		t.Errorf("Resolve without Metas = %+v; want nil", got)
	}
	for _, ref := range []guides.CrossReference{
		{Role: "doc", Domain: "php"},
		{Role: "class"},
	} {
		if (DocResolver{}).Supports(ref, ctx) {
			t.Errorf("Supports(%q) = true; want false", ref.QualifiedRole())
		}
	}
}

func TestSymbolResolver(t *testing.T) {
	r := &SymbolResolver{
		Domain: "php",
		Roles:  []string{"class", "method"},
		Index:  MapIndex{`App\Widget`: "https://api.example.com/widget.html"},
	}
	ctx := guides.RenderContext{}
	ref := guides.CrossReference{Role: "class", Domain: "php", Target: ` \App\Widget `, Anchor: "top"}
	if !r.Supports(ref, ctx) {
		t.Fatal("Supports(php:class) = false")
	}
	if r.Supports(guides.CrossReference{Role: "func", Domain: "php"}, ctx) {
		t.Error("Supports(php:func) = true")
	}
	if r.Supports(guides.CrossReference{Role: "class", Domain: "py"}, ctx) {
		t.Error("Supports(py:class) = true")
	}

	got := r.Resolve(ref, ctx)
	if got == nil {
		t.Fatal("Resolve(...) = nil")
	}
	if got.URL != "https://api.example.com/widget.html#top" || got.Title != `App\Widget` {
		t.Errorf("Resolve(...) = %+v", got)
	}
	if diff := cmp.Diff(map[string]string{"data-symbol": `App\Widget`}, got.Attributes()); diff != "" {
		t.Errorf("Attributes() (-want +got):\n%s", diff)
	}
	if got := r.Resolve(guides.CrossReference{Role: "class", Domain: "php", Target: "Other"}, ctx); got != nil {
		t.Errorf("Resolve(Other) = %+v; want nil", got)
	}
}

func TestNewResolvedReference(t *testing.T) {
	ref := NewResolvedReference("", "T", "u.html", nil, map[string]string{"data-x": "1", "title": "y"})
	if v, ok := ref.Attribute("data-x"); !ok || v != "1" {
		t.Errorf("Attribute(\"data-x\") = %q, %t", v, ok)
	}
	attrs := ref.Attributes()
	attrs["data-x"] = "changed"
	if v, _ := ref.Attribute("data-x"); v != "1" {
		t.Error("modifying Attributes() result changed the reference")
	}
	if got := NewResolvedReference("", "", "", nil, nil).Attributes(); got != nil {
		t.Errorf("Attributes() = %v; want nil", got)
	}

	for _, key := range []string{"href", "1bad", "has space", "x"} {
		t.Run(key, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("NewResolvedReference with attribute %q did not panic", key)
				}
			}()
			NewResolvedReference("", "", "", nil, map[string]string{key: "v"})
		})
	}
}

func TestLoadIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.yaml")
	data := "'\\App\\Widget': https://api.example.com/widget.html\n" +
		"App\\Gadget: https://api.example.com/gadget.html\n"
	if err := os.WriteFile(path, []byte(data), 0o666); err != nil {
		t.Fatal(err)
	}
	idx, err := LoadIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	want := MapIndex{
		`App\Widget`: "https://api.example.com/widget.html",
		`App\Gadget`: "https://api.example.com/gadget.html",
	}
	if diff := cmp.Diff(want, idx); diff != "" {
		t.Errorf("LoadIndex(...) (-want +got):\n%s", diff)
	}
	if url, ok := idx.Lookup(`\\App\Gadget`); !ok || url != want[`App\Gadget`] {
		t.Errorf("Lookup(`\\\\App\\Gadget`) = %q, %t", url, ok)
	}

	if _, err := LoadIndex(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadIndex(missing) did not return an error")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("- not\n- a map\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadIndex(bad); err == nil {
		t.Error("LoadIndex(list) did not return an error")
	}
}

func TestNormalizeSymbol(t *testing.T) {
	for in, want := range map[string]string{
		`\App\Widget`:    `App\Widget`,
		`  App\Widget  `: `App\Widget`,
		`\\Root`:         `Root`,
		`plain`:          `plain`,
	} {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q; want %q", in, got, want)
		}
	}
}
