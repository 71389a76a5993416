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

package metas

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sampleEntries() map[string]Entry {
	return map[string]Entry{
		"index": {
			File:  "index",
			URL:   "index.html",
			Title: "Home",
			Titles: []Title{{
				Text:  "Home",
				ID:    "home",
				Level: 1,
				Children: []Title{
					{Text: "Overview", ID: "overview", Level: 2},
				},
			}},
			TOC:   []string{"guide/install"},
			Mtime: 100,
		},
		"guide/install": {
			File:    "guide/install",
			URL:     "guide/install.html",
			Title:   "Install",
			Depends: []string{"index"},
			Links:   []string{"doc:index"},
			Labels:  map[string]string{"linux-setup": "Linux"},
			Mtime:   200,
			Parent:  "index",
		},
	}
}

func TestMetas(t *testing.T) {
	m := New()
	for file, e := range sampleEntries() {
		m.Set("./"+file, e)
	}
	if got := m.Len(); got != 2 {
		t.Errorf("Len() = %d; want 2", got)
	}
	if diff := cmp.Diff([]string{"guide/install", "index"}, m.Paths()); diff != "" {
		t.Errorf("Paths() (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(sampleEntries(), m.All()); diff != "" {
		t.Errorf("All() (-want +got):\n%s", diff)
	}

	e, ok := m.Get("/guide//install")
	if !ok {
		t.Fatal("Get(\"/guide//install\") not found")
	}
	e.Labels["linux-setup"] = "Changed"
	e.Titles = nil
	if again, _ := m.Get("guide/install"); again.Labels["linux-setup"] != "Linux" {
		t.Error("modifying a returned entry changed the store")
	}

	if id, ok := mustGet(t, m, "index").FindTitle("Overview"); !ok || id != "overview" {
		t.Errorf("FindTitle(\"Overview\") = %q, %t; want \"overview\", true", id, ok)
	}
	if _, ok := mustGet(t, m, "index").FindTitle("Nope"); ok {
		t.Error("FindTitle(\"Nope\") found a title")
	}

	m.Set("bare", Entry{URL: "./bare.html"})
	if got := mustGet(t, m, "bare"); got.File != "bare" || got.URL != "bare.html" {
		t.Errorf("Set normalized entry to %+v", got)
	}
}

func mustGet(t *testing.T, m *Metas, file string) *Entry {
	t.Helper()
	e, ok := m.Get(file)
	if !ok {
		t.Fatalf("Get(%q) not found", file)
	}
	return &e
}

func TestFindLabel(t *testing.T) {
	m := New()
	for file, e := range sampleEntries() {
		m.Set(file, e)
	}
	m.Set("zzz", Entry{Labels: map[string]string{"linux-setup": "Other"}})
	e, title, ok := m.FindLabel("linux-setup")
	if !ok || e.File != "guide/install" || title != "Linux" {
		t.Errorf("FindLabel(\"linux-setup\") = %q, %q, %t; want \"guide/install\", \"Linux\", true", e.File, title, ok)
	}
	if _, _, ok := m.FindLabel("missing"); ok {
		t.Error("FindLabel(\"missing\") found a label")
	}
}

func TestGarbageCollect(t *testing.T) {
	m := New()
	for _, file := range []string{"a", "b", "c/d", "c/e"} {
		m.Set(file, Entry{})
	}
	removed := m.GarbageCollect([]string{"./a", "c/e"})
	if diff := cmp.Diff([]string{"b", "c/d"}, removed); diff != "" {
		t.Errorf("GarbageCollect removed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "c/e"}, m.Paths()); diff != "" {
		t.Errorf("Paths() after GarbageCollect (-want +got):\n%s", diff)
	}
	if removed := m.GarbageCollect([]string{"a", "c/e"}); len(removed) != 0 {
		t.Errorf("second GarbageCollect removed %q", removed)
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"index", "index"},
		{"./guide/install", "guide/install"},
		{"/guide//install/", "guide/install"},
		{`guide\install`, "guide/install"},
		{"guide/../index", "index"},
		{"../outside", "outside"},
	}
	for _, test := range tests {
		if got := CleanPath(test.path); got != test.want {
			t.Errorf("CleanPath(%q) = %q; want %q", test.path, got, test.want)
		}
	}
}

func TestCache(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "cache")
		m := New()
		for file, e := range sampleEntries() {
			m.Set(file, e)
		}
		if err := m.Persist(dir); err != nil {
			t.Fatal(err)
		}
		first, err := os.ReadFile(filepath.Join(dir, CacheFile))
		if err != nil {
			t.Fatal(err)
		}

		loaded, err := Load(dir)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(m.All(), loaded.All(), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("loaded entries (-want +got):\n%s", diff)
		}

		if err := loaded.Persist(dir); err != nil {
			t.Fatal(err)
		}
		second, err := os.ReadFile(filepath.Join(dir, CacheFile))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, second) {
			t.Errorf("persisting a loaded store changed the cache file:\n%s\nvs.\n%s", first, second)
		}
		leftovers, err := filepath.Glob(filepath.Join(dir, CacheFile+".*"))
		if err != nil {
			t.Fatal(err)
		}
		if len(leftovers) > 0 {
			t.Errorf("temporary files left behind: %q", leftovers)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		m, err := Load(filepath.Join(t.TempDir(), "nope"))
		if err != nil {
			t.Fatal(err)
		}
		if m.Len() != 0 {
			t.Errorf("Len() = %d; want 0", m.Len())
		}
	})

	corrupt := []struct {
		name string
		data string
	}{
		{"Garbage", "{not json"},
		{"Version", `{"version": 99, "entries": {}}`},
		{"UnknownField", `{"version": 1, "entries": {}, "extra": true}`},
		{"TrailingData", `{"version": 1, "entries": {"index": {"file": "index", "url": "index.html", "title": "", "mtime": 0}}}` + "\x00\x00garbage{{{"},
		{"Concatenated", `{"version": 1, "entries": {}}{"version": 1, "entries": {}}`},
		{"UnnormalizedPath", `{"version": 1, "entries": {"./index": {"file": "index", "url": "index.html", "title": "", "mtime": 0}}}`},
	}
	for _, test := range corrupt {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, CacheFile), []byte(test.data), 0o666); err != nil {
				t.Fatal(err)
			}
			_, err := Load(dir)
			if !errors.Is(err, ErrCorruptCache) {
				t.Errorf("Load(...) = _, %v; want %v", err, ErrCorruptCache)
			}
		})
	}
}
