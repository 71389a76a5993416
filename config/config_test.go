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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/guides/render"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guides.yaml")
	const file = "source: docs\n" +
		"output: /srv/out\n" +
		"formats: [HTML, .tex]\n" +
		"project: Widgets\n" +
		"workers: 0\n" +
		"symbols: symbols.yaml\n" +
		"highlight_style: monokai\n"
	if err := os.WriteFile(path, []byte(file), 0o666); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GUIDES_VERSION", "2.1")
	t.Setenv("GUIDES_WORKERS", "8")

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Source:             filepath.Join(dir, "docs"),
		Output:             "/srv/out",
		Cache:              filepath.Join("/srv/out", ".guides-cache"),
		Formats:            []string{"html", "tex"},
		Project:            "Widgets",
		Version:            "2.1",
		Workers:            8,
		Symbols:            filepath.Join(dir, "symbols.yaml"),
		SymbolDomain:       "php",
		InitialHeaderLevel: 1,
		HighlightStyle:     "monokai",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load(%q) (-want +got):\n%s", path, diff)
	}
	if err := got.Validate(nil); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Run("Implicit", func(t *testing.T) {
		// The package directory has no guides.yaml.
		t.Setenv("GUIDES_FORMATS", "html, tex")
		got, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"html", "tex"}, got.Formats); diff != "" {
			t.Errorf("Formats (-want +got):\n%s", diff)
		}
		if got.Source != "." {
			t.Errorf("Source = %q; want \".\"", got.Source)
		}
	})
	t.Run("Explicit", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Load(missing) = %v; want %v", err, os.ErrNotExist)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		is     error
	}{
		{name: "Default", modify: func(c *Config) {}},
		{name: "NoSource", modify: func(c *Config) { c.Source = "" }},
		{name: "NoOutput", modify: func(c *Config) { c.Output = "" }},
		{name: "NoFormats", modify: func(c *Config) { c.Formats = nil }},
		{
			name:   "UnknownFormat",
			modify: func(c *Config) { c.Formats = []string{"html", "pdf"} },
			is:     render.ErrFormatNotSupported,
		},
		{name: "HeaderLevel", modify: func(c *Config) { c.InitialHeaderLevel = 7 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(&cfg)
			err := cfg.Validate(nil)
			if test.name == "Default" {
				if err != nil {
					t.Errorf("Validate() = %v; want <nil>", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = <nil>; want error")
			}
			if test.is != nil && !errors.Is(err, test.is) {
				t.Errorf("Validate() = %v; want %v", err, test.is)
			}
		})
	}
}
