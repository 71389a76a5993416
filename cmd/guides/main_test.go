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

package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"zombiezen.com/go/guides"
)

func TestListDirectives(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := listDirectives(buf, guides.DefaultRegistry()); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{
		"toctree",
		":maxdepth: int",
		":glob: flag",
		"meta ",
		"(any)",
		"ROLES",
		"literal",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q:\n%s", want, got)
		}
	}
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "page.rst")
	if err := os.WriteFile(name, []byte("Title\n=====\n\n.. bogus::\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	buf := new(bytes.Buffer)
	if err := dump(buf, name); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{
		`Section @1 level=1 title="Title"`,
		`unknown directive "bogus"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q:\n%s", want, got)
		}
	}
}

func TestPreviewHandler(t *testing.T) {
	root := http.FS(fstest.MapFS{
		"index.html":       {Data: []byte("home")},
		"guide/setup.html": {Data: []byte("setup")},
	})
	srv := httptest.NewServer(newPreviewHandler(zerolog.Nop(), root))
	defer srv.Close()

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "home"},
		{"/guide/setup.html", http.StatusOK, "setup"},
		{"/guide/setup", http.StatusOK, "setup"},
		{"/missing", http.StatusNotFound, ""},
	}
	for _, test := range tests {
		resp, err := http.Get(srv.URL + test.path)
		if err != nil {
			t.Error(err)
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != test.status {
			t.Errorf("GET %s status = %d; want %d", test.path, resp.StatusCode, test.status)
			continue
		}
		if test.body != "" && string(body) != test.body {
			t.Errorf("GET %s body = %q; want %q", test.path, body, test.body)
		}
	}
}
