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

package compiler

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/metas"
)

// Discover walks fsys for source documents
// and returns them in path order, all marked dirty.
// Directories whose names start with "." or "_" are skipped.
// Two sources that map to the same document path are an error.
func Discover(fsys fs.FS) ([]*Document, error) {
	var docs []*Document
	byFile := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_")) {
				return fs.SkipDir
			}
			return nil
		}
		if !isSource(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		doc := NewDocument(p, info.ModTime().UnixNano())
		if prev, dup := byFile[doc.File]; dup {
			return fmt.Errorf("%s and %s both define document %s", prev, p, doc.File)
		}
		byFile[doc.File] = p
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].File < docs[j].File
	})
	return docs, nil
}

func isSource(p string) bool {
	ext := path.Ext(p)
	for _, known := range guides.SourceExtensions {
		if strings.EqualFold(ext, known) {
			return true
		}
	}
	return false
}

// Scan decides which documents need compiling.
// A document is dirty if force is set, if it has no entry in m,
// if its modification time differs from the entry's,
// or if a document it depends on is dirty or was removed since the entry was made.
// Dependencies that never existed do not make a document dirty;
// a new document is itself dirty and so marks its dependents.
// A document whose table of contents has glob patterns is also dirty
// when a dirty or removed document matches one of them,
// and a document with :ref: links to undefined labels
// is dirty whenever any other document is.
// Scan returns the number of dirty documents.
func Scan(docs []*Document, m *metas.Metas, force bool) int {
	byFile := make(map[string]*Document, len(docs))
	for _, doc := range docs {
		byFile[doc.File] = doc
	}
	known := m.Paths()
	labels := make(map[string]struct{})
	for _, p := range known {
		e, _ := m.Get(p)
		for label := range e.Labels {
			labels[label] = struct{}{}
		}
	}
	anyDirty := false
	for _, doc := range docs {
		e, ok := m.Get(doc.File)
		doc.Dirty = force || !ok || e.Mtime != doc.Mtime
		anyDirty = anyDirty || doc.Dirty
	}
	for _, p := range known {
		if byFile[p] == nil {
			anyDirty = true
		}
	}

	removed := func(file string) bool {
		if byFile[file] != nil {
			return false
		}
		_, ok := m.Get(file)
		return ok
	}
	stale := func(e metas.Entry) bool {
		for _, dep := range e.Depends {
			if d := byFile[dep]; d != nil && d.Dirty || removed(dep) {
				return true
			}
		}
		for _, pattern := range e.TOC {
			if !guides.IsTocPattern(pattern) {
				continue
			}
			for _, doc := range docs {
				if doc.Dirty && doc.File != e.File && matchTocPattern(pattern, doc.File) {
					return true
				}
			}
			for _, p := range known {
				if byFile[p] == nil && matchTocPattern(pattern, p) {
					return true
				}
			}
		}
		if anyDirty {
			for _, link := range e.Links {
				target, ok := strings.CutPrefix(link, "ref:")
				if !ok {
					continue
				}
				if _, defined := labels[guides.NormalizeLabel(target)]; !defined {
					return true
				}
			}
		}
		return false
	}
	for changed := true; changed; {
		changed = false
		for _, doc := range docs {
			if doc.Dirty {
				continue
			}
			e, _ := m.Get(doc.File)
			if stale(e) {
				doc.Dirty = true
				anyDirty = true
				changed = true
			}
		}
	}
	n := 0
	for _, doc := range docs {
		if doc.Dirty {
			n++
		}
	}
	return n
}

func matchTocPattern(pattern, file string) bool {
	ok, err := path.Match(pattern, file)
	return err == nil && ok
}

// Files returns the document paths of docs.
func Files(docs []*Document) []string {
	files := make([]string, len(docs))
	for i, doc := range docs {
		files[i] = doc.File
	}
	return files
}
