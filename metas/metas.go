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

// Package metas provides the cross-document metadata store
// that drives reference resolution and incremental builds.
package metas

import (
	"path"
	"sort"
	"strings"
	"sync"
)

// Title is one heading of a document.
// Children hold the headings nested under it.
type Title struct {
	Text     string  `json:"text"`
	ID       string  `json:"id"`
	Level    int     `json:"level"`
	Children []Title `json:"children,omitempty"`
}

// Entry is the metadata of a single document.
// An Entry stored in [Metas] is never modified;
// a changed document gets a new Entry.
type Entry struct {
	// File is the document's path without its flavor extension,
	// e.g. "guide/install".
	File string `json:"file"`
	// URL is the forward-slash relative path of the rendered document.
	URL   string `json:"url"`
	Title string `json:"title"`
	// Titles is the document's heading hierarchy.
	Titles []Title `json:"titles,omitempty"`
	// TOC lists the documents included by the document's
	// tables of contents, in order.
	TOC []string `json:"toc,omitempty"`
	// Depends lists the documents this document's references depend on.
	Depends []string `json:"depends,omitempty"`
	// Links lists the outbound cross-references as "role:target".
	Links []string `json:"links,omitempty"`
	// Labels maps link target labels defined in the document
	// to the title of the section they precede.
	Labels map[string]string `json:"labels,omitempty"`
	// Mtime is the source modification time in Unix nanoseconds.
	Mtime int64 `json:"mtime"`
	// Parent is the document whose table of contents includes this one.
	Parent string `json:"parent,omitempty"`
}

// FindTitle searches the heading hierarchy for a title with the given text
// and returns its anchor identifier.
func (e *Entry) FindTitle(text string) (id string, ok bool) {
	var search func(titles []Title) (string, bool)
	search = func(titles []Title) (string, bool) {
		for _, t := range titles {
			if t.Text == text {
				return t.ID, true
			}
			if id, ok := search(t.Children); ok {
				return id, true
			}
		}
		return "", false
	}
	return search(e.Titles)
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	e.Titles = cloneTitles(e.Titles)
	e.TOC = cloneStrings(e.TOC)
	e.Depends = cloneStrings(e.Depends)
	e.Links = cloneStrings(e.Links)
	if e.Labels != nil {
		labels := make(map[string]string, len(e.Labels))
		for k, v := range e.Labels {
			labels[k] = v
		}
		e.Labels = labels
	}
	return e
}

func cloneTitles(titles []Title) []Title {
	if titles == nil {
		return nil
	}
	out := make([]Title, len(titles))
	for i, t := range titles {
		t.Children = cloneTitles(t.Children)
		out[i] = t
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Metas maps document paths to their [Entry].
// It is safe to call methods on Metas from multiple goroutines.
type Metas struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty store.
func New() *Metas {
	return &Metas{entries: make(map[string]Entry)}
}

// Get returns the entry for the given document path.
func (m *Metas) Get(file string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[CleanPath(file)]
	return e, ok
}

// Set stores an entry, replacing any previous entry for the path.
// The entry's URL is normalized before it is stored.
func (m *Metas) Set(file string, e Entry) {
	file = CleanPath(file)
	e = e.Clone()
	e.URL = CleanPath(e.URL)
	if e.File == "" {
		e.File = file
	}
	m.mu.Lock()
	m.entries[file] = e
	m.mu.Unlock()
}

// Len returns the number of entries.
func (m *Metas) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Paths returns the stored document paths in sorted order.
func (m *Metas) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// All returns a copy of the store's contents.
func (m *Metas) All() map[string]Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make(map[string]Entry, len(m.entries))
	for p, e := range m.entries {
		all[p] = e.Clone()
	}
	return all
}

// GarbageCollect removes every entry whose path is not in known
// and returns the removed paths in sorted order.
func (m *Metas) GarbageCollect(known []string) []string {
	keep := make(map[string]struct{}, len(known))
	for _, k := range known {
		keep[CleanPath(k)] = struct{}{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for p := range m.entries {
		if _, ok := keep[p]; !ok {
			delete(m.entries, p)
			removed = append(removed, p)
		}
	}
	sort.Strings(removed)
	return removed
}

// FindLabel returns the entry that defines the given link target label
// and the title associated with the label.
// Entries are searched in path order, so the result is deterministic
// when more than one document defines the label.
func (m *Metas) FindLabel(label string) (e Entry, title string, ok bool) {
	for _, p := range m.Paths() {
		e, found := m.Get(p)
		if !found {
			continue
		}
		if title, ok := e.Labels[label]; ok {
			return e, title, true
		}
	}
	return Entry{}, "", false
}

// CleanPath normalizes a document path or URL
// to a forward-slash relative path without leading "./" or "/".
func CleanPath(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}
