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

// Package compiler turns source documents into parsed trees
// and cross-document metadata through an ordered list of passes.
package compiler

import (
	"path"
	"strings"

	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/metas"
)

// A Unit is the subject a [Pass] operates on:
// a [*Document], a [*DocumentSet] or a [*Project].
type Unit interface {
	unit()
}

// Flavor names.
const (
	FlavorRST      = "rst"
	FlavorMarkdown = "markdown"
)

// FlavorOf returns the markup flavor of a source file from its extension.
func FlavorOf(source string) string {
	switch strings.ToLower(path.Ext(source)) {
	case ".md", ".markdown":
		return FlavorMarkdown
	default:
		return FlavorRST
	}
}

// Document is a single source file and its compilation state.
type Document struct {
	// File is the document's path without its flavor extension,
	// used as its [metas.Metas] key.
	File string
	// Source is the path of the source file relative to the source root.
	Source string
	Flavor string
	// Mtime is the source modification time in Unix nanoseconds.
	Mtime int64
	// Dirty reports whether the document must be compiled and rendered.
	Dirty bool

	// Content is the source text. If nil, the parse pass reads Source.
	Content []byte
	Tree    *guides.Tree
	// Diagnostics holds the problems found while parsing.
	Diagnostics []guides.Diagnostic
	// Assets lists the project-relative paths of files the document embeds.
	Assets []string
	// Err is set when a pass failed on the document.
	// Later passes skip failed documents.
	Err error
}

// NewDocument returns a dirty document for a source path.
func NewDocument(source string, mtime int64) *Document {
	return &Document{
		File:   guides.TrimSourceExtension(metas.CleanPath(source)),
		Source: metas.CleanPath(source),
		Flavor: FlavorOf(source),
		Mtime:  mtime,
		Dirty:  true,
	}
}

// Failed reports whether a pass has failed on the document.
func (doc *Document) Failed() bool {
	return doc.Err != nil
}

// DocumentSet is the collection of documents built together.
// Cross-references may resolve between any of its documents.
type DocumentSet struct {
	Documents []*Document
}

// Lookup returns the document with the given file.
func (set *DocumentSet) Lookup(file string) *Document {
	for _, doc := range set.Documents {
		if doc.File == file {
			return doc
		}
	}
	return nil
}

// Failed returns the documents that a pass failed on.
func (set *DocumentSet) Failed() []*Document {
	var failed []*Document
	for _, doc := range set.Documents {
		if doc.Failed() {
			failed = append(failed, doc)
		}
	}
	return failed
}

// Project aggregates the document sets of one version of a project.
type Project struct {
	Name    string
	Version string
	Sets    []*DocumentSet
}

func (*Document) unit()    {}
func (*DocumentSet) unit() {}
func (*Project) unit()     {}
