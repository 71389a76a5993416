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
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/metas"
)

// ParsePass parses every dirty document with the front end of its flavor.
// Diagnostics are logged and kept on the document.
func ParsePass() Pass {
	return &DocumentPass{PassName: "parse", Func: parseDocument}
}

func parseDocument(ctx context.Context, env *Env, doc *Document) error {
	if !doc.Dirty {
		return nil
	}
	fe := env.FrontEnds[doc.Flavor]
	if fe == nil {
		return fmt.Errorf("no front end for %s documents", doc.Flavor)
	}
	content := doc.Content
	if content == nil {
		if env.Source == nil {
			return fmt.Errorf("read %s: no source directory", doc.Source)
		}
		var err error
		content, err = fs.ReadFile(env.Source, doc.Source)
		if err != nil {
			return err
		}
	}
	doc.Tree, doc.Diagnostics = fe.Parse(doc.File, content)
	for _, d := range doc.Diagnostics {
		ev := env.Logger.Warn()
		if d.Severity == guides.Error {
			ev = env.Logger.Error()
		}
		ev.Str("file", doc.Source).Int("line", d.Line).Msg(d.Message)
	}
	return nil
}

// MetadataPass builds the [metas.Entry] of every parsed document
// and stores it in the environment's metadata store.
func MetadataPass() Pass {
	return &DocumentPass{PassName: "metadata", Func: func(ctx context.Context, env *Env, doc *Document) error {
		if doc.Tree == nil {
			return nil
		}
		e := NewEntry(doc.Tree, doc.File, env.urlExtension())
		e.Mtime = doc.Mtime
		if prev, ok := env.Metas.Get(doc.File); ok {
			e.Parent = prev.Parent
		}
		env.Metas.Set(doc.File, e)
		return nil
	}}
}

// NewEntry extracts the metadata of a parsed document.
// Table of contents entries are kept as written, glob patterns included.
func NewEntry(tree *guides.Tree, file, urlExtension string) metas.Entry {
	e := metas.Entry{
		File:   file,
		URL:    file + "." + urlExtension,
		Title:  tree.Title(),
		Titles: sectionTitles(tree.Root()),
	}
	var pendingLabels []string
	depends := make(map[string]struct{})
	links := make(map[string]struct{})
	guides.Walk(tree.Root(), &guides.WalkOptions{
		Pre: func(c *guides.Cursor) bool {
			n := c.Node()
			switch n.Kind() {
			case guides.AnchorKind:
				pendingLabels = append(pendingLabels, n.Attrs().Name)
			case guides.SectionKind:
				for _, label := range pendingLabels {
					setLabel(&e, label, n.Attrs().Title)
				}
				pendingLabels = nil
			case guides.TocKind:
				for _, entry := range n.Attrs().Entries {
					if guides.IsAbsoluteURL(entry) || contains(e.TOC, entry) {
						continue
					}
					e.TOC = append(e.TOC, entry)
					if !guides.IsTocPattern(entry) {
						depends[entry] = struct{}{}
					}
				}
			case guides.CrossReferenceKind:
				ref := n.CrossReference()
				link := ref.QualifiedRole() + ":" + ref.Target
				if _, dup := links[link]; !dup {
					links[link] = struct{}{}
					e.Links = append(e.Links, link)
				}
				if ref.Domain == "" && ref.Role == "doc" {
					depends[guides.CanonicalPath(file, ref.Target)] = struct{}{}
				}
			}
			return true
		},
	})
	for _, label := range pendingLabels {
		setLabel(&e, label, "")
	}
	delete(depends, file)
	for dep := range depends {
		e.Depends = append(e.Depends, dep)
	}
	sort.Strings(e.Depends)
	return e
}

func setLabel(e *metas.Entry, label, title string) {
	if e.Labels == nil {
		e.Labels = make(map[string]string)
	}
	e.Labels[label] = title
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// sectionTitles returns the heading hierarchy below n.
func sectionTitles(n guides.Node) []metas.Title {
	var titles []metas.Title
	for i := 0; i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c.Kind() != guides.SectionKind {
			continue
		}
		a := c.Attrs()
		titles = append(titles, metas.Title{
			Text:     a.Title,
			ID:       a.ID,
			Level:    a.Level,
			Children: sectionTitles(c),
		})
	}
	return titles
}

// ReferencePass adds the documents defining the labels
// of each parsed document's :ref: links to its [metas.Entry.Depends],
// so removing or moving a label marks the referring documents dirty.
// It runs after every document's labels are in the store.
func ReferencePass() Pass {
	return &SetPass{PassName: "references", Func: labelDependencies}
}

func labelDependencies(ctx context.Context, env *Env, set *DocumentSet) error {
	for _, doc := range set.Documents {
		if doc.Tree == nil || doc.Failed() {
			continue
		}
		e, ok := env.Metas.Get(doc.File)
		if !ok {
			continue
		}
		changed := false
		for _, link := range e.Links {
			target, ok := strings.CutPrefix(link, "ref:")
			if !ok {
				continue
			}
			def, _, found := env.Metas.FindLabel(guides.NormalizeLabel(target))
			if !found || def.File == doc.File || contains(e.Depends, def.File) {
				continue
			}
			e.Depends = append(e.Depends, def.File)
			changed = true
		}
		if changed {
			sort.Strings(e.Depends)
			env.Metas.Set(doc.File, e)
		}
	}
	return ctx.Err()
}

// TocPass sets [metas.Entry.Parent] from the tables of contents
// of every document in the store.
// A document listed by several tables of contents gets the first
// such document in path order as its parent.
func TocPass() Pass {
	return &SetPass{PassName: "toc", Func: assignParents}
}

func assignParents(ctx context.Context, env *Env, set *DocumentSet) error {
	known := env.Metas.Paths()
	parents := make(map[string]string)
	for _, p := range known {
		e, _ := env.Metas.Get(p)
		for _, child := range guides.ExpandTocEntries(e.TOC, known, p) {
			if _, ok := env.Metas.Get(child); !ok {
				env.Logger.Warn().
					Str("file", p).
					Str("target", child).
					Msg("toc contains a link to a missing document")
				continue
			}
			if _, dup := parents[child]; !dup && child != p {
				parents[child] = p
			}
		}
	}
	for _, p := range known {
		e, _ := env.Metas.Get(p)
		if e.Parent != parents[p] {
			e.Parent = parents[p]
			env.Metas.Set(p, e)
		}
	}
	return ctx.Err()
}

// AssetPass rewrites the image paths of every parsed document
// to project-absolute paths and records them as the document's assets.
func AssetPass() Pass {
	return &DocumentPass{PassName: "assets", Func: rewriteAssets}
}

func rewriteAssets(ctx context.Context, env *Env, doc *Document) error {
	if doc.Tree == nil {
		return nil
	}
	var images []guides.Node
	guides.Walk(doc.Tree.Root(), &guides.WalkOptions{
		Pre: func(c *guides.Cursor) bool {
			if c.Node().Kind() == guides.ImageKind {
				images = append(images, c.Node())
			}
			return true
		},
	})
	tree := doc.Tree
	assets := make(map[string]struct{})
	for _, img := range images {
		a := img.Attrs()
		if a.Target == "" || guides.IsAbsoluteURL(a.Target) {
			continue
		}
		target := AssetPath(doc.Source, a.Target)
		assets[strings.TrimPrefix(target, "/")] = struct{}{}
		if target != a.Target {
			a.Target = target
			tree = tree.ReplaceAttrs(img.ID(), a)
		}
	}
	doc.Tree = tree
	doc.Assets = doc.Assets[:0]
	for p := range assets {
		doc.Assets = append(doc.Assets, p)
	}
	sort.Strings(doc.Assets)
	return nil
}

// AssetPath resolves a path written in the source file at source
// to a path starting with "/" relative to the project root.
func AssetPath(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return "/" + metas.CleanPath(target)
	}
	return "/" + metas.CleanPath(path.Join(path.Dir(metas.CleanPath(source)), target))
}
