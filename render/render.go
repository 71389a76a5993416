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

// Package render converts parsed documents into output formats.
//
// Each [Format] owns its own table of node renderers.
// Cross-references are resolved while rendering,
// so one parsed tree can be rendered against any [guides.RenderContext].
package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/metas"
	"zombiezen.com/go/guides/resolve"
)

// ErrFormatNotSupported is returned by [Formats.Get]
// for an extension with no registered format.
var ErrFormatNotSupported = errors.New("format not supported")

// ErrTemplateNotFound is returned by a [TemplateFunc]
// that has no template with the requested name.
var ErrTemplateNotFound = errors.New("template not found")

// A NodeRenderer appends the rendering of n to s.
type NodeRenderer func(s *State, n guides.Node)

// A PageFunc wraps a rendered document body into a complete output file.
type PageFunc func(s *State, tree *guides.Tree, body string)

// Format is an output target with its own node renderer table.
type Format struct {
	// Name is a human-readable name such as "HTML".
	Name string
	// Extension is the output file extension without a dot, e.g. "html".
	Extension string
	// Page wraps documents when no template is available.
	// If nil, documents are rendered as their body alone.
	Page PageFunc

	renderers map[guides.Kind]NodeRenderer
}

// NewFormat returns a format with an empty renderer table.
// Nodes without a renderer render their children.
func NewFormat(name, extension string) *Format {
	return &Format{
		Name:      name,
		Extension: strings.ToLower(strings.TrimPrefix(extension, ".")),
		renderers: make(map[guides.Kind]NodeRenderer),
	}
}

// Handle sets the renderer for nodes of the given kind.
func (f *Format) Handle(kind guides.Kind, nr NodeRenderer) {
	f.renderers[kind] = nr
}

// RendererFor returns the renderer for n.
func (f *Format) RendererFor(n guides.Node) NodeRenderer {
	if nr := f.renderers[n.Kind()]; nr != nil {
		return nr
	}
	return renderChildren
}

func renderChildren(s *State, n guides.Node) {
	s.Children(n)
}

// Formats is a registry of formats keyed by case-insensitive extension.
// It is safe to use from multiple goroutines.
type Formats struct {
	mu sync.RWMutex
	m  map[string]*Format
}

// NewFormats returns a registry holding the given formats.
func NewFormats(formats ...*Format) *Formats {
	fs := &Formats{m: make(map[string]*Format)}
	for _, f := range formats {
		fs.Register(f)
	}
	return fs
}

// DefaultFormats returns a registry with the HTML and TeX formats.
func DefaultFormats() *Formats {
	return NewFormats(HTML(nil), TeX())
}

// Register adds f, replacing any format with the same extension.
func (fs *Formats) Register(f *Format) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.m[strings.ToLower(f.Extension)] = f
}

// Get returns the format registered for the extension.
// A leading dot is ignored.
func (fs *Formats) Get(extension string) (*Format, error) {
	key := strings.ToLower(strings.TrimPrefix(extension, "."))
	fs.mu.RLock()
	f := fs.m[key]
	fs.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrFormatNotSupported, extension)
	}
	return f, nil
}

// Extensions returns the registered extensions in sorted order.
func (fs *Formats) Extensions() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	exts := make([]string, 0, len(fs.m))
	for ext := range fs.m {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// A TemplateFunc renders the named template with params.
// It returns an error wrapping [ErrTemplateNotFound] if there is no such template.
type TemplateFunc func(name string, params map[string]any) (string, error)

// Location identifies the source position a warning refers to.
type Location struct {
	File string
	Line int
}

// A WarnFunc records a non-fatal render problem.
type WarnFunc func(message string, loc Location)

// LogWarnings returns a [WarnFunc] that logs to logger at warn level.
func LogWarnings(logger zerolog.Logger) WarnFunc {
	return func(message string, loc Location) {
		ev := logger.Warn().Str("file", loc.File)
		if loc.Line > 0 {
			ev = ev.Int("line", loc.Line)
		}
		ev.Msg(message)
	}
}

// Renderer renders trees in one format.
// A Renderer is safe to use from multiple goroutines
// as long as its fields are not modified.
type Renderer struct {
	Format *Format
	// Resolver resolves cross-reference nodes.
	// If nil, every cross-reference is unresolved.
	Resolver *resolve.Chain
	// Templates renders the "layout.<extension>" template around documents.
	// If nil, the format's Page function is used.
	Templates TemplateFunc
	// Warn receives render warnings. If nil, warnings are dropped.
	Warn WarnFunc
	// Unresolved, if not nil, is called for each cross-reference
	// that could not be resolved.
	Unresolved func(ref guides.CrossReference, ctx guides.RenderContext)
}

// Render returns the rendering of n and its descendants.
func (r *Renderer) Render(n guides.Node, ctx guides.RenderContext) string {
	s := r.newState(ctx)
	s.Render(n)
	return string(s.dst)
}

// RenderDocument renders a whole document, wrapped in its layout.
func (r *Renderer) RenderDocument(tree *guides.Tree, ctx guides.RenderContext) (string, error) {
	body := r.Render(tree.Root(), ctx)
	if r.Templates != nil {
		out, err := r.Templates("layout."+r.Format.Extension, map[string]any{
			"Title":   tree.Title(),
			"Body":    body,
			"Header":  tree.Header(),
			"File":    ctx.CurrentFile,
			"Project": ctx.Project,
			"Version": ctx.Version,
			"Format":  r.Format.Extension,
		})
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrTemplateNotFound) {
			return "", fmt.Errorf("render %s: %w", ctx.CurrentFile, err)
		}
	}
	if r.Format.Page == nil {
		return body, nil
	}
	s := r.newState(ctx)
	r.Format.Page(s, tree, body)
	return string(s.dst), nil
}

func (r *Renderer) newState(ctx guides.RenderContext) *State {
	if ctx.Format == "" {
		ctx.Format = r.Format.Extension
	}
	return &State{r: r, ctx: ctx}
}

// State is the output of a single render call.
// Node renderers append to it.
type State struct {
	r   *Renderer
	ctx guides.RenderContext
	dst []byte
}

// Context returns the render context of the call.
func (s *State) Context() guides.RenderContext {
	return s.ctx
}

// WriteString appends str verbatim.
func (s *State) WriteString(str string) {
	s.dst = append(s.dst, str...)
}

// WriteByte appends c verbatim.
func (s *State) WriteByte(c byte) error {
	s.dst = append(s.dst, c)
	return nil
}

// Render appends the rendering of n.
func (s *State) Render(n guides.Node) {
	if n.IsZero() {
		return
	}
	s.r.Format.RendererFor(n)(s, n)
}

// Children renders the children of n in order.
func (s *State) Children(n guides.Node) {
	s.ChildrenFrom(n, 0)
}

// ChildrenFrom renders the children of n starting at index start.
func (s *State) ChildrenFrom(n guides.Node, start int) {
	for i := start; i < n.ChildCount(); i++ {
		s.Render(n.Child(i))
	}
}

// Warnf reports a warning at the given source line of the current document.
func (s *State) Warnf(line int, format string, args ...any) {
	if s.r.Warn == nil {
		return
	}
	s.r.Warn(fmt.Sprintf(format, args...), Location{File: s.ctx.CurrentFile, Line: line})
}

// Template renders a named template, if the renderer has one.
func (s *State) Template(name string, params map[string]any) (string, bool) {
	if s.r.Templates == nil {
		return "", false
	}
	out, err := s.r.Templates(name, params)
	if err != nil {
		if !errors.Is(err, ErrTemplateNotFound) {
			s.Warnf(0, "template %s: %v", name, err)
		}
		return "", false
	}
	return out, true
}

// ResolveReference resolves a [guides.CrossReferenceKind] node
// and returns the caption to display:
// the reference's display text, else the resolved title, else the literal target.
// If the reference cannot be resolved, ResolveReference records a warning
// and returns nil with the display text or target as caption.
func (s *State) ResolveReference(n guides.Node) (*resolve.ResolvedReference, string) {
	ref := n.CrossReference()
	resolved := s.r.Resolver.Resolve(ref, s.ctx)
	if resolved == nil {
		s.Warnf(ref.Line, "invalid link: %s:`%s`", ref.QualifiedRole(), ref.Target)
		if s.r.Unresolved != nil {
			s.r.Unresolved(ref, s.ctx)
		}
		if ref.Display != "" {
			return nil, ref.Display
		}
		return nil, ref.Target
	}
	switch {
	case ref.Display != "":
		return resolved, ref.Display
	case resolved.Title != "":
		return resolved, resolved.Title
	default:
		return resolved, ref.Target
	}
}

// tocEntry is one line of a rendered table of contents.
type tocEntry struct {
	title    string
	url      string
	children []tocEntry
}

// tocTree builds the entries of a toctree node
// from the documents' metadata, down to depth levels (0 for unlimited).
func (s *State) tocTree(n guides.Node) []tocEntry {
	attrs := n.Attrs()
	if s.ctx.Metas == nil {
		return nil
	}
	depth := attrs.Level
	titlesOnly := false
	if _, ok := attrs.Option("titlesonly"); ok {
		titlesOnly = true
	}
	entries := guides.ExpandTocEntries(attrs.Entries, s.ctx.Metas.Paths(), s.ctx.CurrentFile)
	visited := map[string]bool{s.ctx.CurrentFile: true}
	var docEntries func(paths []string, level int) []tocEntry
	docEntries = func(paths []string, level int) []tocEntry {
		var out []tocEntry
		for _, p := range paths {
			title, hasTitle := attrs.Option(guides.TocTitlePrefix + p)
			if guides.IsAbsoluteURL(p) {
				if !hasTitle {
					title = p
				}
				out = append(out, tocEntry{title: title, url: p})
				continue
			}
			e, ok := s.ctx.Metas.Get(p)
			if !ok {
				s.Warnf(n.Line(), "toctree contains a link to a missing document %q", p)
				continue
			}
			if !hasTitle {
				title = e.Title
			}
			if title == "" {
				title = p
			}
			te := tocEntry{title: title, url: s.ctx.RelativeURL(e.URL)}
			if (depth == 0 || level < depth) && !visited[p] {
				visited[p] = true
				if !titlesOnly {
					te.children = titleEntries(s.ctx.RelativeURL(e.URL), documentSections(e.Titles), level+1, depth)
				}
				te.children = append(te.children, docEntries(e.TOC, level+1)...)
				visited[p] = false
			}
			out = append(out, te)
		}
		return out
	}
	return docEntries(entries, 1)
}

// documentSections returns the headings below a document's title.
func documentSections(titles []metas.Title) []metas.Title {
	if len(titles) == 1 {
		return titles[0].Children
	}
	return titles
}

func titleEntries(url string, titles []metas.Title, level, depth int) []tocEntry {
	if depth > 0 && level > depth {
		return nil
	}
	var out []tocEntry
	for _, t := range titles {
		out = append(out, tocEntry{
			title:    t.Text,
			url:      url + "#" + t.ID,
			children: titleEntries(url, t.Children, level+1, depth),
		})
	}
	return out
}

// localContents builds the entries of a contents node
// from the current document's headings.
func (s *State) localContents(n guides.Node) []tocEntry {
	e, ok := s.ctx.Entry()
	if !ok {
		return nil
	}
	return titleEntries("", documentSections(e.Titles), 1, n.Attrs().Level)
}
