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

// Package resolve turns cross-references into concrete links.
package resolve

import (
	"strings"

	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/metas"
)

// A Resolver turns the cross-references it supports into links.
type Resolver interface {
	// Supports reports whether the resolver handles ref.
	Supports(ref guides.CrossReference, ctx guides.RenderContext) bool
	// Resolve returns the destination of ref or nil if it was not found.
	Resolve(ref guides.CrossReference, ctx guides.RenderContext) *ResolvedReference
}

// A Chain is an ordered list of resolvers.
// The first resolver that supports a reference decides its resolution;
// later resolvers are not consulted even if it finds nothing.
type Chain struct {
	resolvers []Resolver
}

// NewChain returns a chain that tries resolvers in the given order.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: append([]Resolver(nil), resolvers...)}
}

// Append adds a resolver after all existing ones.
func (c *Chain) Append(r Resolver) {
	c.resolvers = append(c.resolvers, r)
}

// Select returns the resolver that handles ref
// and its position in the chain, or (nil, -1).
func (c *Chain) Select(ref guides.CrossReference, ctx guides.RenderContext) (Resolver, int) {
	if c == nil {
		return nil, -1
	}
	for i, r := range c.resolvers {
		if r.Supports(ref, ctx) {
			return r, i
		}
	}
	return nil, -1
}

// Resolve returns the destination of ref,
// or nil if no resolver supports it or the supporting resolver found nothing.
func (c *Chain) Resolve(ref guides.CrossReference, ctx guides.RenderContext) *ResolvedReference {
	r, _ := c.Select(ref, ctx)
	if r == nil {
		return nil
	}
	return r.Resolve(ref, ctx)
}

// DocResolver resolves in-project references:
// :doc: to documents and :ref: to link target labels.
type DocResolver struct{}

// Supports reports whether ref is a :doc: or :ref: reference without a domain.
func (DocResolver) Supports(ref guides.CrossReference, ctx guides.RenderContext) bool {
	return ref.Domain == "" && (ref.Role == "doc" || ref.Role == "ref")
}

// Resolve looks the reference's target up in ctx.Metas.
func (DocResolver) Resolve(ref guides.CrossReference, ctx guides.RenderContext) *ResolvedReference {
	if ctx.Metas == nil {
		return nil
	}
	if ref.Role == "ref" {
		label := guides.NormalizeLabel(ref.Target)
		e, title, ok := ctx.Metas.FindLabel(label)
		if !ok {
			return nil
		}
		if title == "" {
			title = e.Title
		}
		return NewResolvedReference(e.File, title, e.URL+"#"+guides.Slugify(label), e.Titles, nil)
	}

	e, ok := ctx.Metas.Get(ctx.Canonical(ref.Target))
	if !ok {
		return nil
	}
	url, title := e.URL, e.Title
	if ref.Anchor != "" {
		url += "#" + ref.Anchor
		if t, ok := findTitleByID(e.Titles, ref.Anchor); ok {
			title = t
		}
	}
	return NewResolvedReference(e.File, title, url, e.Titles, nil)
}

func findTitleByID(titles []metas.Title, id string) (string, bool) {
	for _, t := range titles {
		if t.ID == id {
			return t.Text, true
		}
		if text, ok := findTitleByID(t.Children, id); ok {
			return text, true
		}
	}
	return "", false
}

// A SymbolIndex maps fully-qualified symbol names to URLs.
type SymbolIndex interface {
	Lookup(name string) (url string, ok bool)
}

// SymbolResolver resolves references against a [SymbolIndex].
type SymbolResolver struct {
	// Domain is the role domain the resolver handles, e.g. "php".
	Domain string
	// Roles restricts the handled roles. Empty means every role in Domain.
	Roles []string
	Index SymbolIndex
}

// Supports reports whether ref's domain and role are handled.
func (r *SymbolResolver) Supports(ref guides.CrossReference, ctx guides.RenderContext) bool {
	if ref.Domain != r.Domain {
		return false
	}
	if len(r.Roles) == 0 {
		return true
	}
	for _, role := range r.Roles {
		if role == ref.Role {
			return true
		}
	}
	return false
}

// Resolve looks the symbol up in the index.
func (r *SymbolResolver) Resolve(ref guides.CrossReference, ctx guides.RenderContext) *ResolvedReference {
	if r.Index == nil {
		return nil
	}
	name := NormalizeSymbol(ref.Target)
	url, ok := r.Index.Lookup(name)
	if !ok {
		return nil
	}
	if ref.Anchor != "" {
		url += "#" + ref.Anchor
	}
	return NewResolvedReference("", name, url, nil, map[string]string{
		"data-symbol": name,
	})
}

// NormalizeSymbol strips leading namespace separators and surrounding space
// from a symbol name.
func NormalizeSymbol(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), `\`)
}
