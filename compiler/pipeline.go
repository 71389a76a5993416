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
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/metas"
)

// A FrontEnd parses one markup flavor into the shared tree model.
// [*guides.Parser] is the reStructuredText front end.
type FrontEnd interface {
	Parse(file string, source []byte) (*guides.Tree, []guides.Diagnostic)
}

// Env is the state shared by the passes of a pipeline run.
type Env struct {
	Metas  *metas.Metas
	Logger zerolog.Logger
	// Source is the directory documents without Content are read from.
	Source fs.FS
	// FrontEnds maps flavor names to parsers.
	FrontEnds map[string]FrontEnd
	// URLExtension is the extension of rendered documents
	// recorded in [metas.Entry.URL]. Empty means "html".
	URLExtension string
	// Workers bounds the documents processed concurrently.
	// Zero or less uses GOMAXPROCS.
	Workers int
}

func (env *Env) workers() int {
	if env.Workers > 0 {
		return env.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (env *Env) urlExtension() string {
	if env.URLExtension == "" {
		return "html"
	}
	return env.URLExtension
}

// A Pass is one stage of a [Pipeline].
// A pass returns units of a type it does not operate on unchanged.
type Pass interface {
	Name() string
	Apply(ctx context.Context, env *Env, u Unit) (Unit, error)
}

// DocumentPass applies a function to every document independently.
// Applied to a set or project, documents are processed concurrently.
// An error from Func marks that document failed
// and does not stop the others.
type DocumentPass struct {
	PassName string
	Func     func(ctx context.Context, env *Env, doc *Document) error
}

// Name returns d.PassName.
func (d *DocumentPass) Name() string {
	return d.PassName
}

// Apply runs the pass on each document of u that has not failed.
func (d *DocumentPass) Apply(ctx context.Context, env *Env, u Unit) (Unit, error) {
	switch u := u.(type) {
	case *Document:
		d.run(ctx, env, u)
		return u, ctx.Err()
	case *DocumentSet:
		return u, d.applySet(ctx, env, u)
	case *Project:
		for _, set := range u.Sets {
			if err := d.applySet(ctx, env, set); err != nil {
				return u, err
			}
		}
		return u, nil
	default:
		return u, nil
	}
}

func (d *DocumentPass) applySet(ctx context.Context, env *Env, set *DocumentSet) error {
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(env.workers())
	for _, doc := range set.Documents {
		grp.Go(func() error {
			d.run(grpCtx, env, doc)
			return grpCtx.Err()
		})
	}
	return grp.Wait()
}

func (d *DocumentPass) run(ctx context.Context, env *Env, doc *Document) {
	if doc.Failed() || ctx.Err() != nil {
		return
	}
	if err := d.call(ctx, env, doc); err != nil {
		doc.Err = fmt.Errorf("%s: %w", d.PassName, err)
		env.Logger.Error().Err(err).Str("file", doc.Source).Str("pass", d.PassName).Msg("document failed")
	}
}

// call runs Func, converting a panic into an error for doc alone.
func (d *DocumentPass) call(ctx context.Context, env *Env, doc *Document) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("internal error: %v", v)
		}
	}()
	return d.Func(ctx, env, doc)
}

// SetPass applies a function to whole document sets.
// It runs after every document of the set has completed the previous passes.
type SetPass struct {
	PassName string
	Func     func(ctx context.Context, env *Env, set *DocumentSet) error
}

// Name returns s.PassName.
func (s *SetPass) Name() string {
	return s.PassName
}

// Apply runs the pass on a set or on each set of a project.
// Single documents are returned unchanged.
func (s *SetPass) Apply(ctx context.Context, env *Env, u Unit) (Unit, error) {
	switch u := u.(type) {
	case *DocumentSet:
		if err := s.Func(ctx, env, u); err != nil {
			return u, fmt.Errorf("%s: %w", s.PassName, err)
		}
	case *Project:
		for _, set := range u.Sets {
			if err := s.Func(ctx, env, set); err != nil {
				return u, fmt.Errorf("%s: %w", s.PassName, err)
			}
		}
	}
	return u, nil
}

// Pipeline is an ordered list of passes.
// Each pass completes on the whole unit before the next one starts.
type Pipeline struct {
	Passes []Pass
}

// DefaultPipeline returns the parse, metadata, reference,
// table of contents and asset passes, in that order.
func DefaultPipeline() *Pipeline {
	return &Pipeline{Passes: []Pass{
		ParsePass(),
		MetadataPass(),
		ReferencePass(),
		TocPass(),
		AssetPass(),
	}}
}

// Run applies the passes in order.
// Per-document failures are recorded on the documents;
// the returned error reports structural failures and cancellation.
func (p *Pipeline) Run(ctx context.Context, env *Env, u Unit) (Unit, error) {
	if env.Metas == nil {
		return u, fmt.Errorf("compile: no metadata store")
	}
	for _, pass := range p.Passes {
		start := len(failures(u))
		var err error
		u, err = pass.Apply(ctx, env, u)
		if err != nil {
			return u, err
		}
		env.Logger.Debug().
			Str("pass", pass.Name()).
			Int("failed", len(failures(u))-start).
			Msg("pass complete")
	}
	return u, nil
}

// failures returns the paths of failed documents in sorted order.
func failures(u Unit) []string {
	var paths []string
	add := func(set *DocumentSet) {
		for _, doc := range set.Failed() {
			paths = append(paths, doc.File)
		}
	}
	switch u := u.(type) {
	case *Document:
		if u.Failed() {
			paths = append(paths, u.File)
		}
	case *DocumentSet:
		add(u)
	case *Project:
		for _, set := range u.Sets {
			add(set)
		}
	}
	sort.Strings(paths)
	return paths
}
