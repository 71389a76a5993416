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

// Package build runs a complete documentation build:
// it loads the metadata cache, compiles the changed documents,
// renders them in every configured format and persists the cache.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/compiler"
	"zombiezen.com/go/guides/config"
	"zombiezen.com/go/guides/markdown"
	"zombiezen.com/go/guides/metas"
	"zombiezen.com/go/guides/render"
	"zombiezen.com/go/guides/resolve"
)

// Builder builds a documentation project.
type Builder struct {
	Config config.Config
	// Registry holds the directive and role handlers.
	// If nil, [guides.DefaultRegistry] is used.
	Registry *guides.Registry
	// Formats holds the available output formats.
	// If nil, the HTML and TeX formats are used.
	Formats *render.Formats
	// Pipeline is the compiler pipeline.
	// If nil, [compiler.DefaultPipeline] is used.
	Pipeline *compiler.Pipeline
	Logger   zerolog.Logger
}

// Result summarizes a build.
type Result struct {
	// Documents is the number of source documents found.
	Documents int
	// Rendered is the number of documents rendered, in any format.
	Rendered int
	// Removed lists the cache entries of deleted documents.
	Removed []string
	// Failed lists the documents that failed to compile.
	Failed []string
	// InvalidLinks lists the cross-references that could not be resolved.
	InvalidLinks []InvalidLink
	// Assets is the number of asset files copied.
	Assets int
}

// InvalidLink is a cross-reference that no resolver could resolve.
type InvalidLink struct {
	File   string
	Line   int
	Role   string
	Target string
}

func (l InvalidLink) String() string {
	return fmt.Sprintf("%s:%d: %s:`%s`", l.File, l.Line, l.Role, l.Target)
}

// DestinationPath returns the output path of a document in a format.
func DestinationPath(file, extension string) string {
	return file + "." + extension
}

// Run performs a build.
// Configuration, registry and cache problems abort the build
// before any document is parsed.
// Problems in individual documents are logged and reported in the result.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	cfg := b.Config
	reg := b.Registry
	if reg == nil {
		reg = guides.DefaultRegistry()
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	available := b.Formats
	if available == nil {
		available = render.NewFormats(
			render.HTML(&render.HTMLOptions{HighlightStyle: cfg.HighlightStyle}),
			render.TeX(),
		)
	}
	if err := cfg.Validate(available); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	formats := make([]*render.Format, 0, len(cfg.Formats))
	for _, ext := range cfg.Formats {
		f, err := available.Get(ext)
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		formats = append(formats, f)
	}
	chain := resolve.NewChain(resolve.DocResolver{})
	if cfg.Symbols != "" {
		idx, err := resolve.LoadIndex(cfg.Symbols)
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		chain.Append(&resolve.SymbolResolver{Domain: cfg.SymbolDomain, Index: idx})
	}
	var templates *Templates
	if cfg.Templates != "" {
		var err error
		templates, err = LoadTemplates(os.DirFS(cfg.Templates))
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
	}

	m, err := metas.Load(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	srcFS := os.DirFS(cfg.Source)
	docs, err := compiler.Discover(srcFS)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result := &Result{Documents: len(docs)}
	dirty := compiler.Scan(docs, m, cfg.Force)
	result.Removed = m.GarbageCollect(compiler.Files(docs))
	b.Logger.Info().
		Int("documents", len(docs)).
		Int("dirty", dirty).
		Int("removed", len(result.Removed)).
		Msg("scanned sources")

	env := &compiler.Env{
		Metas:  m,
		Logger: b.Logger,
		Source: srcFS,
		FrontEnds: map[string]compiler.FrontEnd{
			compiler.FlavorRST: &guides.Parser{
				Registry:           reg,
				InitialHeaderLevel: cfg.InitialHeaderLevel,
			},
			compiler.FlavorMarkdown: &markdown.Parser{
				Registry:           reg,
				InitialHeaderLevel: cfg.InitialHeaderLevel,
			},
		},
		Workers: cfg.Workers,
	}
	pipeline := b.Pipeline
	if pipeline == nil {
		pipeline = compiler.DefaultPipeline()
	}
	set := &compiler.DocumentSet{Documents: docs}
	project := &compiler.Project{
		Name:    cfg.Project,
		Version: cfg.Version,
		Sets:    []*compiler.DocumentSet{set},
	}
	if _, err := pipeline.Run(ctx, env, project); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	for _, doc := range set.Failed() {
		result.Failed = append(result.Failed, doc.File)
	}

	var mu sync.Mutex
	unresolved := func(ref guides.CrossReference, rctx guides.RenderContext) {
		mu.Lock()
		defer mu.Unlock()
		result.InvalidLinks = append(result.InvalidLinks, InvalidLink{
			File:   rctx.CurrentFile,
			Line:   ref.Line,
			Role:   ref.QualifiedRole(),
			Target: ref.Target,
		})
	}
	var toRender []*compiler.Document
	for _, doc := range docs {
		if doc.Dirty && !doc.Failed() && doc.Tree != nil {
			toRender = append(toRender, doc)
		}
	}
	for _, f := range formats {
		r := &render.Renderer{
			Format:     f,
			Resolver:   chain,
			Templates:  templates.Func(),
			Warn:       render.LogWarnings(b.Logger),
			Unresolved: unresolved,
		}
		if err := b.renderAll(ctx, r, m, toRender); err != nil {
			return nil, err
		}
	}
	result.Rendered = len(toRender)

	result.Assets, err = b.copyAssets(srcFS, toRender)
	if err != nil {
		return nil, err
	}
	if err := m.Persist(cfg.Cache); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	sort.Slice(result.InvalidLinks, func(i, j int) bool {
		li, lj := result.InvalidLinks[i], result.InvalidLinks[j]
		if li.File != lj.File {
			return li.File < lj.File
		}
		return li.Line < lj.Line
	})
	if n := len(result.InvalidLinks); n > 0 {
		arr := zerolog.Arr()
		for _, l := range result.InvalidLinks {
			arr.Str(l.String())
		}
		b.Logger.Warn().Int("count", n).Array("links", arr).Msg("invalid links")
	}
	b.Logger.Info().
		Int("rendered", result.Rendered).
		Int("failed", len(result.Failed)).
		Int("assets", result.Assets).
		Msg("build complete")
	return result, nil
}

// renderAll renders docs with r in parallel and writes the results.
func (b *Builder) renderAll(ctx context.Context, r *render.Renderer, m *metas.Metas, docs []*compiler.Document) error {
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(max(b.Config.Workers, 1))
	for _, doc := range docs {
		grp.Go(func() error {
			if err := grpCtx.Err(); err != nil {
				return err
			}
			dest := DestinationPath(doc.File, r.Format.Extension)
			out, err := r.RenderDocument(doc.Tree, guides.RenderContext{
				CurrentFile:     doc.File,
				DestinationPath: dest,
				Metas:           m,
				Format:          r.Format.Extension,
				Project:         b.Config.Project,
				Version:         b.Config.Version,
			})
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}
			return writeOutput(filepath.Join(b.Config.Output, filepath.FromSlash(dest)), out)
		})
	}
	return grp.Wait()
}

func writeOutput(dst, content string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o777); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := os.WriteFile(dst, []byte(content), 0o666); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	return nil
}

// copyAssets copies the assets of docs into the output directory.
// Missing assets are logged and skipped.
func (b *Builder) copyAssets(srcFS fs.FS, docs []*compiler.Document) (int, error) {
	seen := make(map[string]struct{})
	n := 0
	for _, doc := range docs {
		for _, asset := range doc.Assets {
			if _, dup := seen[asset]; dup {
				continue
			}
			seen[asset] = struct{}{}
			err := copyFile(filepath.Join(b.Config.Output, filepath.FromSlash(asset)), srcFS, path.Clean(asset))
			if errors.Is(err, fs.ErrNotExist) {
				b.Logger.Warn().Str("file", doc.Source).Str("asset", asset).Msg("asset not found")
				continue
			}
			if err != nil {
				return n, fmt.Errorf("build: copy %s: %w", asset, err)
			}
			n++
		}
	}
	return n, nil
}

func copyFile(dst string, srcFS fs.FS, src string) error {
	in, err := srcFS.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o777); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
