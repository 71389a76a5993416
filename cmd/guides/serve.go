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
	"context"
	"errors"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"zombiezen.com/go/guides/build"
)

func newServeCommand(g *globalOptions) *cobra.Command {
	f := new(buildFlags)
	addr := "localhost:8080"
	noWatch := false
	cmd := &cobra.Command{
		Use:                   "serve [options]",
		Short:                 "Build the documentation and preview it over HTTP",
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(g)
			if err != nil {
				return err
			}
			b := &build.Builder{Config: cfg, Logger: g.logger}
			if noWatch {
				if _, err := b.Run(cmd.Context()); err != nil {
					return err
				}
				return serve(cmd.Context(), g.logger, addr, http.Dir(cfg.Output))
			}
			grp, ctx := errgroup.WithContext(cmd.Context())
			grp.Go(func() error {
				return watch(ctx, b)
			})
			grp.Go(func() error {
				return serve(ctx, g.logger, addr, http.Dir(cfg.Output))
			})
			return grp.Wait()
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", addr, "`address` to listen on")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not rebuild on changes")
	return cmd
}

// newPreviewHandler returns a handler that serves the rendered output.
// Directory paths serve their index.html.
func newPreviewHandler(logger zerolog.Logger, root http.FileSystem) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	files := http.FileServer(root)
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		if p := req.URL.Path; path.Ext(p) == "" && p[len(p)-1] != '/' {
			// Extensionless document paths resolve to their HTML rendering.
			if f, err := root.Open(path.Clean(p) + ".html"); err == nil {
				f.Close()
				req.URL.Path = path.Clean(p) + ".html"
			}
		}
		files.ServeHTTP(w, req)
	})
	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// serve runs a preview server on addr until ctx is done.
func serve(ctx context.Context, logger zerolog.Logger, addr string, root http.FileSystem) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           newPreviewHandler(logger, root),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	logger.Info().Str("url", "http://"+l.Addr().String()+"/").Msg("serving preview")
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
