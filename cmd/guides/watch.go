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
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"zombiezen.com/go/guides/build"
)

const watchDelay = 200 * time.Millisecond

func newWatchCommand(g *globalOptions) *cobra.Command {
	f := new(buildFlags)
	cmd := &cobra.Command{
		Use:                   "watch [options]",
		Short:                 "Rebuild the documentation whenever a source file changes",
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(g)
			if err != nil {
				return err
			}
			b := &build.Builder{Config: cfg, Logger: g.logger}
			return watch(cmd.Context(), b)
		},
	}
	f.register(cmd)
	return cmd
}

// watch runs a build, then runs another each time the source tree changes,
// until ctx is done. Build errors are logged and do not stop watching.
func watch(ctx context.Context, b *build.Builder) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	source, err := filepath.Abs(b.Config.Source)
	if err != nil {
		return err
	}
	ignore := ignoredDirs(b)
	if err := addTree(w, source, ignore); err != nil {
		return err
	}

	rebuild := func() {
		if _, err := b.Run(ctx); err != nil && ctx.Err() == nil {
			b.Logger.Error().Err(err).Msg("build failed")
		}
	}
	rebuild()
	b.Logger.Info().Str("source", source).Msg("watching for changes")

	timer := time.NewTimer(watchDelay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if isIgnored(ev.Name, ignore) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				// New directories must be watched too.
				if err := addTree(w, ev.Name, ignore); err != nil {
					b.Logger.Debug().Err(err).Str("path", ev.Name).Msg("watch")
				}
			}
			b.Logger.Debug().Str("path", ev.Name).Stringer("op", ev.Op).Msg("change")
			timer.Reset(watchDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			b.Logger.Warn().Err(err).Msg("watch")
		case <-timer.C:
			rebuild()
		}
	}
}

// ignoredDirs returns the absolute directories whose changes
// must not trigger a build.
func ignoredDirs(b *build.Builder) []string {
	var dirs []string
	for _, dir := range []string{b.Config.Output, b.Config.Cache} {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dirs = append(dirs, abs)
		}
	}
	return dirs
}

func isIgnored(name string, dirs []string) bool {
	for _, dir := range dirs {
		if name == dir || strings.HasPrefix(name, dir+string(filepath.Separator)) {
			return true
		}
	}
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}

// addTree watches root and its subdirectories.
// Hidden directories and directories starting with "_" are skipped
// like they are by source discovery.
func addTree(w *fsnotify.Watcher, root string, ignore []string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || isIgnored(p, ignore)) {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}
