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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/compiler"
	"zombiezen.com/go/guides/markdown"
)

func newDirectivesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "directives",
		Short: "List the supported directives and roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDirectives(cmd.OutOrStdout(), guides.DefaultRegistry())
		},
	}
}

// listDirectives writes a table of the registry's directives
// with their options, followed by its roles.
func listDirectives(w io.Writer, reg *guides.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "DIRECTIVE\tOPTIONS")
	for _, name := range reg.Directives() {
		h, _ := reg.Directive(name)
		opts := make([]string, 0, len(h.Options)+1)
		for opt, typ := range h.Options {
			opts = append(opts, fmt.Sprintf(":%s: %v", opt, typ))
		}
		sort.Strings(opts)
		if h.AnyOption {
			opts = append(opts, "(any)")
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(opts, " "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nROLES\n%s\n", strings.Join(reg.Roles(), " "))
	return err
}

func newDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump FILE [...]",
		Short: "Print the parsed tree of documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				if err := dump(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// dump parses the named file with the front end for its flavor
// and writes its tree followed by any diagnostics.
func dump(w io.Writer, name string) error {
	source, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	var fe compiler.FrontEnd = new(guides.Parser)
	if compiler.FlavorOf(name) == compiler.FlavorMarkdown {
		fe = new(markdown.Parser)
	}
	file := guides.TrimSourceExtension(filepath.ToSlash(name))
	tree, diags := fe.Parse(file, source)
	fmt.Fprintf(w, "# %s\n", name)
	if err := tree.Dump(w); err != nil {
		return err
	}
	for _, d := range diags {
		fmt.Fprintf(w, "%s:%d: %v: %s\n", name, d.Line, d.Severity, d.Message)
	}
	return nil
}
