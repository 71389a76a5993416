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
	"github.com/spf13/cobra"
	"zombiezen.com/go/guides/build"
	"zombiezen.com/go/guides/config"
)

type buildFlags struct {
	source  string
	output  string
	formats []string
	force   bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "source `dir`ectory")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output `dir`ectory")
	cmd.Flags().StringSliceVarP(&f.formats, "format", "f", nil, "output `format`s (html, tex)")
	cmd.Flags().BoolVar(&f.force, "force", false, "render every document, even if unchanged")
}

func (f *buildFlags) config(g *globalOptions) (config.Config, error) {
	return g.loadConfig(f.source, f.output, f.formats, f.force)
}

func newBuildCommand(g *globalOptions) *cobra.Command {
	f := new(buildFlags)
	cmd := &cobra.Command{
		Use:                   "build [options]",
		Short:                 "Compile the documentation once",
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(g)
			if err != nil {
				return err
			}
			b := &build.Builder{Config: cfg, Logger: g.logger}
			_, err = b.Run(cmd.Context())
			return err
		},
	}
	f.register(cmd)
	return cmd
}
