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

// guides compiles reStructuredText and Markdown documentation.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"zombiezen.com/go/guides/config"
)

type globalOptions struct {
	configPath string
	json       bool
	verbose    bool
	logger     zerolog.Logger
}

func main() {
	g := &globalOptions{logger: newLogger(os.Stderr, false, false)}
	rootCmd := &cobra.Command{
		Use:           "guides",
		Short:         "Compile documentation written in reStructuredText and Markdown",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			g.logger = newLogger(cmd.ErrOrStderr(), g.json, g.verbose)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "configuration `file` (default "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolVar(&g.json, "json", false, "log JSON lines instead of text")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log debug messages")

	rootCmd.AddCommand(
		newBuildCommand(g),
		newWatchCommand(g),
		newServeCommand(g),
		newDirectivesCommand(),
		newDumpCommand(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		g.logger.Error().Err(err).Msg("guides failed")
		os.Exit(1)
	}
}

func newLogger(w io.Writer, json, verbose bool) zerolog.Logger {
	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// loadConfig loads the configuration and applies command-line overrides.
func (g *globalOptions) loadConfig(source, output string, formats []string, force bool) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if source != "" {
		cfg.Source = source
	}
	if output != "" {
		cfg.Output = output
	}
	if len(formats) > 0 {
		cfg.Formats = formats
	}
	cfg.Force = cfg.Force || force
	return cfg, nil
}
