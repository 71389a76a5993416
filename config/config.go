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

// Package config loads the settings of a documentation build.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"zombiezen.com/go/guides/render"
)

// DefaultFile is the configuration file read from the source directory
// when no file is named explicitly.
const DefaultFile = "guides.yaml"

// Config is the configuration of a documentation build.
type Config struct {
	// Source is the directory holding the documents.
	Source string `yaml:"source"`
	// Output is the directory rendered files are written to.
	Output string `yaml:"output"`
	// Cache is the directory holding the metadata cache.
	// Empty means a ".guides-cache" directory inside Output.
	Cache string `yaml:"cache"`
	// Formats lists the output format extensions.
	Formats []string `yaml:"formats"`
	// Templates is an optional directory of layout templates.
	Templates string `yaml:"templates"`

	Project string `yaml:"project"`
	Version string `yaml:"version"`

	// Workers bounds the documents processed concurrently.
	Workers int `yaml:"workers"`
	// Symbols is an optional symbol index file.
	Symbols string `yaml:"symbols"`
	// SymbolDomain is the role domain resolved against Symbols.
	SymbolDomain string `yaml:"symbol_domain"`

	// InitialHeaderLevel is the section level of the first title style.
	InitialHeaderLevel int `yaml:"initial_header_level"`
	// HighlightStyle names the code highlighting style for HTML.
	HighlightStyle string `yaml:"highlight_style"`
	// Force renders every document, even when unchanged.
	Force bool `yaml:"force"`
}

// Default returns the configuration used for settings
// that neither the file nor the environment set.
func Default() Config {
	return Config{
		Source:             ".",
		Output:             "_build",
		Formats:            []string{"html"},
		Project:            "Documentation",
		Workers:            4,
		SymbolDomain:       "php",
		InitialHeaderLevel: 1,
		HighlightStyle:     "github",
	}
}

// Load reads the configuration file at path over the defaults
// and then applies GUIDES_* environment overrides.
// If path is empty, [DefaultFile] is read if it exists.
// Relative directories in the file are resolved against the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg.resolvePaths(filepath.Dir(path))
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.Source, &c.Output, &c.Cache, &c.Templates, &c.Symbols} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

func (c *Config) applyEnv() {
	c.Source = envOr("GUIDES_SOURCE", c.Source)
	c.Output = envOr("GUIDES_OUTPUT", c.Output)
	c.Cache = envOr("GUIDES_CACHE", c.Cache)
	if v := os.Getenv("GUIDES_FORMATS"); v != "" {
		c.Formats = splitList(v)
	}
	c.Workers = envInt("GUIDES_WORKERS", c.Workers)
	c.Project = envOr("GUIDES_PROJECT", c.Project)
	c.Version = envOr("GUIDES_VERSION", c.Version)
	c.Symbols = envOr("GUIDES_SYMBOLS", c.Symbols)
	c.Force = envBool("GUIDES_FORCE", c.Force)
}

func (c *Config) fillDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.InitialHeaderLevel <= 0 {
		c.InitialHeaderLevel = 1
	}
	if c.Cache == "" && c.Output != "" {
		c.Cache = filepath.Join(c.Output, ".guides-cache")
	}
	for i, f := range c.Formats {
		c.Formats[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
	}
}

// Validate reports settings that would make a build fail
// before any document is processed.
// Formats are checked against formats, or [render.DefaultFormats] if nil.
func (c Config) Validate(formats *render.Formats) error {
	if c.Source == "" {
		return fmt.Errorf("source directory is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output directory is required")
	}
	if len(c.Formats) == 0 {
		return fmt.Errorf("at least one output format is required")
	}
	if formats == nil {
		formats = render.DefaultFormats()
	}
	for _, f := range c.Formats {
		if _, err := formats.Get(f); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if c.InitialHeaderLevel > 6 {
		return fmt.Errorf("initial header level %d is greater than 6", c.InitialHeaderLevel)
	}
	return nil
}

func splitList(s string) []string {
	var list []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			list = append(list, f)
		}
	}
	return list
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
