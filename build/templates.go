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

package build

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"zombiezen.com/go/guides/render"
)

// Templates is a set of layout templates loaded from a directory.
// Each file is a template named by its path, e.g. "layout.html".
type Templates struct {
	t *template.Template
}

// LoadTemplates parses every file in fsys as a template.
func LoadTemplates(fsys fs.FS) (*Templates, error) {
	root := template.New("").Option("missingkey=zero").Funcs(template.FuncMap{
		"join":  strings.Join,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	})
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		if _, err := root.New(p).Parse(string(data)); err != nil {
			return fmt.Errorf("load templates: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Templates{t: root}, nil
}

// Names returns the names of the loaded templates in sorted order.
func (ts *Templates) Names() []string {
	var names []string
	for _, t := range ts.t.Templates() {
		if name := t.Name(); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Execute renders the named template with params.
// An unknown name returns an error wrapping [render.ErrTemplateNotFound].
func (ts *Templates) Execute(name string, params map[string]any) (string, error) {
	t := ts.t.Lookup(path.Clean(name))
	if t == nil || t.Tree == nil {
		return "", fmt.Errorf("%w: %s", render.ErrTemplateNotFound, name)
	}
	sb := new(strings.Builder)
	if err := t.Execute(sb, params); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Func returns ts as a [render.TemplateFunc].
// A nil *Templates finds no templates.
func (ts *Templates) Func() render.TemplateFunc {
	return func(name string, params map[string]any) (string, error) {
		if ts == nil {
			return "", fmt.Errorf("%w: %s", render.ErrTemplateNotFound, name)
		}
		return ts.Execute(name, params)
	}
}
