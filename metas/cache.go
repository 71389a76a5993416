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

package metas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CacheFile is the name of the cache file inside a cache directory.
const CacheFile = "metas.json"

const cacheVersion = 1

// ErrCorruptCache is returned by [Load]
// when a cache file exists but cannot be decoded.
var ErrCorruptCache = errors.New("corrupt metadata cache")

type cacheFile struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// Load reads the store persisted in dir.
// A missing cache file is not an error: Load returns an empty store.
// An unreadable or corrupt cache file is an error,
// and corruption can be detected with errors.Is(err, [ErrCorruptCache]).
func Load(dir string) (*Metas, error) {
	p := filepath.Join(dir, CacheFile)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load metas: %w", err)
	}
	var cf cacheFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("load metas: %s: %w: %v", p, ErrCorruptCache, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("load metas: %s: %w: trailing data after cache object", p, ErrCorruptCache)
	}
	if cf.Version != cacheVersion {
		return nil, fmt.Errorf("load metas: %s: %w: version %d (want %d)", p, ErrCorruptCache, cf.Version, cacheVersion)
	}
	m := New()
	for file, e := range cf.Entries {
		if CleanPath(file) != file {
			return nil, fmt.Errorf("load metas: %s: %w: unnormalized path %q", p, ErrCorruptCache, file)
		}
		m.entries[file] = e
	}
	return m, nil
}

// Persist writes the full store to dir, creating the directory if needed.
// The output is deterministic: the same entries always produce the same bytes.
func (m *Metas) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return fmt.Errorf("persist metas: %w", err)
	}
	m.mu.RLock()
	data, err := json.MarshalIndent(cacheFile{
		Version: cacheVersion,
		Entries: m.entries,
	}, "", "\t")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("persist metas: %w", err)
	}
	data = append(data, '\n')

	// The cache file is replaced atomically.
	f, err := os.CreateTemp(dir, CacheFile+".*")
	if err != nil {
		return fmt.Errorf("persist metas: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("persist metas: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("persist metas: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, CacheFile)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("persist metas: %w", err)
	}
	return nil
}
