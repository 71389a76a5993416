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

package resolve

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MapIndex is a [SymbolIndex] backed by a map.
type MapIndex map[string]string

// Lookup returns the URL of the named symbol.
func (idx MapIndex) Lookup(name string) (string, bool) {
	url, ok := idx[NormalizeSymbol(name)]
	return url, ok
}

// LoadIndex reads a symbol index file:
// a YAML (or JSON) mapping from fully-qualified symbol name to URL.
func LoadIndex(path string) (MapIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load symbol index: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("load symbol index %s: %w", path, err)
	}
	idx := make(MapIndex, len(raw))
	for name, url := range raw {
		idx[NormalizeSymbol(name)] = url
	}
	return idx, nil
}
