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

package guides

import (
	"path"
	"strings"
)

// IsTocPattern reports whether a table of contents entry is a glob pattern.
func IsTocPattern(entry string) bool {
	return strings.ContainsAny(entry, "*?[")
}

// ExpandTocEntries replaces the glob patterns among entries
// with the matching document paths from known, in the order of known.
// The document self and documents already listed are never added twice.
func ExpandTocEntries(entries []string, known []string, self string) []string {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !IsTocPattern(e) {
			seen[e] = struct{}{}
		}
	}
	var out []string
	for _, e := range entries {
		if !IsTocPattern(e) {
			out = append(out, e)
			continue
		}
		for _, k := range known {
			if k == self {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			if ok, err := path.Match(e, k); err == nil && ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	return out
}
