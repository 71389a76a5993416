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
	"regexp"

	"zombiezen.com/go/guides/metas"
)

var attributeKeyPattern = regexp.MustCompile(`^[A-Za-z_][\w.\-]+$`)

// ResolvedReference is the concrete destination of a cross-reference.
type ResolvedReference struct {
	// File is the document the reference points into, if any.
	File string
	// Title is the destination's title, used as the link text
	// when the reference has no display text.
	Title string
	// URL is relative to the output root.
	URL string
	// Titles is the destination document's heading hierarchy.
	Titles []metas.Title

	attributes map[string]string
}

// NewResolvedReference returns a new reference.
// Attribute keys must match [A-Za-z_][\w.\-]+ and must not be "href";
// NewResolvedReference panics otherwise.
func NewResolvedReference(file, title, url string, titles []metas.Title, attributes map[string]string) *ResolvedReference {
	ref := &ResolvedReference{
		File:   file,
		Title:  title,
		URL:    url,
		Titles: titles,
	}
	for k, v := range attributes {
		if k == "href" || !attributeKeyPattern.MatchString(k) {
			panic(fmt.Sprintf("resolve: invalid attribute key %q", k))
		}
		if ref.attributes == nil {
			ref.attributes = make(map[string]string, len(attributes))
		}
		ref.attributes[k] = v
	}
	return ref
}

// Attributes returns a copy of the extra link attributes.
func (ref *ResolvedReference) Attributes() map[string]string {
	if len(ref.attributes) == 0 {
		return nil
	}
	m := make(map[string]string, len(ref.attributes))
	for k, v := range ref.attributes {
		m[k] = v
	}
	return m
}

// Attribute returns the value of a single attribute.
func (ref *ResolvedReference) Attribute(key string) (string, bool) {
	v, ok := ref.attributes[key]
	return v, ok
}
