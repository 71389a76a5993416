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

package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/metas"
)

func TestTeX(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Escaping",
			input: "100% of $5 & more_stuff",
			want:  "100\\% of \\$5 \\& more\\_stuff\n\n",
		},
		{
			name:  "Inline",
			input: "*a* **b** ``c{}``",
			want:  "\\emph{a} \\textbf{b} \\texttt{c\\{\\}}\n\n",
		},
		{
			name:  "Section",
			input: "Intro\n=====\n\nText.",
			want:  "\\chapter{Intro}\\label{doc:intro}\n\nText.\n\n",
		},
		{
			name:  "List",
			input: "- one\n- two",
			want:  "\\begin{itemize}\n\\item one\n\n\\item two\n\n\\end{itemize}\n\n",
		},
		{
			name:  "Literal",
			input: "::\n\n    $x_1$",
			want:  "\\begin{verbatim}\n$x_1$\n\\end{verbatim}\n\n",
		},
		{
			name:  "RawTeX",
			input: ".. raw:: latex\n\n   \\newpage",
			want:  "\\newpage\n",
		},
		{
			name:  "UnresolvedReference",
			input: ":doc:`nowhere`",
			want:  "nowhere\n\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tree := parseRST(t, "doc", test.input)
			r, _ := newTestRenderer(TeX())
			got := r.Render(tree.Root(), guides.RenderContext{
				CurrentFile: "doc",
				Metas:       metas.New(),
			})
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}
		})
	}
}
