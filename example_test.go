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

package guides_test

import (
	"fmt"
	"os"

	"zombiezen.com/go/guides"
	"zombiezen.com/go/guides/render"
)

func Example() {
	// Convert markup to a document tree and any diagnostics.
	tree, diags := guides.Parse([]byte("Hello, **World**!\n"))
	for _, d := range diags {
		fmt.Println(d)
	}
	// Render the tree to HTML.
	r := &render.Renderer{Format: render.HTML(nil)}
	fmt.Print(r.Render(tree.Root(), guides.RenderContext{}))
	// Output:
	// <p>Hello, <strong>World</strong>!</p>
}

func ExampleTree_Dump() {
	source := "Install\n" +
		"=======\n" +
		"\n" +
		"See :doc:`usage`.\n"
	tree, _ := new(guides.Parser).Parse("guide/install", []byte(source))
	tree.Dump(os.Stdout)
	// Output:
	// Document @1
	//   Section @1 level=1 title="Install" id="install"
	//     Span @1
	//       Text @1 text="Install"
	//     Paragraph @4
	//       Span @4
	//         Text @4 text="See "
	//         CrossReference @4 target="usage" id="xref-1" role="doc"
	//         Text @4 text="."
}

func ExampleRegistry() {
	reg := guides.DefaultRegistry()
	err := reg.RegisterDirective("version", guides.DirectiveHandler{
		Process: func(b *guides.Builder, d *guides.Directive) ([]guides.NodeID, error) {
			text := b.Add(guides.TextKind, d.Line, guides.Attrs{Text: "Version " + d.Data})
			return []guides.NodeID{b.Add(guides.ParagraphKind, d.Line, guides.Attrs{}, text)}, nil
		},
	})
	if err != nil {
		panic(err)
	}
	tree, _ := (&guides.Parser{Registry: reg}).Parse("index", []byte(".. version:: 1.2\n"))
	fmt.Println(tree.Root().Text())
	// Output:
	// Version 1.2
}
