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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes a human-readable outline of the tree to w,
// one node per line, indented by depth.
func (t *Tree) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	Walk(t.Root(), &WalkOptions{
		Pre: func(c *Cursor) bool {
			n := c.Node()
			bw.WriteString(strings.Repeat("  ", c.Depth()))
			bw.WriteString(n.Kind().String())
			if line := n.Line(); line > 0 {
				fmt.Fprintf(bw, " @%d", line)
			}
			writeAttrs(bw, n.Attrs())
			bw.WriteByte('\n')
			return true
		},
	})
	return bw.Flush()
}

func writeAttrs(w *bufio.Writer, a Attrs) {
	str := func(name, value string) {
		if value != "" {
			fmt.Fprintf(w, " %s=%s", name, strconv.Quote(value))
		}
	}
	num := func(name string, value int) {
		if value != 0 {
			fmt.Fprintf(w, " %s=%d", name, value)
		}
	}
	num("level", a.Level)
	str("name", a.Name)
	str("title", a.Title)
	str("text", a.Text)
	str("target", a.Target)
	str("id", a.ID)
	str("role", a.Role)
	str("domain", a.Domain)
	str("anchor", a.Anchor)
	str("display", a.Display)
	if a.Ordered {
		w.WriteString(" ordered")
	}
	if a.Header {
		w.WriteString(" header")
	}
	num("columns", a.Columns)
	num("rows", a.Rows)
	if a.ColSpan > 1 {
		num("colspan", a.ColSpan)
	}
	if a.RowSpan > 1 {
		num("rowspan", a.RowSpan)
	}
	for _, k := range sortedKeys(a.Options) {
		fmt.Fprintf(w, " :%s:=%s", k, strconv.Quote(a.Options[k]))
	}
	if len(a.Entries) > 0 {
		fmt.Fprintf(w, " entries=%q", a.Entries)
	}
}
