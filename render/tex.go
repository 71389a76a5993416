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
	"strconv"
	"strings"

	"go4.org/bytereplacer"
	"zombiezen.com/go/guides"
)

var texEscaper = bytereplacer.New(
	`\`, `\textbackslash{}`,
	"{", `\{`,
	"}", `\}`,
	"$", `\$`,
	"&", `\&`,
	"#", `\#`,
	"%", `\%`,
	"_", `\_`,
	"^", `\^{}`,
	"~", `\textasciitilde{}`,
)

func (s *State) escapeTeX(text string) {
	s.dst = append(s.dst, texEscaper.Replace([]byte(text))...)
}

var texSections = [...]string{
	`\chapter`,
	`\section`,
	`\subsection`,
	`\subsubsection`,
	`\paragraph`,
	`\subparagraph`,
}

// TeX returns the LaTeX format.
func TeX() *Format {
	f := NewFormat("LaTeX", "tex")
	f.Page = texPage
	f.Handle(guides.SectionKind, texSection)
	f.Handle(guides.ParagraphKind, func(s *State, n guides.Node) {
		s.Children(n)
		s.WriteString("\n\n")
	})
	f.Handle(guides.ListKind, texList)
	f.Handle(guides.DefinitionListKind, texEnvironment("description"))
	f.Handle(guides.DefinitionItemKind, texDefinitionItem)
	f.Handle(guides.TableKind, texTable)
	f.Handle(guides.SeparatorKind, func(s *State, n guides.Node) {
		s.WriteString("\\noindent\\rule{\\linewidth}{0.4pt}\n\n")
	})
	f.Handle(guides.LiteralKind, texVerbatim)
	f.Handle(guides.CodeKind, texVerbatim)
	f.Handle(guides.QuoteKind, texEnvironment("quote"))
	f.Handle(guides.ImageKind, texImage)
	f.Handle(guides.FigureKind, texFigure)
	f.Handle(guides.AdmonitionKind, texTitledBody)
	f.Handle(guides.SidebarKind, texTitledBody)
	f.Handle(guides.TopicKind, texTitledBody)
	f.Handle(guides.TocKind, texToc)
	f.Handle(guides.ContentsKind, func(s *State, n guides.Node) {
		s.WriteString("\\tableofcontents\n\n")
	})
	f.Handle(guides.AnchorKind, func(s *State, n guides.Node) {
		s.WriteString(`\label{`)
		s.WriteString(texLabel(s.ctx.CurrentFile, n.Attrs().ID))
		s.WriteString("}\n")
	})
	f.Handle(guides.RawKind, func(s *State, n guides.Node) {
		a := n.Attrs()
		if a.Name == "tex" || a.Name == "latex" {
			s.WriteString(a.Text)
			s.WriteString("\n")
		}
	})

	f.Handle(guides.TextKind, func(s *State, n guides.Node) {
		s.escapeTeX(n.Attrs().Text)
	})
	f.Handle(guides.EmphasisKind, texCommand(`\emph`))
	f.Handle(guides.StrongKind, texCommand(`\textbf`))
	f.Handle(guides.SubscriptKind, texCommand(`\textsubscript`))
	f.Handle(guides.SuperscriptKind, texCommand(`\textsuperscript`))
	f.Handle(guides.TitleReferenceKind, texCommand(`\textit`))
	f.Handle(guides.InlineLiteralKind, func(s *State, n guides.Node) {
		s.WriteString(`\texttt{`)
		s.escapeTeX(n.Text())
		s.WriteString("}")
	})
	f.Handle(guides.LinkKind, texLink)
	f.Handle(guides.CrossReferenceKind, texCrossReference)
	return f
}

// texLabel returns a label unique within a project.
func texLabel(file, id string) string {
	return strings.ReplaceAll(file, "/", ":") + ":" + id
}

func texCommand(name string) NodeRenderer {
	return func(s *State, n guides.Node) {
		s.WriteString(name)
		s.WriteString("{")
		s.Children(n)
		s.WriteString("}")
	}
}

func texEnvironment(name string) NodeRenderer {
	return func(s *State, n guides.Node) {
		s.WriteString(`\begin{` + name + "}\n")
		s.Children(n)
		s.WriteString(`\end{` + name + "}\n\n")
	}
}

func texSection(s *State, n guides.Node) {
	a := n.Attrs()
	level := min(max(a.Level, 1), len(texSections))
	s.WriteString(texSections[level-1])
	s.WriteString("{")
	start := 0
	if n.ChildCount() > 0 && n.Child(0).Kind() == guides.SpanKind {
		s.Render(n.Child(0))
		start = 1
	} else {
		s.escapeTeX(a.Title)
	}
	s.WriteString("}\\label{")
	s.WriteString(texLabel(s.ctx.CurrentFile, a.ID))
	s.WriteString("}\n\n")
	s.ChildrenFrom(n, start)
}

func texList(s *State, n guides.Node) {
	env := "itemize"
	if n.Attrs().Ordered {
		env = "enumerate"
	}
	s.WriteString(`\begin{` + env + "}\n")
	for i := 0; i < n.ChildCount(); i++ {
		s.WriteString(`\item `)
		s.Children(n.Child(i))
	}
	s.WriteString(`\end{` + env + "}\n\n")
}

func texDefinitionItem(s *State, n guides.Node) {
	s.WriteString(`\item[`)
	for i := 0; i < n.ChildCount(); i++ {
		switch c := n.Child(i); c.Kind() {
		case guides.TermKind:
			s.Children(c)
		case guides.ClassifierKind:
			s.WriteString(" : ")
			s.Children(c)
		}
	}
	s.WriteString("] ")
	for i := 0; i < n.ChildCount(); i++ {
		if c := n.Child(i); c.Kind() == guides.DefinitionKind {
			s.Children(c)
		}
	}
}

func texTable(s *State, n guides.Node) {
	cols := max(n.Attrs().Columns, 1)
	s.WriteString(`\begin{tabular}{|` + strings.Repeat("l|", cols) + "}\n\\hline\n")
	for i := 0; i < n.ChildCount(); i++ {
		row := n.Child(i)
		for j := 0; j < row.ChildCount(); j++ {
			if j > 0 {
				s.WriteString(" & ")
			}
			cell := row.Child(j)
			span := cell.Attrs().ColSpan
			if span > 1 {
				s.WriteString(`\multicolumn{` + strconv.Itoa(span) + "}{|l|}{")
			}
			if row.Attrs().Header {
				s.WriteString(`\textbf{`)
			}
			s.renderCellTeX(cell)
			if row.Attrs().Header {
				s.WriteString("}")
			}
			if span > 1 {
				s.WriteString("}")
			}
		}
		s.WriteString(" \\\\\n\\hline\n")
	}
	s.WriteString("\\end{tabular}\n\n")
}

// renderCellTeX renders a table cell without paragraph breaks,
// which tabular cells cannot contain.
func (s *State) renderCellTeX(cell guides.Node) {
	start := len(s.dst)
	s.Children(cell)
	text := strings.TrimSpace(string(s.dst[start:]))
	s.dst = append(s.dst[:start], strings.ReplaceAll(text, "\n\n", " ")...)
}

func texVerbatim(s *State, n guides.Node) {
	text := n.Attrs().Text
	s.WriteString("\\begin{verbatim}\n")
	s.WriteString(strings.ReplaceAll(text, `\end{verbatim}`, `\end {verbatim}`))
	if !strings.HasSuffix(text, "\n") {
		s.WriteString("\n")
	}
	s.WriteString("\\end{verbatim}\n\n")
}

func texImage(s *State, n guides.Node) {
	s.WriteString(`\includegraphics`)
	if w := n.Attrs().Options["width"]; w != "" {
		s.WriteString("[width=" + w + "]")
	}
	s.WriteString("{")
	s.WriteString(s.ctx.RelativeURL(n.Attrs().Target))
	s.WriteString("}\n")
}

func texFigure(s *State, n guides.Node) {
	s.WriteString("\\begin{figure}[htbp]\n\\centering\n")
	if n.ChildCount() > 0 {
		s.Render(n.Child(0))
	}
	if n.ChildCount() > 1 {
		s.WriteString(`\caption{`)
		caption := n.Child(1)
		if caption.Kind() == guides.ParagraphKind {
			s.Children(caption)
		} else {
			s.Render(caption)
		}
		s.WriteString("}\n")
		s.ChildrenFrom(n, 2)
	}
	s.WriteString("\\end{figure}\n\n")
}

func texTitledBody(s *State, n guides.Node) {
	s.WriteString("\\begin{quote}\n\\textbf{")
	start := 0
	if n.ChildCount() > 0 && n.Child(0).Kind() == guides.SpanKind {
		s.Render(n.Child(0))
		start = 1
	} else if title := n.Attrs().Title; title != "" {
		s.escapeTeX(title)
	} else {
		s.escapeTeX(AdmonitionTitle(n.Attrs().Name))
	}
	s.WriteString("}\n\n")
	s.ChildrenFrom(n, start)
	s.WriteString("\\end{quote}\n\n")
}

func texToc(s *State, n guides.Node) {
	entries := s.tocTree(n)
	if _, hidden := n.Attrs().Option("hidden"); hidden {
		return
	}
	s.texTocList(entries)
	s.WriteString("\n")
}

func (s *State) texTocList(entries []tocEntry) {
	if len(entries) == 0 {
		return
	}
	s.WriteString("\\begin{itemize}\n")
	for _, e := range entries {
		s.WriteString(`\item `)
		s.escapeTeX(e.title)
		s.WriteString("\n")
		s.texTocList(e.children)
	}
	s.WriteString("\\end{itemize}\n")
}

func texLink(s *State, n guides.Node) {
	a := n.Attrs()
	if a.Target == "" || strings.HasPrefix(a.Target, "#") {
		s.Children(n)
		return
	}
	s.WriteString(`\href{`)
	s.WriteString(texURL(a.Target))
	s.WriteString("}{")
	s.Children(n)
	s.WriteString("}")
}

func texCrossReference(s *State, n guides.Node) {
	ref, caption := s.ResolveReference(n)
	if ref == nil {
		s.escapeTeX(caption)
		return
	}
	if guides.IsAbsoluteURL(ref.URL) {
		s.WriteString(`\href{`)
		s.WriteString(texURL(ref.URL))
		s.WriteString("}{")
		s.escapeTeX(caption)
		s.WriteString("}")
		return
	}
	if _, id, ok := strings.Cut(ref.URL, "#"); ok && ref.File != "" {
		s.WriteString(`\hyperref[`)
		s.WriteString(texLabel(ref.File, id))
		s.WriteString("]{")
		s.escapeTeX(caption)
		s.WriteString("}")
		return
	}
	s.escapeTeX(caption)
}

var texURLEscaper = bytereplacer.New(
	"%", `\%`,
	"#", `\#`,
	`\`, `\\`,
	"{", `\{`,
	"}", `\}`,
)

func texURL(u string) string {
	return string(texURLEscaper.Replace([]byte(u)))
}

func texPage(s *State, tree *guides.Tree, body string) {
	s.WriteString("\\documentclass{report}\n")
	s.WriteString("\\usepackage[utf8]{inputenc}\n\\usepackage{graphicx}\n\\usepackage{hyperref}\n\n")
	s.WriteString(`\title{`)
	s.escapeTeX(tree.Title())
	s.WriteString("}\n\\begin{document}\n\\maketitle\n\n")
	s.WriteString(body)
	s.WriteString("\\end{document}\n")
}
