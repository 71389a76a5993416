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
	"errors"
	"strings"
)

// Admonitions lists the directive names that produce [AdmonitionKind] nodes
// titled by their name.
var Admonitions = []string{
	"attention",
	"caution",
	"danger",
	"error",
	"hint",
	"important",
	"note",
	"seealso",
	"tip",
	"warning",
}

// TocTitlePrefix prefixes the keys of a table of contents' Options
// that hold explicit entry titles.
const TocTitlePrefix = "title:"

// DefaultRegistry returns a new registry
// holding the built-in directives and roles.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	mustRegister := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	mustRegister(reg.RegisterDirective("meta", DirectiveHandler{
		AnyOption: true,
		Process:   processMeta,
	}))
	mustRegister(reg.RegisterDirective("title", DirectiveHandler{Process: processTitle}))

	imageOptions := map[string]OptionType{
		"alt":    StringOption,
		"width":  StringOption,
		"height": StringOption,
		"scale":  StringOption,
		"align":  StringOption,
		"target": StringOption,
		"class":  StringOption,
		"name":   StringOption,
	}
	mustRegister(reg.RegisterDirective("image", DirectiveHandler{
		Options: imageOptions,
		Process: processImage,
	}))
	mustRegister(reg.RegisterDirective("figure", DirectiveHandler{
		Options: imageOptions,
		Process: processFigure,
	}))

	codeOptions := map[string]OptionType{
		"linenos":         FlagOption,
		"lineno-start":    IntOption,
		"emphasize-lines": StringOption,
		"caption":         StringOption,
		"name":            StringOption,
		"class":           StringOption,
	}
	for _, name := range []string{"code-block", "code", "sourcecode"} {
		mustRegister(reg.RegisterDirective(name, DirectiveHandler{
			Options: codeOptions,
			Process: processCode,
		}))
	}

	bodyOptions := map[string]OptionType{
		"class": StringOption,
		"name":  StringOption,
	}
	for _, name := range Admonitions {
		mustRegister(reg.RegisterDirective(name, DirectiveHandler{
			Options: bodyOptions,
			Process: processAdmonition,
		}))
	}
	mustRegister(reg.RegisterDirective("admonition", DirectiveHandler{
		Options: bodyOptions,
		Process: processTitledBody(AdmonitionKind),
	}))
	mustRegister(reg.RegisterDirective("sidebar", DirectiveHandler{
		Options: map[string]OptionType{
			"subtitle": StringOption,
			"class":    StringOption,
			"name":     StringOption,
		},
		Process: processTitledBody(SidebarKind),
	}))
	mustRegister(reg.RegisterDirective("topic", DirectiveHandler{
		Options: bodyOptions,
		Process: processTitledBody(TopicKind),
	}))

	mustRegister(reg.RegisterDirective("toctree", DirectiveHandler{
		Options: map[string]OptionType{
			"maxdepth":   IntOption,
			"caption":    StringOption,
			"name":       StringOption,
			"numbered":   StringOption,
			"hidden":     FlagOption,
			"glob":       FlagOption,
			"titlesonly": FlagOption,
		},
		Process: processToctree,
	}))
	mustRegister(reg.RegisterDirective("contents", DirectiveHandler{
		Options: map[string]OptionType{
			"depth":     IntOption,
			"local":     FlagOption,
			"backlinks": StringOption,
			"class":     StringOption,
		},
		Process: processContents,
	}))

	mustRegister(reg.RegisterDirective("replace", DirectiveHandler{Process: processReplace}))
	for _, name := range []string{"div", "wrap"} {
		mustRegister(reg.RegisterDirective(name, DirectiveHandler{
			AnyOption: true,
			Process:   processPassthrough,
		}))
	}
	mustRegister(reg.RegisterDirective("raw", DirectiveHandler{Process: processRaw}))

	for name, kind := range map[string]Kind{
		"literal":         InlineLiteralKind,
		"code":            InlineLiteralKind,
		"emphasis":        EmphasisKind,
		"strong":          StrongKind,
		"sub":             SubscriptKind,
		"subscript":       SubscriptKind,
		"sup":             SuperscriptKind,
		"superscript":     SuperscriptKind,
		"title":           TitleReferenceKind,
		"title-reference": TitleReferenceKind,
		"t":               TitleReferenceKind,
	} {
		mustRegister(reg.RegisterRole(name, textRole(kind)))
	}
	return reg
}

// processMeta copies every option into the document header.
func processMeta(b *Builder, d *Directive) ([]NodeID, error) {
	for key, value := range d.StringOptions() {
		b.SetHeader(key, value)
	}
	return nil, nil
}

func processTitle(b *Builder, d *Directive) ([]NodeID, error) {
	if d.Data == "" {
		return nil, errors.New("missing title text")
	}
	b.SetHeader("title", d.Data)
	return nil, nil
}

func imageNode(b *Builder, d *Directive) (NodeID, error) {
	src := strings.Join(strings.Fields(d.Data), "")
	if src == "" {
		return NoNode, errors.New("missing image path")
	}
	alt, _ := d.String("alt")
	return b.Add(ImageKind, d.Line, Attrs{
		Target:  src,
		Title:   alt,
		Options: d.StringOptions(),
	}), nil
}

func processImage(b *Builder, d *Directive) ([]NodeID, error) {
	img, err := imageNode(b, d)
	if err != nil {
		return nil, err
	}
	return []NodeID{img}, nil
}

// processFigure creates a figure whose content is the caption and legend.
func processFigure(b *Builder, d *Directive) ([]NodeID, error) {
	img, err := imageNode(b, d)
	if err != nil {
		return nil, err
	}
	fig := b.Add(FigureKind, d.Line, Attrs{Options: d.StringOptions()}, img)
	b.AppendChildren(fig, b.ParseBlocks(d.Content, d.ContentLine)...)
	return []NodeID{fig}, nil
}

func processCode(b *Builder, d *Directive) ([]NodeID, error) {
	if strings.TrimSpace(d.Content) == "" {
		return nil, errors.New("code block has no content")
	}
	return []NodeID{b.Add(CodeKind, d.Line, Attrs{
		Name:    strings.TrimSpace(d.Data),
		Text:    d.Content,
		Options: d.StringOptions(),
	})}, nil
}

// directiveBody returns the directive's content,
// with the directive data as its first paragraph.
func directiveBody(d *Directive) (string, int) {
	if d.Data == "" {
		return d.Content, d.ContentLine
	}
	if d.Content == "" {
		return d.Data, d.Line
	}
	return d.Data + "\n\n" + d.Content, d.Line
}

func processAdmonition(b *Builder, d *Directive) ([]NodeID, error) {
	body, line := directiveBody(d)
	id := b.Add(AdmonitionKind, d.Line, Attrs{
		Name:    d.Name,
		Options: d.StringOptions(),
	})
	b.AppendChildren(id, b.ParseBlocks(body, line)...)
	return []NodeID{id}, nil
}

// processTitledBody handles directives whose data is a title
// and whose content is parsed as blocks.
func processTitledBody(kind Kind) func(b *Builder, d *Directive) ([]NodeID, error) {
	return func(b *Builder, d *Directive) ([]NodeID, error) {
		if d.Data == "" {
			return nil, errors.New("missing title")
		}
		id := b.Add(kind, d.Line, Attrs{
			Name:    d.Name,
			Title:   d.Data,
			Options: d.StringOptions(),
		}, b.parseSpan(d.Data, d.Line))
		b.AppendChildren(id, b.ParseBlocks(d.Content, d.ContentLine)...)
		return []NodeID{id}, nil
	}
}

// processToctree lists the documents of a table of contents.
// Entries are document paths relative to the current document,
// optionally written as "Title <path>".
// With the glob flag, entries may contain "*" patterns,
// expanded against the project's documents when the tree is compiled.
func processToctree(b *Builder, d *Directive) ([]NodeID, error) {
	attrs := Attrs{
		Options: d.StringOptions(),
	}
	if attrs.Options == nil {
		attrs.Options = make(map[string]string)
	}
	attrs.Title, _ = d.String("caption")
	if depth, ok := d.Int("maxdepth"); ok {
		attrs.Level = depth
	}
	for _, line := range strings.Split(d.Content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		title, target, explicit := splitEmbeddedTarget(line)
		if !explicit {
			target, title = line, ""
		}
		if IsAbsoluteURL(target) {
			attrs.Entries = append(attrs.Entries, target)
			if title != "" {
				attrs.Options[TocTitlePrefix+target] = title
			}
			continue
		}
		if strings.ContainsAny(target, "*?[") && !d.Flag("glob") {
			b.Warnf(d.ContentLine, "toctree entry %q contains a pattern but glob is not set", target)
		}
		path := CanonicalPath(b.File(), target)
		attrs.Entries = append(attrs.Entries, path)
		if title != "" {
			attrs.Options[TocTitlePrefix+path] = title
		}
	}
	return []NodeID{b.Add(TocKind, d.Line, attrs)}, nil
}

// processContents creates a local table of contents,
// built from the document's headings when rendered.
func processContents(b *Builder, d *Directive) ([]NodeID, error) {
	title := d.Data
	if title == "" {
		title = "Contents"
	}
	attrs := Attrs{
		Title:   title,
		Options: d.StringOptions(),
	}
	if depth, ok := d.Int("depth"); ok {
		attrs.Level = depth
	}
	return []NodeID{b.Add(ContentsKind, d.Line, attrs)}, nil
}

// processReplace defines a substitution: .. |name| replace:: text
func processReplace(b *Builder, d *Directive) ([]NodeID, error) {
	if d.Variable == "" {
		return nil, errors.New("replace must define a substitution")
	}
	text := strings.Join(strings.Fields(d.Data+" "+d.Content), " ")
	b.SetSubstitution(d.Variable, text)
	return nil, nil
}

// processPassthrough returns the directive's content unchanged.
func processPassthrough(b *Builder, d *Directive) ([]NodeID, error) {
	return b.ParseBlocks(d.Content, d.ContentLine), nil
}

func processRaw(b *Builder, d *Directive) ([]NodeID, error) {
	format := strings.ToLower(strings.TrimSpace(d.Data))
	if format == "" {
		return nil, errors.New("missing output format")
	}
	return []NodeID{b.Add(RawKind, d.Line, Attrs{Name: format, Text: d.Content})}, nil
}

func textRole(kind Kind) RoleHandler {
	return func(b *Builder, r *Role) (NodeID, error) {
		if kind == InlineLiteralKind {
			return b.Add(kind, r.Line, Attrs{Text: r.Content}), nil
		}
		return b.Add(kind, r.Line, Attrs{}, b.Add(TextKind, r.Line, Attrs{Text: r.Content})), nil
	}
}
