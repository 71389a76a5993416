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
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrInvalidRegistration is returned when a directive or role
// cannot be added to a [Registry].
var ErrInvalidRegistration = errors.New("invalid registration")

var handlerNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.+-]*(?::[A-Za-z0-9][A-Za-z0-9_.+-]*)?$`)

// OptionType is the expected type of a directive option's value.
type OptionType uint8

const (
	// StringOption values are kept as written.
	StringOption OptionType = 1 + iota
	// FlagOption options take no value and are stored as true.
	FlagOption
	// IntOption values must parse as a base-10 integer.
	IntOption
)

func (t OptionType) String() string {
	switch t {
	case StringOption:
		return "string"
	case FlagOption:
		return "flag"
	case IntOption:
		return "int"
	default:
		return fmt.Sprintf("OptionType(%d)", uint8(t))
	}
}

// A Directive is a block-level extension as written in the source:
//
//	.. |variable| name:: data
//	   :option: value
//
//	   content
type Directive struct {
	// Variable is the substitution name, if any.
	Variable string
	Name     string
	// Data is the text after the "::" marker.
	Data string
	// Options holds validated option values:
	// string for [StringOption], bool for [FlagOption], int for [IntOption].
	Options map[string]any
	// Content is the directive body with its indentation removed.
	Content string
	// Line is the line of the directive marker
	// and ContentLine is the first line of Content.
	Line        int
	ContentLine int
}

// String returns the named option's value as a string.
func (d *Directive) String(name string) (string, bool) {
	switch v := d.Options[name].(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// Flag reports whether the named flag option is present.
func (d *Directive) Flag(name string) bool {
	_, ok := d.Options[name]
	return ok
}

// Int returns the named option's value as an integer.
func (d *Directive) Int(name string) (int, bool) {
	v, ok := d.Options[name].(int)
	return v, ok
}

// StringOptions returns all options formatted as strings.
func (d *Directive) StringOptions() map[string]string {
	if len(d.Options) == 0 {
		return nil
	}
	m := make(map[string]string, len(d.Options))
	for k := range d.Options {
		m[k], _ = d.String(k)
	}
	return m
}

// A DirectiveHandler converts a [Directive] into nodes.
type DirectiveHandler struct {
	// Options lists the recognized options and their types.
	// Unrecognized options are reported and dropped
	// unless AnyOption is set, in which case they are kept as strings.
	Options   map[string]OptionType
	AnyOption bool
	// Process builds the directive's nodes with b.
	// It may parse the directive's content with [Builder.ParseBlocks].
	// A returned error is reported as a diagnostic
	// and the directive produces no nodes.
	Process func(b *Builder, d *Directive) ([]NodeID, error)
}

// A Role is an inline extension as written in the source: :domain:name:`content`.
type Role struct {
	Name    string
	Domain  string
	Content string
	Line    int
}

// A RoleHandler converts a [Role] into an inline node.
type RoleHandler func(b *Builder, r *Role) (NodeID, error)

// A Registry maps directive and role names to their handlers.
// Lookups are by exact name.
// Registration errors are returned and also retained for [Registry.Validate],
// so a misconfigured registry is rejected before any document is parsed.
type Registry struct {
	mu         sync.RWMutex
	directives map[string]DirectiveHandler
	roles      map[string]RoleHandler
	errs       []error
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		directives: make(map[string]DirectiveHandler),
		roles:      make(map[string]RoleHandler),
	}
}

// RegisterDirective adds a directive handler.
// It is an error to register a name twice.
func (reg *Registry) RegisterDirective(name string, h DirectiveHandler) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	err := reg.checkDirective(name, h)
	if err != nil {
		err = fmt.Errorf("register directive %q: %w", name, err)
		reg.errs = append(reg.errs, err)
		return err
	}
	reg.directives[name] = h
	return nil
}

func (reg *Registry) checkDirective(name string, h DirectiveHandler) error {
	if !handlerNamePattern.MatchString(name) {
		return fmt.Errorf("%w: malformed name", ErrInvalidRegistration)
	}
	if h.Process == nil {
		return fmt.Errorf("%w: nil Process", ErrInvalidRegistration)
	}
	if _, dup := reg.directives[name]; dup {
		return fmt.Errorf("%w: already registered", ErrInvalidRegistration)
	}
	for opt, typ := range h.Options {
		if opt == "" || strings.ContainsAny(opt, ": \t\n") {
			return fmt.Errorf("%w: malformed option name %q", ErrInvalidRegistration, opt)
		}
		if typ < StringOption || typ > IntOption {
			return fmt.Errorf("%w: option %q has unknown type %v", ErrInvalidRegistration, opt, typ)
		}
	}
	return nil
}

// RegisterRole adds a role handler.
// name is either "role" or "domain:role".
func (reg *Registry) RegisterRole(name string, h RoleHandler) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	var err error
	switch _, dup := reg.roles[name]; {
	case !handlerNamePattern.MatchString(name):
		err = fmt.Errorf("%w: malformed name", ErrInvalidRegistration)
	case h == nil:
		err = fmt.Errorf("%w: nil handler", ErrInvalidRegistration)
	case dup:
		err = fmt.Errorf("%w: already registered", ErrInvalidRegistration)
	}
	if err != nil {
		err = fmt.Errorf("register role %q: %w", name, err)
		reg.errs = append(reg.errs, err)
		return err
	}
	reg.roles[name] = h
	return nil
}

// Validate returns the errors of any failed registrations.
func (reg *Registry) Validate() error {
	if reg == nil {
		return fmt.Errorf("%w: nil registry", ErrInvalidRegistration)
	}
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return errors.Join(reg.errs...)
}

// Directive returns the handler registered for name.
func (reg *Registry) Directive(name string) (DirectiveHandler, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	h, ok := reg.directives[name]
	return h, ok
}

// Role returns the handler registered for name or nil.
func (reg *Registry) Role(name string) RoleHandler {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.roles[name]
}

// Directives returns the registered directive names in sorted order.
func (reg *Registry) Directives() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	names := make([]string, 0, len(reg.directives))
	for name := range reg.directives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Roles returns the registered role names in sorted order.
func (reg *Registry) Roles() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	names := make([]string, 0, len(reg.roles))
	for name := range reg.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type rawOption struct {
	name  string
	value string
	line  int
}

// dispatchDirective runs the handler for d.
// An unknown directive is kept as a [DirectiveKind] node
// with its content in a literal child.
func (b *Builder) dispatchDirective(d *Directive, opts []rawOption) (nodes []NodeID) {
	h, ok := b.registry.Directive(d.Name)
	if !ok {
		b.Warnf(d.Line, "unknown directive %q", d.Name)
		d.Options = make(map[string]any, len(opts))
		for _, opt := range opts {
			d.Options[opt.name] = opt.value
		}
		id := b.Add(DirectiveKind, d.Line, Attrs{
			Name:    d.Name,
			Title:   d.Data,
			Text:    d.Content,
			Options: d.StringOptions(),
		})
		if d.Content != "" {
			b.AppendChildren(id, b.Add(LiteralKind, d.ContentLine, Attrs{Text: d.Content}))
		}
		return []NodeID{id}
	}

	d.Options = make(map[string]any, len(opts))
	for _, opt := range opts {
		typ, known := h.Options[opt.name]
		if !known {
			if h.AnyOption {
				d.Options[opt.name] = opt.value
			} else {
				b.Warnf(opt.line, "unknown option %q for directive %q", opt.name, d.Name)
			}
			continue
		}
		switch typ {
		case StringOption:
			d.Options[opt.name] = opt.value
		case FlagOption:
			if opt.value != "" {
				b.Warnf(opt.line, "option %q of directive %q takes no value", opt.name, d.Name)
			}
			d.Options[opt.name] = true
		case IntOption:
			n, err := strconv.Atoi(opt.value)
			if err != nil {
				b.Warnf(opt.line, "option %q of directive %q must be an integer", opt.name, d.Name)
				continue
			}
			d.Options[opt.name] = n
		}
	}

	mark := len(b.tree.nodes)
	defer func() {
		if v := recover(); v != nil {
			b.Errorf(d.Line, "directive %q: internal error: %v", d.Name, v)
			b.tree.nodes = b.tree.nodes[:mark]
			nodes = nil
		}
	}()
	nodes, err := h.Process(b, d)
	if err != nil {
		b.Errorf(d.Line, "directive %q: %v", d.Name, err)
		return nil
	}
	return nodes
}

// dispatchRole runs a role handler.
// A failing role is reported and its content kept as text.
func (b *Builder) dispatchRole(h RoleHandler, r *Role) (id NodeID) {
	fallback := func() NodeID {
		return b.Add(TextKind, r.Line, Attrs{Text: r.Content})
	}
	mark := len(b.tree.nodes)
	defer func() {
		if v := recover(); v != nil {
			b.Errorf(r.Line, "role %q: internal error: %v", r.Name, v)
			b.tree.nodes = b.tree.nodes[:mark]
			id = fallback()
		}
	}()
	id, err := h(b, r)
	if err != nil {
		b.Warnf(r.Line, "role %q: %v", r.Name, err)
		return fallback()
	}
	return id
}
