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
	"sync"
	"unicode"

	"github.com/goliatone/go-slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"zombiezen.com/go/guides/metas"
)

// RenderContext is the per-call state of a render.
// It is passed explicitly through every render call
// and never stored in a global.
type RenderContext struct {
	// CurrentFile is the path of the document being rendered,
	// as used for [metas.Metas] keys.
	CurrentFile string
	// DestinationPath is the output file's path
	// relative to the output root.
	DestinationPath string
	// Metas is the cross-document metadata store.
	Metas *metas.Metas
	// Format is the name of the active output format.
	Format string
	// URLExtension is the extension of the document URLs recorded in Metas.
	// Empty means "html".
	// RelativeURL gives document URLs the Format's extension instead.
	URLExtension string
	// Project and Version identify the documentation set.
	Project string
	Version string
}

// Entry returns the metadata of the document being rendered.
func (ctx RenderContext) Entry() (metas.Entry, bool) {
	if ctx.Metas == nil {
		return metas.Entry{}, false
	}
	return ctx.Metas.Get(ctx.CurrentFile)
}

// formatPath swaps the extension of a rendered document's path
// for the active format's.
func (ctx RenderContext) formatPath(p string) string {
	ext := ctx.URLExtension
	if ext == "" {
		ext = "html"
	}
	if ctx.Format == "" || strings.EqualFold(ctx.Format, ext) {
		return p
	}
	if base, ok := strings.CutSuffix(p, "."+ext); ok {
		return base + "." + ctx.Format
	}
	return p
}

// Canonical converts a document reference target into a [metas.Metas] key.
// Targets starting with "/" are relative to the project root,
// others to the directory of the current document.
// Known source extensions are removed.
func (ctx RenderContext) Canonical(target string) string {
	return CanonicalPath(ctx.CurrentFile, target)
}

// RelativeURL converts a project-relative URL
// into a URL relative to the destination path.
// Absolute URLs and fragment-only URLs are returned unchanged.
func (ctx RenderContext) RelativeURL(u string) string {
	if u == "" || IsAbsoluteURL(u) || strings.HasPrefix(u, "#") {
		return u
	}
	target, frag, _ := strings.Cut(u, "#")
	target = ctx.formatPath(metas.CleanPath(target))
	dest := metas.CleanPath(ctx.DestinationPath)
	if target == dest {
		if frag != "" {
			return "#" + frag
		}
		return path.Base(target)
	}
	from := strings.Split(path.Dir(dest), "/")
	if path.Dir(dest) == "." {
		from = nil
	}
	to := strings.Split(target, "/")
	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}
	sb := new(strings.Builder)
	for i := common; i < len(from); i++ {
		sb.WriteString("../")
	}
	sb.WriteString(strings.Join(to[common:], "/"))
	if frag != "" {
		sb.WriteString("#")
		sb.WriteString(frag)
	}
	return sb.String()
}

// SourceExtensions lists the file extensions of the supported markup flavors.
var SourceExtensions = []string{".rst", ".txt", ".md", ".markdown"}

// CanonicalPath resolves target relative to the document at from
// and strips any source extension.
func CanonicalPath(from, target string) string {
	target = strings.TrimSpace(target)
	if strings.HasPrefix(target, "/") {
		target = metas.CleanPath(target)
	} else {
		target = metas.CleanPath(path.Join(path.Dir(metas.CleanPath(from)), target))
	}
	return TrimSourceExtension(target)
}

// TrimSourceExtension removes a known source extension from p.
func TrimSourceExtension(p string) string {
	ext := path.Ext(p)
	for _, known := range SourceExtensions {
		if strings.EqualFold(ext, known) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

// IsAbsoluteURL reports whether u has a scheme or is protocol-relative.
func IsAbsoluteURL(u string) bool {
	if strings.HasPrefix(u, "//") {
		return true
	}
	scheme, _, ok := strings.Cut(u, ":")
	if !ok || scheme == "" {
		return false
	}
	for i, c := range scheme {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// Slugify converts text into an anchor identifier.
// Symbols and accented letters are transliterated,
// letters are lowercased and runs of other characters become a single hyphen.
// Letters outside the ASCII range that have no transliteration are dropped.
func Slugify(text string) string {
	chars := slugCharMap()
	sb := new(strings.Builder)
	for _, c := range text {
		repl, ok := chars[string(c)]
		switch {
		case !ok:
			sb.WriteRune(c)
		case unicode.IsLetter(c):
			sb.WriteString(repl)
		default:
			sb.WriteString(" " + repl + " ")
		}
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, sb.String())
	if err != nil {
		folded = sb.String()
	}
	folded = cases.Lower(language.Und).String(folded)
	folded = strings.Map(func(c rune) rune {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			return c
		}
		return ' '
	}, folded)
	s, err := slug.Normalize(folded)
	if err != nil {
		return ""
	}
	return s
}

var slugCharMap = sync.OnceValue(func() map[string]string {
	m, err := slug.GetCharMap()
	if err != nil {
		return nil
	}
	return m
})
