// Package collation provides the locale-aware string comparators shared by
// the line sorters and the CSS declaration sorter.
//
// Building a collator loads CLDR tables, so each Collation is built once
// and kept for the life of the process. x/text collators carry scratch
// buffers and are not safe for concurrent use; a Collation hands out
// pooled instances so one Collation can be shared freely.
package collation

import (
	"strings"
	"sync"

	"lineking/lazy"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collation compares strings according to a locale
type Collation struct {
	tag  language.Tag
	pool sync.Pool
}

// New returns a collation for tag with the given collate options
func New(tag language.Tag, opts ...collate.Option) *Collation {
	c := &Collation{tag: tag}
	c.pool.New = func() any {
		return collate.New(tag, opts...)
	}
	return c
}

// Tag returns the collation's locale
func (c *Collation) Tag() language.Tag { return c.tag }

// Compare orders a and b by locale rules. Strings the collator treats as
// equal are ordered by their bytes, so Compare is a total order: it only
// returns 0 for identical strings.
func (c *Collation) Compare(a, b string) int {
	if a == b {
		return 0
	}
	col := c.pool.Get().(*collate.Collator)
	r := col.CompareString(a, b)
	c.pool.Put(col)
	if r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

// With runs fn with a collator reserved for the caller. Use it around a
// whole sort to avoid a pool round-trip per comparison.
func (c *Collation) With(fn func(compare func(a, b string) int)) {
	col := c.pool.Get().(*collate.Collator)
	defer c.pool.Put(col)
	fn(func(a, b string) int {
		if a == b {
			return 0
		}
		if r := col.CompareString(a, b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	})
}

// Set bundles the collations one locale needs
type Set struct {
	// Default is plain locale order
	Default *Collation
	// Numeric orders digit runs by numeric value ("file2" < "file10")
	Numeric *Collation
	tag     language.Tag
}

// NewSet builds the collations for tag
func NewSet(tag language.Tag) *Set {
	return &Set{
		Default: New(tag),
		Numeric: New(tag, collate.Numeric),
		tag:     tag,
	}
}

// Fold returns the case-folded form of v used by the insensitive sorts
func (s *Set) Fold(v string) string {
	return cases.Fold().String(v)
}

// Folder returns a folding function backed by a single caser. The
// function must not be shared between goroutines.
func (s *Set) Folder() func(string) string {
	return cases.Fold().String
}

// Tag returns the set's locale
func (s *Set) Tag() language.Tag { return s.tag }

var sets sync.Map // language.Tag -> *lazy.Value[*Set]

// ForTag returns the process-wide Set for tag, building it on first use
func ForTag(tag language.Tag) *Set {
	v, _ := sets.LoadOrStore(tag, lazy.NewValue(func() *Set { return NewSet(tag) }))
	return v.(*lazy.Value[*Set]).Get()
}

// ParseTag parses a BCP 47 locale, falling back to the root locale
func ParseTag(locale string) language.Tag {
	if strings.TrimSpace(locale) == "" {
		return language.Und
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und
	}
	return tag
}

// Default returns the root-locale Set
func Default() *Set {
	return ForTag(language.Und)
}
