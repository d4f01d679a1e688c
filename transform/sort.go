package transform

import (
	"cmp"
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"unicode/utf16"

	"lineking/collation"
)

// Sorter holds the comparators for one locale. The zero value is not
// usable; use NewSorter or DefaultSorter.
type Sorter struct {
	set *collation.Set
}

// NewSorter returns a sorter for the given collation set
func NewSorter(set *collation.Set) *Sorter {
	return &Sorter{set: set}
}

// DefaultSorter returns the root-locale sorter
func DefaultSorter() *Sorter {
	return NewSorter(collation.Default())
}

func (s *Sorter) sorted(lines []string, c *collation.Collation, desc bool) []string {
	out := slices.Clone(lines)
	c.With(func(compare func(a, b string) int) {
		slices.SortStableFunc(out, func(a, b string) int {
			if desc {
				return compare(b, a)
			}
			return compare(a, b)
		})
	})
	return out
}

func (s *Sorter) sortedFolded(lines []string, desc bool) []string {
	type keyed struct {
		key, line string
	}
	fold := s.set.Folder()
	ks := make([]keyed, len(lines))
	for i, l := range lines {
		ks[i] = keyed{key: fold(l), line: l}
	}
	s.set.Default.With(func(compare func(a, b string) int) {
		slices.SortStableFunc(ks, func(a, b keyed) int {
			r := compare(a.key, b.key)
			if r == 0 {
				// Same folded key: order by original text so the result does not depend on input order
				r = compare(a.line, b.line)
			}
			if desc {
				return -r
			}
			return r
		})
	})
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.line
	}
	return out
}

// Asc sorts lines in ascending locale order
func (s *Sorter) Asc(lines []string) []string { return s.sorted(lines, s.set.Default, false) }

// Desc sorts lines in descending locale order
func (s *Sorter) Desc(lines []string) []string { return s.sorted(lines, s.set.Default, true) }

// AscInsensitive sorts by case-folded text, ascending
func (s *Sorter) AscInsensitive(lines []string) []string { return s.sortedFolded(lines, false) }

// DescInsensitive sorts by case-folded text, descending
func (s *Sorter) DescInsensitive(lines []string) []string { return s.sortedFolded(lines, true) }

// Natural sorts lines so that embedded numbers compare by value
func (s *Sorter) Natural(lines []string) []string { return s.sorted(lines, s.set.Numeric, false) }

// LengthAsc sorts by length in UTF-16 code units. Ties keep input order.
func (s *Sorter) LengthAsc(lines []string) []string { return sortByLength(lines, false) }

// LengthDesc sorts by length, longest first. Ties keep input order.
func (s *Sorter) LengthDesc(lines []string) []string { return sortByLength(lines, true) }

func sortByLength(lines []string, desc bool) []string {
	type measured struct {
		n    int
		line string
	}
	ms := make([]measured, len(lines))
	for i, l := range lines {
		ms[i] = measured{n: CodeUnits(l), line: l}
	}
	slices.SortStableFunc(ms, func(a, b measured) int {
		if desc {
			return cmp.Compare(b.n, a.n)
		}
		return cmp.Compare(a.n, b.n)
	})
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.line
	}
	return out
}

// CodeUnits returns the length of s in UTF-16 code units
func CodeUnits(s string) int {
	n := 0
	for _, r := range s {
		n += max(utf16.RuneLen(r), 1)
	}
	return n
}

// Reverse reverses line order
func Reverse(lines []string) []string {
	out := slices.Clone(lines)
	slices.Reverse(out)
	return out
}

var ipv4Pattern = regexp.MustCompile(`(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})`)

// ipKey extracts the first dotted quad of a line
func ipKey(line string) ([4]int, bool) {
	var key [4]int
	m := ipv4Pattern.FindStringSubmatch(line)
	if m == nil {
		return key, false
	}
	for i := range 4 {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return key, false
		}
		key[i] = n
	}
	return key, true
}

// IP sorts lines by the first IPv4 address they contain, octet by octet,
// with locale order breaking ties. Lines without an address follow, in
// locale order.
func (s *Sorter) IP(lines []string) []string {
	type keyed struct {
		ip    [4]int
		hasIP bool
		line  string
	}
	ks := make([]keyed, len(lines))
	for i, l := range lines {
		ip, ok := ipKey(l)
		ks[i] = keyed{ip: ip, hasIP: ok, line: l}
	}
	s.set.Default.With(func(compare func(a, b string) int) {
		slices.SortStableFunc(ks, func(a, b keyed) int {
			switch {
			case a.hasIP && !b.hasIP:
				return -1
			case !a.hasIP && b.hasIP:
				return 1
			case a.hasIP:
				if c := slices.Compare(a.ip[:], b.ip[:]); c != 0 {
					return c
				}
			}
			return compare(a.line, b.line)
		})
	})
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.line
	}
	return out
}

// Shuffle returns a uniformly random permutation of lines (Fisher-Yates).
// A nil r uses the global source.
func Shuffle(lines []string, r *rand.Rand) []string {
	out := slices.Clone(lines)
	for i := len(out) - 1; i > 0; i-- {
		var j int
		if r != nil {
			j = r.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Unique sorts ascending and drops lines equal to their predecessor
func (s *Sorter) Unique(lines []string) []string {
	return slices.Compact(s.Asc(lines))
}

// UniqueInsensitive keeps the first occurrence of each case-folded line,
// with its original casing, ordered by the folded key
func (s *Sorter) UniqueInsensitive(lines []string) []string {
	type keyed struct {
		key, line string
	}
	fold := s.set.Folder()
	seen := make(map[string]struct{}, len(lines))
	var ks []keyed
	for _, l := range lines {
		k := fold(l)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		ks = append(ks, keyed{key: k, line: l})
	}
	s.set.Default.With(func(compare func(a, b string) int) {
		slices.SortFunc(ks, func(a, b keyed) int {
			return compare(a.key, b.key)
		})
	})
	out := make([]string, 0, len(ks))
	for _, k := range ks {
		out = append(out, k.line)
	}
	return out
}
