package transform

import (
	"iter"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"

	"lineking/text"
)

// JoinWith concatenates all lines into one line using sep
func JoinWith(lines []string, sep string) []string {
	return []string{strings.Join(lines, sep)}
}

// SplitOn splits every line on sep. An empty sep leaves lines unchanged.
func SplitOn(lines []string, sep string) []string {
	if sep == "" {
		return Map(lines, func(s string) string { return s })
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, strings.Split(l, sep)...)
	}
	return out
}

// AlignOn pads the text before the first sep on each line so that every
// sep starts at the same display column. Lines without sep are untouched.
func AlignOn(lines []string, sep string) []string {
	if sep == "" {
		return Map(lines, func(s string) string { return s })
	}
	width := 0
	for _, l := range lines {
		if i := strings.Index(l, sep); i >= 0 {
			width = max(width, uniseg.StringWidth(l[:i]))
		}
	}
	return Map(lines, func(l string) string {
		i := strings.Index(l, sep)
		if i < 0 {
			return l
		}
		pad := width - uniseg.StringWidth(l[:i])
		if pad <= 0 {
			return l
		}
		return l[:i] + strings.Repeat(" ", pad) + l[i:]
	})
}

// NumberLines prefixes every line with its 1-based index
func NumberLines(lines []string) []string {
	return collect(NumberLinesSeq(text.Slice(lines)), len(lines))
}

// NumberLinesSeq is the lazy form of NumberLines
func NumberLinesSeq(seq iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		n := 0
		for l := range seq {
			n++
			if !yield(strconv.Itoa(n) + l) {
				return
			}
		}
	}
}
