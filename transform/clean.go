package transform

import (
	"iter"
	"strings"
	"unicode"

	"lineking/text"
)

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// RemoveBlankLines drops lines whose trimmed content is empty
func RemoveBlankLines(lines []string) []string {
	return collect(RemoveBlankLinesSeq(text.Slice(lines)), len(lines))
}

// RemoveBlankLinesSeq is the lazy form of RemoveBlankLines
func RemoveBlankLinesSeq(seq iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		for l := range seq {
			if isBlank(l) {
				continue
			}
			if !yield(l) {
				return
			}
		}
	}
}

// CondenseBlankLines collapses every run of blank lines into its first line
func CondenseBlankLines(lines []string) []string {
	return collect(CondenseBlankLinesSeq(text.Slice(lines)), len(lines))
}

// CondenseBlankLinesSeq is the lazy form of CondenseBlankLines
func CondenseBlankLinesSeq(seq iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		inRun := false
		for l := range seq {
			blank := isBlank(l)
			if blank && inRun {
				continue
			}
			inRun = blank
			if !yield(l) {
				return
			}
		}
	}
}

// RemoveDuplicateLines keeps the first occurrence of every exact line,
// blank lines included, preserving order
func RemoveDuplicateLines(lines []string) []string {
	return collect(RemoveDuplicateLinesSeq(text.Slice(lines)), len(lines))
}

// RemoveDuplicateLinesSeq is the lazy form of RemoveDuplicateLines. It keeps
// one set entry per distinct line seen.
func RemoveDuplicateLinesSeq(seq iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]struct{})
		for l := range seq {
			if _, dup := seen[l]; dup {
				continue
			}
			seen[l] = struct{}{}
			if !yield(l) {
				return
			}
		}
	}
}

// KeepOnlyDuplicates keeps every occurrence of lines that appear at least
// twice and drops lines that appear once
func KeepOnlyDuplicates(lines []string) []string {
	counts := make(map[string]int, len(lines))
	for _, l := range lines {
		counts[l]++
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if counts[l] >= 2 {
			out = append(out, l)
		}
	}
	return out
}

// TrimLeading strips leading whitespace from every line
func TrimLeading(lines []string) []string { return Map(lines, trimLeading) }

// TrimTrailing strips trailing whitespace from every line
func TrimTrailing(lines []string) []string { return Map(lines, trimTrailing) }

// TrimBoth strips leading and trailing whitespace from every line
func TrimBoth(lines []string) []string { return Map(lines, strings.TrimSpace) }

func trimLeading(s string) string  { return strings.TrimLeftFunc(s, unicode.IsSpace) }
func trimTrailing(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }

// Map applies fn to every line
func Map(lines []string, fn func(string) string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fn(l)
	}
	return out
}

// MapSeq is the lazy form of Map
func MapSeq(seq iter.Seq[string], fn func(string) string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for l := range seq {
			if !yield(fn(l)) {
				return
			}
		}
	}
}

func collect(seq iter.Seq[string], capHint int) []string {
	out := make([]string, 0, capHint)
	for l := range seq {
		out = append(out, l)
	}
	return out
}
