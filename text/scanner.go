package text

import (
	"iter"
	"strings"
)

// Scanner produces the lines of a string on demand without materializing
// them as a slice. It is single-pass: once Next returns false the scanner
// is exhausted.
//
//	sc := text.NewScanner(s)
//	for sc.Next() {
//		use(sc.Line())
//	}
type Scanner struct {
	src  string
	pos  int
	line string
	done bool
}

// NewScanner returns a scanner over s
func NewScanner(s string) *Scanner {
	return &Scanner{src: s}
}

// Next advances to the next line. It returns false when there are no more lines.
func (sc *Scanner) Next() bool {
	if sc.done {
		return false
	}
	rest := sc.src[sc.pos:]
	i := strings.IndexByte(rest, '\n')
	if i < 0 {
		// Last segment, possibly empty after a trailing terminator
		sc.line = rest
		sc.pos = len(sc.src)
		sc.done = true
		return true
	}
	line := rest[:i]
	if strings.HasSuffix(line, "\r") {
		line = line[:len(line)-1]
	}
	sc.line = line
	sc.pos += i + 1
	return true
}

// Line returns the current line. Only valid after Next returned true.
func (sc *Scanner) Line() string { return sc.line }

// Offset returns the byte offset of the first unread byte
func (sc *Scanner) Offset() int { return sc.pos }

// Lines returns a lazy sequence over the lines of s.
// It yields exactly what Split(s) returns.
func Lines(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		sc := NewScanner(s)
		for sc.Next() {
			if !yield(sc.Line()) {
				return
			}
		}
	}
}

// Slice adapts an already materialized slice to a sequence
func Slice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, l := range lines {
			if !yield(l) {
				return
			}
		}
	}
}
