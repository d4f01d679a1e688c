package selection

import (
	"strings"

	"lineking/text"
	"lineking/types"
)

// Snapshot is an immutable view of a document taken before any edit of an
// invocation is computed. All edit ranges are expressed against it.
type Snapshot struct {
	Lines []string
	EOL   types.EOL
}

// NewSnapshot splits src into a snapshot, detecting its line terminator
func NewSnapshot(src string) Snapshot {
	return Snapshot{Lines: text.Split(src), EOL: text.DetectEOL(src)}
}

// String joins the snapshot with its EOL
func (s Snapshot) String() string {
	return text.Join(s.Lines, s.eol())
}

func (s Snapshot) eol() types.EOL {
	if s.EOL == "" {
		return types.EOLLF
	}
	return s.EOL
}

// LineCount returns the number of lines, at least 1
func (s Snapshot) LineCount() int {
	return max(len(s.Lines), 1)
}

func (s Snapshot) line(i int) string {
	if i < 0 || i >= len(s.Lines) {
		return ""
	}
	return s.Lines[i]
}

// Clamp moves p inside the document
func (s Snapshot) Clamp(p types.Position) types.Position {
	last := s.LineCount() - 1
	if p.Line < 0 {
		return types.Position{}
	}
	if p.Line > last {
		return types.Position{Line: last, Character: len(s.line(last))}
	}
	p.Character = min(max(p.Character, 0), len(s.line(p.Line)))
	return p
}

// LineRange spans whole lines from through to, both inclusive
func (s Snapshot) LineRange(from, to int) types.Range {
	return types.Range{
		Start: s.Clamp(types.Position{Line: from}),
		End:   s.Clamp(types.Position{Line: to, Character: len(s.line(to))}),
	}
}

// FullRange spans the whole document
func (s Snapshot) FullRange() types.Range {
	return s.LineRange(0, s.LineCount()-1)
}

// Valid reports whether r lies inside the document with Start <= End
func (s Snapshot) Valid(r types.Range) bool {
	return !r.End.Before(r.Start) && s.Clamp(r.Start) == r.Start && s.Clamp(r.End) == r.End
}

// Slice returns the text of r as lines. The first and last lines are cut
// at the range's columns.
func (s Snapshot) Slice(r types.Range) []string {
	r.Start, r.End = s.Clamp(r.Start), s.Clamp(r.End)
	if r.Start.Line == r.End.Line {
		l := s.line(r.Start.Line)
		return []string{l[r.Start.Character:r.End.Character]}
	}
	out := make([]string, 0, r.End.Line-r.Start.Line+1)
	out = append(out, s.line(r.Start.Line)[r.Start.Character:])
	for i := r.Start.Line + 1; i < r.End.Line; i++ {
		out = append(out, s.line(i))
	}
	out = append(out, s.line(r.End.Line)[:r.End.Character])
	return out
}

// Text returns the text of r joined with the snapshot's EOL
func (s Snapshot) Text(r types.Range) string {
	return text.Join(s.Slice(r), s.eol())
}

// ExpandToLines widens a non-empty range to cover whole lines. A range that
// ends at column 0 of a later line stops at the end of the line before, so
// a linewise selection of lines 2-3 does not drag in line 4.
func ExpandToLines(s Snapshot, r types.Range) types.Range {
	if r.IsEmpty() {
		return r
	}
	end := r.End.Line
	if r.End.Character == 0 && end > r.Start.Line {
		end--
	}
	return s.LineRange(r.Start.Line, end)
}

// advance returns the position reached after writing t at p
func advance(p types.Position, t string) types.Position {
	n := strings.Count(t, "\n")
	if n == 0 {
		return types.Position{Line: p.Line, Character: p.Character + len(t)}
	}
	return types.Position{Line: p.Line + n, Character: len(t) - strings.LastIndexByte(t, '\n') - 1}
}
