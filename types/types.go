package types

import (
	"fmt"
	"strings"
)

// Position is a location in a document (follows Neovim conventions)
type Position struct {
	Line      int // 0-indexed
	Character int // 0-indexed byte column
}

// Before reports whether p sorts strictly before o
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

// Compare returns -1, 0 or 1 ordering positions by line then column
func (p Position) Compare(o Position) int {
	switch {
	case p.Before(o):
		return -1
	case o.Before(p):
		return 1
	default:
		return 0
	}
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Range is a half-open span [Start, End) over document positions
type Range struct {
	Start Position
	End   Position
}

// IsEmpty returns true if the range has no extent
func (r Range) IsEmpty() bool { return r.Start == r.End }

// Contains reports whether p lies inside the range (End excluded)
func (r Range) Contains(p Position) bool {
	return !p.Before(r.Start) && p.Before(r.End)
}

// Overlaps reports whether two ranges share at least one position.
// Touching ranges do not overlap.
func (r Range) Overlaps(o Range) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s-%s)", r.Start, r.End)
}

// Selection is a cursor selection. Anchor is where it started, Active is the caret.
// When Anchor == Active the selection is a bare caret.
type Selection struct {
	Anchor Position
	Active Position
}

// NewCaret returns an empty selection at p
func NewCaret(p Position) Selection {
	return Selection{Anchor: p, Active: p}
}

// IsEmpty returns true if the selection is a bare caret
func (s Selection) IsEmpty() bool { return s.Anchor == s.Active }

// Range returns the selection as a normalized range (Start <= End)
func (s Selection) Range() Range {
	if s.Active.Before(s.Anchor) {
		return Range{Start: s.Active, End: s.Anchor}
	}
	return Range{Start: s.Anchor, End: s.Active}
}

// EditOperation replaces Range with Text. Ranges are expressed against the
// pre-edit document.
type EditOperation struct {
	Range Range
	Text  string
}

// EOL is a document line terminator
type EOL string

const (
	EOLLF   EOL = "\n"
	EOLCRLF EOL = "\r\n"
)

// EOLFromFileFormat maps Neovim's 'fileformat' option to a terminator
func EOLFromFileFormat(ff string) EOL {
	if ff == "dos" {
		return EOLCRLF
	}
	return EOLLF
}

// CSSSortStrategy selects how declarations inside a rule block are ordered
type CSSSortStrategy string

const (
	CSSSortAlphabetical CSSSortStrategy = "alphabetical"
	CSSSortLength       CSSSortStrategy = "length"
)

// ParseCSSSortStrategy parses a strategy name, defaulting to alphabetical
func ParseCSSSortStrategy(s string) (CSSSortStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(CSSSortAlphabetical):
		return CSSSortAlphabetical, nil
	case string(CSSSortLength):
		return CSSSortLength, nil
	default:
		return CSSSortAlphabetical, fmt.Errorf("unknown css sort strategy %q", s)
	}
}

// Scope decides how a selection is turned into the text a transform sees
type Scope int

const (
	// ScopeLines widens non-empty selections to whole lines
	ScopeLines Scope = iota
	// ScopeExact keeps exact character boundaries
	ScopeExact
)

func (s Scope) String() string {
	switch s {
	case ScopeLines:
		return "lines"
	case ScopeExact:
		return "exact"
	default:
		return "unknown"
	}
}

// NotifyLevel mirrors vim.log.levels
type NotifyLevel int

const (
	NotifyDebug NotifyLevel = 1
	NotifyInfo  NotifyLevel = 2
	NotifyWarn  NotifyLevel = 3
	NotifyError NotifyLevel = 4
)
