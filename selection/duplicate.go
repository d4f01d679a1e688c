package selection

import (
	"cmp"
	"slices"

	"lineking/types"
)

// DuplicateResult holds the edits of a duplicate command and where each
// selection ends up once they are applied. Selections is parallel to the
// input selections.
type DuplicateResult struct {
	Edits      []types.EditOperation
	Selections []types.Selection
}

// insertion is one duplicate, expressed against the snapshot
type insertion struct {
	index int
	at    types.Position
	text  string
}

// Duplicate copies the content at every selection. A caret duplicates its
// whole line below itself, at most once per line; a non-empty selection
// has its text inserted right after itself and the copy becomes selected.
//
// Insertions are processed rightmost-first: by line descending, then
// column descending, where a caret inserts at the end of its line. Each
// insertion therefore lands at its snapshot position whatever the others
// do, and the batch can be applied in this order. A selection's final
// place is corrected by the insertions processed after it, which all sit
// at or before it: on its own line they push it right by their length (or
// down, for text with line breaks); on lines above they push it down by
// the line breaks they add. A whole-line copy starts a new line, so it
// never moves a caret on the line it was copied from.
func Duplicate(s Snapshot, selections []types.Selection) DuplicateResult {
	type pending struct {
		index int
		at    types.Position
		caret bool
	}
	work := make([]pending, len(selections))
	for i, sel := range selections {
		if sel.IsEmpty() {
			c := s.Clamp(sel.Active)
			work[i] = pending{index: i, at: types.Position{Line: c.Line, Character: len(s.line(c.Line))}, caret: true}
		} else {
			work[i] = pending{index: i, at: s.Clamp(sel.Range().End)}
		}
	}
	slices.SortStableFunc(work, func(a, b pending) int {
		if c := cmp.Compare(b.at.Line, a.at.Line); c != 0 {
			return c
		}
		if c := cmp.Compare(b.at.Character, a.at.Character); c != 0 {
			return c
		}
		// At the same point the line copy goes first so the selection's
		// copy stays on the original line
		switch {
		case a.caret && !b.caret:
			return -1
		case b.caret && !a.caret:
			return 1
		}
		return 0
	})

	eol := string(s.eol())
	result := DuplicateResult{Selections: make([]types.Selection, len(selections))}
	copied := make(map[int]bool)
	var placed []int

	for _, w := range work {
		sel := selections[w.index]
		var ins *insertion

		if w.caret {
			caret := s.Clamp(sel.Active)
			if !copied[caret.Line] {
				copied[caret.Line] = true
				ins = &insertion{index: w.index, at: w.at, text: eol + s.line(caret.Line)}
			}
			// Carets land on the copy, which is line+1 once the copy exists
			result.Selections[w.index] = types.NewCaret(types.Position{Line: caret.Line + 1, Character: caret.Character})
		} else {
			r := sel.Range()
			r.Start, r.End = s.Clamp(r.Start), s.Clamp(r.End)
			ins = &insertion{index: w.index, at: r.End, text: s.Text(r)}
		}

		if ins != nil {
			for _, prev := range placed {
				result.Selections[prev] = shiftSelection(result.Selections[prev], *ins)
			}
			result.Edits = append(result.Edits, types.EditOperation{
				Range: types.Range{Start: ins.at, End: ins.at},
				Text:  ins.text,
			})
		}
		if !w.caret {
			end := advance(ins.at, ins.text)
			if sel.Active.Before(sel.Anchor) {
				result.Selections[w.index] = types.Selection{Anchor: end, Active: ins.at}
			} else {
				result.Selections[w.index] = types.Selection{Anchor: ins.at, Active: end}
			}
		}
		placed = append(placed, w.index)
	}
	return result
}

// shiftSelection moves a selection lying at or after ins past the inserted text
func shiftSelection(sel types.Selection, ins insertion) types.Selection {
	sel.Anchor = shiftPoint(sel.Anchor, ins)
	sel.Active = shiftPoint(sel.Active, ins)
	return sel
}

// shiftPoint moves p past the inserted text when p is at or after ins.at
func shiftPoint(p types.Position, ins insertion) types.Position {
	if p.Before(ins.at) {
		return p
	}
	end := advance(ins.at, ins.text)
	if p.Line != ins.at.Line {
		p.Line += end.Line - ins.at.Line
		return p
	}
	return types.Position{Line: end.Line, Character: end.Character + p.Character - ins.at.Character}
}
