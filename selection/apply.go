package selection

import (
	"strings"

	"lineking/text"
	"lineking/types"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ApplyToSnapshot applies a batch to an in-memory snapshot with the same
// semantics as the editor batch: every range is checked against the
// snapshot first, then edits are applied bottom-first. Edits at the same
// position are applied in the order given. Nothing is applied if any edit
// is invalid.
func ApplyToSnapshot(s Snapshot, edits []types.EditOperation) (Snapshot, error) {
	if err := Validate(s, edits); err != nil {
		return s, err
	}
	if len(edits) == 0 {
		return s, nil
	}

	eol := string(s.eol())
	offsets := make([]int, len(s.Lines)+1)
	for i, l := range s.Lines {
		offsets[i+1] = offsets[i] + len(l) + len(eol)
	}
	offset := func(p types.Position) int { return offsets[p.Line] + p.Character }

	doc := s.String()
	for _, e := range BottomFirst(edits) {
		doc = doc[:offset(e.Range.Start)] + e.Text + doc[offset(e.Range.End):]
	}
	return Snapshot{Lines: text.Split(doc), EOL: s.EOL}, nil
}

// Summary counts the lines an edit batch added and removed
type Summary struct {
	Added   int
	Removed int
}

// Changed reports whether any line differs
func (s Summary) Changed() bool { return s.Added > 0 || s.Removed > 0 }

// Summarize diffs two versions of a document line by line
func Summarize(before, after []string) Summary {
	var sum Summary
	for _, d := range lineDiff(before, after) {
		n := strings.Count(d.Text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sum.Added += n
		case diffmatchpatch.DiffDelete:
			sum.Removed += n
		}
	}
	return sum
}
