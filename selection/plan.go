package selection

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"lineking/logger"
	"lineking/text"
	"lineking/types"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ErrOverlappingEdits is returned when a batch contains edits whose ranges
// intersect. Such a batch cannot be applied atomically.
var ErrOverlappingEdits = errors.New("overlapping edits")

// ApplyFunc transforms the lines of one range
type ApplyFunc func(ctx context.Context, lines []string) ([]string, error)

// Options control how selections become transform inputs
type Options struct {
	Scope types.Scope
	// Minimize trims each edit down to the lines that actually changed
	Minimize bool
}

// Targets returns the ranges an operation should transform: each non-empty
// selection (widened to whole lines for ScopeLines), merged where they
// overlap, in document order. With no non-empty selection the whole
// document is the single target.
func Targets(s Snapshot, selections []types.Selection, scope types.Scope) []types.Range {
	var ranges []types.Range
	for _, sel := range selections {
		if sel.IsEmpty() {
			continue
		}
		r := sel.Range()
		r.Start, r.End = s.Clamp(r.Start), s.Clamp(r.End)
		if r.IsEmpty() {
			continue
		}
		if scope == types.ScopeLines {
			r = ExpandToLines(s, r)
		}
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		return []types.Range{s.FullRange()}
	}

	slices.SortFunc(ranges, func(a, b types.Range) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})
	merged := ranges[:1]
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if last.Overlaps(r) || (scope == types.ScopeLines && r.Start.Line <= last.End.Line) {
			if last.End.Before(r.End) {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// Plan computes the edits that apply fn to every target of selections.
// Targets are transformed independently against the snapshot. Targets whose
// output equals their input produce no edit. The edits are validated as
// non-overlapping and returned bottom-first, ready for one atomic batch.
func Plan(ctx context.Context, s Snapshot, selections []types.Selection, fn ApplyFunc, opts Options) ([]types.EditOperation, error) {
	defer logger.Trace("selection.Plan")()

	var edits []types.EditOperation
	for _, r := range Targets(s, selections, opts.Scope) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in := s.Slice(r)
		out, err := fn(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", r, err)
		}
		if slices.Equal(in, out) {
			continue
		}
		if opts.Minimize {
			edits = append(edits, Minimize(s, r, in, out))
		} else {
			edits = append(edits, types.EditOperation{Range: r, Text: text.Join(out, s.eol())})
		}
	}
	if err := Validate(s, edits); err != nil {
		return nil, err
	}
	return BottomFirst(edits), nil
}

// Minimize narrows the edit replacing range r (whose lines are in) with out
// to the span of lines that differ. Lines the diff reports as unchanged at
// either end are left out of the edit.
func Minimize(s Snapshot, r types.Range, in, out []string) types.EditOperation {
	prefix, suffix := commonLines(in, out)

	// Keep at least one old and one new line in the edit so that it is a
	// replacement rather than a bare insertion or deletion of line breaks
	if prefix+suffix == len(out) || prefix+suffix == len(in) {
		switch {
		case prefix > 0:
			prefix--
		case suffix > 0:
			suffix--
		}
	}
	if prefix+suffix >= len(in) || prefix+suffix >= len(out) {
		return types.EditOperation{Range: r, Text: text.Join(out, s.eol())}
	}

	first, last := prefix, len(in)-suffix-1
	start := types.Position{Line: r.Start.Line + first}
	if first == 0 {
		start.Character = r.Start.Character
	}
	end := types.Position{Line: r.Start.Line + last, Character: len(s.line(r.Start.Line + last))}
	if last == len(in)-1 {
		end.Character = r.End.Character
	}
	return types.EditOperation{
		Range: types.Range{Start: start, End: end},
		Text:  text.Join(out[prefix:len(out)-suffix], s.eol()),
	}
}

// commonLines counts the lines shared at the start and end of a and b
func commonLines(a, b []string) (prefix, suffix int) {
	diffs := lineDiff(a, b)
	if len(diffs) == 0 {
		return 0, 0
	}
	if diffs[0].Type == diffmatchpatch.DiffEqual {
		prefix = strings.Count(diffs[0].Text, "\n")
	}
	if len(diffs) > 1 && diffs[len(diffs)-1].Type == diffmatchpatch.DiffEqual {
		suffix = strings.Count(diffs[len(diffs)-1].Text, "\n")
	}
	limit := min(len(a), len(b))
	prefix = min(prefix, limit)
	suffix = min(suffix, limit-prefix)
	return prefix, suffix
}

// lineDiff diffs a and b line by line. Every line in the diff texts,
// including the last, ends in \n.
func lineDiff(a, b []string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(terminated(a), terminated(b))
	diffs := dmp.DiffMain(chars1, chars2, false)
	return dmp.DiffCharsToLines(diffs, lineArray)
}

// terminated joins lines so that every line, the last included, ends in \n
func terminated(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// Validate checks that every edit lies inside the snapshot and that no two
// edits overlap
func Validate(s Snapshot, edits []types.EditOperation) error {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b types.EditOperation) int {
		if c := a.Range.Start.Compare(b.Range.Start); c != 0 {
			return c
		}
		return a.Range.End.Compare(b.Range.End)
	})
	var reach types.Range
	for i, e := range sorted {
		if !s.Valid(e.Range) {
			return fmt.Errorf("edit %s outside document of %d lines", e.Range, len(s.Lines))
		}
		if i > 0 && reach.Overlaps(e.Range) {
			return fmt.Errorf("%w: %s and %s", ErrOverlappingEdits, reach, e.Range)
		}
		if i == 0 || reach.End.Before(e.Range.End) {
			reach = e.Range
		}
	}
	return nil
}

// BottomFirst returns edits ordered from the end of the document to the
// start, so applying them in order never moves a range not yet applied
func BottomFirst(edits []types.EditOperation) []types.EditOperation {
	out := slices.Clone(edits)
	slices.SortStableFunc(out, func(a, b types.EditOperation) int {
		if c := b.Range.Start.Compare(a.Range.Start); c != 0 {
			return c
		}
		return b.Range.End.Compare(a.Range.End)
	})
	return out
}
