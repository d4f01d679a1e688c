package selection

import (
	"context"
	"slices"
	"strings"
	"testing"

	"lineking/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(line, char int) types.Position {
	return types.Position{Line: line, Character: char}
}

func sel(l1, c1, l2, c2 int) types.Selection {
	return types.Selection{Anchor: pos(l1, c1), Active: pos(l2, c2)}
}

func rng(l1, c1, l2, c2 int) types.Range {
	return types.Range{Start: pos(l1, c1), End: pos(l2, c2)}
}

func sortLines(_ context.Context, lines []string) ([]string, error) {
	out := slices.Clone(lines)
	slices.Sort(out)
	return out, nil
}

func upperLines(_ context.Context, lines []string) ([]string, error) {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.ToUpper(l)
	}
	return out, nil
}

func TestSnapshotBasics(t *testing.T) {
	s := NewSnapshot("aa\r\nbbb\r\ncc")

	assert.Equal(t, []string{"aa", "bbb", "cc"}, s.Lines)
	assert.Equal(t, types.EOLCRLF, s.EOL)
	assert.Equal(t, rng(0, 0, 2, 2), s.FullRange())
	assert.Equal(t, "a\r\nbbb\r\nc", s.Text(rng(0, 1, 2, 1)))
	assert.Equal(t, []string{"b"}, s.Slice(rng(1, 1, 1, 2)))
	assert.Equal(t, pos(2, 2), s.Clamp(pos(9, 0)))
	assert.Equal(t, pos(1, 3), s.Clamp(pos(1, 99)))
	assert.Equal(t, "aa\r\nbbb\r\ncc", s.String())
}

func TestExpandToLines(t *testing.T) {
	s := NewSnapshot("aa\nbbb\ncc")

	tests := []struct {
		name string
		in   types.Range
		want types.Range
	}{
		{"mid-line", rng(0, 1, 1, 2), rng(0, 0, 1, 3)},
		{"ends at column 0", rng(0, 1, 2, 0), rng(0, 0, 1, 3)},
		{"single line", rng(2, 1, 2, 2), rng(2, 0, 2, 2)},
		{"empty untouched", rng(1, 1, 1, 1), rng(1, 1, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandToLines(s, tt.in))
		})
	}
}

func TestTargets(t *testing.T) {
	s := NewSnapshot("a\nb\nc\nd\ne")

	assert.Equal(t, []types.Range{s.FullRange()}, Targets(s, []types.Selection{types.NewCaret(pos(1, 0))}, types.ScopeLines), "no selection means whole document")

	got := Targets(s, []types.Selection{sel(3, 0, 4, 1), sel(1, 0, 2, 1), sel(2, 0, 2, 1)}, types.ScopeLines)
	assert.Equal(t, []types.Range{rng(1, 0, 2, 1), rng(3, 0, 4, 1)}, got, "sorted and merged")

	got = Targets(s, []types.Selection{sel(0, 0, 0, 1)}, types.ScopeExact)
	assert.Equal(t, []types.Range{rng(0, 0, 0, 1)}, got)
}

func TestPlanWholeDocument(t *testing.T) {
	s := NewSnapshot("c\nb\na")

	edits, err := Plan(context.Background(), s, nil, sortLines, Options{Scope: types.ScopeLines})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, s.FullRange(), edits[0].Range)
	assert.Equal(t, "a\nb\nc", edits[0].Text)
}

func TestPlanMultipleSelections(t *testing.T) {
	s := NewSnapshot("c\nb\na\n\nz\ny")
	selections := []types.Selection{sel(0, 0, 2, 1), sel(4, 0, 5, 1)}

	for _, minimize := range []bool{false, true} {
		edits, err := Plan(context.Background(), s, selections, sortLines, Options{Scope: types.ScopeLines, Minimize: minimize})
		require.NoError(t, err)
		require.Len(t, edits, 2)
		assert.True(t, edits[1].Range.Start.Before(edits[0].Range.Start), "bottom-first")

		after, err := ApplyToSnapshot(s, edits)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "", "y", "z"}, after.Lines)
	}
}

func TestPlanSkipsNoOps(t *testing.T) {
	s := NewSnapshot("a\nb\nz\ny")

	edits, err := Plan(context.Background(), s, []types.Selection{sel(0, 0, 1, 1), sel(2, 0, 3, 1)}, sortLines, Options{Scope: types.ScopeLines})
	require.NoError(t, err)
	require.Len(t, edits, 1, "already sorted selection yields no edit")
	assert.Equal(t, rng(2, 0, 3, 1), edits[0].Range)

	edits, err = Plan(context.Background(), NewSnapshot("a\nb"), nil, sortLines, Options{})
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestPlanExactScope(t *testing.T) {
	s := NewSnapshot("keep this part")

	edits, err := Plan(context.Background(), s, []types.Selection{sel(0, 5, 0, 9)}, upperLines, Options{Scope: types.ScopeExact, Minimize: true})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, rng(0, 5, 0, 9), edits[0].Range)
	assert.Equal(t, "THIS", edits[0].Text)
}

func TestPlanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Plan(ctx, NewSnapshot("b\na"), nil, sortLines, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMinimize(t *testing.T) {
	s := NewSnapshot("a\nb\nc\nd")
	full := s.FullRange()

	e := Minimize(s, full, s.Lines, []string{"a", "B", "c", "d"})
	assert.Equal(t, rng(1, 0, 1, 1), e.Range)
	assert.Equal(t, "B", e.Text)

	s = NewSnapshot("a\nb\na\nc")
	e = Minimize(s, s.FullRange(), s.Lines, []string{"a", "b", "c"})
	after, err := ApplyToSnapshot(s, []types.EditOperation{e})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, after.Lines)
	assert.Equal(t, 1, e.Range.Start.Line, "unchanged first line left out")

	e = Minimize(s, s.FullRange(), s.Lines, nil)
	assert.Equal(t, s.FullRange(), e.Range)
	assert.Equal(t, "", e.Text)
}

func TestValidateRejectsOverlap(t *testing.T) {
	s := NewSnapshot("abcdef\nxyz")

	err := Validate(s, []types.EditOperation{
		{Range: rng(0, 0, 0, 4), Text: "x"},
		{Range: rng(0, 2, 0, 5), Text: "y"},
	})
	assert.ErrorIs(t, err, ErrOverlappingEdits)

	err = Validate(s, []types.EditOperation{
		{Range: rng(0, 0, 0, 0), Text: "x"},
		{Range: rng(0, 0, 1, 1), Text: "y"},
		{Range: rng(0, 3, 0, 4), Text: "z"},
	})
	assert.ErrorIs(t, err, ErrOverlappingEdits, "wide range overlaps a later one")

	err = Validate(s, []types.EditOperation{
		{Range: rng(0, 0, 0, 2), Text: "x"},
		{Range: rng(0, 2, 0, 4), Text: "y"},
	})
	assert.NoError(t, err, "touching ranges are fine")

	err = Validate(s, []types.EditOperation{{Range: rng(5, 0, 5, 0)}})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrOverlappingEdits)
}

func TestApplyToSnapshotIsAllOrNothing(t *testing.T) {
	s := NewSnapshot("one\ntwo")
	_, err := ApplyToSnapshot(s, []types.EditOperation{
		{Range: rng(0, 0, 0, 3), Text: "ONE"},
		{Range: rng(0, 1, 0, 2), Text: "!"},
	})
	require.ErrorIs(t, err, ErrOverlappingEdits)
	assert.Equal(t, []string{"one", "two"}, s.Lines)
}

func TestApplyToSnapshotKeepsEOL(t *testing.T) {
	s := NewSnapshot("one\r\ntwo\r\n")
	after, err := ApplyToSnapshot(s, []types.EditOperation{{Range: rng(1, 0, 1, 3), Text: "2\r\n2b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "2", "2b", ""}, after.Lines)
	assert.Equal(t, "one\r\n2\r\n2b\r\n", after.String())
}

func TestDuplicateCaretsOnDifferentLines(t *testing.T) {
	s := NewSnapshot("one\ntwo\nthree")
	res := Duplicate(s, []types.Selection{types.NewCaret(pos(0, 1)), types.NewCaret(pos(2, 2))})

	require.Len(t, res.Edits, 2)
	assert.Equal(t, pos(2, 5), res.Edits[0].Range.Start, "bottom edit first")

	after, err := ApplyToSnapshot(s, res.Edits)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "one", "two", "three", "three"}, after.Lines)
	assert.Equal(t, []types.Selection{types.NewCaret(pos(1, 1)), types.NewCaret(pos(4, 2))}, res.Selections)
}

func TestDuplicateSameLineCarets(t *testing.T) {
	s := NewSnapshot("hello")
	res := Duplicate(s, []types.Selection{types.NewCaret(pos(0, 1)), types.NewCaret(pos(0, 3))})

	require.Len(t, res.Edits, 1, "a line is copied once")
	after, err := ApplyToSnapshot(s, res.Edits)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "hello"}, after.Lines)
	assert.Equal(t, []types.Selection{types.NewCaret(pos(1, 1)), types.NewCaret(pos(1, 3))}, res.Selections)
}

func TestDuplicateSameLineSelections(t *testing.T) {
	s := NewSnapshot("ab cd")
	res := Duplicate(s, []types.Selection{sel(0, 0, 0, 2), sel(0, 3, 0, 5)})

	after, err := ApplyToSnapshot(s, res.Edits)
	require.NoError(t, err)
	assert.Equal(t, []string{"abab cdcd"}, after.Lines)
	assert.Equal(t, []types.Selection{sel(0, 2, 0, 4), sel(0, 7, 0, 9)}, res.Selections)
	assert.Equal(t, "ab", after.Text(res.Selections[0].Range()))
	assert.Equal(t, "cd", after.Text(res.Selections[1].Range()))
}

func TestDuplicateMultiLineSelectionAboveCaret(t *testing.T) {
	s := NewSnapshot("a\nb\nc")
	res := Duplicate(s, []types.Selection{sel(0, 0, 1, 1), types.NewCaret(pos(2, 0))})

	after, err := ApplyToSnapshot(s, res.Edits)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ba", "b", "c", "c"}, after.Lines)
	assert.Equal(t, sel(1, 1, 2, 1), res.Selections[0])
	assert.Equal(t, "a\nb", after.Text(res.Selections[0].Range()))
	assert.Equal(t, types.NewCaret(pos(4, 0)), res.Selections[1])
}

func TestDuplicateReversedSelectionKeepsDirection(t *testing.T) {
	s := NewSnapshot("xy")
	res := Duplicate(s, []types.Selection{sel(0, 2, 0, 0)})

	assert.Equal(t, sel(0, 4, 0, 2), res.Selections[0])
}

func TestDuplicateCaretAndSelectionAtLineEnd(t *testing.T) {
	s := NewSnapshot("ab\ncd")
	res := Duplicate(s, []types.Selection{sel(0, 1, 0, 2), types.NewCaret(pos(0, 0))})

	after, err := ApplyToSnapshot(s, res.Edits)
	require.NoError(t, err)
	assert.Equal(t, []string{"abb", "ab", "cd"}, after.Lines)
	assert.Equal(t, "b", after.Text(res.Selections[0].Range()))
	assert.Equal(t, types.NewCaret(pos(1, 0)), res.Selections[1])
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{Added: 1, Removed: 1}, Summarize([]string{"a", "b", "c"}, []string{"a", "c", "d"}))
	assert.Equal(t, Summary{}, Summarize([]string{"a"}, []string{"a"}))
	assert.False(t, Summarize([]string{"a"}, []string{"a"}).Changed())
	assert.Equal(t, Summary{Removed: 2}, Summarize([]string{"a", "", ""}, []string{"a"}))
}
