package buffer

import (
	"testing"

	"lineking/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sel(l1, c1, l2, c2 int) types.Selection {
	return types.Selection{
		Anchor: types.Position{Line: l1, Character: c1},
		Active: types.Position{Line: l2, Character: c2},
	}
}

func TestMarksToSelections(t *testing.T) {
	lines := []string{"alpha", "beta", "gämma"}

	tests := []struct {
		name  string
		marks visualMarks
		want  []types.Selection
	}{
		{
			name:  "charwise",
			marks: visualMarks{StartRow: 1, StartCol: 2, EndRow: 2, EndCol: 3, Mode: "v"},
			want:  []types.Selection{sel(0, 1, 1, 3)},
		},
		{
			name:  "charwise ending on multibyte",
			marks: visualMarks{StartRow: 3, StartCol: 1, EndRow: 3, EndCol: 2, Mode: "v"},
			want:  []types.Selection{sel(2, 0, 2, 3)},
		},
		{
			name:  "linewise",
			marks: visualMarks{StartRow: 1, StartCol: 1, EndRow: 2, EndCol: 2147483647, Mode: "V"},
			want:  []types.Selection{sel(0, 0, 1, 4)},
		},
		{
			name:  "blockwise",
			marks: visualMarks{StartRow: 1, StartCol: 2, EndRow: 2, EndCol: 3, Mode: "\x16"},
			want:  []types.Selection{sel(0, 1, 0, 3), sel(1, 1, 1, 3)},
		},
		{
			name:  "reversed marks",
			marks: visualMarks{StartRow: 2, StartCol: 3, EndRow: 1, EndCol: 2, Mode: "v"},
			want:  []types.Selection{sel(0, 1, 1, 3)},
		},
		{
			name:  "unset marks",
			marks: visualMarks{Mode: ""},
			want:  nil,
		},
		{
			name:  "marks past the end",
			marks: visualMarks{StartRow: 1, StartCol: 1, EndRow: 9, EndCol: 1, Mode: "v"},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, marksToSelections(lines, tt.marks))
		})
	}
}

func TestInclusiveEnd(t *testing.T) {
	assert.Equal(t, 0, inclusiveEnd("abc", 0))
	assert.Equal(t, 1, inclusiveEnd("abc", 1))
	assert.Equal(t, 3, inclusiveEnd("abc", 99))
	assert.Equal(t, 3, inclusiveEnd("gä", 2), "covers the whole two-byte rune")
}

func TestToLuaEdits(t *testing.T) {
	edits := []types.EditOperation{
		{Range: types.Range{Start: types.Position{Line: 2}, End: types.Position{Line: 3, Character: 1}}, Text: "x\r\ny"},
		{Range: types.Range{Start: types.Position{Line: 0, Character: 4}, End: types.Position{Line: 0, Character: 4}}, Text: ""},
	}

	got := toLuaEdits(edits, types.EOLCRLF)
	require.Len(t, got, 2)
	assert.Equal(t, luaEdit{StartLine: 2, EndLine: 3, EndCol: 1, Lines: []string{"x", "y"}}, got[0])
	assert.Equal(t, []string{""}, got[1].Lines, "empty text deletes the range")
	assert.Equal(t, 4, got[1].StartCol)
}

func TestWithoutClient(t *testing.T) {
	b := New()
	assert.Error(t, b.Sync(false))
	assert.Error(t, b.ApplyEdits([]types.EditOperation{{}}))
	assert.Error(t, b.Notify("x", types.NotifyInfo))
	_, _, err := b.Prompt("p", "d")
	assert.Error(t, err)

	assert.Equal(t, types.EOLLF, b.Snapshot().EOL)
	assert.Empty(t, b.Selections())
}
