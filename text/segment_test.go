package text

import (
	"context"
	"slices"
	"strings"
	"testing"

	"lineking/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{""}},
		{"single line", "abc", []string{"abc"}},
		{"lf", "a\nb\nc", []string{"a", "b", "c"}},
		{"crlf", "a\r\nb\r\nc", []string{"a", "b", "c"}},
		{"mixed", "a\r\nb\nc", []string{"a", "b", "c"}},
		{"trailing terminator", "a\nb\n", []string{"a", "b", ""}},
		{"only terminator", "\n", []string{"", ""}},
		{"blank lines", "a\n\n\nb", []string{"a", "", "", "b"}},
		{"lone cr kept", "a\rb", []string{"a\rb"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.input))
		})
	}
}

func TestJoinRoundTrip(t *testing.T) {
	inputs := []string{"", "a", "a\nb", "a\nb\n", "\n\n", "x\ny\nz"}
	for _, in := range inputs {
		assert.Equal(t, in, Join(Split(in), types.EOLLF), "round trip %q", in)
	}
}

func TestJoinNormalizesTerminators(t *testing.T) {
	got := Join(Split("a\r\nb\nc"), types.EOLCRLF)
	assert.Equal(t, "a\r\nb\r\nc", got)
}

func TestDetectEOL(t *testing.T) {
	assert.Equal(t, types.EOLLF, DetectEOL("a\nb"))
	assert.Equal(t, types.EOLCRLF, DetectEOL("a\r\nb"))
	assert.Equal(t, types.EOLLF, DetectEOL("no terminator"))
	assert.Equal(t, types.EOLLF, DetectEOL("\nleading"))
}

func TestByteLen(t *testing.T) {
	lines := []string{"ab", "", "cde"}
	assert.Equal(t, len(Join(lines, types.EOLLF)), ByteLen(lines, types.EOLLF))
	assert.Equal(t, len(Join(lines, types.EOLCRLF)), ByteLen(lines, types.EOLCRLF))
	assert.Equal(t, 0, ByteLen(nil, types.EOLLF))
}

func TestLinesMatchesSplit(t *testing.T) {
	inputs := []string{"", "a", "a\r\nb\n", "\n\n\n", "x\ny\r\nz\n"}
	for _, in := range inputs {
		assert.Equal(t, Split(in), slices.Collect(Lines(in)), "lazy vs eager for %q", in)
	}
}

func TestLinesStopsEarly(t *testing.T) {
	var got []string
	for l := range Lines("a\nb\nc\nd") {
		got = append(got, l)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestScannerIsSinglePass(t *testing.T) {
	sc := NewScanner("a\nb")
	assert.True(t, sc.Next())
	assert.True(t, sc.Next())
	assert.False(t, sc.Next())
	assert.False(t, sc.Next(), "exhausted scanner stays exhausted")
	assert.Equal(t, 3, sc.Offset())
}

func TestChunkedJoinMatchesJoin(t *testing.T) {
	var sb strings.Builder
	for i := range 1000 {
		if i%7 == 0 {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString("line ")
		sb.WriteString(strings.Repeat("x", i%13))
		sb.WriteString("\n")
	}
	input := sb.String()
	lines := Split(input)

	for _, chunk := range []int{1, 2, 3, 10, 999, 1000, 1001, 5000} {
		got := ChunkedJoin(Lines(input), types.EOLCRLF, chunk)
		assert.Equal(t, Join(lines, types.EOLCRLF), got, "chunk size %d", chunk)
	}
}

func TestChunkedJoinEmpty(t *testing.T) {
	assert.Equal(t, "", ChunkedJoin(Slice(nil), types.EOLLF, 10))
	assert.Equal(t, "", ChunkedJoin(Slice([]string{""}), types.EOLLF, 10))
	assert.Equal(t, "\n", ChunkedJoin(Slice([]string{"", ""}), types.EOLLF, 1))
}

func TestChunkedJoinContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ChunkedJoinContext(ctx, Slice([]string{"a", "b", "c"}), types.EOLLF, 1, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
