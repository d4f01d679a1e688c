package stream

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"lineking/transform"
	"lineking/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	forceStreaming = Thresholds{MaxLines: 4, MaxBytes: 1 << 30, ChunkLines: 3}
	forceEager     = Thresholds{MaxLines: 1 << 30, MaxBytes: 1 << 30, ChunkLines: 3}
)

func sampleText(n int) string {
	var b strings.Builder
	for i := range n {
		switch i % 5 {
		case 0:
			b.WriteString("")
		case 1:
			fmt.Fprintf(&b, "  Line %d  ", i)
		case 2:
			b.WriteString("dup")
		default:
			fmt.Fprintf(&b, "item_%d value", i%7)
		}
		if i%4 == 0 {
			b.WriteString("\r\n")
		} else {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func TestSelect(t *testing.T) {
	th := Thresholds{MaxLines: 10, MaxBytes: 100}

	assert.Equal(t, StrategyEager, th.Select(10, 100))
	assert.Equal(t, StrategyStreaming, th.Select(11, 1))
	assert.Equal(t, StrategyStreaming, th.Select(1, 101))
	assert.Equal(t, StrategyEager, Thresholds{}.Select(DefaultMaxLines, DefaultMaxBytes), "zero value uses defaults")
	assert.Equal(t, "streaming", StrategyStreaming.String())
}

func TestRunPathsAreByteIdentical(t *testing.T) {
	catalog := transform.NewCatalog(transform.Options{})
	src := sampleText(101)

	for _, name := range catalog.Names() {
		op, _ := catalog.Lookup(name)
		if name == "sortShuffle" {
			continue
		}
		arg := ""
		if op.Prompt != nil {
			arg = op.Prompt.Default
		}
		for _, eol := range []types.EOL{types.EOLLF, types.EOLCRLF} {
			t.Run(name+"/"+string(eol), func(t *testing.T) {
				eager, es, err := Run(context.Background(), src, op, arg, eol, forceEager)
				require.NoError(t, err)
				assert.Equal(t, StrategyEager, es)

				streamed, ss, err := Run(context.Background(), src, op, arg, eol, forceStreaming)
				require.NoError(t, err)
				if op.Streams() {
					assert.Equal(t, StrategyStreaming, ss)
				} else {
					assert.Equal(t, StrategyEager, ss, "ops without a lazy form degrade to eager")
				}
				assert.Equal(t, eager, streamed)
			})
		}
	}
}

func TestRunKeepsTrailingEmptyLine(t *testing.T) {
	op, _ := transform.NewCatalog(transform.Options{}).Lookup("trimBoth")

	out, _, err := Run(context.Background(), " a \r\n b \n", op, "", types.EOLLF, forceStreaming)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", out)
}

func TestRunCancelled(t *testing.T) {
	op, _ := transform.NewCatalog(transform.Options{}).Lookup("transformUpper")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Run(ctx, sampleText(50), op, "", types.EOLLF, forceStreaming)
	assert.ErrorIs(t, err, context.Canceled)

	_, _, err = Lines(ctx, []string{"a"}, op, "", forceEager)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinesMatchesEager(t *testing.T) {
	catalog := transform.NewCatalog(transform.Options{})
	lines := strings.Split(sampleText(60), "\n")

	for _, name := range []string{"removeBlankLines", "transformSnake", "insertNumericSequence", "sortAsc"} {
		op, _ := catalog.Lookup(name)
		want := op.Apply(lines, "")

		got, strategy, err := Lines(context.Background(), lines, op, "", forceStreaming)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
		if op.Streams() {
			assert.Equal(t, StrategyStreaming, strategy, name)
		}
	}
}
