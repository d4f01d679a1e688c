// Package stream picks between whole-array and streaming processing of an
// operation based on input size, so a pathological input does not have to
// be held as a line slice and a joined copy at the same time.
package stream

import (
	"context"
	"fmt"

	"lineking/logger"
	"lineking/text"
	"lineking/transform"
	"lineking/types"
)

const (
	DefaultMaxLines   = 100_000
	DefaultMaxBytes   = 10 << 20
	DefaultChunkLines = text.DefaultChunkLines
)

// Strategy is the processing path chosen for an input
type Strategy int

const (
	StrategyEager Strategy = iota
	StrategyStreaming
)

func (s Strategy) String() string {
	if s == StrategyStreaming {
		return "streaming"
	}
	return "eager"
}

// Thresholds bound the eager path. Exceeding either limit selects streaming.
type Thresholds struct {
	MaxLines   int
	MaxBytes   int
	ChunkLines int
}

// DefaultThresholds returns the built-in limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxLines:   DefaultMaxLines,
		MaxBytes:   DefaultMaxBytes,
		ChunkLines: DefaultChunkLines,
	}
}

// withDefaults fills unset fields
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.MaxLines <= 0 {
		t.MaxLines = d.MaxLines
	}
	if t.MaxBytes <= 0 {
		t.MaxBytes = d.MaxBytes
	}
	if t.ChunkLines <= 0 {
		t.ChunkLines = d.ChunkLines
	}
	return t
}

// Select returns the strategy for an input of the given size
func (t Thresholds) Select(lines, bytes int) Strategy {
	t = t.withDefaults()
	if lines > t.MaxLines || bytes > t.MaxBytes {
		return StrategyStreaming
	}
	return StrategyEager
}

// Run applies op to src and returns the joined result. Large inputs are
// scanned lazily, transformed through the op's lazy form and joined in
// chunks; operations without a lazy form fall back to the eager path. Both
// paths produce the same bytes.
func Run(ctx context.Context, src string, op *transform.Op, arg string, eol types.EOL, th Thresholds) (string, Strategy, error) {
	th = th.withDefaults()
	if err := ctx.Err(); err != nil {
		return "", StrategyEager, err
	}

	strategy := th.Select(text.LineCount(src), len(src))
	if strategy == StrategyStreaming && !op.Streams() {
		logger.Debug("stream: %s has no lazy form, processing %d bytes eagerly", op.Name, len(src))
		strategy = StrategyEager
	}

	if strategy == StrategyEager {
		out := text.Join(op.Apply(text.Split(src), arg), eol)
		if err := ctx.Err(); err != nil {
			return "", strategy, err
		}
		return out, strategy, nil
	}

	out, err := text.ChunkedJoinContext(ctx, op.Stream(text.Lines(src), arg), eol, th.ChunkLines, len(src))
	if err != nil {
		return "", strategy, fmt.Errorf("streaming %s: %w", op.Name, err)
	}
	return out, strategy, nil
}

// Lines is Run for input that is already split, as it is when it comes
// from an editor buffer. The streaming path avoids intermediate slices
// between the op's stages and checks ctx every ChunkLines lines.
func Lines(ctx context.Context, lines []string, op *transform.Op, arg string, th Thresholds) ([]string, Strategy, error) {
	th = th.withDefaults()
	if err := ctx.Err(); err != nil {
		return nil, StrategyEager, err
	}

	strategy := th.Select(len(lines), text.ByteLen(lines, types.EOLLF))
	if strategy == StrategyEager || !op.Streams() {
		out := op.Apply(lines, arg)
		if err := ctx.Err(); err != nil {
			return nil, StrategyEager, err
		}
		return out, StrategyEager, nil
	}

	out := make([]string, 0, len(lines))
	n := 0
	for l := range op.Stream(text.Slice(lines), arg) {
		out = append(out, l)
		n++
		if n%th.ChunkLines == 0 {
			if err := ctx.Err(); err != nil {
				return nil, strategy, fmt.Errorf("streaming %s: %w", op.Name, err)
			}
		}
	}
	return out, strategy, nil
}
