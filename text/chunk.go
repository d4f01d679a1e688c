package text

import (
	"context"
	"iter"
	"strings"

	"lineking/types"
)

// DefaultChunkLines is the number of lines joined per chunk
const DefaultChunkLines = 50_000

// ChunkedJoin joins a line sequence with eol, flushing into the output
// builder every chunkLines lines. The output is byte-identical to
// Join(collect(seq), eol).
func ChunkedJoin(seq iter.Seq[string], eol types.EOL, chunkLines int) string {
	out, _ := ChunkedJoinContext(context.Background(), seq, eol, chunkLines, 0)
	return out
}

// ChunkedJoinContext is ChunkedJoin with cancellation checked at every chunk
// boundary. sizeHint pre-grows the output builder when known.
func ChunkedJoinContext(ctx context.Context, seq iter.Seq[string], eol types.EOL, chunkLines, sizeHint int) (string, error) {
	if chunkLines <= 0 {
		chunkLines = DefaultChunkLines
	}

	var out strings.Builder
	if sizeHint > 0 {
		out.Grow(sizeHint)
	}

	chunk := make([]string, 0, min(chunkLines, 1024))
	first := true
	flush := func() {
		if len(chunk) == 0 {
			return
		}
		if !first {
			out.WriteString(string(eol))
		}
		out.WriteString(strings.Join(chunk, string(eol)))
		first = false
		chunk = chunk[:0]
	}

	var err error
	for line := range seq {
		chunk = append(chunk, line)
		if len(chunk) >= chunkLines {
			flush()
			if err = ctx.Err(); err != nil {
				break
			}
		}
	}
	if err != nil {
		return "", err
	}
	flush()
	return out.String(), nil
}
