package engine

import (
	"errors"

	"lineking/selection"
	"lineking/types"

	"github.com/neovim/go-client/nvim"
)

// Commands handled by the engine itself rather than the transform catalog
const (
	CommandDuplicate        = "duplicateAtSelections"
	CommandToggleWhitespace = "toggleWhitespace"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrNoEnclosingBlock = errors.New("no enclosing CSS block")
	ErrCancelled        = errors.New("cancelled")
	ErrStopped          = errors.New("engine stopped")
)

// Host is the editor a command runs against. NvimBuffer implements it.
type Host interface {
	SetClient(n *nvim.Nvim)
	Sync(visual bool) error
	Snapshot() selection.Snapshot
	Selections() []types.Selection
	ApplyEdits(edits []types.EditOperation) error
	SetSelections(sels []types.Selection) error
	Prompt(message, def string) (string, bool, error)
	Notify(msg string, level types.NotifyLevel) error
	SetWhitespaceVisible(on bool) error
	RegisterCommands(names []string) error
}

// LineSpan is an inclusive, 0-indexed line range given on the command line
type LineSpan struct {
	First int
	Last  int
}

// Request is one command invocation
type Request struct {
	Command string
	// Arg overrides the prompt for commands that take an argument
	Arg string
	// Visual uses the last visual selection instead of the cursor
	Visual bool
	Lines  *LineSpan
	// Selections, when set, are used as-is
	Selections []types.Selection
}

type Result struct {
	Applied bool
	Edits   []types.EditOperation
	// Summary counts the lines added and removed by an applied command
	Summary selection.Summary
	Message string
}

// Invocation is the argument of the lineking_command RPC
type Invocation struct {
	Command string `msgpack:"command"`
	Arg     string `msgpack:"arg"`
	Line1   int    `msgpack:"line1"`
	Line2   int    `msgpack:"line2"`
	Visual  bool   `msgpack:"visual"`
}

// Request converts the 1-indexed editor invocation
func (inv Invocation) Request() Request {
	req := Request{Command: inv.Command, Arg: inv.Arg, Visual: inv.Visual}
	if !inv.Visual && inv.Line1 > 0 && inv.Line2 >= inv.Line1 {
		req.Lines = &LineSpan{First: inv.Line1 - 1, Last: inv.Line2 - 1}
	}
	return req
}
