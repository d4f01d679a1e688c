package engine

import (
	"errors"
	"slices"
	"sync"

	"lineking/selection"
	"lineking/types"

	"github.com/neovim/go-client/nvim"
)

// --- Mock implementations ---

type notification struct {
	msg   string
	level types.NotifyLevel
}

type promptCall struct {
	message string
	def     string
}

// mockHost implements the Host interface for testing
type mockHost struct {
	mu         sync.Mutex
	lines      []string
	eol        types.EOL
	selections []types.Selection

	// Canned replies
	promptValue  string
	promptOK     bool
	applyErr     error
	panicOnSync  bool
	registerErr  error
	visualMarked []types.Selection

	// Track method calls
	syncCalls     int
	applyCalls    int
	applied       [][]types.EditOperation
	setSelections [][]types.Selection
	prompts       []promptCall
	notifications []notification
	whitespace    []bool
	registered    []string
}

func newMockHost(lines ...string) *mockHost {
	return &mockHost{
		lines:      lines,
		eol:        types.EOLLF,
		selections: []types.Selection{types.NewCaret(types.Position{})},
		promptOK:   true,
	}
}

func (h *mockHost) SetClient(*nvim.Nvim) {}

func (h *mockHost) Sync(visual bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicOnSync {
		panic("sync exploded")
	}
	h.syncCalls++
	if visual && h.visualMarked != nil {
		h.selections = h.visualMarked
	}
	return nil
}

func (h *mockHost) Snapshot() selection.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return selection.Snapshot{Lines: slices.Clone(h.lines), EOL: h.eol}
}

func (h *mockHost) Selections() []types.Selection {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.selections
}

func (h *mockHost) ApplyEdits(edits []types.EditOperation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.applyCalls++
	if h.applyErr != nil {
		return h.applyErr
	}
	after, err := selection.ApplyToSnapshot(selection.Snapshot{Lines: h.lines, EOL: h.eol}, edits)
	if err != nil {
		return err
	}
	h.lines = after.Lines
	h.applied = append(h.applied, edits)
	return nil
}

func (h *mockHost) SetSelections(sels []types.Selection) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setSelections = append(h.setSelections, sels)
	return nil
}

func (h *mockHost) Prompt(message, def string) (string, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prompts = append(h.prompts, promptCall{message, def})
	return h.promptValue, h.promptOK, nil
}

func (h *mockHost) Notify(msg string, level types.NotifyLevel) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications = append(h.notifications, notification{msg, level})
	return nil
}

func (h *mockHost) SetWhitespaceVisible(on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.whitespace = append(h.whitespace, on)
	return nil
}

func (h *mockHost) RegisterCommands(names []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.registerErr != nil {
		return h.registerErr
	}
	h.registered = names
	return nil
}

func (h *mockHost) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.lines)
}

func (h *mockHost) Notifications() []notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.notifications)
}

var errApply = errors.New("buffer changed since it was read")
