package buffer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"lineking/logger"
	"lineking/selection"
	"lineking/types"

	"github.com/neovim/go-client/nvim"
)

// CommandHandler is the RPC method the editor calls for every command
const CommandHandler = "lineking_command"

// cancelSentinel is returned by vim.fn.input when the prompt is dismissed
const cancelSentinel = "\x1blineking-cancelled\x1b"

// NvimBuffer is the editor side of a command: it reads the current buffer
// and applies edits back to it through the Neovim API
type NvimBuffer struct {
	client *nvim.Nvim // stored internally, set via SetClient

	id         nvim.Buffer
	path       string
	lines      []string
	eol        types.EOL
	tick       int // b:changedtick at the last Sync
	row        int // 1-indexed
	col        int // 0-indexed byte column
	selections []types.Selection
}

func New() *NvimBuffer {
	return &NvimBuffer{
		lines: []string{},
		eol:   types.EOLLF,
		row:   1,
	}
}

// SetClient stores the nvim client for all buffer operations
func (b *NvimBuffer) SetClient(n *nvim.Nvim) {
	b.client = n
}

func (b *NvimBuffer) Lines() []string { return b.lines }

func (b *NvimBuffer) Path() string { return b.path }

func (b *NvimBuffer) EOL() types.EOL { return b.eol }

// Snapshot returns the state read by the last Sync
func (b *NvimBuffer) Snapshot() selection.Snapshot {
	return selection.Snapshot{Lines: b.lines, EOL: b.eol}
}

// Selections returns the selections read by the last Sync. Without a
// visual selection this is a single caret at the cursor.
func (b *NvimBuffer) Selections() []types.Selection {
	return b.selections
}

// visualMarks is the '< and '> state as returned from Lua
type visualMarks struct {
	StartRow int    `msgpack:"srow"`
	StartCol int    `msgpack:"scol"`
	EndRow   int    `msgpack:"erow"`
	EndCol   int    `msgpack:"ecol"`
	Mode     string `msgpack:"mode"`
}

// Sync reads current state from the editor. With visual set, the last
// visual selection becomes the selection set instead of the cursor.
func (b *NvimBuffer) Sync(visual bool) error {
	defer logger.Trace("buffer.Sync")()
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}

	// Use batch API to make all calls in a single round-trip
	batch := b.client.NewBatch()

	var currentBuf nvim.Buffer
	var path string
	var lines [][]byte
	var cursor [2]int
	var fileFormat string
	var tick int
	var marks visualMarks

	batch.CurrentBuffer(&currentBuf)
	batch.BufferName(nvim.Buffer(0), &path)
	batch.BufferLines(nvim.Buffer(0), 0, -1, false, &lines)
	batch.WindowCursor(nvim.Window(0), &cursor)
	batch.ExecLua(`return vim.bo.fileformat`, &fileFormat, nil)
	batch.ExecLua(`return vim.b.changedtick`, &tick, nil)
	batch.ExecLua(`
		local s = vim.fn.getpos("'<")
		local e = vim.fn.getpos("'>")
		return {srow = s[2], scol = s[3], erow = e[2], ecol = e[3], mode = vim.fn.visualmode()}
	`, &marks, nil)

	if err := batch.Execute(); err != nil {
		logger.Error("error executing sync batch: %v", err)
		return err
	}

	linesStr := make([]string, len(lines))
	for i, line := range lines {
		linesStr[i] = string(line)
	}

	b.id = currentBuf
	b.path = path
	b.lines = linesStr
	b.eol = types.EOLFromFileFormat(fileFormat)
	b.tick = tick
	b.row = cursor[0]
	b.col = cursor[1]

	caret := types.NewCaret(types.Position{Line: b.row - 1, Character: b.col})
	b.selections = []types.Selection{caret}
	if visual {
		if sels := marksToSelections(linesStr, marks); len(sels) > 0 {
			b.selections = sels
		}
	}
	return nil
}

// marksToSelections converts Neovim's inclusive, 1-based visual marks to
// half-open selections. Blockwise mode yields one selection per line.
func marksToSelections(lines []string, m visualMarks) []types.Selection {
	if m.StartRow < 1 || m.EndRow < 1 || m.StartRow > len(lines) || m.EndRow > len(lines) {
		return nil
	}
	if m.EndRow < m.StartRow || (m.EndRow == m.StartRow && m.EndCol < m.StartCol) {
		m.StartRow, m.EndRow = m.EndRow, m.StartRow
		m.StartCol, m.EndCol = m.EndCol, m.StartCol
	}

	switch m.Mode {
	case "V":
		last := m.EndRow - 1
		return []types.Selection{{
			Anchor: types.Position{Line: m.StartRow - 1},
			Active: types.Position{Line: last, Character: len(lines[last])},
		}}
	case "\x16": // CTRL-V
		lo, hi := min(m.StartCol, m.EndCol), max(m.StartCol, m.EndCol)
		var sels []types.Selection
		for row := m.StartRow; row <= m.EndRow; row++ {
			line := lines[row-1]
			start := min(lo-1, len(line))
			sels = append(sels, types.Selection{
				Anchor: types.Position{Line: row - 1, Character: start},
				Active: types.Position{Line: row - 1, Character: inclusiveEnd(line, hi)},
			})
		}
		return sels
	default:
		startLine := lines[m.StartRow-1]
		return []types.Selection{{
			Anchor: types.Position{Line: m.StartRow - 1, Character: min(m.StartCol-1, len(startLine))},
			Active: types.Position{Line: m.EndRow - 1, Character: inclusiveEnd(lines[m.EndRow-1], m.EndCol)},
		}}
	}
}

// inclusiveEnd turns the 1-based column of a selection's last character
// into the exclusive byte offset just past that character
func inclusiveEnd(line string, col int) int {
	if col < 1 {
		return 0
	}
	if col > len(line) {
		return len(line)
	}
	_, size := utf8.DecodeRuneInString(line[col-1:])
	return col - 1 + size
}

// luaEdit is an EditOperation in the shape the apply script expects
type luaEdit struct {
	StartLine int      `msgpack:"start_line"`
	StartCol  int      `msgpack:"start_col"`
	EndLine   int      `msgpack:"end_line"`
	EndCol    int      `msgpack:"end_col"`
	Lines     []string `msgpack:"lines"`
}

func toLuaEdits(edits []types.EditOperation, eol types.EOL) []luaEdit {
	out := make([]luaEdit, len(edits))
	for i, e := range edits {
		out[i] = luaEdit{
			StartLine: e.Range.Start.Line,
			StartCol:  e.Range.Start.Character,
			EndLine:   e.Range.End.Line,
			EndCol:    e.Range.End.Character,
			Lines:     strings.Split(e.Text, string(eol)),
		}
	}
	return out
}

// applyEditsLua checks every edit against the live buffer before touching
// it, so a stale or invalid batch changes nothing. The edits arrive
// bottom-first and land in a single undo step.
const applyEditsLua = `
local buf, tick, edits = ...
if vim.api.nvim_buf_get_changedtick(buf) ~= tick then
	return "buffer changed since it was read"
end
local count = vim.api.nvim_buf_line_count(buf)
local function line_len(l)
	return #vim.api.nvim_buf_get_lines(buf, l, l + 1, true)[1]
end
for _, e in ipairs(edits) do
	if e.start_line < 0 or e.end_line >= count or e.start_col > line_len(e.start_line) or e.end_col > line_len(e.end_line) then
		return string.format("edit %d:%d-%d:%d is outside the buffer", e.start_line, e.start_col, e.end_line, e.end_col)
	end
end
for _, e in ipairs(edits) do
	vim.api.nvim_buf_set_text(buf, e.start_line, e.start_col, e.end_line, e.end_col, e.lines)
end
return ""
`

// ApplyEdits applies the whole batch or nothing. edits must be bottom-first
// and expressed against the state read by the last Sync.
func (b *NvimBuffer) ApplyEdits(edits []types.EditOperation) error {
	defer logger.Trace("buffer.ApplyEdits")()
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	if len(edits) == 0 {
		return nil
	}

	var failure string
	if err := b.client.ExecLua(applyEditsLua, &failure, int(b.id), b.tick, toLuaEdits(edits, b.eol)); err != nil {
		return fmt.Errorf("applying edits: %w", err)
	}
	if failure != "" {
		return fmt.Errorf("applying edits: %s", failure)
	}
	return nil
}

// SetSelections shows sels in the current window. Neovim has a single
// cursor, so only the first selection is kept: a caret moves the cursor,
// anything else is reselected in visual mode.
func (b *NvimBuffer) SetSelections(sels []types.Selection) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	if len(sels) == 0 {
		return nil
	}
	if len(sels) > 1 {
		logger.Debug("buffer: showing 1 of %d selections", len(sels))
	}

	sel := sels[0]
	batch := b.client.NewBatch()
	if sel.IsEmpty() {
		batch.SetWindowCursor(0, [2]int{sel.Active.Line + 1, sel.Active.Character})
		return batch.Execute()
	}
	batch.ExecLua(`
		local al, ac, el, ec = ...
		local line = vim.api.nvim_buf_get_lines(0, el, el + 1, true)[1]
		if ec > 0 then
			ec = ec - 1
			ec = ec + vim.str_utf_start(line, ec + 1)
		end
		vim.api.nvim_win_set_cursor(0, {al + 1, ac})
		vim.cmd("normal! v")
		vim.api.nvim_win_set_cursor(0, {el + 1, ec})
	`, nil, sel.Anchor.Line, sel.Anchor.Character, sel.Active.Line, sel.Active.Character)
	return batch.Execute()
}

type promptReply struct {
	Value     string `msgpack:"value"`
	Cancelled bool   `msgpack:"cancelled"`
}

// Prompt asks the user for a value. ok is false if the prompt was dismissed.
func (b *NvimBuffer) Prompt(message, def string) (value string, ok bool, err error) {
	if b.client == nil {
		return "", false, fmt.Errorf("nvim client not set")
	}
	var reply promptReply
	err = b.client.ExecLua(`
		local msg, def, sentinel = ...
		local ok, v = pcall(vim.fn.input, {prompt = msg, default = def, cancelreturn = sentinel})
		if not ok or v == sentinel then
			return {value = "", cancelled = true}
		end
		return {value = v, cancelled = false}
	`, &reply, message, def, cancelSentinel)
	if err != nil {
		return "", false, err
	}
	return reply.Value, !reply.Cancelled, nil
}

// Notify shows msg through vim.notify
func (b *NvimBuffer) Notify(msg string, level types.NotifyLevel) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	return b.client.ExecLua(`vim.notify(...)`, nil, "LineKing: "+msg, int(level))
}

// SetWhitespaceVisible toggles 'list' in every window. The user's
// 'listchars' is saved on the first toggle and restored when turned off.
func (b *NvimBuffer) SetWhitespaceVisible(on bool) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	return b.client.ExecLua(`
		local on = ...
		if on then
			if vim.g.lineking_listchars == nil then
				vim.g.lineking_listchars = vim.o.listchars
			end
			vim.o.listchars = "tab:» ,space:·,trail:·,nbsp:␣,eol:↲"
		elseif vim.g.lineking_listchars ~= nil then
			vim.o.listchars = vim.g.lineking_listchars
			vim.g.lineking_listchars = nil
		end
		for _, win in ipairs(vim.api.nvim_list_wins()) do
			vim.wo[win].list = on
		end
	`, nil, on)
}

// RegisterCommands creates :LineKing {command} [arg] and a <Plug> mapping
// per command in normal and visual mode
func (b *NvimBuffer) RegisterCommands(names []string) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	return b.client.ExecLua(`
		local chan, method, names = ...
		local function call(inv)
			local ok, err = pcall(vim.fn.rpcrequest, chan, method, inv)
			if not ok then
				vim.notify("LineKing: " .. tostring(err), vim.log.levels.ERROR)
			end
		end
		pcall(vim.api.nvim_del_user_command, "LineKing")
		vim.api.nvim_create_user_command("LineKing", function(o)
			call({
				command = o.fargs[1],
				arg = table.concat(vim.list_slice(o.fargs, 2), " "),
				line1 = o.range > 0 and o.line1 or 0,
				line2 = o.range > 0 and o.line2 or 0,
				visual = false,
			})
		end, {
			nargs = "+",
			range = true,
			complete = function(lead)
				return vim.tbl_filter(function(n) return vim.startswith(n, lead) end, names)
			end,
		})
		for _, name in ipairs(names) do
			local plug = "<Plug>(lineking-" .. name .. ")"
			vim.keymap.set("n", plug, function()
				call({command = name, arg = "", line1 = 0, line2 = 0, visual = false})
			end)
			vim.keymap.set("x", plug, function()
				vim.cmd("normal! \27")
				call({command = name, arg = "", line1 = 0, line2 = 0, visual = true})
			end)
		end
	`, nil, b.client.ChannelID(), CommandHandler, names)
}
