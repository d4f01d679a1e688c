package engine

import (
	"context"
	"fmt"

	"lineking/css"
	"lineking/logger"
	"lineking/selection"
	"lineking/stream"
	"lineking/transform"
	"lineking/types"
)

func (e *Engine) handleCommand(ctx context.Context, id string, req Request) (Result, error) {
	log := logger.With(id)
	log.Info("command %s (visual=%v)", req.Command, req.Visual)
	defer logger.Trace("engine." + req.Command)()

	if req.Command == CommandToggleWhitespace {
		on, err := e.visual.Toggle()
		if err != nil {
			return Result{}, err
		}
		state := "hidden"
		if on {
			state = "visible"
		}
		return Result{Message: "whitespace " + state}, nil
	}

	if err := e.host.Sync(req.Visual); err != nil {
		return Result{}, fmt.Errorf("reading buffer: %w", err)
	}
	snap := e.host.Snapshot()
	sels := e.selectionsFor(snap, req)

	if req.Command == CommandDuplicate {
		return e.duplicate(log, snap, sels)
	}

	cat, err := e.currentCatalog().Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("loading catalog: %w", err)
	}
	op, ok := cat.Lookup(req.Command)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, req.Command)
	}

	arg, err := e.argument(op, req.Arg)
	if err != nil {
		return Result{Message: op.Name + " cancelled"}, err
	}

	if op.Arg == transform.ArgCSSStrategy && len(sels) > 0 && allCarets(sels) {
		sels = enclosingBlocks(snap, sels)
		if len(sels) == 0 {
			return Result{Message: "no CSS block around the cursor"}, ErrNoEnclosingBlock
		}
	}

	edits, err := selection.Plan(ctx, snap, sels, e.applyFunc(log, op, arg), selection.Options{
		Scope:    op.Scope,
		Minimize: op.Scope == types.ScopeLines,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op.Name, err)
	}
	if len(edits) == 0 {
		log.Debug("%s: nothing to change", op.Name)
		return Result{Message: op.Name + ": no changes"}, nil
	}

	if err := e.host.ApplyEdits(edits); err != nil {
		return Result{}, fmt.Errorf("%s: %w", op.Name, err)
	}

	res := Result{Applied: true, Edits: edits, Message: fmt.Sprintf("%s: %d edits", op.Name, len(edits))}
	if after, err := selection.ApplyToSnapshot(snap, edits); err == nil {
		res.Summary = selection.Summarize(snap.Lines, after.Lines)
		res.Message = fmt.Sprintf("%s: +%d -%d lines", op.Name, res.Summary.Added, res.Summary.Removed)
	}
	log.Info("%s", res.Message)
	return res, nil
}

// selectionsFor resolves what a request applies to: explicit selections,
// then a command-line range, then whatever the host synced
func (e *Engine) selectionsFor(snap selection.Snapshot, req Request) []types.Selection {
	if len(req.Selections) > 0 {
		return req.Selections
	}
	if req.Lines != nil {
		r := snap.LineRange(req.Lines.First, req.Lines.Last)
		return []types.Selection{{Anchor: r.Start, Active: r.End}}
	}
	return e.host.Selections()
}

// argument returns the op's argument, prompting for it when the op asks
// and none was given
func (e *Engine) argument(op *transform.Op, given string) (string, error) {
	if op.Prompt == nil || given != "" {
		return given, nil
	}
	value, ok, err := e.host.Prompt(op.Prompt.Message, op.Prompt.Default)
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	if !ok {
		return "", ErrCancelled
	}
	return value, nil
}

func (e *Engine) applyFunc(log logger.Scoped, op *transform.Op, arg string) selection.ApplyFunc {
	th := e.currentThresholds()
	return func(ctx context.Context, lines []string) ([]string, error) {
		out, strategy, err := stream.Lines(ctx, lines, op, arg, th)
		log.Debug("%s over %d lines (%s)", op.Name, len(lines), strategy)
		return out, err
	}
}

func (e *Engine) duplicate(log logger.Scoped, snap selection.Snapshot, sels []types.Selection) (Result, error) {
	res := selection.Duplicate(snap, sels)
	if err := e.host.ApplyEdits(res.Edits); err != nil {
		return Result{}, fmt.Errorf("%s: %w", CommandDuplicate, err)
	}
	if err := e.host.SetSelections(res.Selections); err != nil {
		log.Warn("restoring selections: %v", err)
	}
	msg := fmt.Sprintf("duplicated %d selections", len(sels))
	log.Info("%s", msg)
	out := Result{Applied: true, Edits: res.Edits, Message: msg}
	if after, err := selection.ApplyToSnapshot(snap, res.Edits); err == nil {
		out.Summary = selection.Summarize(snap.Lines, after.Lines)
	}
	return out, nil
}

func allCarets(sels []types.Selection) bool {
	for _, s := range sels {
		if !s.IsEmpty() {
			return false
		}
	}
	return true
}

// enclosingBlocks widens each caret to the innermost CSS block around it,
// braces included. Carets outside every block are dropped.
func enclosingBlocks(snap selection.Snapshot, carets []types.Selection) []types.Selection {
	blocks := css.FindBlocks(snap.Lines)
	var out []types.Selection
	for _, c := range carets {
		b, ok := css.EnclosingBlock(blocks, c.Active.Line)
		if !ok {
			continue
		}
		r := snap.LineRange(b.Start, b.End)
		out = append(out, types.Selection{Anchor: r.Start, Active: r.End})
	}
	return out
}
