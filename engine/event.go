package engine

import (
	"context"
	"errors"
	"time"

	"lineking/logger"
	"lineking/metrics"
	"lineking/types"

	"github.com/google/uuid"
)

type EventType string

const (
	// EventCommand runs one Request
	EventCommand EventType = "command"
	// EventSetup registers the editor commands on a new connection
	EventSetup EventType = "setup"
)

type Event struct {
	Type EventType
	Data any
}

type commandEvent struct {
	ctx   context.Context
	req   Request
	reply chan commandReply
}

type commandReply struct {
	result Result
	err    error
}

func (e *Engine) handleEvent(event Event) {
	logger.Debug("handle event: %v", event.Type)

	switch event.Type {
	case EventCommand:
		ce := event.Data.(commandEvent)
		m := &metrics.CommandMetrics{ID: uuid.NewString()[:8], Command: ce.req.Command, StartedAt: time.Now()}
		res, err := e.handleCommand(ce.ctx, m.ID, ce.req)
		m.Additions, m.Deletions = res.Summary.Added, res.Summary.Removed
		e.metrics.Track(m, outcome(res, err))
		e.report(res, err)
		ce.reply <- commandReply{result: res, err: err}
	case EventSetup:
		e.handleSetup()
	}
}

func (e *Engine) handleSetup() {
	cat, err := e.currentCatalog().Get(e.mainCtx)
	if err != nil {
		logger.Error("building catalog: %v", err)
		return
	}
	names := append(cat.Names(), CommandDuplicate, CommandToggleWhitespace)
	if err := e.host.RegisterCommands(names); err != nil {
		logger.Error("registering commands: %v", err)
		return
	}
	logger.Info("registered %d commands", len(names))

	if e.visual.IsEnabled() {
		if err := e.host.SetWhitespaceVisible(true); err != nil {
			logger.Warn("showing whitespace: %v", err)
		}
	}
}

// report surfaces the outcome of a command in the editor. Successful edits
// are only logged.
func (e *Engine) report(res Result, err error) {
	var msg string
	level := types.NotifyInfo
	switch {
	case err == nil && (res.Applied || res.Message == ""):
		return
	case err == nil:
		msg = res.Message
	case errors.Is(err, ErrCancelled), errors.Is(err, ErrNoEnclosingBlock):
		msg = err.Error()
		if res.Message != "" {
			msg = res.Message
		}
	default:
		msg = err.Error()
		level = types.NotifyError
	}
	if nerr := e.host.Notify(msg, level); nerr != nil {
		logger.Warn("notify failed: %v", nerr)
	}
}

func outcome(res Result, err error) metrics.Outcome {
	switch {
	case err == nil && res.Applied:
		return metrics.OutcomeApplied
	case err == nil, errors.Is(err, ErrNoEnclosingBlock):
		return metrics.OutcomeUnchanged
	case errors.Is(err, ErrCancelled):
		return metrics.OutcomeCancelled
	default:
		return metrics.OutcomeFailed
	}
}
