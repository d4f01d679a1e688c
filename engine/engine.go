package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"lineking/buffer"
	"lineking/config"
	"lineking/lazy"
	"lineking/logger"
	"lineking/metrics"
	"lineking/stream"
	"lineking/transform"
	"lineking/visual"

	"github.com/neovim/go-client/nvim"
)

type Engine struct {
	host      Host
	visual    *visual.Service
	metrics   *metrics.Tracker
	mu        sync.RWMutex
	eventChan chan Event

	// Main context and cancel for the engine lifecycle
	mainCtx    context.Context
	mainCancel context.CancelFunc
	stopped    bool
	stopOnce   sync.Once

	// Swapped on config reload
	catalog        *lazy.Future[*transform.Catalog]
	thresholds     stream.Thresholds
	showWhitespace bool
}

func NewEngine(host Host, cfg config.Config) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		host:           host,
		visual:         visual.NewService(),
		metrics:        metrics.NewTracker(),
		eventChan:      make(chan Event, 16),
		mainCtx:        ctx,
		mainCancel:     cancel,
		catalog:        catalogFor(cfg),
		thresholds:     cfg.Thresholds(),
		showWhitespace: cfg.ShowWhitespace,
	}
	e.visual.Init(cfg.ShowWhitespace)
	e.visual.OnChange(func(on bool) {
		if err := e.host.SetWhitespaceVisible(on); err != nil {
			logger.Warn("rendering whitespace: %v", err)
		}
	})
	return e
}

// catalogFor defers building the catalog, and the collation tables behind
// it, until the first command needs it
func catalogFor(cfg config.Config) *lazy.Future[*transform.Catalog] {
	return lazy.NewFuture(func() (*transform.Catalog, error) {
		defer logger.Trace("engine.buildCatalog")()
		return transform.NewCatalog(transform.Options{
			Collation:     cfg.Collation(),
			JoinSeparator: cfg.JoinSeparator,
			CSSStrategy:   cfg.SortStrategy(),
		}), nil
	})
}

func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.currentCatalog().Start()
	go e.eventLoop()
	go func() {
		select {
		case <-ctx.Done():
			e.Stop()
		case <-e.mainCtx.Done():
		}
	}()
	logger.Info("engine started")
}

// Stop shuts the engine down. Commands waiting to run fail with ErrStopped.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		logger.Info("stopping engine...")
		e.stopped = true
		e.mainCancel()
		e.visual.Dispose()
		e.metrics.LogSummary()
		logger.Info("engine stopped")
	})
}

func (e *Engine) eventLoop() {
	for {
		select {
		case <-e.mainCtx.Done():
			return
		case event := <-e.eventChan:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("event handler panic recovered for event %v: %v\n%s", event.Type, r, debug.Stack())
						if ce, ok := event.Data.(commandEvent); ok {
							ce.reply <- commandReply{err: fmt.Errorf("%s: internal error: %v", ce.req.Command, r)}
						}
					}
				}()
				e.handleEvent(event)
			}()
		}
	}
}

// Execute runs req on the event loop and waits for it. Commands are
// serialized, so two invocations never see the same snapshot.
func (e *Engine) Execute(ctx context.Context, req Request) (Result, error) {
	reply := make(chan commandReply, 1)
	select {
	case e.eventChan <- Event{Type: EventCommand, Data: commandEvent{ctx: ctx, req: req, reply: reply}}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.mainCtx.Done():
		return Result{}, ErrStopped
	}

	select {
	case r := <-reply:
		return r.result, r.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.mainCtx.Done():
		return Result{}, ErrStopped
	}
}

// Reconfigure swaps in settings from a reloaded config. The whitespace
// toggle only follows the config when the configured value changes, so a
// reload does not undo the user's own toggle.
func (e *Engine) Reconfigure(cfg config.Config) {
	cat := catalogFor(cfg)
	cat.Start()

	e.mu.Lock()
	e.catalog = cat
	e.thresholds = cfg.Thresholds()
	flip := cfg.ShowWhitespace != e.showWhitespace
	e.showWhitespace = cfg.ShowWhitespace
	e.mu.Unlock()

	if flip {
		if err := e.visual.SetEnabled(cfg.ShowWhitespace); err != nil {
			logger.Warn("applying show_whitespace: %v", err)
		}
	}
	logger.Info("engine reconfigured")
}

// Metrics returns the per-command counters
func (e *Engine) Metrics() *metrics.Tracker { return e.metrics }

func (e *Engine) currentCatalog() *lazy.Future[*transform.Catalog] {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog
}

func (e *Engine) currentThresholds() stream.Thresholds {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.thresholds
}

// SetNvim attaches a new connection: the host talks to it and the editor's
// command RPC is routed into the event loop
func (e *Engine) SetNvim(n *nvim.Nvim) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}
	e.host.SetClient(n)

	if err := n.RegisterHandler(buffer.CommandHandler, func(_ *nvim.Nvim, inv Invocation) (string, error) {
		res, _ := e.Execute(e.mainCtx, inv.Request())
		return res.Message, nil
	}); err != nil {
		logger.Error("error registering command handler for new connection: %v", err)
	}

	// Commands are registered once the connection is served
	go func() {
		select {
		case e.eventChan <- Event{Type: EventSetup}:
		case <-e.mainCtx.Done():
		}
	}()
}
