// Package metrics keeps per-command counters for the lifetime of the
// daemon. Nothing leaves the process; the totals are written to the log
// when the engine stops.
package metrics

import (
	"slices"
	"sync"
	"time"

	"lineking/logger"
)

type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// CommandMetrics describes one invocation
type CommandMetrics struct {
	ID        string
	Command   string
	Additions int
	Deletions int
	StartedAt time.Time
}

// Stats are the totals for one command
type Stats struct {
	Runs      int
	Applied   int
	Unchanged int
	Cancelled int
	Failed    int
	Additions int
	Deletions int
	Elapsed   time.Duration
}

type Tracker struct {
	mu    sync.Mutex
	stats map[string]*Stats
	now   func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{stats: make(map[string]*Stats), now: time.Now}
}

// Track records the outcome of m
func (t *Tracker) Track(m *CommandMetrics, outcome Outcome) {
	elapsed := t.now().Sub(m.StartedAt)

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.stats[m.Command]
	if !ok {
		s = &Stats{}
		t.stats[m.Command] = s
	}
	s.Runs++
	s.Elapsed += elapsed
	switch outcome {
	case OutcomeApplied:
		s.Applied++
		s.Additions += m.Additions
		s.Deletions += m.Deletions
	case OutcomeUnchanged:
		s.Unchanged++
	case OutcomeCancelled:
		s.Cancelled++
	case OutcomeFailed:
		s.Failed++
	}
	logger.Debug("metrics: %s %s %s in %v (+%d -%d)", m.ID, m.Command, outcome, elapsed, m.Additions, m.Deletions)
}

// Stats returns a copy of the totals for command
func (t *Tracker) Stats(command string) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.stats[command]; ok {
		return *s
	}
	return Stats{}
}

// Commands returns the commands seen so far, sorted
func (t *Tracker) Commands() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.stats))
	for name := range t.stats {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LogSummary writes one line per command to the log
func (t *Tracker) LogSummary() {
	for _, name := range t.Commands() {
		s := t.Stats(name)
		logger.Info("metrics: %s runs=%d applied=%d unchanged=%d cancelled=%d failed=%d +%d -%d total=%v",
			name, s.Runs, s.Applied, s.Unchanged, s.Cancelled, s.Failed, s.Additions, s.Deletions, s.Elapsed)
	}
}
