// Package visual owns the whitespace and line-ending visualization toggle.
// There is one Service per daemon; it is created at startup and handed to
// whatever needs to read or flip it.
package visual

import (
	"errors"
	"sync"
)

// ErrDisposed is returned by SetEnabled after Dispose
var ErrDisposed = errors.New("visual service disposed")

// Listener is called with the new state after every change
type Listener func(enabled bool)

// Service holds the process-wide visualization flag
type Service struct {
	mu        sync.RWMutex
	enabled   bool
	active    bool
	listeners map[int]Listener
	nextID    int
}

// NewService returns an uninitialized service. Call Init before use.
func NewService() *Service {
	return &Service{listeners: make(map[int]Listener)}
}

// Init activates the service with an initial state
func (s *Service) Init(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	s.active = true
}

// Dispose turns the flag off and drops all listeners
func (s *Service) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	s.active = false
	clear(s.listeners)
}

// IsEnabled reports the current state. A disposed service is never enabled.
func (s *Service) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active && s.enabled
}

// SetEnabled changes the state and notifies listeners if it changed
func (s *Service) SetEnabled(enabled bool) error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.enabled == enabled {
		s.mu.Unlock()
		return nil
	}
	s.enabled = enabled
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(enabled)
	}
	return nil
}

// Toggle flips the state and returns the new value
func (s *Service) Toggle() (bool, error) {
	next := !s.IsEnabled()
	if err := s.SetEnabled(next); err != nil {
		return false, err
	}
	return next, nil
}

// OnChange registers l and returns a function that unregisters it
func (s *Service) OnChange(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
