package app

import (
	"sync"
	"time"
)

// viewState is the loading flag and last error every view-model exposes.
// Each operation clears the previous error when it starts.
type viewState struct {
	stateMu sync.RWMutex
	loading bool
	lastErr error
}

// Loading reports whether an operation is in flight
func (s *viewState) Loading() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.loading
}

// LastError is the failure of the most recent operation, nil after a success
func (s *viewState) LastError() error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.lastErr
}

func (s *viewState) begin() {
	s.stateMu.Lock()
	s.loading = true
	s.lastErr = nil
	s.stateMu.Unlock()
}

func (s *viewState) finish(err error) error {
	s.stateMu.Lock()
	s.loading = false
	s.lastErr = err
	s.stateMu.Unlock()
	return err
}

func (s *viewState) clear() {
	s.stateMu.Lock()
	s.loading = false
	s.lastErr = nil
	s.stateMu.Unlock()
}

// fail records a pre-check failure without touching the loading flag
func (s *viewState) fail(err error) error {
	s.stateMu.Lock()
	s.lastErr = err
	s.stateMu.Unlock()
	return err
}

func clockOrNow(clock func() time.Time) func() time.Time {
	if clock == nil {
		return time.Now
	}
	return clock
}
