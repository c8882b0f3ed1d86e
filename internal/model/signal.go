package model

import (
	"context"
	"fmt"
	"sync"
)

// StopSignal is a run-scoped cooperative cancellation flag. The zero value is
// not usable; create one with NewStopSignal. A nil *StopSignal never fires.
type StopSignal struct {
	once sync.Once
	ch   chan struct{}
}

// NewStopSignal returns an unfired signal.
func NewStopSignal() *StopSignal {
	return &StopSignal{ch: make(chan struct{})}
}

// Stop fires the signal. It reports whether this call was the one that
// fired it; later calls are no-ops.
func (s *StopSignal) Stop() bool {
	if s == nil {
		return false
	}
	fired := false
	s.once.Do(func() {
		close(s.ch)
		fired = true
	})
	return fired
}

// Stopped reports whether Stop has been called.
func (s *StopSignal) Stopped() bool {
	if s == nil {
		return false
	}
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the signal fires. For a nil signal it
// returns nil, which blocks forever in a select.
func (s *StopSignal) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.ch
}

// WithStop returns a child of parent that is cancelled when s fires.
func WithStop(parent context.Context, s *StopSignal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if s == nil {
		return ctx, cancel
	}
	go func() {
		select {
		case <-s.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Reporter receives human-readable progress lines for a run.
type Reporter func(msg string)

// Printf formats and delivers a progress line. Safe on a nil Reporter.
func (r Reporter) Printf(format string, args ...any) {
	if r == nil {
		return
	}
	r(fmt.Sprintf(format, args...))
}
