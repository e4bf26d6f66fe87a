// Package pages holds the headless page state behind the board UI: what is
// currently displayed, which controls are mid-submission, and how displayed
// state is reconciled with the server after every write.
package pages

import (
	"errors"
	"sync"
)

// SubmitState is the lifecycle of one mutation control (a create, edit or
// delete button): Idle -> Submitting -> Idle, with the last error kept for
// display when the submission failed.
type SubmitState int

const (
	// Idle means the control accepts a submission.
	Idle SubmitState = iota
	// Submitting means a submission is in flight and the control is
	// disabled.
	Submitting
)

// ErrSubmissionInFlight rejects a second submission from a control that is
// already Submitting. This is the double-click guard; the API client
// itself never coalesces or retries.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// ErrViewClosed rejects work on a view that has been navigated away from.
var ErrViewClosed = errors.New("view closed")

// submitGuard serializes submissions from a single control and remembers
// the outcome of the last one.
type submitGuard struct {
	mu      sync.Mutex
	state   SubmitState
	lastErr error
	closed  bool
}

// begin moves the control to Submitting, rejecting the transition when a
// submission is already in flight or the view is gone.
func (g *submitGuard) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrViewClosed
	}
	if g.state == Submitting {
		return ErrSubmissionInFlight
	}
	g.state = Submitting
	g.lastErr = nil
	return nil
}

// finish returns the control to Idle, recording err for display.
func (g *submitGuard) finish(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = Idle
	g.lastErr = err
}

func (g *submitGuard) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}

func (g *submitGuard) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// State reports the control's current state.
func (g *submitGuard) State() SubmitState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Err reports the last submission's failure, nil after a success.
func (g *submitGuard) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}
