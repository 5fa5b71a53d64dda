// Package session holds caption sessions: one transcript, its segmentation
// policy and overlay style, and the transcription lifecycle around it.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a session's transcript.
type State int

const (
	// StatePending - Session created, no words yet.
	StatePending State = iota
	// StateTranscribing - Waiting for the transcription collaborator.
	StateTranscribing
	// StateReady - Words loaded; phrases can be served.
	StateReady
	// StateFailed - Last transcription failed. Words from an earlier
	// successful load, if any, are kept.
	StateFailed
	// StateClosed - Session deleted. Terminal.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateTranscribing:
		return "TRANSCRIBING"
	case StateReady:
		return "READY"
	case StateFailed:
		return "FAILED"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (CLOSED).
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// Errors for invalid state transitions.
var (
	ErrClosed                  = errors.New("session is closed")
	ErrTranscriptionInProgress = errors.New("transcription already in progress")
	ErrNotTranscribing         = errors.New("no transcription in progress")
)

// Lifecycle manages the state machine for a session transcript.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	PENDING ──Begin()──→ TRANSCRIBING ──Complete()──→ READY
//	   │                      │                         │
//	   │                      └──Fail()──→ FAILED ──────┤
//	   │                                                │
//	   └──Load()──────────────→ READY ←──Begin() again──┘
//
// Rules:
//   - Only one transcription runs at a time.
//   - Load() (words supplied directly) is refused while transcribing.
//   - CLOSED: every transition returns ErrClosed.
type Lifecycle struct {
	mu      sync.RWMutex
	state   State
	lastErr error
}

// NewLifecycle creates a lifecycle in PENDING state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StatePending}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// LastError returns the error recorded by the last Fail, if any.
func (l *Lifecycle) LastError() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}

// Begin transitions to TRANSCRIBING.
func (l *Lifecycle) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StatePending, StateReady, StateFailed:
		l.state = StateTranscribing
		l.lastErr = nil
		return nil
	case StateTranscribing:
		return ErrTranscriptionInProgress
	case StateClosed:
		return ErrClosed
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// Complete transitions TRANSCRIBING to READY.
func (l *Lifecycle) Complete() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateTranscribing:
		l.state = StateReady
		return nil
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotTranscribing
	}
}

// Fail transitions TRANSCRIBING to FAILED and records err.
func (l *Lifecycle) Fail(err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateTranscribing:
		l.state = StateFailed
		l.lastErr = err
		return nil
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotTranscribing
	}
}

// Load marks words as supplied directly, without a transcription.
func (l *Lifecycle) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StatePending, StateReady, StateFailed:
		l.state = StateReady
		l.lastErr = nil
		return nil
	case StateTranscribing:
		return ErrTranscriptionInProgress
	case StateClosed:
		return ErrClosed
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// Close transitions to CLOSED. Returns false if already closed.
func (l *Lifecycle) Close() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateClosed
	return true
}
