// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     chat
// Description: Lane state machines
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package chat

import (
	"context"

	"github.com/google/uuid"
)

// State is the state of one lane
type State int

const (
	StateIdle State = iota
	StateListening
	StateCaptured
	StateRequesting
	StateTranslating
	StateSpeaking
)

// String returns the display name of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateListening:
		return "Listening"
	case StateCaptured:
		return "Captured"
	case StateRequesting:
		return "Requesting"
	case StateTranslating:
		return "Translating"
	case StateSpeaking:
		return "Speaking"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the state
func (s State) Icon() string {
	switch s {
	case StateListening:
		return "🎤"
	case StateCaptured:
		return "✎"
	case StateRequesting:
		return "⚙"
	case StateTranslating:
		return "⇄"
	case StateSpeaking:
		return "🔊"
	default:
		return "⏸"
	}
}

// Busy reports whether a background call is running in this state
func (s State) Busy() bool {
	switch s {
	case StateListening, StateRequesting, StateTranslating, StateSpeaking:
		return true
	default:
		return false
	}
}

// LaneKind names a lane
type LaneKind string

const (
	LaneListen LaneKind = "listen"
	LaneSpeak  LaneKind = "speak"
)

// listenTransitions: Idle -> Listening -> Captured -> Translating -> Idle.
// Typing into the field directly allows Idle -> Translating.
var listenTransitions = map[State][]State{
	StateIdle:        {StateListening, StateTranslating},
	StateListening:   {StateCaptured, StateIdle},
	StateCaptured:    {StateListening, StateTranslating},
	StateTranslating: {StateIdle, StateCaptured},
}

// speakTransitions: Idle -> Requesting -> Translating -> Speaking -> Idle
var speakTransitions = map[State][]State{
	StateIdle:        {StateRequesting},
	StateRequesting:  {StateTranslating, StateIdle},
	StateTranslating: {StateSpeaking, StateIdle},
	StateSpeaking:    {StateIdle},
}

// Lane tracks one request/response chain. At most one run is in flight;
// results are accepted only for the current run id.
type Lane struct {
	kind        LaneKind
	transitions map[State][]State
	state       State
	rest        State
	runID       string
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewListenLane creates the listen -> accept -> translate lane
func NewListenLane() Lane {
	return Lane{kind: LaneListen, transitions: listenTransitions}
}

// NewSpeakLane creates the complete -> translate -> speak lane
func NewSpeakLane() Lane {
	return Lane{kind: LaneSpeak, transitions: speakTransitions}
}

// Kind returns the lane name
func (l Lane) Kind() LaneKind {
	return l.kind
}

// State returns the current state
func (l Lane) State() State {
	return l.state
}

// Busy reports whether a run is in flight
func (l Lane) Busy() bool {
	return l.state.Busy()
}

// RunID returns the id of the run in flight, or ""
func (l Lane) RunID() string {
	return l.runID
}

// Current reports whether id belongs to the run in flight
func (l Lane) Current(id string) bool {
	return id != "" && id == l.runID
}

func (l Lane) canTransition(to State) bool {
	for _, s := range l.transitions[l.state] {
		if s == to {
			return true
		}
	}
	return false
}

// Begin starts a new run from a resting state. It returns the run context
// and id, or ok=false when the lane is busy or the transition is not allowed.
func (l *Lane) Begin(parent context.Context, to State) (ctx context.Context, runID string, ok bool) {
	if l.Busy() || !l.canTransition(to) {
		return nil, "", false
	}
	ctx, cancel := context.WithCancel(parent)
	l.rest = l.state
	l.state = to
	l.runID = uuid.NewString()
	l.ctx = ctx
	l.cancel = cancel
	return ctx, l.runID, true
}

// Advance moves the current run to its next busy state
func (l *Lane) Advance(runID string, to State) bool {
	if !l.Current(runID) || !l.canTransition(to) {
		return false
	}
	l.state = to
	return true
}

// Finish ends the current run in the given resting state
func (l *Lane) Finish(runID string, to State) bool {
	if !l.Current(runID) || !l.canTransition(to) {
		return false
	}
	l.release()
	l.state = to
	return true
}

// Fail ends the current run and returns to the state it started from
func (l *Lane) Fail(runID string) bool {
	if !l.Current(runID) {
		return false
	}
	l.release()
	l.state = l.rest
	return true
}

// Cancel aborts the run in flight, if any, and returns to the state it
// started from. Late results of the run are then stale.
func (l *Lane) Cancel() bool {
	if l.runID == "" {
		return false
	}
	l.release()
	l.state = l.rest
	return true
}

func (l *Lane) release() {
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = nil
	l.ctx = nil
	l.runID = ""
}

// runContext returns the context of the run in flight. Without a run it is
// already cancelled.
func (l Lane) runContext() context.Context {
	if l.ctx != nil {
		return l.ctx
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
