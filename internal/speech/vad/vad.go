// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     vad
// Description: Voice activity detection and utterance tracking
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package vad

import (
	"time"
)

// Detector is the interface for voice activity detection
type Detector interface {
	// Process processes audio samples and returns whether speech is detected
	Process(samples []float32) (bool, error)

	// Close releases resources
	Close() error
}

// Config holds VAD configuration
type Config struct {
	// SampleRate is the audio sample rate (8000, 16000, 32000 or 48000)
	SampleRate int

	// Mode/Aggressiveness (0-3 for WebRTC VAD, higher = more aggressive filtering)
	Mode int

	// SilenceDuration is how long silence must last to end speech
	SilenceDuration time.Duration

	// MinSpeechDuration is the minimum speech duration to be considered valid
	MinSpeechDuration time.Duration

	// PhraseLimit caps the length of one utterance
	PhraseLimit time.Duration
}

// DefaultConfig returns default VAD configuration
func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Mode:              2, // Moderate aggressiveness
		SilenceDuration:   800 * time.Millisecond,
		MinSpeechDuration: 300 * time.Millisecond,
		PhraseLimit:       30 * time.Second,
	}
}

// SpeechState tracks the state of speech detection
type SpeechState struct {
	// IsSpeaking indicates if speech is currently detected
	IsSpeaking bool

	// Elapsed is the audio time since speech started
	Elapsed time.Duration

	// SpeechDuration is the audio time from speech start to the last voiced frame
	SpeechDuration time.Duration

	// SilenceDuration is the trailing silence since the last voiced frame
	SilenceDuration time.Duration
}

// SpeechTracker follows one utterance frame by frame. Durations advance by
// the length of each frame, so the tracker measures audio time rather than
// wall time.
type SpeechTracker struct {
	config        Config
	state         SpeechState
	speechStarted bool
}

// NewSpeechTracker creates a new speech tracker
func NewSpeechTracker(cfg Config) *SpeechTracker {
	return &SpeechTracker{
		config: cfg,
	}
}

// Update advances the tracker by one frame of the given length
func (t *SpeechTracker) Update(isSpeech bool, frame time.Duration) SpeechState {
	if !t.speechStarted {
		if !isSpeech {
			return t.state
		}
		t.speechStarted = true
		t.state.IsSpeaking = true
	}

	t.state.Elapsed += frame

	if isSpeech {
		t.state.SpeechDuration = t.state.Elapsed
		t.state.SilenceDuration = 0
		t.state.IsSpeaking = true
	} else {
		t.state.SilenceDuration += frame
		if t.state.SilenceDuration >= t.config.SilenceDuration {
			t.state.IsSpeaking = false
		}
	}

	return t.state
}

// Started reports whether speech has been detected since the last reset
func (t *SpeechTracker) Started() bool {
	return t.speechStarted
}

// ShouldEndRecording returns true if recording should end (silence threshold reached)
func (t *SpeechTracker) ShouldEndRecording() bool {
	return t.speechStarted &&
		t.state.SilenceDuration >= t.config.SilenceDuration &&
		t.state.SpeechDuration >= t.config.MinSpeechDuration
}

// ShouldDiscard returns true once a burst too short to be speech has been
// followed by a full silence window
func (t *SpeechTracker) ShouldDiscard() bool {
	return t.speechStarted &&
		t.state.SilenceDuration >= t.config.SilenceDuration &&
		t.state.SpeechDuration < t.config.MinSpeechDuration
}

// PhraseLimitReached returns true once the utterance hit the phrase limit
func (t *SpeechTracker) PhraseLimitReached() bool {
	return t.speechStarted &&
		t.config.PhraseLimit > 0 &&
		t.state.Elapsed >= t.config.PhraseLimit
}

// IsValidSpeech returns true if enough speech has been captured
func (t *SpeechTracker) IsValidSpeech() bool {
	return t.speechStarted && t.state.SpeechDuration >= t.config.MinSpeechDuration
}

// Reset resets the tracker state
func (t *SpeechTracker) Reset() {
	t.state = SpeechState{}
	t.speechStarted = false
}

// State returns the current speech state
func (t *SpeechTracker) State() SpeechState {
	return t.state
}
