// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     chat
// Description: Message types for lane commands
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package chat

import "time"

// capturedMsg carries the phrase recognized by the listen lane
type capturedMsg struct {
	runID    string
	text     string
	duration time.Duration
	err      error
}

// acceptedMsg carries the translation of the accepted field text
type acceptedMsg struct {
	runID string
	text  string
	err   error
}

// completedMsg carries the completion for the speak lane
type completedMsg struct {
	runID    string
	text     string
	duration time.Duration
	err      error
}

// replyTranslatedMsg carries the completion translated to the human language
type replyTranslatedMsg struct {
	runID string
	text  string
	err   error
}

// spokenMsg is sent when playback has finished
type spokenMsg struct {
	runID string
	err   error
}
