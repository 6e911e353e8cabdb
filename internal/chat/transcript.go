// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     chat
// Description: Append-only conversation transcript
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package chat

import "strings"

// SpeakerLabel labels a transcript entry
type SpeakerLabel string

const (
	SpeakerHuman SpeakerLabel = "Human"
	SpeakerAI    SpeakerLabel = "AI"
)

// Entry is one utterance in the transcript
type Entry struct {
	Speaker SpeakerLabel
	Text    string
}

// String renders the entry as "<Speaker>: <Text>"
func (e Entry) String() string {
	return string(e.Speaker) + ": " + e.Text
}

// Transcript is the ordered conversation. It only grows; entries are never
// edited, removed or reordered.
type Transcript struct {
	entries []Entry
}

// Append adds an entry at the end
func (t *Transcript) Append(speaker SpeakerLabel, text string) {
	t.entries = append(t.entries, Entry{Speaker: speaker, Text: text})
}

// Entries returns a copy of the entries in order
func (t Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries
func (t Transcript) Len() int {
	return len(t.entries)
}

// Text renders the transcript one entry per line
func (t Transcript) Text() string {
	lines := make([]string, len(t.entries))
	for i, e := range t.entries {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

// Prompt is the completion prompt: the whole transcript followed by the
// "AI:" cue on its own line
func (t Transcript) Prompt() string {
	cue := string(SpeakerAI) + ":"
	if len(t.entries) == 0 {
		return cue
	}
	return t.Text() + "\n" + cue
}
