// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     tts
// Description: eSpeak NG TTS
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package tts

import (
	"context"
	"strconv"
	"strings"
)

// Espeak implements text-to-speech using espeak-ng
type Espeak struct {
	voice Voice
	rate  int
	run   runner
}

// NewEspeak creates a new espeak-ng engine
func NewEspeak(rate int) *Espeak {
	if rate <= 0 {
		rate = 175
	}
	return &Espeak{
		rate: rate,
		run:  runCommand,
	}
}

// Name returns the engine name
func (e *Espeak) Name() string {
	return EngineEspeak
}

// Voices parses the output of `espeak-ng --voices`
func (e *Espeak) Voices(ctx context.Context) ([]Voice, error) {
	out, err := e.run(ctx, "", "espeak-ng", "--voices")
	if err != nil {
		return nil, err
	}
	return parseEspeakVoices(string(out)), nil
}

// SetVoice pins the voice used by Speak
func (e *Espeak) SetVoice(v Voice) {
	e.voice = v
}

// Speak speaks the text read from stdin
func (e *Espeak) Speak(ctx context.Context, text string) error {
	args := []string{}
	if e.voice.ID != "" {
		args = append(args, "-v", e.voice.ID)
	}
	args = append(args, "-s", strconv.Itoa(e.rate), "--stdin")

	_, err := e.run(ctx, text, "espeak-ng", args...)
	return err
}

// Close is a no-op
func (e *Espeak) Close() error {
	return nil
}

// parseEspeakVoices reads the table printed by espeak-ng:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  pl              --/M      Polish             zlw/pl
func parseEspeakVoices(out string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		voices = append(voices, Voice{
			ID:       fields[1],
			Name:     fields[3],
			Language: fields[1],
		})
	}
	return voices
}
