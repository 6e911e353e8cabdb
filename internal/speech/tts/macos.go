// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     tts
// Description: macOS native TTS using 'say' command
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

// MacOSSay implements text-to-speech using macOS say command
type MacOSSay struct {
	voice Voice
	rate  int
	run   runner
}

// NewMacOSSay creates a new macOS say engine
func NewMacOSSay(rate int) *MacOSSay {
	if rate <= 0 {
		rate = 175
	}
	return &MacOSSay{
		rate: rate,
		run:  runCommand,
	}
}

// Name returns the engine name
func (m *MacOSSay) Name() string {
	return EngineSay
}

// Voices parses the output of `say -v ?`
func (m *MacOSSay) Voices(ctx context.Context) ([]Voice, error) {
	out, err := m.run(ctx, "", "say", "-v", "?")
	if err != nil {
		return nil, err
	}
	return parseSayVoices(string(out)), nil
}

// SetVoice pins the voice used by Speak
func (m *MacOSSay) SetVoice(v Voice) {
	m.voice = v
}

// Speak speaks the text and waits for say to exit. The text is passed on
// stdin so leading dashes are not read as flags.
func (m *MacOSSay) Speak(ctx context.Context, text string) error {
	args := []string{}
	if m.voice.ID != "" {
		args = append(args, "-v", m.voice.ID)
	}
	if m.rate > 0 {
		args = append(args, "-r", strconv.Itoa(m.rate))
	}
	args = append(args, "-f", "-")

	_, err := m.run(ctx, text, "say", args...)
	return err
}

// Close is a no-op
func (m *MacOSSay) Close() error {
	return nil
}

// parseSayVoices reads lines like
//
//	Zosia               pl_PL    # Witaj, nazywam się Zosia.
//	Eddy (German (Germany)) de_DE    # Hallo! Ich heiße Eddy.
func parseSayVoices(out string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(out, "\n") {
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		split := strings.LastIndexAny(line, " \t")
		if split == -1 {
			continue
		}
		name := strings.TrimSpace(line[:split])
		locale := strings.TrimSpace(line[split+1:])
		voices = append(voices, Voice{ID: name, Name: name, Language: locale})
	}
	return voices
}
