// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     speech
// Description: Speech output adapter
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package speech

import (
	"context"
	"strings"
	"time"

	"github.com/msto63/aichat/internal/speech/tts"
	"github.com/msto63/aichat/pkg/core/apperror"
	"github.com/msto63/aichat/pkg/core/logging"
)

const speakOp = "speak"

// Speaker speaks text with a voice chosen once at startup
type Speaker struct {
	engine tts.Engine
	voice  tts.Voice
	logger *logging.Logger
}

// NewSpeaker selects the voice by ID or name, or by locale when voice is empty
func NewSpeaker(ctx context.Context, engine tts.Engine, voice, locale string) (*Speaker, error) {
	voices, err := engine.Voices(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindSynthesis, speakOp, "failed to list voices").
			WithDetail("engine", engine.Name())
	}

	selected, err := tts.SelectVoice(voices, voice, locale)
	if err != nil {
		return nil, err
	}
	engine.SetVoice(selected)

	logger := logging.New("speaker")
	logger.Info("Voice selected", "engine", engine.Name(), "voice", selected.ID, "language", selected.Language)

	return &Speaker{
		engine: engine,
		voice:  selected,
		logger: logger,
	}, nil
}

// Speak blocks until playback has finished
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	start := time.Now()
	if err := s.engine.Speak(ctx, text); err != nil {
		if ctx.Err() != nil {
			return apperror.Wrap(ctx.Err(), apperror.KindCanceled, speakOp, "speech cancelled")
		}
		return apperror.Wrap(err, apperror.KindSynthesis, speakOp, "engine failed").
			WithDetail("engine", s.engine.Name())
	}

	s.logger.Debug("Spoke", "chars", len(text), "duration", time.Since(start))
	return nil
}

// Voice returns the selected voice
func (s *Speaker) Voice() tts.Voice {
	return s.voice
}

// Close releases the engine
func (s *Speaker) Close() error {
	return s.engine.Close()
}
