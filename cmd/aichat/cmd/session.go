// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     cmd
// Description: Construction of the speech, translation and completion services
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/msto63/aichat/internal/chat"
	"github.com/msto63/aichat/internal/completion"
	"github.com/msto63/aichat/internal/speech"
	"github.com/msto63/aichat/internal/speech/audio"
	"github.com/msto63/aichat/internal/speech/stt"
	"github.com/msto63/aichat/internal/speech/tts"
	"github.com/msto63/aichat/internal/speech/vad"
	"github.com/msto63/aichat/internal/translate"
	"github.com/msto63/aichat/pkg/core/config"
)

// session owns every service the chat UI uses
type session struct {
	host       *audio.Host
	listener   *speech.Listener
	speaker    *speech.Speaker
	translator translate.Translator
	completer  completion.Completer
}

func (s *session) services() chat.Services {
	return chat.Services{
		Listener:   s.listener,
		Translator: s.translator,
		Completer:  s.completer,
		Speaker:    s.speaker,
	}
}

// Close releases the services in reverse order of creation
func (s *session) Close() error {
	var errs []error
	if s.speaker != nil {
		errs = append(errs, s.speaker.Close())
	}
	if s.listener != nil {
		errs = append(errs, s.listener.Close())
	}
	if s.host != nil {
		errs = append(errs, s.host.Close())
	}
	return errors.Join(errs...)
}

// openSession builds all services and calibrates the microphone
func openSession(ctx context.Context, cfg *config.Config, creds config.Credentials) (*session, error) {
	completer, err := completion.New(completion.ConfigFrom(cfg, creds))
	if err != nil {
		return nil, err
	}

	host, err := audio.OpenHost()
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	sess := &session{
		host:       host,
		translator: newDeepL(cfg, creds),
		completer:  completer,
	}

	sess.listener, err = newListener(host, cfg)
	if err != nil {
		sess.Close()
		return nil, err
	}
	if _, err := sess.listener.Calibrate(ctx, cfg.Capture.Calibration.Duration); err != nil {
		sess.Close()
		return nil, fmt.Errorf("microphone calibration failed: %w", err)
	}

	engine, err := newEngine(cfg)
	if err != nil {
		sess.Close()
		return nil, err
	}
	sess.speaker, err = speech.NewSpeaker(ctx, engine, cfg.Speech.Voice, cfg.Speech.Locale)
	if err != nil {
		engine.Close()
		sess.Close()
		return nil, err
	}
	return sess, nil
}

func newDeepL(cfg *config.Config, creds config.Credentials) *translate.DeepL {
	return translate.NewDeepL(translate.DeepLConfig{
		BaseURL: cfg.Translation.BaseURL,
		AuthKey: creds.DeepLToken,
		Timeout: cfg.Translation.Timeout.Duration,
	})
}

func newListener(host *audio.Host, cfg *config.Config) (*speech.Listener, error) {
	c := cfg.Capture

	capture, err := audio.NewCapture(host, audio.CaptureConfig{
		SampleRate: float64(c.SampleRate),
		BufferSize: c.FrameSize,
		Channels:   audio.DefaultChannels,
		DeviceName: c.InputDevice,
	})
	if err != nil {
		return nil, err
	}

	detector, err := vad.NewWebRTCVAD(vad.Config{
		SampleRate:        c.SampleRate,
		Mode:              c.VADMode,
		SilenceDuration:   c.Silence.Duration,
		MinSpeechDuration: c.MinSpeech.Duration,
		PhraseLimit:       c.PhraseLimit.Duration,
	})
	if err != nil {
		return nil, err
	}

	transcriber, err := stt.New(sttConfig(cfg))
	if err != nil {
		detector.Close()
		return nil, err
	}

	return speech.NewListener(capture, detector, transcriber, speech.ListenerConfig{
		EnergyRatio:   c.EnergyRatio,
		MinEnergy:     c.MinEnergy,
		Silence:       c.Silence.Duration,
		MinSpeech:     c.MinSpeech.Duration,
		PreRoll:       c.PreRoll.Duration,
		ListenTimeout: c.ListenTimeout.Duration,
		PhraseLimit:   c.PhraseLimit.Duration,
		Timeout:       c.Timeout.Duration,
	}), nil
}

func sttConfig(cfg *config.Config) stt.Config {
	c := cfg.Capture
	sc := stt.Config{
		Engine:     c.Engine,
		Language:   cfg.Languages.SpeechLocale,
		SampleRate: c.SampleRate,
		BinaryPath: c.WhisperBinary,
		ModelPath:  c.WhisperModel,
		Timeout:    c.Timeout.Duration,
	}
	switch c.Engine {
	case config.CaptureWhisperHTTP:
		sc.BaseURL = c.WhisperURL
	case config.CaptureVoxtral:
		sc.BaseURL = c.VoxtralURL
		sc.Model = c.VoxtralModel
	}
	return sc
}

// newEngine creates the TTS engine. Piper plays through PortAudio, so the
// caller must hold an open audio host before it speaks.
func newEngine(cfg *config.Config) (tts.Engine, error) {
	return tts.New(tts.Config{
		Engine:     cfg.Speech.Engine,
		Rate:       cfg.Speech.Rate,
		BinaryPath: cfg.Speech.PiperBinary,
		ModelDir:   cfg.Speech.PiperModelDir,
	}, audio.NewPlayback(cfg.Speech.OutputDevice))
}
