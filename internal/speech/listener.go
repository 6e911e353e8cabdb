// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     speech
// Description: Speech capture adapter: microphone, VAD and transcription
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package speech

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/msto63/aichat/internal/speech/audio"
	"github.com/msto63/aichat/internal/speech/stt"
	"github.com/msto63/aichat/internal/speech/vad"
	"github.com/msto63/aichat/pkg/core/apperror"
	"github.com/msto63/aichat/pkg/core/logging"
)

const listenOp = "listen"

// FrameSource streams mono frames from an input device. Start acquires the
// device and the returned channel closes once it has been released.
type FrameSource interface {
	Start(ctx context.Context) (<-chan []float32, error)
	Stop()
	SampleRate() int
}

// ListenerConfig holds the capture timing settings
type ListenerConfig struct {
	EnergyRatio   float64
	MinEnergy     float64
	Silence       time.Duration
	MinSpeech     time.Duration
	PreRoll       time.Duration
	ListenTimeout time.Duration
	PhraseLimit   time.Duration
	Timeout       time.Duration
}

// DefaultListenerConfig returns the default capture timing
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		EnergyRatio:   1.5,
		MinEnergy:     0.003,
		Silence:       800 * time.Millisecond,
		MinSpeech:     300 * time.Millisecond,
		PreRoll:       300 * time.Millisecond,
		ListenTimeout: 10 * time.Second,
		PhraseLimit:   30 * time.Second,
		Timeout:       60 * time.Second,
	}
}

// Listener turns one spoken phrase into text
type Listener struct {
	source      FrameSource
	detector    vad.Detector
	transcriber stt.Transcriber
	gate        *vad.EnergyGate
	cfg         ListenerConfig
	logger      *logging.Logger
}

// NewListener creates a listener. The gate starts at the configured floor
// until Calibrate runs.
func NewListener(source FrameSource, detector vad.Detector, transcriber stt.Transcriber, cfg ListenerConfig) *Listener {
	return &Listener{
		source:      source,
		detector:    detector,
		transcriber: transcriber,
		gate:        vad.NewEnergyGate(cfg.EnergyRatio, cfg.MinEnergy),
		cfg:         cfg,
		logger:      logging.New("listener"),
	}
}

// Calibrate records ambient noise for d and sets the energy threshold
func (l *Listener) Calibrate(ctx context.Context, d time.Duration) (float64, error) {
	frames, err := l.source.Start(ctx)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.KindCapture, listenOp, "microphone unavailable")
	}
	defer l.source.Stop()

	rate := l.source.SampleRate()
	ambient := audio.NewBuffer(rate)

	for ambient.Duration() < d {
		select {
		case <-ctx.Done():
			return 0, apperror.Wrap(ctx.Err(), apperror.KindCanceled, listenOp, "calibration cancelled")
		case frame, ok := <-frames:
			if !ok {
				if ambient.Len() == 0 {
					return 0, apperror.New(apperror.KindCapture, listenOp, "microphone stream ended")
				}
				d = 0
				continue
			}
			ambient.Append(frame)
		}
	}

	threshold := l.gate.Calibrate(ambient.Samples())
	l.logger.Info("Calibrated ambient noise",
		"ambient_rms", l.gate.Ambient(),
		"threshold", threshold,
		"duration", ambient.Duration(),
	)
	return threshold, nil
}

// Threshold returns the current energy threshold
func (l *Listener) Threshold() float64 {
	return l.gate.Threshold()
}

// Listen waits for one phrase and returns its transcription. The device is
// released before the audio is transcribed.
func (l *Listener) Listen(ctx context.Context) (string, error) {
	samples, err := l.record(ctx)
	if err != nil {
		return "", err
	}

	tctx := ctx
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := l.transcriber.Transcribe(tctx, samples)
	if err != nil {
		if ctx.Err() != nil {
			return "", apperror.Wrap(ctx.Err(), apperror.KindCanceled, listenOp, "listen cancelled")
		}
		return "", apperror.Wrap(err, apperror.KindCapture, listenOp, "transcription failed")
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", apperror.New(apperror.KindCapture, listenOp, "speech was unintelligible")
	}

	l.logger.Info("Phrase transcribed", "chars", len(text), "duration", time.Since(start))
	return text, nil
}

func (l *Listener) record(ctx context.Context) ([]float32, error) {
	frames, err := l.source.Start(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindCapture, listenOp, "microphone unavailable")
	}
	defer l.source.Stop()

	rate := l.source.SampleRate()
	preRoll := audio.NewRingBuffer(audio.DurationSamples(l.cfg.PreRoll, rate))
	phrase := audio.NewBuffer(rate)
	tracker := vad.NewSpeechTracker(vad.Config{
		SampleRate:        rate,
		SilenceDuration:   l.cfg.Silence,
		MinSpeechDuration: l.cfg.MinSpeech,
		PhraseLimit:       l.cfg.PhraseLimit,
	})

	var waited time.Duration

loop:
	for {
		var frame []float32
		select {
		case <-ctx.Done():
			return nil, apperror.Wrap(ctx.Err(), apperror.KindCanceled, listenOp, "listen cancelled")
		case f, ok := <-frames:
			if !ok {
				break loop
			}
			frame = f
		}

		voiced, err := l.detector.Process(frame)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.KindCapture, listenOp, "voice detection failed")
		}
		isSpeech := voiced && l.gate.Pass(frame)
		frameDur := audio.SamplesDuration(len(frame), rate)

		if !tracker.Started() {
			tracker.Update(isSpeech, frameDur)
			if tracker.Started() {
				phrase.Append(preRoll.ReadAll())
				phrase.Append(frame)
				continue
			}
			preRoll.Write(frame)
			waited += frameDur
			if l.cfg.ListenTimeout > 0 && waited >= l.cfg.ListenTimeout {
				return nil, apperror.New(apperror.KindCapture, listenOp, "no speech detected").
					WithDetail("waited", waited)
			}
			continue
		}

		tracker.Update(isSpeech, frameDur)
		phrase.Append(frame)
		if tracker.ShouldEndRecording() || tracker.ShouldDiscard() || tracker.PhraseLimitReached() {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.KindCanceled, listenOp, "listen cancelled")
	}
	if !tracker.Started() {
		return nil, apperror.New(apperror.KindCapture, listenOp, "no speech detected")
	}
	if !tracker.IsValidSpeech() {
		return nil, apperror.New(apperror.KindCapture, listenOp, "speech too short").
			WithDetail("speech", tracker.State().SpeechDuration)
	}

	l.logger.Debug("Phrase recorded",
		"audio", phrase.Duration(),
		"speech", tracker.State().SpeechDuration,
	)
	return phrase.Samples(), nil
}

// Close releases the detector and transcriber
func (l *Listener) Close() error {
	return errors.Join(l.detector.Close(), l.transcriber.Close())
}
