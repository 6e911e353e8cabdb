// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     stt
// Description: Speech-to-Text interface
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package stt

import (
	"context"
	"fmt"
	"time"
)

const operation = "transcribe"

// Transcriber is the interface for speech-to-text engines
type Transcriber interface {
	// Transcribe converts mono float samples to text
	Transcribe(ctx context.Context, samples []float32) (Result, error)

	// Close releases resources
	Close() error
}

// Result holds the transcription result
type Result struct {
	// Text is the transcribed text
	Text string

	// Language is the reported or requested language
	Language string

	// Duration is the audio duration reported by the engine
	Duration time.Duration
}

// Config holds STT configuration
type Config struct {
	// Engine selects the backend: whisper, whisper-http or voxtral
	Engine string

	// Language is the fixed source language (e.g. "pl")
	Language string

	// SampleRate is the audio sample rate
	SampleRate int

	// BinaryPath is the whisper.cpp executable (empty = search PATH)
	BinaryPath string

	// ModelPath is the whisper.cpp model file
	ModelPath string

	// BaseURL is the server URL for HTTP engines
	BaseURL string

	// Model is the model name for Voxtral
	Model string

	// Timeout bounds one transcription
	Timeout time.Duration
}

// DefaultConfig returns default STT configuration
func DefaultConfig() Config {
	return Config{
		Engine:     "whisper",
		Language:   "pl",
		SampleRate: 16000,
		Timeout:    60 * time.Second,
	}
}

// New creates the transcriber selected by cfg.Engine
func New(cfg Config) (Transcriber, error) {
	switch cfg.Engine {
	case "", "whisper":
		w, err := NewWhisperCLI(cfg)
		if err != nil {
			return nil, err
		}
		return w, nil
	case "whisper-http":
		return NewWhisperHTTP(cfg), nil
	case "voxtral":
		return NewVoxtral(cfg), nil
	default:
		return nil, fmt.Errorf("unknown capture engine %q", cfg.Engine)
	}
}
