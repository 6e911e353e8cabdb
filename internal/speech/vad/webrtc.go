// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     vad
// Description: WebRTC VAD implementation
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

var validRates = []int{8000, 16000, 32000, 48000}

// WebRTCVAD implements voice activity detection using WebRTC's VAD
type WebRTCVAD struct {
	vad        *webrtcvad.VAD
	sampleRate int
	mode       int
}

// NewWebRTCVAD creates a new WebRTC VAD instance
func NewWebRTCVAD(cfg Config) (*WebRTCVAD, error) {
	if err := ValidateSampleRate(cfg.SampleRate); err != nil {
		return nil, err
	}
	if cfg.Mode < 0 || cfg.Mode > 3 {
		return nil, fmt.Errorf("mode must be between 0 and 3, got %d", cfg.Mode)
	}

	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD: %w", err)
	}
	if err := vad.SetMode(cfg.Mode); err != nil {
		return nil, fmt.Errorf("failed to set VAD mode: %w", err)
	}

	return &WebRTCVAD{
		vad:        vad,
		sampleRate: cfg.SampleRate,
		mode:       cfg.Mode,
	}, nil
}

// ValidateSampleRate checks that the VAD supports the rate
func ValidateSampleRate(rate int) error {
	for _, r := range validRates {
		if rate == r {
			return nil
		}
	}
	return fmt.Errorf("invalid sample rate %d, must be one of %v", rate, validRates)
}

// Process reports whether any 10ms frame of samples carries speech
func (w *WebRTCVAD) Process(samples []float32) (bool, error) {
	frameSize := w.sampleRate / 100

	pcm := toPCM16(samples)
	if len(pcm) < frameSize {
		padded := make([]int16, frameSize)
		copy(padded, pcm)
		pcm = padded
	}

	for i := 0; i+frameSize <= len(pcm); i += frameSize {
		active, err := w.vad.Process(w.sampleRate, int16ToBytes(pcm[i:i+frameSize]))
		if err != nil {
			return false, fmt.Errorf("VAD processing failed: %w", err)
		}
		if active {
			return true, nil
		}
	}

	return false, nil
}

// Close releases resources
func (w *WebRTCVAD) Close() error {
	return nil
}

// Mode returns the current aggressiveness mode
func (w *WebRTCVAD) Mode() int {
	return w.mode
}

// SampleRate returns the sample rate
func (w *WebRTCVAD) SampleRate() int {
	return w.sampleRate
}

func toPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		out[i] = int16(s * 32767)
	}
	return out
}

// int16ToBytes converts int16 slice to bytes (little-endian)
func int16ToBytes(samples []int16) []byte {
	bytes := make([]byte, len(samples)*2)
	for i, s := range samples {
		bytes[i*2] = byte(s)
		bytes[i*2+1] = byte(s >> 8)
	}
	return bytes
}
