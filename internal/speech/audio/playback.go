// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     audio
// Description: Audio playback using PortAudio
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Playback plays synthesized PCM to an output device
type Playback struct {
	mu         sync.Mutex
	deviceName string
	playing    bool
}

// NewPlayback creates a playback for an output device (empty = default)
func NewPlayback(deviceName string) *Playback {
	return &Playback{deviceName: deviceName}
}

// PlayPCM16 plays mono little-endian 16-bit PCM and returns when playback
// has finished or ctx is done.
func (p *Playback) PlayPCM16(ctx context.Context, data []byte, sampleRate int) error {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return errors.New("already playing")
	}
	p.playing = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
	}()

	return p.playFloat32(ctx, PCM16ToFloat(data), float64(sampleRate))
}

// PlayWAV plays a WAV file held in memory
func (p *Playback) PlayWAV(ctx context.Context, data []byte) error {
	sampleRate, pcm, err := DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("failed to parse WAV: %w", err)
	}
	return p.PlayPCM16(ctx, pcm, sampleRate)
}

func (p *Playback) playFloat32(ctx context.Context, samples []float32, sampleRate float64) error {
	const bufferSize = 1024
	buffer := make([]float32, bufferSize)

	stream, err := p.openStream(buffer, sampleRate, bufferSize)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer stream.Stop()

	for position := 0; position < len(samples); position += bufferSize {
		if err := ctx.Err(); err != nil {
			stream.Abort()
			return err
		}
		for i := range buffer {
			if position+i < len(samples) {
				buffer[i] = samples[position+i]
			} else {
				buffer[i] = 0
			}
		}
		if err := stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return fmt.Errorf("failed to write to stream: %w", err)
		}
	}
	return nil
}

func (p *Playback) openStream(buffer []float32, sampleRate float64, bufferSize int) (*portaudio.Stream, error) {
	if IsDefaultDevice(p.deviceName) {
		stream, err := portaudio.OpenDefaultStream(0, 1, sampleRate, bufferSize, buffer)
		if err != nil {
			return nil, fmt.Errorf("failed to open output stream: %w", err)
		}
		return stream, nil
	}

	device, err := findOutputDevice(p.deviceName)
	if err != nil {
		return nil, err
	}
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultHighOutputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: bufferSize,
	}
	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream on %q: %w", p.deviceName, err)
	}
	return stream, nil
}

// IsPlaying returns whether audio is currently playing
func (p *Playback) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}
