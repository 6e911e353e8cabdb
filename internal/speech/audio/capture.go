// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     audio
// Description: Microphone capture using PortAudio
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

const (
	// DefaultSampleRate is the default sample rate for audio capture (16kHz for Whisper)
	DefaultSampleRate = 16000

	// DefaultFramesPerBuffer is 30ms at 16kHz, a valid WebRTC VAD frame
	DefaultFramesPerBuffer = 480

	// DefaultChannels is mono audio
	DefaultChannels = 1
)

// ErrBusy is returned when a second session is started on the same device
var ErrBusy = errors.New("capture already running")

// Host owns the PortAudio library for the lifetime of the process
type Host struct {
	mu          sync.Mutex
	initialized bool
}

// OpenHost initializes PortAudio
func OpenHost() (*Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &Host{initialized: true}, nil
}

// Close terminates PortAudio
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return nil
	}
	h.initialized = false
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	SampleRate float64
	BufferSize int
	Channels   int
	DeviceName string // Name of the input device (empty = default)
}

// DefaultCaptureConfig returns default capture configuration
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultFramesPerBuffer,
		Channels:   DefaultChannels,
	}
}

// Capture reads frames from a microphone. The device is opened by Start and
// released when the session ends, so it is held only while listening.
type Capture struct {
	mu     sync.Mutex
	cfg    CaptureConfig
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCapture creates a capture for an initialized host
func NewCapture(host *Host, cfg CaptureConfig) (*Capture, error) {
	if host == nil {
		return nil, errors.New("audio host not initialized")
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultFramesPerBuffer
	}
	if cfg.Channels == 0 {
		cfg.Channels = DefaultChannels
	}
	return &Capture{cfg: cfg}, nil
}

// Start opens the device and streams frames until ctx ends or Stop is
// called. The channel is closed when the device has been released.
func (c *Capture) Start(ctx context.Context) (<-chan []float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		return nil, ErrBusy
	}

	buffer := make([]float32, c.cfg.BufferSize*c.cfg.Channels)
	stream, err := c.openStream(buffer)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []float32, 64)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go c.captureLoop(ctx, stream, buffer, out, done)
	return out, nil
}

func (c *Capture) openStream(buffer []float32) (*portaudio.Stream, error) {
	if IsDefaultDevice(c.cfg.DeviceName) {
		stream, err := portaudio.OpenDefaultStream(c.cfg.Channels, 0, c.cfg.SampleRate, c.cfg.BufferSize, buffer)
		if err != nil {
			return nil, fmt.Errorf("failed to open audio stream: %w", err)
		}
		return stream, nil
	}

	device, err := findInputDevice(c.cfg.DeviceName)
	if err != nil {
		return nil, err
	}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: c.cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      c.cfg.SampleRate,
		FramesPerBuffer: c.cfg.BufferSize,
	}
	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream on %q: %w", c.cfg.DeviceName, err)
	}
	return stream, nil
}

// captureLoop owns the stream; it stops and closes it on exit.
func (c *Capture) captureLoop(ctx context.Context, stream *portaudio.Stream, buffer []float32, out chan<- []float32, done chan struct{}) {
	defer func() {
		stream.Stop()
		stream.Close()
		close(out)

		c.mu.Lock()
		c.done = nil
		c.cancel = nil
		c.mu.Unlock()
		close(done)
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		if err := stream.Read(); err != nil {
			// Input overflow drops a buffer; anything else ends the session.
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			return
		}

		samples := downmix(buffer, c.cfg.Channels)

		select {
		case out <- samples:
		case <-ctx.Done():
			return
		default:
			// Consumer is behind, skip this buffer
		}
	}
}

// Stop ends the running session and waits until the device is released
func (c *Capture) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SampleRate returns the sample rate
func (c *Capture) SampleRate() int {
	return int(c.cfg.SampleRate)
}

// downmix copies the buffer, averaging interleaved channels to mono
func downmix(buffer []float32, channels int) []float32 {
	if channels <= 1 {
		samples := make([]float32, len(buffer))
		copy(samples, buffer)
		return samples
	}
	n := len(buffer) / channels
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += buffer[i*channels+ch]
		}
		samples[i] = sum / float32(channels)
	}
	return samples
}
