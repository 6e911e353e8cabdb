// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     audio
// Description: Sample buffers
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package audio

import "time"

// RingBuffer keeps the most recent samples up to its capacity. It is used
// as pre-roll so the start of an utterance survives speech detection latency.
// Not safe for concurrent use.
type RingBuffer struct {
	data     []float32
	size     int
	writePos int
	count    int
}

// NewRingBuffer creates a new ring buffer with the specified capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{
		data: make([]float32, capacity),
		size: capacity,
	}
}

// Write writes samples, overwriting the oldest ones when full
func (rb *RingBuffer) Write(samples []float32) {
	for _, s := range samples {
		rb.data[rb.writePos] = s
		rb.writePos = (rb.writePos + 1) % rb.size
		if rb.count < rb.size {
			rb.count++
		}
	}
}

// ReadAll returns all samples from oldest to newest and empties the buffer
func (rb *RingBuffer) ReadAll() []float32 {
	samples := make([]float32, rb.count)
	start := (rb.writePos - rb.count + rb.size) % rb.size
	for i := 0; i < rb.count; i++ {
		samples[i] = rb.data[(start+i)%rb.size]
	}
	rb.count = 0
	return samples
}

// Len returns the number of samples in the buffer
func (rb *RingBuffer) Len() int {
	return rb.count
}

// Cap returns the capacity of the buffer
func (rb *RingBuffer) Cap() int {
	return rb.size
}

// Buffer collects the samples of one utterance. Not safe for concurrent use.
type Buffer struct {
	samples    []float32
	sampleRate int
}

// NewBuffer creates a buffer pre-allocated for ~10 seconds of audio
func NewBuffer(sampleRate int) *Buffer {
	return &Buffer{
		samples:    make([]float32, 0, sampleRate*10),
		sampleRate: sampleRate,
	}
}

// Append adds samples to the buffer
func (b *Buffer) Append(samples []float32) {
	b.samples = append(b.samples, samples...)
}

// Samples returns the collected samples
func (b *Buffer) Samples() []float32 {
	return b.samples
}

// Len returns the number of samples
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Duration returns the audio length
func (b *Buffer) Duration() time.Duration {
	return SamplesDuration(len(b.samples), b.sampleRate)
}

// Clear empties the buffer, keeping its capacity
func (b *Buffer) Clear() {
	b.samples = b.samples[:0]
}

// SamplesDuration converts a sample count to audio time
func SamplesDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(sampleRate)
}

// DurationSamples converts audio time to a sample count
func DurationSamples(d time.Duration, sampleRate int) int {
	return int(d * time.Duration(sampleRate) / time.Second)
}
