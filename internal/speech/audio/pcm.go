// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     audio
// Description: PCM conversion, levels and WAV encoding
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// RMS returns the root mean square level of samples in [-1, 1]
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// FloatToInt16 converts samples to 16-bit PCM, clamping to the valid range
func FloatToInt16(samples []float32) []int16 {
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

// PCM16ToFloat converts little-endian 16-bit PCM bytes to float samples.
// A trailing odd byte is ignored.
func PCM16ToFloat(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// EncodeWAV writes mono 16-bit PCM samples as a WAV file
func EncodeWAV(samples []float32, sampleRate int) []byte {
	pcm := FloatToInt16(samples)
	dataSize := len(pcm) * 2

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))           // chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))            // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1))            // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))   // sample rate
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	binary.Write(&buf, binary.LittleEndian, pcm)

	return buf.Bytes()
}

// DecodeWAV returns the sample rate and PCM payload of a WAV file
func DecodeWAV(data []byte) (int, []byte, error) {
	if len(data) < 44 {
		return 0, nil, errors.New("file too small to be a valid WAV")
	}
	if string(data[0:4]) != "RIFF" {
		return 0, nil, errors.New("not a valid RIFF file")
	}
	if string(data[8:12]) != "WAVE" {
		return 0, nil, errors.New("not a valid WAVE file")
	}

	pos := 12
	var sampleRate uint32
	var dataStart, dataSize int

	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize >= 16 && pos+16 <= len(data) {
				sampleRate = binary.LittleEndian.Uint32(data[pos+12 : pos+16])
			}
		case "data":
			dataStart = pos + 8
			dataSize = chunkSize
		}

		pos += 8 + chunkSize
		if pos%2 != 0 {
			pos++ // Word alignment
		}
	}

	if sampleRate == 0 || dataStart == 0 {
		return 0, nil, fmt.Errorf("missing required WAV chunks")
	}
	if dataStart+dataSize > len(data) {
		dataSize = len(data) - dataStart
	}
	return int(sampleRate), data[dataStart : dataStart+dataSize], nil
}
