// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     vad
// Description: Energy gate calibrated against ambient noise
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package vad

import "math"

// EnergyGate rejects frames quieter than a threshold derived from the
// ambient noise level.
type EnergyGate struct {
	ratio     float64
	minimum   float64
	threshold float64
	ambient   float64
}

// NewEnergyGate creates a gate with the floor as its initial threshold
func NewEnergyGate(ratio, minimum float64) *EnergyGate {
	if ratio <= 0 {
		ratio = 1.5
	}
	return &EnergyGate{
		ratio:     ratio,
		minimum:   minimum,
		threshold: minimum,
	}
}

// Calibrate sets the threshold from the RMS level of ambient samples
func (g *EnergyGate) Calibrate(ambient []float32) float64 {
	g.ambient = rms(ambient)
	g.threshold = math.Max(g.minimum, g.ambient*g.ratio)
	return g.threshold
}

// Pass reports whether the frame is loud enough to count as speech
func (g *EnergyGate) Pass(frame []float32) bool {
	return rms(frame) >= g.threshold
}

// Threshold returns the current threshold
func (g *EnergyGate) Threshold() float64 {
	return g.threshold
}

// Ambient returns the last calibrated ambient level
func (g *EnergyGate) Ambient() float64 {
	return g.ambient
}

func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
