// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     tts
// Description: Piper TTS with PortAudio playback
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package tts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

const piperDefaultSampleRate = 22050

// Piper implements text-to-speech using Piper models
type Piper struct {
	binaryPath string
	modelDir   string
	voice      Voice
	sampleRate int
	player     Player
	run        runner
}

// NewPiper creates a new Piper engine
func NewPiper(cfg Config, player Player) (*Piper, error) {
	if player == nil {
		return nil, errors.New("piper needs an audio player")
	}
	binaryPath := cfg.BinaryPath
	if binaryPath == "" {
		path, err := exec.LookPath("piper")
		if err != nil {
			return nil, fmt.Errorf("piper binary not found: %w", err)
		}
		binaryPath = path
	}
	return &Piper{
		binaryPath: binaryPath,
		modelDir:   cfg.ModelDir,
		sampleRate: piperDefaultSampleRate,
		player:     player,
		run:        runCommand,
	}, nil
}

// Name returns the engine name
func (p *Piper) Name() string {
	return EnginePiper
}

// Voices lists the *.onnx models in the model directory
func (p *Piper) Voices(ctx context.Context) ([]Voice, error) {
	return listPiperVoices(p.modelDir)
}

// SetVoice pins the model used by Speak and reads its sample rate
func (p *Piper) SetVoice(v Voice) {
	p.voice = v
	p.sampleRate = piperSampleRate(v.ModelPath + ".json")
}

// Speak synthesizes raw PCM and plays it
func (p *Piper) Speak(ctx context.Context, text string) error {
	if p.voice.ModelPath == "" {
		return errors.New("no piper voice selected")
	}

	args := []string{"--model", p.voice.ModelPath, "--output_raw"}
	if _, err := os.Stat(p.voice.ModelPath + ".json"); err == nil {
		args = append(args, "--config", p.voice.ModelPath+".json")
	}

	pcm, err := p.run(ctx, text, p.binaryPath, args...)
	if err != nil {
		return err
	}
	if len(pcm) == 0 {
		return errors.New("piper produced no audio")
	}
	return p.player.PlayPCM16(ctx, pcm, p.sampleRate)
}

// Close releases resources
func (p *Piper) Close() error {
	return nil
}

// listPiperVoices reads names like pl_PL-gosia-medium.onnx
func listPiperVoices(dir string) ([]Voice, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read voices directory: %w", err)
	}

	var voices []Voice
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".onnx") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".onnx")
		lang := name
		if idx := strings.Index(name, "-"); idx != -1 {
			lang = name[:idx]
		}
		voices = append(voices, Voice{
			ID:        name,
			Name:      name,
			Language:  lang,
			ModelPath: filepath.Join(dir, entry.Name()),
		})
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].ID < voices[j].ID })
	return voices, nil
}

// piperSampleRate reads audio.sample_rate from a model config
func piperSampleRate(configPath string) int {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return piperDefaultSampleRate
	}
	var cfg struct {
		Audio struct {
			SampleRate int `json:"sample_rate"`
		} `json:"audio"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.Audio.SampleRate <= 0 {
		return piperDefaultSampleRate
	}
	return cfg.Audio.SampleRate
}
