// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     tts
// Description: Text-to-Speech engines and voice selection
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/msto63/aichat/pkg/core/apperror"
)

const operation = "speak"

// Engine names
const (
	EngineAuto   = "auto"
	EngineSay    = "say"
	EngineEspeak = "espeak-ng"
	EnginePiper  = "piper"
)

// Engine is the interface for text-to-speech engines
type Engine interface {
	// Name returns the engine name
	Name() string

	// Voices lists the installed voices
	Voices(ctx context.Context) ([]Voice, error)

	// SetVoice pins the voice used by Speak
	SetVoice(v Voice)

	// Speak renders text and returns when playback has finished
	Speak(ctx context.Context, text string) error

	// Close releases resources
	Close() error
}

// Voice describes an installed voice
type Voice struct {
	// ID is what the engine expects to select the voice
	ID string

	// Name is the display name
	Name string

	// Language is the locale as reported by the engine (pl_PL, pl, ...)
	Language string

	// ModelPath is the model file for model-based engines
	ModelPath string
}

// String renders the voice for listings
func (v Voice) String() string {
	if v.Name == v.ID || v.Name == "" {
		return fmt.Sprintf("%s (%s)", v.ID, v.Language)
	}
	return fmt.Sprintf("%s - %s (%s)", v.ID, v.Name, v.Language)
}

// Player plays raw mono 16-bit PCM
type Player interface {
	PlayPCM16(ctx context.Context, data []byte, sampleRate int) error
}

// Config holds TTS configuration
type Config struct {
	// Engine is auto, say, espeak-ng or piper
	Engine string

	// Rate is the speaking rate in words per minute
	Rate int

	// BinaryPath is the piper executable (empty = search PATH)
	BinaryPath string

	// ModelDir holds piper *.onnx voices
	ModelDir string
}

// New creates the engine selected by cfg.Engine. Piper needs a player.
func New(cfg Config, player Player) (Engine, error) {
	engine := ResolveEngine(cfg.Engine, runtime.GOOS, lookPath)
	switch engine {
	case EngineSay:
		return NewMacOSSay(cfg.Rate), nil
	case EngineEspeak:
		return NewEspeak(cfg.Rate), nil
	case EnginePiper:
		p, err := NewPiper(cfg, player)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, apperror.Newf(apperror.KindConfig, operation, "unknown speech engine %q", cfg.Engine)
	}
}

// ResolveEngine maps "auto" to a concrete engine: say on darwin, espeak-ng
// when installed, piper otherwise
func ResolveEngine(engine, goos string, look func(string) bool) string {
	if engine != "" && engine != EngineAuto {
		return engine
	}
	if goos == "darwin" && look("say") {
		return EngineSay
	}
	if look("espeak-ng") {
		return EngineEspeak
	}
	return EnginePiper
}

// SelectVoice picks the voice whose ID or name equals want
// (case-insensitive), or the first voice matching locale when want is empty
func SelectVoice(voices []Voice, want, locale string) (Voice, error) {
	if want != "" {
		for _, v := range voices {
			if strings.EqualFold(v.ID, want) || strings.EqualFold(v.Name, want) {
				return v, nil
			}
		}
		return Voice{}, apperror.Newf(apperror.KindSynthesis, operation, "voice %q is not installed", want).
			WithDetail("voices", len(voices))
	}

	for _, v := range voices {
		if MatchLocale(v.Language, locale) {
			return v, nil
		}
	}
	return Voice{}, apperror.Newf(apperror.KindSynthesis, operation, "no voice installed for locale %q", locale).
		WithDetail("voices", len(voices))
}

// MatchLocale reports whether a voice language belongs to locale.
// When both carry a region they must be equal; otherwise the primary
// language decides, so pl, pl_PL and pl-PL all match each other.
func MatchLocale(language, locale string) bool {
	lang := normalizeLocale(language)
	want := normalizeLocale(locale)
	if lang == "" || want == "" {
		return false
	}
	if lang == want {
		return true
	}
	langBase, langRegion, _ := strings.Cut(lang, "-")
	wantBase, wantRegion, _ := strings.Cut(want, "-")
	if langRegion != "" && wantRegion != "" {
		return false
	}
	return langBase == wantBase
}

func normalizeLocale(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
}

func lookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// runner executes a command with optional stdin and returns stdout
type runner func(ctx context.Context, stdin, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, stdin, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return stdout.Bytes(), nil
}
