// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     stt
// Description: Whisper STT using the whisper.cpp CLI or an HTTP server
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/msto63/aichat/internal/speech/audio"
	"github.com/msto63/aichat/pkg/core/apperror"
	"github.com/msto63/aichat/pkg/core/logging"
	"github.com/msto63/aichat/pkg/core/version"
)

// WhisperCLI implements speech-to-text using whisper.cpp CLI
type WhisperCLI struct {
	binaryPath string
	modelPath  string
	language   string
	sampleRate int
	tempDir    string
	logger     *logging.Logger
}

// NewWhisperCLI creates a new Whisper CLI transcriber
func NewWhisperCLI(cfg Config) (*WhisperCLI, error) {
	binaryPath := cfg.BinaryPath
	if binaryPath == "" {
		binaryPath = FindWhisperBinary()
	}
	if binaryPath == "" {
		return nil, errors.New("whisper binary not found")
	}

	if cfg.ModelPath == "" {
		return nil, errors.New("whisper model path is required")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	tempDir, err := os.MkdirTemp("", "aichat-whisper-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	if cfg.SampleRate == 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}

	return &WhisperCLI{
		binaryPath: binaryPath,
		modelPath:  cfg.ModelPath,
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		tempDir:    tempDir,
		logger:     logging.New("whisper-stt"),
	}, nil
}

// FindWhisperBinary looks for whisper-cli, then whisper, on PATH and in
// common install locations
func FindWhisperBinary() string {
	for _, name := range []string{"whisper-cli", "whisper"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	locations := []string{
		"/opt/homebrew/bin/whisper-cli",
		"/opt/homebrew/bin/whisper",
		"/usr/local/bin/whisper-cli",
		"/usr/local/bin/whisper",
		"/usr/bin/whisper",
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Transcribe writes the samples to a temporary WAV file and runs whisper on it
func (w *WhisperCLI) Transcribe(ctx context.Context, samples []float32) (Result, error) {
	wavPath := filepath.Join(w.tempDir, fmt.Sprintf("audio_%d.wav", time.Now().UnixNano()))
	if err := os.WriteFile(wavPath, audio.EncodeWAV(samples, w.sampleRate), 0o600); err != nil {
		return Result{}, fmt.Errorf("failed to write WAV file: %w", err)
	}
	defer os.Remove(wavPath)

	args := []string{
		"--model", w.modelPath,
		"--language", w.language,
		"--no-prints",
		"--no-timestamps",
		wavPath,
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, w.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("whisper failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	text := CleanTranscript(stdout.String())
	w.logger.Debug("Transcription complete", "duration", time.Since(start), "chars", len(text))

	return Result{
		Text:     text,
		Language: w.language,
		Duration: audio.SamplesDuration(len(samples), w.sampleRate),
	}, nil
}

// Close releases resources
func (w *WhisperCLI) Close() error {
	if w.tempDir != "" {
		return os.RemoveAll(w.tempDir)
	}
	return nil
}

// CleanTranscript joins whisper output lines, stripping timestamp prefixes
// like "[00:00:00.000 --> 00:00:05.000]" and blank-audio markers
func CleanTranscript(out string) string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.Contains(line, "-->") {
			if idx := strings.Index(line, "]"); idx != -1 {
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		if line == "[BLANK_AUDIO]" {
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}

// WhisperHTTP implements speech-to-text using a Whisper HTTP server
// (whisper.cpp server, go-whisper or LocalAI)
type WhisperHTTP struct {
	baseURL    string
	language   string
	sampleRate int
	client     *http.Client
}

// NewWhisperHTTP creates a new Whisper HTTP client
func NewWhisperHTTP(cfg Config) *WhisperHTTP {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &WhisperHTTP{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Transcribe posts the samples as a WAV body
func (w *WhisperHTTP) Transcribe(ctx context.Context, samples []float32) (Result, error) {
	wav := audio.EncodeWAV(samples, w.sampleRate)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/v1/audio/transcriptions", bytes.NewReader(wav))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("User-Agent", version.UserAgent())

	q := req.URL.Query()
	q.Add("language", w.language)
	req.URL.RawQuery = q.Encode()

	resp, err := w.client.Do(req)
	if err != nil {
		return Result{}, apperror.FromTransport(operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, apperror.FromTransport(operation, fmt.Errorf("read body: %w", err))
	}
	if appErr := apperror.FromStatus(operation, resp.StatusCode, body); appErr != nil {
		return Result{}, appErr
	}

	var response struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return Result{}, apperror.Wrap(err, apperror.KindMalformedResponse, operation, "invalid JSON")
	}

	return Result{
		Text:     strings.TrimSpace(response.Text),
		Language: w.language,
		Duration: audio.SamplesDuration(len(samples), w.sampleRate),
	}, nil
}

// Close releases resources
func (w *WhisperHTTP) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
