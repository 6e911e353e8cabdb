// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     stt
// Description: Voxtral STT client (via vLLM OpenAI-compatible API)
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/msto63/aichat/internal/speech/audio"
	"github.com/msto63/aichat/pkg/core/apperror"
	"github.com/msto63/aichat/pkg/core/logging"
	"github.com/msto63/aichat/pkg/core/version"
)

const defaultVoxtralModel = "mistralai/Voxtral-Mini-3B-2507"

// Voxtral implements the Transcriber interface using Voxtral via vLLM
type Voxtral struct {
	baseURL    string
	model      string
	language   string
	sampleRate int
	client     *http.Client
	logger     *logging.Logger
}

// NewVoxtral creates a new Voxtral client
func NewVoxtral(cfg Config) *Voxtral {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.Model == "" {
		cfg.Model = defaultVoxtralModel
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Voxtral{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logging.New("voxtral-stt"),
	}
}

type voxtralResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// Transcribe uploads the samples as a multipart WAV file
func (c *Voxtral) Transcribe(ctx context.Context, samples []float32) (Result, error) {
	if len(samples) == 0 {
		return Result{}, fmt.Errorf("no audio samples provided")
	}
	wavData := audio.EncodeWAV(samples, c.sampleRate)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return Result{}, fmt.Errorf("failed to write audio data: %w", err)
	}

	fields := [][2]string{
		{"model", c.model},
		{"response_format", "json"},
		{"temperature", "0"},
	}
	if c.language != "" && c.language != "auto" {
		fields = append(fields, [2]string{"language", c.language})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return Result{}, fmt.Errorf("failed to write %s field: %w", f[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := c.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", version.UserAgent())

	c.logger.Debug("Sending transcription request", "url", url, "size", len(wavData))
	start := time.Now()

	resp, err := c.client.Do(req)
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

	var apiResp voxtralResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Result{}, apperror.Wrap(err, apperror.KindMalformedResponse, operation, "invalid JSON")
	}

	c.logger.Debug("Transcription complete",
		"duration", time.Since(start),
		"text_length", len(apiResp.Text),
		"language", apiResp.Language,
	)

	lang := apiResp.Language
	if lang == "" {
		lang = c.language
	}
	return Result{
		Text:     strings.TrimSpace(apiResp.Text),
		Language: lang,
		Duration: time.Duration(apiResp.Duration * float64(time.Second)),
	}, nil
}

// Close releases resources
func (c *Voxtral) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
