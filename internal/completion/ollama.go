// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     completion
// Description: Ollama generate client for local models
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/msto63/aichat/pkg/core/apperror"
	"github.com/msto63/aichat/pkg/core/logging"
)

// Ollama is a client for the Ollama /api/generate endpoint
type Ollama struct {
	baseURL    string
	params     Params
	httpClient *http.Client
	logger     *logging.Logger
}

// NewOllama creates a new Ollama client
func NewOllama(cfg Config) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	return &Ollama{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		params:     cfg.Params,
		httpClient: newHTTPClient(cfg.Timeout),
		logger:     logging.New("completion.ollama"),
	}
}

// OllamaGenerateRequest represents an Ollama generate request
type OllamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Raw     bool          `json:"raw"`
	Options OllamaOptions `json:"options"`
}

// OllamaOptions holds the sampling options
type OllamaOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p,omitempty"`
}

type ollamaGenerateResponse struct {
	Model    string  `json:"model"`
	Response *string `json:"response"`
	Done     bool    `json:"done"`
}

// Complete sends the prompt without a chat template and returns the response
func (c *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	req := OllamaGenerateRequest{
		Model:  c.params.Model,
		Prompt: prompt,
		Stream: false,
		Raw:    true,
		Options: OllamaOptions{
			NumPredict:  c.params.MaxTokens,
			Stop:        c.params.StopSequences,
			Temperature: c.params.Temperature,
			TopP:        c.params.TopP,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", apperror.Wrap(err, apperror.KindConfig, operation, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apperror.FromTransport(operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperror.FromTransport(operation, fmt.Errorf("read body: %w", err))
	}
	if appErr := apperror.FromStatus(operation, resp.StatusCode, respBody); appErr != nil {
		return "", appErr
	}

	var result ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", apperror.Wrap(err, apperror.KindMalformedResponse, operation, "invalid JSON")
	}
	if result.Response == nil {
		return "", apperror.Malformed(operation, "missing response")
	}

	c.logger.Debug("Completion done", "model", result.Model, "chars", len(*result.Response))
	return *result.Response, nil
}

// HealthCheck checks if Ollama is available
func (c *Ollama) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.FromTransport(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
