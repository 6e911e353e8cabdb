// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     completion
// Description: AI21 Studio completion client
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
	"net/url"
	"strings"
	"time"

	"github.com/msto63/aichat/pkg/core/apperror"
	"github.com/msto63/aichat/pkg/core/logging"
	"github.com/msto63/aichat/pkg/core/version"
)

// AI21 calls the AI21 Studio /complete endpoint
type AI21 struct {
	baseURL    string
	apiKey     string
	params     Params
	httpClient *http.Client
	logger     *logging.Logger
}

// NewAI21 creates a new AI21 client
func NewAI21(cfg Config) *AI21 {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.ai21.com"
	}
	if cfg.Params.Model == "" {
		cfg.Params.Model = DefaultParams().Model
	}
	return &AI21{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		params:     cfg.Params,
		httpClient: newHTTPClient(cfg.Timeout),
		logger:     logging.New("completion.ai21"),
	}
}

// ai21Request is the /complete request body
type ai21Request struct {
	Prompt        string   `json:"prompt"`
	NumResults    int      `json:"numResults"`
	MaxTokens     int      `json:"maxTokens"`
	StopSequences []string `json:"stopSequences"`
	TopKReturn    int      `json:"topKReturn"`
	TopP          float64  `json:"topP"`
	Temperature   float64  `json:"temperature"`
}

type ai21Response struct {
	ID          string `json:"id"`
	Completions []struct {
		Data *struct {
			Text *string `json:"text"`
		} `json:"data"`
		FinishReason struct {
			Reason string `json:"reason"`
		} `json:"finishReason"`
	} `json:"completions"`
}

// Complete returns completions[0].data.text unchanged
func (c *AI21) Complete(ctx context.Context, prompt string) (string, error) {
	req := ai21Request{
		Prompt:        prompt,
		NumResults:    c.params.NumResults,
		MaxTokens:     c.params.MaxTokens,
		StopSequences: c.params.StopSequences,
		TopKReturn:    c.params.TopKReturn,
		TopP:          c.params.TopP,
		Temperature:   c.params.Temperature,
	}
	if req.StopSequences == nil {
		req.StopSequences = []string{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/studio/v1/%s/complete", c.baseURL, url.PathEscape(c.params.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperror.Wrap(err, apperror.KindConfig, operation, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
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
		c.logger.Warn("Completion rejected", "status", resp.StatusCode)
		return "", appErr
	}

	var result ai21Response
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", apperror.Wrap(err, apperror.KindMalformedResponse, operation, "invalid JSON")
	}
	if len(result.Completions) == 0 {
		return "", apperror.Malformed(operation, "missing completions")
	}
	first := result.Completions[0]
	if first.Data == nil || first.Data.Text == nil {
		return "", apperror.Malformed(operation, "missing completions[0].data.text")
	}

	c.logger.Debug("Completion done",
		"id", result.ID,
		"finish", first.FinishReason.Reason,
		"params", describe(c.params),
		"duration", time.Since(start),
	)
	return *first.Data.Text, nil
}
