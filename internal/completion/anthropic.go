// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     completion
// Description: Anthropic Messages API through anthropic-sdk-go
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package completion

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/msto63/aichat/pkg/core/apperror"
	"github.com/msto63/aichat/pkg/core/logging"
)

// Anthropic sends the prompt as a single user message
type Anthropic struct {
	client anthropic.Client
	params Params
	logger *logging.Logger
}

// NewAnthropic creates a new Anthropic client. The SDK's retries are
// disabled; every failure is reported to the user instead.
func NewAnthropic(cfg Config) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(newHTTPClient(cfg.Timeout)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Anthropic{
		client: anthropic.NewClient(opts...),
		params: cfg.Params,
		logger: logging.New("completion.anthropic"),
	}
}

// apiStopSequences drops whitespace-only sequences, which the API rejects
func apiStopSequences(stops []string) []string {
	var out []string
	for _, s := range stops {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Complete returns the text of the reply, cut at the first stop sequence
func (c *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.params.Model),
		MaxTokens: int64(c.params.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.params.Temperature > 0 {
		params.Temperature = anthropic.Float(c.params.Temperature)
	}
	if stops := apiStopSequences(c.params.StopSequences); len(stops) > 0 {
		params.StopSequences = stops
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyAnthropic(err)
	}

	var text strings.Builder
	found := false
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
			found = true
		}
	}
	if !found {
		return "", apperror.Malformed(operation, "no text content")
	}

	c.logger.Debug("Completion done",
		"id", resp.ID,
		"stop_reason", string(resp.StopReason),
		"tokens", resp.Usage.OutputTokens,
	)
	return cutAtStop(text.String(), c.params.StopSequences), nil
}

func classifyAnthropic(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if appErr := apperror.FromStatus(operation, apiErr.StatusCode, []byte(apiErr.Error())); appErr != nil {
			return appErr
		}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return apperror.Wrap(err, apperror.KindMalformedResponse, operation, "invalid JSON")
	}
	return apperror.FromTransport(operation, err)
}
