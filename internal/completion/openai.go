// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     completion
// Description: OpenAI legacy completions through go-openai
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package completion

import (
	"context"
	"encoding/json"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/msto63/aichat/pkg/core/apperror"
	"github.com/msto63/aichat/pkg/core/logging"
)

// OpenAI calls the /completions endpoint of an OpenAI compatible API
type OpenAI struct {
	client *openai.Client
	params Params
	logger *logging.Logger
}

// NewOpenAI creates a new OpenAI completion client
func NewOpenAI(cfg Config) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = newHTTPClient(cfg.Timeout)

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		params: cfg.Params,
		logger: logging.New("completion.openai"),
	}
}

// Complete returns choices[0].text
func (c *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.CompletionRequest{
		Model:       c.params.Model,
		Prompt:      prompt,
		N:           c.params.NumResults,
		MaxTokens:   c.params.MaxTokens,
		Stop:        c.params.StopSequences,
		TopP:        float32(c.params.TopP),
		Temperature: float32(c.params.Temperature),
	}

	resp, err := c.client.CreateCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperror.Malformed(operation, "missing choices")
	}

	c.logger.Debug("Completion done",
		"id", resp.ID,
		"finish", resp.Choices[0].FinishReason,
		"tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Text, nil
}

func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		if appErr := apperror.FromStatus(operation, apiErr.HTTPStatusCode, []byte(apiErr.Message)); appErr != nil {
			return appErr
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		if appErr := apperror.FromStatus(operation, reqErr.HTTPStatusCode, []byte(reqErr.Error())); appErr != nil {
			return appErr
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apperror.Wrap(err, apperror.KindMalformedResponse, operation, "invalid JSON")
	}
	if errors.Is(err, openai.ErrCompletionUnsupportedModel) {
		return apperror.Wrap(err, apperror.KindConfig, operation, "model does not support completions")
	}
	return apperror.FromTransport(operation, err)
}
