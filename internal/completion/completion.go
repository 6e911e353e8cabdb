// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     completion
// Description: Text completion providers
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/msto63/aichat/pkg/core/apperror"
	"github.com/msto63/aichat/pkg/core/config"
)

const operation = "complete"

// Completer returns the first completion of a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Params are the sampling parameters sent with every prompt
type Params struct {
	Model         string
	NumResults    int
	MaxTokens     int
	StopSequences []string
	TopKReturn    int
	TopP          float64
	Temperature   float64
}

// DefaultParams returns one result, 64 tokens, newline stop, top-p 1.0 and
// temperature 0.7.
func DefaultParams() Params {
	return Params{
		Model:         "j1-jumbo",
		NumResults:    1,
		MaxTokens:     64,
		StopSequences: []string{"\n"},
		TopKReturn:    0,
		TopP:          1.0,
		Temperature:   0.7,
	}
}

// Config selects and configures a provider
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Params   Params
}

// ConfigFrom builds a provider configuration from the application config
func ConfigFrom(cfg *config.Config, creds config.Credentials) Config {
	c := cfg.Completion
	var key string
	switch c.Provider {
	case config.ProviderAI21:
		key = creds.AI21Token
	case config.ProviderOpenAI:
		key = creds.OpenAIKey
	case config.ProviderAnthropic:
		key = creds.AnthropicKey
	}
	return Config{
		Provider: c.Provider,
		BaseURL:  c.BaseURL,
		APIKey:   key,
		Timeout:  c.Timeout.Duration,
		Params: Params{
			Model:         c.Model,
			NumResults:    c.NumResults,
			MaxTokens:     c.MaxTokens,
			StopSequences: c.StopSequences,
			TopKReturn:    c.TopKReturn,
			TopP:          c.TopP,
			Temperature:   c.Temperature,
		},
	}
}

// New creates the configured provider
func New(cfg Config) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderAI21, "":
		return NewAI21(cfg), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case config.ProviderAnthropic:
		return NewAnthropic(cfg), nil
	case config.ProviderOllama:
		return NewOllama(cfg), nil
	default:
		return nil, apperror.Newf(apperror.KindConfig, operation, "unknown completion provider %q", cfg.Provider)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// cutAtStop truncates text at the earliest stop sequence. Used where the
// provider cannot apply the stop sequences itself.
func cutAtStop(text string, stops []string) string {
	cut := len(text)
	for _, s := range stops {
		if s == "" {
			continue
		}
		if i := strings.Index(text, s); i >= 0 && i < cut {
			cut = i
		}
	}
	return text[:cut]
}

func describe(p Params) string {
	return fmt.Sprintf("model=%s max_tokens=%d temperature=%.2f", p.Model, p.MaxTokens, p.Temperature)
}
