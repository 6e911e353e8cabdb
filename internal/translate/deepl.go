// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     translate
// Description: DeepL translation client
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package translate

import (
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

const operation = "translate"

// Translator translates text between two language codes
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// DeepLConfig holds DeepL client configuration
type DeepLConfig struct {
	BaseURL string
	AuthKey string
	Timeout time.Duration
}

// DefaultDeepLConfig returns the free API endpoint configuration
func DefaultDeepLConfig() DeepLConfig {
	return DeepLConfig{
		BaseURL: "https://api-free.deepl.com",
		Timeout: 15 * time.Second,
	}
}

// DeepL is a client for the DeepL v2 REST API
type DeepL struct {
	baseURL    string
	authKey    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewDeepL creates a new DeepL client
func NewDeepL(cfg DeepLConfig) *DeepL {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultDeepLConfig().BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultDeepLConfig().Timeout
	}
	return &DeepL{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		authKey: cfg.AuthKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logging.New("translate"),
	}
}

type translateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string  `json:"detected_source_language"`
		Text                   *string `json:"text"`
	} `json:"translations"`
}

// Translate sends text to DeepL and returns translations[0].text unchanged.
func (d *DeepL) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.EqualFold(sourceLang, targetLang) {
		return text, nil
	}

	form := url.Values{}
	form.Set("source_lang", strings.ToUpper(sourceLang))
	form.Set("target_lang", strings.ToUpper(targetLang))
	form.Set("auth_key", d.authKey)
	form.Set("text", text)

	start := time.Now()
	body, err := d.post(ctx, "/v2/translate", form)
	if err != nil {
		d.logger.Warn("Translation failed", "source", sourceLang, "target", targetLang, "error", err)
		return "", err
	}

	var resp translateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperror.Wrap(err, apperror.KindMalformedResponse, operation, "invalid JSON")
	}
	if resp.Translations == nil {
		return "", apperror.Malformed(operation, "missing translations")
	}
	if len(resp.Translations) == 0 {
		return "", apperror.Malformed(operation, "empty translations")
	}
	if resp.Translations[0].Text == nil {
		return "", apperror.Malformed(operation, "missing translations[0].text")
	}

	result := *resp.Translations[0].Text
	d.logger.Debug("Translation done",
		"source", sourceLang,
		"target", targetLang,
		"chars", len(text),
		"duration", time.Since(start),
	)
	return result, nil
}

// Usage holds the character quota of the account
type Usage struct {
	CharacterCount int64 `json:"character_count"`
	CharacterLimit int64 `json:"character_limit"`
}

// Usage queries /v2/usage. It validates the key without spending quota.
func (d *DeepL) Usage(ctx context.Context) (Usage, error) {
	form := url.Values{}
	form.Set("auth_key", d.authKey)

	body, err := d.post(ctx, "/v2/usage", form)
	if err != nil {
		return Usage{}, err
	}

	var usage Usage
	if err := json.Unmarshal(body, &usage); err != nil {
		return Usage{}, apperror.Wrap(err, apperror.KindMalformedResponse, operation, "invalid usage JSON")
	}
	return usage, nil
}

func (d *DeepL) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindConfig, operation, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperror.FromTransport(operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.FromTransport(operation, fmt.Errorf("read body: %w", err))
	}

	if appErr := apperror.FromStatus(operation, resp.StatusCode, body); appErr != nil {
		return nil, appErr
	}
	return body, nil
}
