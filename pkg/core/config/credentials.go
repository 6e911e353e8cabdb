// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     config
// Description: Provider credentials from the environment and .env files
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/msto63/aichat/pkg/core/apperror"
)

// Environment variables holding provider secrets
const (
	EnvDeepLToken   = "DEEPL_TOKEN"
	EnvAI21Token    = "AI21_TOKEN"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

// Credentials holds the secrets read once at startup
type Credentials struct {
	DeepLToken   string
	AI21Token    string
	OpenAIKey    string
	AnthropicKey string
}

// LoadDotEnv loads variables from the given .env files. Variables already
// present in the environment win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return apperror.Wrap(err, apperror.KindConfig, "config", "load "+p)
		}
	}
	return nil
}

// CredentialsFromEnv reads the provider secrets from the environment
func CredentialsFromEnv() Credentials {
	return Credentials{
		DeepLToken:   strings.TrimSpace(os.Getenv(EnvDeepLToken)),
		AI21Token:    strings.TrimSpace(os.Getenv(EnvAI21Token)),
		OpenAIKey:    strings.TrimSpace(os.Getenv(EnvOpenAIKey)),
		AnthropicKey: strings.TrimSpace(os.Getenv(EnvAnthropicKey)),
	}
}

// RequiredCredentials lists the variables the configured providers need
func (c *Config) RequiredCredentials() []string {
	var names []string
	if c.Translation.Provider == ProviderDeepL {
		names = append(names, EnvDeepLToken)
	}
	switch c.Completion.Provider {
	case ProviderAI21:
		names = append(names, EnvAI21Token)
	case ProviderOpenAI:
		names = append(names, EnvOpenAIKey)
	case ProviderAnthropic:
		names = append(names, EnvAnthropicKey)
	}
	return names
}

// Lookup returns the secret stored for an environment variable name
func (cr Credentials) Lookup(name string) string {
	switch name {
	case EnvDeepLToken:
		return cr.DeepLToken
	case EnvAI21Token:
		return cr.AI21Token
	case EnvOpenAIKey:
		return cr.OpenAIKey
	case EnvAnthropicKey:
		return cr.AnthropicKey
	default:
		return ""
	}
}

// ValidateCredentials returns a ConfigError naming every missing variable
func (c *Config) ValidateCredentials(creds Credentials) error {
	var missing []string
	for _, name := range c.RequiredCredentials() {
		if creds.Lookup(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return apperror.Newf(apperror.KindConfig, "config", "missing credential: %s", strings.Join(missing, ", ")).
		WithDetail("missing", strings.Join(missing, ","))
}
