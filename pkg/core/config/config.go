// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     config
// Description: Application configuration (TOML or YAML)
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/msto63/aichat/pkg/core/apperror"
)

// EnvConfigPath names the variable that points at a config file
const EnvConfigPath = "AICHAT_CONFIG"

// Provider and engine names
const (
	ProviderDeepL     = "deepl"
	ProviderAI21      = "ai21"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"

	CaptureWhisper     = "whisper"
	CaptureWhisperHTTP = "whisper-http"
	CaptureVoxtral     = "voxtral"

	SpeechAuto   = "auto"
	SpeechSay    = "say"
	SpeechEspeak = "espeak-ng"
	SpeechPiper  = "piper"
)

// Config holds the complete application configuration
type Config struct {
	General     GeneralConfig     `toml:"general" yaml:"general"`
	Languages   LanguageConfig    `toml:"languages" yaml:"languages"`
	Translation TranslationConfig `toml:"translation" yaml:"translation"`
	Completion  CompletionConfig  `toml:"completion" yaml:"completion"`
	Capture     CaptureConfig     `toml:"capture" yaml:"capture"`
	Speech      SpeechConfig      `toml:"speech" yaml:"speech"`

	// Path of the file the configuration was read from, empty for defaults
	Source string `toml:"-" yaml:"-"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFile   string `toml:"log_file" yaml:"log_file"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
	EnvFile   string `toml:"env_file" yaml:"env_file"`
}

// LanguageConfig holds the language pair of the conversation
type LanguageConfig struct {
	// Language the user speaks and hears (DeepL code)
	Human string `toml:"human" yaml:"human"`
	// Language of the transcript sent to the completion model (DeepL code)
	Chat string `toml:"chat" yaml:"chat"`
	// Locale passed to the speech recognizer
	SpeechLocale string `toml:"speech_locale" yaml:"speech_locale"`
}

// TranslationConfig holds translation provider settings
type TranslationConfig struct {
	Provider string   `toml:"provider" yaml:"provider"`
	BaseURL  string   `toml:"base_url" yaml:"base_url"`
	Timeout  Duration `toml:"timeout" yaml:"timeout"`
}

// CompletionConfig holds completion provider settings and sampling parameters
type CompletionConfig struct {
	Provider      string   `toml:"provider" yaml:"provider"`
	BaseURL       string   `toml:"base_url" yaml:"base_url"`
	Model         string   `toml:"model" yaml:"model"`
	NumResults    int      `toml:"num_results" yaml:"num_results"`
	MaxTokens     int      `toml:"max_tokens" yaml:"max_tokens"`
	StopSequences []string `toml:"stop_sequences" yaml:"stop_sequences"`
	TopKReturn    int      `toml:"top_k_return" yaml:"top_k_return"`
	TopP          float64  `toml:"top_p" yaml:"top_p"`
	Temperature   float64  `toml:"temperature" yaml:"temperature"`
	Timeout       Duration `toml:"timeout" yaml:"timeout"`
}

// CaptureConfig holds microphone, voice activity and STT settings
type CaptureConfig struct {
	Engine        string `toml:"engine" yaml:"engine"`
	WhisperBinary string `toml:"whisper_binary" yaml:"whisper_binary"`
	WhisperModel  string `toml:"whisper_model" yaml:"whisper_model"`
	WhisperURL    string `toml:"whisper_url" yaml:"whisper_url"`
	VoxtralURL    string `toml:"voxtral_url" yaml:"voxtral_url"`
	VoxtralModel  string `toml:"voxtral_model" yaml:"voxtral_model"`

	InputDevice string `toml:"input_device" yaml:"input_device"`
	SampleRate  int    `toml:"sample_rate" yaml:"sample_rate"`
	FrameSize   int    `toml:"frame_size" yaml:"frame_size"`
	VADMode     int    `toml:"vad_mode" yaml:"vad_mode"`

	Calibration   Duration `toml:"calibration" yaml:"calibration"`
	EnergyRatio   float64  `toml:"energy_ratio" yaml:"energy_ratio"`
	MinEnergy     float64  `toml:"min_energy" yaml:"min_energy"`
	Silence       Duration `toml:"silence" yaml:"silence"`
	MinSpeech     Duration `toml:"min_speech" yaml:"min_speech"`
	PreRoll       Duration `toml:"pre_roll" yaml:"pre_roll"`
	ListenTimeout Duration `toml:"listen_timeout" yaml:"listen_timeout"`
	PhraseLimit   Duration `toml:"phrase_limit" yaml:"phrase_limit"`
	Timeout       Duration `toml:"timeout" yaml:"timeout"`
}

// SpeechConfig holds text-to-speech settings
type SpeechConfig struct {
	Engine        string `toml:"engine" yaml:"engine"`
	Voice         string `toml:"voice" yaml:"voice"`
	Locale        string `toml:"locale" yaml:"locale"`
	Rate          int    `toml:"rate" yaml:"rate"`
	OutputDevice  string `toml:"output_device" yaml:"output_device"`
	PiperBinary   string `toml:"piper_binary" yaml:"piper_binary"`
	PiperModelDir string `toml:"piper_model_dir" yaml:"piper_model_dir"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperror.Newf(apperror.KindConfig, "config", "config file not found: %s", path)
		}
		return nil, apperror.Wrap(err, apperror.KindConfig, "config", "read config")
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, apperror.Wrap(err, apperror.KindConfig, "config", "failed to parse config")
		}
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, apperror.Wrap(err, apperror.KindConfig, "config", "failed to parse config")
		}
	}

	cfg.Source = path
	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve loads the configuration from explicit, $AICHAT_CONFIG or a default
// location. Without any file the defaults are returned.
func Resolve(explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	if path := os.Getenv(EnvConfigPath); path != "" {
		return Load(path)
	}
	for _, p := range DefaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Default(), nil
}

// DefaultPaths lists the locations searched for a config file
func DefaultPaths() []string {
	paths := []string{"./aichat.toml", "./aichat.yaml"}
	if dir := configDir(); dir != "" {
		paths = append(paths,
			filepath.Join(dir, "config.toml"),
			filepath.Join(dir, "config.yaml"),
		)
	}
	return paths
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "aichat")
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "json"
	}
	if c.General.LogFile == "" {
		if dir := configDir(); dir != "" {
			c.General.LogFile = filepath.Join(dir, "aichat.log")
		}
	}
	if c.General.EnvFile == "" {
		c.General.EnvFile = ".env"
	}

	// Languages
	if c.Languages.Human == "" {
		c.Languages.Human = "PL"
	}
	if c.Languages.Chat == "" {
		c.Languages.Chat = "EN"
	}
	if c.Languages.SpeechLocale == "" {
		c.Languages.SpeechLocale = "pl"
	}

	// Translation
	if c.Translation.Provider == "" {
		c.Translation.Provider = ProviderDeepL
	}
	if c.Translation.BaseURL == "" {
		c.Translation.BaseURL = "https://api-free.deepl.com"
	}
	if c.Translation.Timeout.Duration == 0 {
		c.Translation.Timeout.Duration = 15 * time.Second
	}

	// Completion
	if c.Completion.Provider == "" {
		c.Completion.Provider = ProviderAI21
	}
	if c.Completion.BaseURL == "" {
		c.Completion.BaseURL = defaultCompletionURL(c.Completion.Provider)
	}
	if c.Completion.Model == "" {
		c.Completion.Model = defaultCompletionModel(c.Completion.Provider)
	}
	if c.Completion.NumResults == 0 {
		c.Completion.NumResults = 1
	}
	if c.Completion.MaxTokens == 0 {
		c.Completion.MaxTokens = 64
	}
	if c.Completion.StopSequences == nil {
		c.Completion.StopSequences = []string{"\n"}
	}
	if c.Completion.TopP == 0 {
		c.Completion.TopP = 1.0
	}
	if c.Completion.Temperature == 0 {
		c.Completion.Temperature = 0.7
	}
	if c.Completion.Timeout.Duration == 0 {
		c.Completion.Timeout.Duration = 30 * time.Second
	}

	// Capture
	if c.Capture.Engine == "" {
		c.Capture.Engine = CaptureWhisper
	}
	if c.Capture.WhisperURL == "" {
		c.Capture.WhisperURL = "http://localhost:8178"
	}
	if c.Capture.VoxtralURL == "" {
		c.Capture.VoxtralURL = "http://localhost:8000"
	}
	if c.Capture.VoxtralModel == "" {
		c.Capture.VoxtralModel = "mistralai/Voxtral-Mini-3B-2507"
	}
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = 16000
	}
	if c.Capture.FrameSize == 0 {
		c.Capture.FrameSize = 480 // 30ms at 16kHz
	}
	if c.Capture.VADMode == 0 {
		c.Capture.VADMode = 2
	}
	if c.Capture.Calibration.Duration == 0 {
		c.Capture.Calibration.Duration = time.Second
	}
	if c.Capture.EnergyRatio == 0 {
		c.Capture.EnergyRatio = 1.5
	}
	if c.Capture.MinEnergy == 0 {
		c.Capture.MinEnergy = 0.003
	}
	if c.Capture.Silence.Duration == 0 {
		c.Capture.Silence.Duration = 800 * time.Millisecond
	}
	if c.Capture.MinSpeech.Duration == 0 {
		c.Capture.MinSpeech.Duration = 300 * time.Millisecond
	}
	if c.Capture.PreRoll.Duration == 0 {
		c.Capture.PreRoll.Duration = 300 * time.Millisecond
	}
	if c.Capture.ListenTimeout.Duration == 0 {
		c.Capture.ListenTimeout.Duration = 10 * time.Second
	}
	if c.Capture.PhraseLimit.Duration == 0 {
		c.Capture.PhraseLimit.Duration = 30 * time.Second
	}
	if c.Capture.Timeout.Duration == 0 {
		c.Capture.Timeout.Duration = 60 * time.Second
	}

	// Speech
	if c.Speech.Engine == "" {
		c.Speech.Engine = SpeechAuto
	}
	if c.Speech.Locale == "" {
		c.Speech.Locale = c.Languages.SpeechLocale
	}
	if c.Speech.Rate == 0 {
		c.Speech.Rate = 175
	}
	if c.Speech.PiperModelDir == "" {
		if dir := configDir(); dir != "" {
			c.Speech.PiperModelDir = filepath.Join(dir, "voices")
		}
	}
}

// SetProvider switches the completion provider. URL and model follow the new
// provider unless they were set explicitly.
func (c *Config) SetProvider(provider string) {
	old := c.Completion.Provider
	if c.Completion.BaseURL == "" || c.Completion.BaseURL == defaultCompletionURL(old) {
		c.Completion.BaseURL = defaultCompletionURL(provider)
	}
	if c.Completion.Model == "" || c.Completion.Model == defaultCompletionModel(old) {
		c.Completion.Model = defaultCompletionModel(provider)
	}
	c.Completion.Provider = provider
}

func defaultCompletionURL(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderAnthropic:
		return "https://api.anthropic.com"
	case ProviderOllama:
		return "http://localhost:11434"
	default:
		return "https://api.ai21.com"
	}
}

func defaultCompletionModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-3.5-turbo-instruct"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderOllama:
		return "llama3.2"
	default:
		return "j1-jumbo"
	}
}

// expandEnvVars expands environment variables in paths and URLs
func (c *Config) expandEnvVars() {
	c.General.LogFile = os.ExpandEnv(c.General.LogFile)
	c.General.EnvFile = os.ExpandEnv(c.General.EnvFile)
	c.Translation.BaseURL = os.ExpandEnv(c.Translation.BaseURL)
	c.Completion.BaseURL = os.ExpandEnv(c.Completion.BaseURL)
	c.Capture.WhisperBinary = os.ExpandEnv(c.Capture.WhisperBinary)
	c.Capture.WhisperModel = os.ExpandEnv(c.Capture.WhisperModel)
	c.Capture.WhisperURL = os.ExpandEnv(c.Capture.WhisperURL)
	c.Capture.VoxtralURL = os.ExpandEnv(c.Capture.VoxtralURL)
	c.Speech.PiperBinary = os.ExpandEnv(c.Speech.PiperBinary)
	c.Speech.PiperModelDir = os.ExpandEnv(c.Speech.PiperModelDir)
}

// Validate checks provider and engine names and basic ranges
func (c *Config) Validate() error {
	var problems []string

	switch c.Translation.Provider {
	case ProviderDeepL:
	default:
		problems = append(problems, fmt.Sprintf("unknown translation provider %q", c.Translation.Provider))
	}

	switch c.Completion.Provider {
	case ProviderAI21, ProviderOpenAI, ProviderAnthropic, ProviderOllama:
	default:
		problems = append(problems, fmt.Sprintf("unknown completion provider %q", c.Completion.Provider))
	}

	switch c.Capture.Engine {
	case CaptureWhisper, CaptureWhisperHTTP, CaptureVoxtral:
	default:
		problems = append(problems, fmt.Sprintf("unknown capture engine %q", c.Capture.Engine))
	}

	switch c.Speech.Engine {
	case SpeechAuto, SpeechSay, SpeechEspeak, SpeechPiper:
	default:
		problems = append(problems, fmt.Sprintf("unknown speech engine %q", c.Speech.Engine))
	}

	if c.Capture.VADMode < 0 || c.Capture.VADMode > 3 {
		problems = append(problems, fmt.Sprintf("vad_mode must be 0-3, got %d", c.Capture.VADMode))
	}
	if c.Completion.MaxTokens < 0 {
		problems = append(problems, "max_tokens must not be negative")
	}
	if c.Completion.NumResults < 1 {
		problems = append(problems, "num_results must be at least 1")
	}

	if len(problems) > 0 {
		return apperror.New(apperror.KindConfig, "config", strings.Join(problems, "; "))
	}
	return nil
}
