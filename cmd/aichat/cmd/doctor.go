// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     cmd
// Description: doctor command running preflight checks
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/aichat/internal/completion"
	"github.com/msto63/aichat/internal/speech/audio"
	"github.com/msto63/aichat/internal/speech/stt"
	"github.com/msto63/aichat/internal/speech/tts"
	"github.com/msto63/aichat/pkg/core/config"
	"github.com/msto63/aichat/pkg/core/health"
	"github.com/msto63/aichat/pkg/core/version"
)

var doctorTimeout time.Duration

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, credentials, devices and providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		registry := newDoctorRegistry(cfg, config.CredentialsFromEnv())
		report := registry.CheckWithTimeout(doctorTimeout)
		fmt.Fprint(cmd.OutOrStdout(), report.Format())

		if failed := report.Failed(); len(failed) > 0 {
			names := make([]string, len(failed))
			for i, c := range failed {
				names[i] = c.Name
			}
			return fmt.Errorf("%d checks failed: %s", len(failed), strings.Join(names, ", "))
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 20*time.Second, "Overall time limit for the checks")
	rootCmd.AddCommand(doctorCmd)
}

// newDoctorRegistry registers one check per external dependency of a chat
// session
func newDoctorRegistry(cfg *config.Config, creds config.Credentials) *health.Registry {
	registry := health.NewRegistry("aichat", version.App)
	probeTimeout := 5 * time.Second

	registry.Register(health.ErrorCheck("config", func(ctx context.Context) (string, error) {
		if cfg.Source == "" {
			return "built-in defaults", nil
		}
		return cfg.Source, nil
	}))
	registry.Register(health.ErrorCheck("credentials", func(ctx context.Context) (string, error) {
		if err := cfg.ValidateCredentials(creds); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d present", len(cfg.RequiredCredentials())), nil
	}))

	switch cfg.Capture.Engine {
	case config.CaptureWhisperHTTP:
		registry.Register(health.HTTPCheck("stt", cfg.Capture.WhisperURL, probeTimeout))
	case config.CaptureVoxtral:
		registry.Register(health.HTTPCheck("stt", strings.TrimRight(cfg.Capture.VoxtralURL, "/")+"/v1/models", probeTimeout))
	default:
		binary := cfg.Capture.WhisperBinary
		if binary == "" {
			binary = stt.FindWhisperBinary()
		}
		registry.Register(health.BinaryCheck("stt", binary, "whisper-cli", "whisper"))
		registry.Register(health.FileCheck("stt-model", cfg.Capture.WhisperModel))
	}

	registry.Register(health.ErrorCheck("microphone", func(ctx context.Context) (string, error) {
		return probeMicrophone(cfg.Capture.InputDevice)
	}))
	registry.Register(health.ErrorCheck("voice", func(ctx context.Context) (string, error) {
		return probeVoice(ctx, cfg)
	}))
	registry.Register(health.ErrorCheck("deepl", func(ctx context.Context) (string, error) {
		usage, err := newDeepL(cfg, creds).Usage(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d of %d characters used", usage.CharacterCount, usage.CharacterLimit), nil
	}))

	if cfg.Completion.Provider == config.ProviderOllama {
		registry.Register(health.ErrorCheck("completion", func(ctx context.Context) (string, error) {
			ollama := completion.NewOllama(completion.ConfigFrom(cfg, creds))
			if err := ollama.HealthCheck(ctx); err != nil {
				return "", err
			}
			return "ollama " + cfg.Completion.Model, nil
		}))
	} else {
		registry.Register(health.HTTPCheck("completion", cfg.Completion.BaseURL, probeTimeout))
	}
	return registry
}

func probeMicrophone(name string) (string, error) {
	host, err := audio.OpenHost()
	if err != nil {
		return "", err
	}
	defer host.Close()

	devices, err := audio.ListInputDevices()
	if err != nil {
		return "", err
	}
	d, err := pickInputDevice(devices, name)
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

// pickInputDevice finds the device capture would open for name
func pickInputDevice(devices []audio.DeviceInfo, name string) (audio.DeviceInfo, error) {
	useDefault := audio.IsDefaultDevice(name)
	for _, d := range devices {
		if (useDefault && d.IsDefault) || (!useDefault && d.Name == name) {
			return d, nil
		}
	}
	if useDefault {
		return audio.DeviceInfo{}, fmt.Errorf("no default input device among %d devices", len(devices))
	}
	return audio.DeviceInfo{}, fmt.Errorf("input device %q not found", name)
}

func probeVoice(ctx context.Context, cfg *config.Config) (string, error) {
	engine, err := newEngine(cfg)
	if err != nil {
		return "", err
	}
	defer engine.Close()

	voices, err := engine.Voices(ctx)
	if err != nil {
		return "", err
	}
	v, err := tts.SelectVoice(voices, cfg.Speech.Voice, cfg.Speech.Locale)
	if err != nil {
		return "", err
	}
	return engine.Name() + " " + v.String(), nil
}
