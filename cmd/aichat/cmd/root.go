// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     cmd
// Description: Root command, configuration and chat startup
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/aichat/internal/chat"
	"github.com/msto63/aichat/pkg/core/config"
	"github.com/msto63/aichat/pkg/core/logging"
)

var (
	cfgFile     string
	logLevel    string
	provider    string
	voice       string
	inputDevice string
)

var rootCmd = &cobra.Command{
	Use:   "aichat",
	Short: "Voice chat with a completion model",
	Long: `aichat is a terminal voice chat client.

Listen records one phrase, transcribes it and shows it for review.
Accept translates the phrase and appends it to the transcript.
Speak asks the completion model for the next line, translates the
answer back and reads it aloud.

Keys:
  F1     listen
  Enter  accept
  F2     speak
  Esc    cancel
  Ctrl+C quit`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

// Execute runs the root command and reports a failure on stderr
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		return err
	}
	return nil
}

func init() {
	addRootFlags(rootCmd)
}

func addRootFlags(c *cobra.Command) {
	c.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./aichat.toml or ~/.config/aichat/config.toml)")
	c.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	c.Flags().StringVar(&provider, "provider", "", "Completion provider (ai21, openai, anthropic, ollama)")
	c.Flags().StringVar(&voice, "voice", "", "Voice id or name")
	c.Flags().StringVar(&inputDevice, "input-device", "", "Microphone name (default: system default)")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// loadConfig resolves the config file and applies the flags that were set.
// ./.env is read first so $VAR references in the file can use it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(cfg.General.EnvFile); err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.General.LogLevel = logLevel
	}
	if flags.Changed("provider") {
		cfg.SetProvider(provider)
	}
	if flags.Changed("voice") {
		cfg.Speech.Voice = voice
	}
	if flags.Changed("input-device") {
		cfg.Capture.InputDevice = inputDevice
	}
}

// setupLogging sends logs to the configured file; the terminal belongs to the UI
func setupLogging(cfg *config.Config) (func() error, error) {
	return logging.Configure(logging.LoggerConfig{
		ServiceName: "aichat",
		Level:       cfg.General.LogLevel,
		Format:      cfg.General.LogFormat,
		File:        cfg.General.LogFile,
	})
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	creds := config.CredentialsFromEnv()
	if err := cfg.ValidateCredentials(creds); err != nil {
		return err
	}

	flush, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer flush()

	logger := logging.New("aichat")
	logger.Info("Starting aichat",
		"config", cfg.Source,
		"provider", cfg.Completion.Provider,
		"capture", cfg.Capture.Engine,
		"speech", cfg.Speech.Engine)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(os.Stderr, "Calibrating microphone, please stay quiet...")
	sess, err := openSession(ctx, cfg, creds)
	if err != nil {
		logger.Error("Startup failed", "error", err)
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("Shutdown incomplete", "error", err)
		}
	}()

	opts := chat.Options{
		HumanLang: cfg.Languages.Human,
		ChatLang:  cfg.Languages.Chat,
		Provider:  cfg.Completion.Provider,
		Voice:     sess.speaker.Voice().String(),
	}
	if err := chat.Run(ctx, sess.services(), opts); err != nil {
		logger.Error("UI stopped", "error", err)
		return err
	}
	logger.Info("aichat stopped")
	return nil
}
