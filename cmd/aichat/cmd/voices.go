// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     cmd
// Description: voices command
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/msto63/aichat/internal/speech/tts"
)

var voicesAll bool

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices of the configured speech engine",
	Long: `Lists the voices of the configured speech engine. Only voices matching
speech.locale are shown unless --all is given. The voice aichat would
select is marked with *.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		voices, err := engine.Voices(cmd.Context())
		if err != nil {
			return err
		}
		selected, selErr := tts.SelectVoice(voices, cfg.Speech.Voice, cfg.Speech.Locale)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Engine: %s\n\n", engine.Name())
		printVoices(out, voices, selected, cfg.Speech.Locale, voicesAll)
		if selErr != nil {
			fmt.Fprintf(out, "\nNo usable voice: %v\n", selErr)
		}
		return nil
	},
}

func init() {
	voicesCmd.Flags().BoolVar(&voicesAll, "all", false, "Show voices of every language")
	rootCmd.AddCommand(voicesCmd)
}

func printVoices(w io.Writer, voices []tts.Voice, selected tts.Voice, locale string, all bool) {
	fmt.Fprintf(w, "  %-28s %-24s %s\n", "ID", "NAME", "LANGUAGE")
	shown := 0
	for _, v := range voices {
		if !all && !tts.MatchLocale(v.Language, locale) {
			continue
		}
		mark := " "
		if v.ID == selected.ID && selected.ID != "" {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-28s %-24s %s\n", mark, v.ID, v.Name, v.Language)
		shown++
	}
	if shown == 0 {
		fmt.Fprintf(w, "  (no voices for %s)\n", locale)
	}
}
