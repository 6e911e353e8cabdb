// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     chat
// Description: Styles for the chat TUI
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// Color Palette
var (
	ColorPrimary   = lipgloss.Color("#8B5CF6") // Violet
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorAccent    = lipgloss.Color("#F59E0B") // Amber
	ColorSuccess   = lipgloss.Color("#10B981") // Emerald
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorDimmed    = lipgloss.Color("#374151") // Dark Gray

	ColorBgPanel = lipgloss.Color("#1E293B") // Slate 800

	ColorText      = lipgloss.Color("#F8FAFC") // Slate 50
	ColorTextMuted = lipgloss.Color("#94A3B8") // Slate 400
	ColorTextDim   = lipgloss.Color("#64748B") // Slate 500
)

var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	SubHeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	HumanLabelStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	AILabelStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	TranscriptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed).
			Padding(0, 1)

	FieldLabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Width(10)

	FieldStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(ColorTextDim).
				Italic(true)
)

// Status bar styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorBgPanel).
			Foreground(ColorText).
			Padding(0, 1)

	LaneIdleStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	LaneBusyStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	StatusInfoStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// Help styles
var (
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			MarginTop(1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	HelpDisabledStyle = lipgloss.NewStyle().
				Foreground(ColorDimmed)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)
)

// Logo
const Logo = "aichat"

// RenderKeyHint renders a keyboard shortcut hint, dimmed when disabled
func RenderKeyHint(b key.Binding) string {
	h := b.Help()
	if !b.Enabled() {
		return HelpDisabledStyle.Render(h.Key + " " + h.Desc)
	}
	return HelpKeyStyle.Render(h.Key) + " " + HelpDescStyle.Render(h.Desc)
}

// RenderEntry renders a transcript line with a colored speaker label
func RenderEntry(e Entry) string {
	label := HumanLabelStyle
	if e.Speaker == SpeakerAI {
		label = AILabelStyle
	}
	return label.Render(string(e.Speaker)+":") + " " + e.Text
}
