// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     chat
// Description: Main Bubbletea model wiring the lanes to the services
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/aichat/internal/completion"
	"github.com/msto63/aichat/internal/translate"
	"github.com/msto63/aichat/pkg/core/apperror"
	"github.com/msto63/aichat/pkg/core/logging"
)

// Listener captures one spoken phrase
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// Speaker speaks text and returns when playback has finished
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Services are the adapters driven by the lanes
type Services struct {
	Listener   Listener
	Translator translate.Translator
	Completer  completion.Completer
	Speaker    Speaker
}

func (s Services) validate() error {
	var missing []string
	if s.Listener == nil {
		missing = append(missing, "listener")
	}
	if s.Translator == nil {
		missing = append(missing, "translator")
	}
	if s.Completer == nil {
		missing = append(missing, "completer")
	}
	if s.Speaker == nil {
		missing = append(missing, "speaker")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing services: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Options configure the UI
type Options struct {
	// HumanLang is the language the user speaks (DeepL code, e.g. PL)
	HumanLang string

	// ChatLang is the language of the conversation with the model (e.g. EN)
	ChatLang string

	// Provider and Voice are shown in the status bar
	Provider string
	Voice    string
}

// DefaultOptions returns Polish <-> English
func DefaultOptions() Options {
	return Options{
		HumanLang: "PL",
		ChatLang:  "EN",
	}
}

// Model is the main Bubbletea model
type Model struct {
	ctx      context.Context
	services Services
	opts     Options
	logger   *logging.Logger

	// State
	width  int
	height int
	ready  bool

	transcript Transcript
	listen     Lane
	speak      Lane
	spoken     string
	status     string
	statusErr  bool

	// Components
	captured textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	keys     keyMap
}

// New creates the model. ctx is the parent of every lane run.
func New(ctx context.Context, services Services, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.HumanLang == "" {
		opts.HumanLang = DefaultOptions().HumanLang
	}
	if opts.ChatLang == "" {
		opts.ChatLang = DefaultOptions().ChatLang
	}

	ti := textinput.New()
	ti.Placeholder = "F1 to listen, or type and press Enter"
	ti.PlaceholderStyle = PlaceholderStyle
	ti.Prompt = ""
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	m := Model{
		ctx:      ctx,
		services: services,
		opts:     opts,
		logger:   logging.New("chat"),
		listen:   NewListenLane(),
		speak:    NewSpeakLane(),
		captured: ti,
		viewport: viewport.New(80, 10),
		spinner:  sp,
		keys:     defaultKeyMap(),
		status:   "Ready",
	}
	m.syncKeys()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2 // Logo + languages
		footerHeight := 8 // Fields + lane bar + status + help
		viewportHeight := msg.Height - headerHeight - footerHeight - 2
		if viewportHeight < 3 {
			viewportHeight = 3
		}
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = viewportHeight
		m.captured.Width = msg.Width - 16
		m.ready = true
		m.updateViewportContent()

	case spinner.TickMsg:
		if m.listen.Busy() || m.speak.Busy() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case capturedMsg:
		if !m.listen.Current(msg.runID) {
			m.logger.Debug("Dropping stale capture", "run", msg.runID)
			break
		}
		if msg.err != nil {
			m.fail(&m.listen, msg.runID, msg.err)
			break
		}
		m.listen.Finish(msg.runID, StateCaptured)
		m.captured.SetValue(msg.text)
		m.captured.CursorEnd()
		m.setStatus("Captured. Edit and press Enter to accept")
		m.logger.Info("Phrase captured", "run", msg.runID, "chars", len(msg.text), "duration", msg.duration)

	case acceptedMsg:
		if !m.listen.Current(msg.runID) {
			m.logger.Debug("Dropping stale translation", "run", msg.runID)
			break
		}
		if msg.err != nil {
			m.fail(&m.listen, msg.runID, msg.err)
			break
		}
		m.listen.Finish(msg.runID, StateIdle)
		m.transcript.Append(SpeakerHuman, msg.text)
		m.captured.Reset()
		m.setStatus("Added to transcript")
		m.updateViewportContent()
		m.viewport.GotoBottom()

	case completedMsg:
		if !m.speak.Current(msg.runID) {
			m.logger.Debug("Dropping stale completion", "run", msg.runID)
			break
		}
		if msg.err != nil {
			m.fail(&m.speak, msg.runID, msg.err)
			break
		}
		text := strings.TrimSpace(msg.text)
		m.transcript.Append(SpeakerAI, text)
		m.updateViewportContent()
		m.viewport.GotoBottom()
		m.logger.Info("Completion received", "run", msg.runID, "chars", len(text), "duration", msg.duration)

		if text == "" {
			m.speak.Finish(msg.runID, StateIdle)
			m.setStatus("The model returned an empty reply")
			break
		}
		m.speak.Advance(msg.runID, StateTranslating)
		m.setStatus("Translating reply")
		cmds = append(cmds, m.translateReply(msg.runID, text))

	case replyTranslatedMsg:
		if !m.speak.Current(msg.runID) {
			m.logger.Debug("Dropping stale reply translation", "run", msg.runID)
			break
		}
		if msg.err != nil {
			m.fail(&m.speak, msg.runID, msg.err)
			break
		}
		m.spoken = msg.text
		m.speak.Advance(msg.runID, StateSpeaking)
		m.setStatus("Speaking")
		cmds = append(cmds, m.speakText(msg.runID, msg.text))

	case spokenMsg:
		if !m.speak.Current(msg.runID) {
			break
		}
		if msg.err != nil {
			m.fail(&m.speak, msg.runID, msg.err)
			break
		}
		m.speak.Finish(msg.runID, StateIdle)
		m.setStatus("Ready")
	}

	m.syncKeys()

	if !m.listen.Busy() {
		m.captured, cmd = m.captured.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.listen.Cancel()
		m.speak.Cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		listenRun, speakRun := m.listen.RunID(), m.speak.RunID()
		listenCancelled := m.listen.Cancel()
		speakCancelled := m.speak.Cancel()
		if listenCancelled || speakCancelled {
			m.setStatus("Cancelled")
			m.logger.Info("Cancelled", "listen_run", listenRun, "speak_run", speakRun)
		}

	case key.Matches(msg, m.keys.Listen):
		ctx, runID, ok := m.listen.Begin(m.ctx, StateListening)
		if !ok {
			break
		}
		m.setStatus("Listening. Speak now")
		m.logger.Info("Listen started", "run", runID)
		cmds = append(cmds, m.listenCmd(ctx, runID), m.spinner.Tick)

	case key.Matches(msg, m.keys.Accept):
		text := strings.TrimSpace(m.captured.Value())
		if text == "" {
			m.setStatus("Nothing to accept")
			break
		}
		ctx, runID, ok := m.listen.Begin(m.ctx, StateTranslating)
		if !ok {
			break
		}
		m.setStatus("Translating")
		m.logger.Info("Accept started", "run", runID)
		cmds = append(cmds, m.acceptCmd(ctx, runID, text), m.spinner.Tick)

	case key.Matches(msg, m.keys.Speak):
		prompt := m.transcript.Prompt()
		ctx, runID, ok := m.speak.Begin(m.ctx, StateRequesting)
		if !ok {
			break
		}
		m.setStatus("Waiting for the model")
		m.logger.Info("Completion started", "run", runID, "prompt_chars", len(prompt))
		cmds = append(cmds, m.completeCmd(ctx, runID, prompt), m.spinner.Tick)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()

	default:
		if !m.listen.Busy() {
			var cmd tea.Cmd
			m.captured, cmd = m.captured.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.syncKeys()
	return m, tea.Batch(cmds...)
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Starting aichat..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(TranscriptStyle.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(m.renderFields())
	b.WriteString("\n")
	b.WriteString(m.renderLaneBar())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return b.String()
}

func (m Model) renderHeader() string {
	langs := fmt.Sprintf("%s ⇄ %s", m.opts.HumanLang, m.opts.ChatLang)
	return LogoStyle.Render(Logo) + "  " + SubHeaderStyle.Render(langs)
}

func (m Model) renderFields() string {
	spoken := m.spoken
	if spoken == "" {
		spoken = PlaceholderStyle.Render("last reply, spoken aloud")
	} else {
		spoken = FieldStyle.Render(spoken)
	}
	return FieldLabelStyle.Render("Captured") + m.captured.View() + "\n" +
		FieldLabelStyle.Render("Spoken") + spoken
}

func (m Model) renderLaneBar() string {
	lane := func(name string, l Lane) string {
		text := fmt.Sprintf("%s %s: %s", l.State().Icon(), name, l.State())
		if l.Busy() {
			return LaneBusyStyle.Render(text) + " " + m.spinner.View()
		}
		return LaneIdleStyle.Render(text)
	}

	parts := []string{lane("Listen", m.listen), lane("Speak", m.speak)}
	if m.opts.Provider != "" {
		parts = append(parts, StatusInfoStyle.Render("model: "+m.opts.Provider))
	}
	if m.opts.Voice != "" {
		parts = append(parts, StatusInfoStyle.Render("voice: "+m.opts.Voice))
	}
	width := m.width - 2
	if width < 0 {
		width = 0
	}
	return StatusBarStyle.Width(width).Render(strings.Join(parts, "  │  "))
}

func (m Model) renderStatus() string {
	if m.statusErr {
		return StatusErrorStyle.Render("✗ " + m.status)
	}
	return StatusInfoStyle.Render(m.status)
}

func (m Model) renderHelpBar() string {
	var items []string
	for _, b := range m.keys.hints() {
		items = append(items, RenderKeyHint(b))
	}
	return HelpStyle.Render(strings.Join(items, "  "))
}

// syncKeys disables the bindings of busy lanes
func (m *Model) syncKeys() {
	m.keys.Listen.SetEnabled(!m.listen.Busy())
	m.keys.Accept.SetEnabled(!m.listen.Busy())
	m.keys.Speak.SetEnabled(!m.speak.Busy())
	m.keys.Cancel.SetEnabled(m.listen.Busy() || m.speak.Busy())
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

// fail returns the lane to its resting state and shows err. Failures that
// may pass on their own get a retry hint.
func (m *Model) fail(lane *Lane, runID string, err error) {
	lane.Fail(runID)
	kind := apperror.KindOf(err)
	m.status = apperror.Describe(err)
	if kind.Transient() {
		m.status += ", try again"
	}
	m.statusErr = true
	m.logger.Warn("Lane action failed", "lane", lane.Kind(), "run", runID, "kind", kind, "error", err)
}

func (m *Model) updateViewportContent() {
	if m.transcript.Len() == 0 {
		m.viewport.SetContent(PlaceholderStyle.Render("The conversation appears here."))
		return
	}
	width := m.viewport.Width
	lines := make([]string, 0, m.transcript.Len())
	for _, e := range m.transcript.Entries() {
		line := RenderEntry(e)
		if width > 0 {
			line = lipgloss.NewStyle().Width(width).Render(line)
		}
		lines = append(lines, line)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

// Commands

func (m Model) listenCmd(ctx context.Context, runID string) tea.Cmd {
	listener := m.services.Listener
	return func() tea.Msg {
		start := time.Now()
		text, err := listener.Listen(ctx)
		return capturedMsg{runID: runID, text: text, duration: time.Since(start), err: err}
	}
}

func (m Model) acceptCmd(ctx context.Context, runID, text string) tea.Cmd {
	translator := m.services.Translator
	from, to := m.opts.HumanLang, m.opts.ChatLang
	return func() tea.Msg {
		out, err := translator.Translate(ctx, text, from, to)
		return acceptedMsg{runID: runID, text: out, err: err}
	}
}

func (m Model) completeCmd(ctx context.Context, runID, prompt string) tea.Cmd {
	completer := m.services.Completer
	return func() tea.Msg {
		start := time.Now()
		text, err := completer.Complete(ctx, prompt)
		return completedMsg{runID: runID, text: text, duration: time.Since(start), err: err}
	}
}

// translateReply and speakText reuse the context of the run started by F2
func (m Model) translateReply(runID, text string) tea.Cmd {
	translator := m.services.Translator
	ctx := m.speak.runContext()
	from, to := m.opts.ChatLang, m.opts.HumanLang
	return func() tea.Msg {
		out, err := translator.Translate(ctx, text, from, to)
		return replyTranslatedMsg{runID: runID, text: out, err: err}
	}
}

func (m Model) speakText(runID, text string) tea.Cmd {
	speaker := m.services.Speaker
	ctx := m.speak.runContext()
	return func() tea.Msg {
		return spokenMsg{runID: runID, err: speaker.Speak(ctx, text)}
	}
}

// Accessors

// Transcript returns the conversation so far
func (m Model) Transcript() Transcript {
	return m.transcript
}

// Captured returns the editable field
func (m Model) Captured() string {
	return m.captured.Value()
}

// Spoken returns the last synthesized utterance
func (m Model) Spoken() string {
	return m.spoken
}

// Status returns the status line and whether it reports an error
func (m Model) Status() (string, bool) {
	return m.status, m.statusErr
}

// Run starts the UI and blocks until the user quits
func Run(ctx context.Context, services Services, opts Options) error {
	if err := services.validate(); err != nil {
		return err
	}
	p := tea.NewProgram(New(ctx, services, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
