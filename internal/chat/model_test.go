package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/msto63/aichat/pkg/core/apperror"
)

type fakeListener struct {
	text   string
	err    error
	calls  int
	ctxErr error
}

func (f *fakeListener) Listen(ctx context.Context) (string, error) {
	f.calls++
	f.ctxErr = ctx.Err()
	return f.text, f.err
}

type mapTranslator struct {
	pairs map[string]string
	err   error
	calls []string
}

func (f *mapTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.calls = append(f.calls, source+">"+target+":"+text)
	if f.err != nil {
		return "", f.err
	}
	return f.pairs[text], nil
}

type fakeCompleter struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

type fakeSpeaker struct {
	spoken []string
	err    error
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.spoken = append(f.spoken, text)
	return nil
}

type fixture struct {
	listener   *fakeListener
	translator *mapTranslator
	completer  *fakeCompleter
	speaker    *fakeSpeaker
}

func newFixture() *fixture {
	return &fixture{
		listener: &fakeListener{text: "Cześć"},
		translator: &mapTranslator{pairs: map[string]string{
			"Cześć":               "Hi",
			"Opowiedz dowcip":     "Tell me a joke",
			"Hello there":         "Witaj",
			"Why did the chicken": "Dlaczego kurczak",
		}},
		completer: &fakeCompleter{text: " Hello there"},
		speaker:   &fakeSpeaker{},
	}
}

func (f *fixture) model() Model {
	m := New(context.Background(), Services{
		Listener:   f.listener,
		Translator: f.translator,
		Completer:  f.completer,
		Speaker:    f.speaker,
	}, DefaultOptions())
	m.captured.Cursor.SetMode(cursor.CursorStatic)
	return m
}

// drain runs cmd and feeds every resulting message back into the model
// until no commands remain. Spinner ticks are not fed back.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("command chain did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, nc := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nc)
		}
	}
	return m
}

func press(t *testing.T, m Model, k tea.KeyType) Model {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return drain(t, next.(Model), cmd)
}

func entries(m Model) []string {
	var out []string
	for _, e := range m.Transcript().Entries() {
		out = append(out, e.String())
	}
	return out
}

func TestListenThenAccept(t *testing.T) {
	f := newFixture()
	m := f.model()

	m = press(t, m, tea.KeyF1)
	if got := m.Captured(); got != "Cześć" {
		t.Fatalf("Captured() = %q, want Cześć", got)
	}
	if m.listen.State() != StateCaptured {
		t.Errorf("listen state = %v, want Captured", m.listen.State())
	}
	if m.Transcript().Len() != 0 {
		t.Error("capturing must not touch the transcript")
	}

	m = press(t, m, tea.KeyEnter)
	if got := entries(m); len(got) != 1 || got[0] != "Human: Hi" {
		t.Errorf("transcript = %v, want [Human: Hi]", got)
	}
	if f.translator.calls[0] != "PL>EN:Cześć" {
		t.Errorf("translate call = %q", f.translator.calls[0])
	}
	if m.listen.State() != StateIdle || m.Captured() != "" {
		t.Errorf("after accept: state=%v field=%q", m.listen.State(), m.Captured())
	}
}

func TestSpeakLane(t *testing.T) {
	f := newFixture()
	m := f.model()
	m = press(t, m, tea.KeyF1)
	m = press(t, m, tea.KeyEnter)

	m = press(t, m, tea.KeyF2)

	if got := f.completer.prompts; len(got) != 1 || got[0] != "Human: Hi\nAI:" {
		t.Errorf("prompts = %q", got)
	}
	want := []string{"Human: Hi", "AI: Hello there"}
	if got := entries(m); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("transcript = %v, want %v", got, want)
	}
	if m.Spoken() != "Witaj" {
		t.Errorf("Spoken() = %q, want Witaj", m.Spoken())
	}
	if len(f.speaker.spoken) != 1 || f.speaker.spoken[0] != "Witaj" {
		t.Errorf("speaker got %v", f.speaker.spoken)
	}
	if m.speak.State() != StateIdle {
		t.Errorf("speak state = %v, want Idle", m.speak.State())
	}
}

func TestTranscriptFollowsClickOrder(t *testing.T) {
	f := newFixture()
	m := f.model()

	m = press(t, m, tea.KeyF1)
	m = press(t, m, tea.KeyEnter)
	m = press(t, m, tea.KeyF2)

	f.listener.text = "Opowiedz dowcip"
	f.completer.text = "Why did the chicken"
	m = press(t, m, tea.KeyF1)
	m = press(t, m, tea.KeyEnter)
	m = press(t, m, tea.KeyF2)

	want := []string{"Human: Hi", "AI: Hello there", "Human: Tell me a joke", "AI: Why did the chicken"}
	if got := entries(m); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("transcript = %v, want %v", got, want)
	}
	if got := f.completer.prompts[1]; got != "Human: Hi\nAI: Hello there\nHuman: Tell me a joke\nAI:" {
		t.Errorf("second prompt = %q", got)
	}
}

func TestMalformedCompletionLeavesTranscript(t *testing.T) {
	f := newFixture()
	f.completer.err = apperror.Malformed("complete", "missing completions")
	m := f.model()
	m = press(t, m, tea.KeyF1)
	m = press(t, m, tea.KeyEnter)

	m = press(t, m, tea.KeyF2)

	if got := entries(m); len(got) != 1 {
		t.Errorf("transcript = %v, want only the human entry", got)
	}
	status, isErr := m.Status()
	if !isErr || !strings.Contains(status, "unexpected response") {
		t.Errorf("status = %q (error=%v)", status, isErr)
	}
	if strings.Contains(status, "try again") {
		t.Errorf("status = %q, a malformed reply should not suggest a retry", status)
	}
	if len(f.speaker.spoken) != 0 {
		t.Error("nothing should be spoken")
	}
	if m.speak.State() != StateIdle {
		t.Errorf("speak state = %v, want Idle", m.speak.State())
	}
}

func TestFailuresKeepField(t *testing.T) {
	f := newFixture()
	m := f.model()
	m = press(t, m, tea.KeyF1)

	f.listener.err = apperror.New(apperror.KindCapture, "listen", "no speech detected")
	m = press(t, m, tea.KeyF1)
	if m.Captured() != "Cześć" || m.listen.State() != StateCaptured {
		t.Errorf("after failed listen: field=%q state=%v", m.Captured(), m.listen.State())
	}
	if status, isErr := m.Status(); !isErr || status != "listen failed: speech capture failed (no speech detected), try again" {
		t.Errorf("status = %q", status)
	}

	f.translator.err = apperror.FromStatus("translate", 403, []byte("Wrong key"))
	m = press(t, m, tea.KeyEnter)
	if m.Captured() != "Cześć" || m.Transcript().Len() != 0 {
		t.Errorf("after failed accept: field=%q transcript=%d", m.Captured(), m.Transcript().Len())
	}
	if m.listen.State() != StateCaptured {
		t.Errorf("listen state = %v, want Captured", m.listen.State())
	}
}

func TestBusyLaneIgnoresItsKey(t *testing.T) {
	f := newFixture()
	m := f.model()

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyF1})
	m = next.(Model)
	if cmd == nil || m.listen.State() != StateListening {
		t.Fatal("F1 should start listening")
	}
	run := m.listen.RunID()

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyF1})
	m = next.(Model)
	if cmd != nil {
		t.Error("F1 on a busy lane should not start a command")
	}
	if m.listen.RunID() != run {
		t.Error("busy lane must keep its run")
	}
	if m.keys.Listen.Enabled() {
		t.Error("listen binding should be disabled while busy")
	}

	// The speak lane is independent.
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyF2})
	m = next.(Model)
	if cmd == nil || m.speak.State() != StateRequesting {
		t.Error("F2 should work while the listen lane is busy")
	}
}

func TestCancelDropsStaleResult(t *testing.T) {
	f := newFixture()
	m := f.model()

	next, listenCmd := m.Update(tea.KeyMsg{Type: tea.KeyF1})
	m = next.(Model)

	m = press(t, m, tea.KeyEsc)
	if m.listen.State() != StateIdle {
		t.Errorf("state after Esc = %v, want Idle", m.listen.State())
	}
	if status, _ := m.Status(); status != "Cancelled" {
		t.Errorf("status = %q, want Cancelled", status)
	}

	m = drain(t, m, listenCmd)
	if f.listener.ctxErr == nil {
		t.Error("the listener should see a cancelled context")
	}
	if m.Captured() != "" || m.listen.State() != StateIdle {
		t.Errorf("stale capture applied: field=%q state=%v", m.Captured(), m.listen.State())
	}
}

func TestSupersededRunIsDropped(t *testing.T) {
	f := newFixture()
	m := f.model()

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyF2})
	m = next.(Model)
	next, _ = m.Update(completedMsg{runID: "old-run", text: "stale"})
	m = next.(Model)

	if m.Transcript().Len() != 0 {
		t.Error("a result for another run must be dropped")
	}
	if m.speak.State() != StateRequesting {
		t.Errorf("speak state = %v, want Requesting", m.speak.State())
	}
}

func TestAcceptEmptyField(t *testing.T) {
	f := newFixture()
	m := f.model()

	m = press(t, m, tea.KeyEnter)
	if len(f.translator.calls) != 0 {
		t.Error("empty field must not be translated")
	}
	if status, _ := m.Status(); status != "Nothing to accept" {
		t.Errorf("status = %q", status)
	}
}

func TestTypedTextCanBeAccepted(t *testing.T) {
	f := newFixture()
	m := f.model()

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Cześć")})
	m = next.(Model)
	m = press(t, m, tea.KeyEnter)

	if got := entries(m); len(got) != 1 || got[0] != "Human: Hi" {
		t.Errorf("transcript = %v", got)
	}
}

func TestSpeakFailureIsReported(t *testing.T) {
	f := newFixture()
	f.speaker.err = apperror.New(apperror.KindSynthesis, "speak", "engine failed")
	m := f.model()

	m = press(t, m, tea.KeyF2)

	if m.Spoken() != "Witaj" {
		t.Errorf("Spoken() = %q, want the translated reply", m.Spoken())
	}
	if status, isErr := m.Status(); !isErr || !strings.Contains(status, "speech output failed") {
		t.Errorf("status = %q", status)
	}
	if m.speak.State() != StateIdle {
		t.Errorf("speak state = %v, want Idle", m.speak.State())
	}
}

func TestView(t *testing.T) {
	f := newFixture()
	m := f.model()
	if got := m.View(); got != "Starting aichat..." {
		t.Errorf("View() before size = %q", got)
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)
	m = press(t, m, tea.KeyF1)
	m = press(t, m, tea.KeyEnter)

	view := m.View()
	for _, want := range []string{"aichat", "PL ⇄ EN", "Listen: Idle", "Speak: Idle", "Hi"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestRun_RequiresServices(t *testing.T) {
	err := Run(context.Background(), Services{}, DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "listener") {
		t.Errorf("Run() error = %v", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Error("unexpected cancellation")
	}
}
