package speech

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msto63/aichat/internal/speech/stt"
	"github.com/msto63/aichat/internal/speech/tts"
	"github.com/msto63/aichat/pkg/core/apperror"
)

const (
	testRate  = 16000
	frameSize = 480 // 30ms
)

type fakeSource struct {
	frames [][]float32
	hold   bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	starts int
	stops  int
	sent   int
}

func (s *fakeSource) Start(ctx context.Context) (<-chan []float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []float32)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel, s.done = cancel, done
	s.starts++
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer close(out)
		for _, f := range s.frames {
			select {
			case out <- f:
				s.mu.Lock()
				s.sent++
				s.mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
		if s.hold {
			<-ctx.Done()
		}
	}()
	return out, nil
}

func (s *fakeSource) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	if cancel != nil {
		s.stops++
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *fakeSource) SampleRate() int { return testRate }

type failingSource struct{}

func (failingSource) Start(ctx context.Context) (<-chan []float32, error) {
	return nil, errors.New("device busy")
}
func (failingSource) Stop()           {}
func (failingSource) SampleRate() int { return testRate }

// voicedDetector reports speech for any non-zero frame
type voicedDetector struct{}

func (voicedDetector) Process(samples []float32) (bool, error) {
	return len(samples) > 0 && samples[0] != 0, nil
}
func (voicedDetector) Close() error { return nil }

type fakeTranscriber struct {
	text    string
	err     error
	samples []float32
	calls   int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, samples []float32) (stt.Result, error) {
	f.calls++
	f.samples = samples
	return stt.Result{Text: f.text}, f.err
}
func (f *fakeTranscriber) Close() error { return nil }

func frames(n int, amp float32) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		f := make([]float32, frameSize)
		for j := range f {
			f[j] = amp
		}
		out[i] = f
	}
	return out
}

func concat(parts ...[][]float32) [][]float32 {
	var out [][]float32
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestListener_Listen(t *testing.T) {
	src := &fakeSource{frames: concat(frames(5, 0), frames(20, 0.5), frames(40, 0)), hold: true}
	tr := &fakeTranscriber{text: " Cześć "}
	l := NewListener(src, voicedDetector{}, tr, DefaultListenerConfig())

	got, err := l.Listen(context.Background())
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if got != "Cześć" {
		t.Errorf("Listen() = %q, want Cześć", got)
	}

	// 5 pre-roll frames, 20 speech frames, 27 silence frames (810ms)
	if want := 52 * frameSize; len(tr.samples) != want {
		t.Errorf("transcribed %d samples, want %d", len(tr.samples), want)
	}
	if src.starts != 1 || src.stops != 1 {
		t.Errorf("starts=%d stops=%d, want the device released once", src.starts, src.stops)
	}
}

func TestListener_PreRollIsBounded(t *testing.T) {
	src := &fakeSource{frames: concat(frames(50, 0), frames(20, 0.5), frames(30, 0)), hold: true}
	tr := &fakeTranscriber{text: "tak"}
	l := NewListener(src, voicedDetector{}, tr, DefaultListenerConfig())

	if _, err := l.Listen(context.Background()); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	// 300ms pre-roll is 10 frames
	if want := (10 + 20 + 27) * frameSize; len(tr.samples) != want {
		t.Errorf("transcribed %d samples, want %d", len(tr.samples), want)
	}
}

func TestListener_Failures(t *testing.T) {
	shortTimeout := DefaultListenerConfig()
	shortTimeout.ListenTimeout = 300 * time.Millisecond

	tests := []struct {
		name    string
		source  FrameSource
		cfg     ListenerConfig
		tr      *fakeTranscriber
		kind    apperror.Kind
		calls   int
		message string
	}{
		{
			name:    "no speech before timeout",
			source:  &fakeSource{frames: frames(20, 0), hold: true},
			cfg:     shortTimeout,
			tr:      &fakeTranscriber{text: "x"},
			kind:    apperror.KindCapture,
			message: "no speech detected",
		},
		{
			name:    "stream ends without speech",
			source:  &fakeSource{frames: frames(5, 0)},
			cfg:     DefaultListenerConfig(),
			tr:      &fakeTranscriber{text: "x"},
			kind:    apperror.KindCapture,
			message: "no speech detected",
		},
		{
			name:    "speech too short",
			source:  &fakeSource{frames: concat(frames(3, 0.5), frames(40, 0))},
			cfg:     DefaultListenerConfig(),
			tr:      &fakeTranscriber{text: "x"},
			kind:    apperror.KindCapture,
			message: "speech too short",
		},
		{
			name:    "empty transcription",
			source:  &fakeSource{frames: concat(frames(20, 0.5), frames(30, 0)), hold: true},
			cfg:     DefaultListenerConfig(),
			tr:      &fakeTranscriber{text: "  "},
			kind:    apperror.KindCapture,
			calls:   1,
			message: "speech was unintelligible",
		},
		{
			name:    "microphone unavailable",
			source:  failingSource{},
			cfg:     DefaultListenerConfig(),
			tr:      &fakeTranscriber{text: "x"},
			kind:    apperror.KindCapture,
			message: "microphone unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewListener(tt.source, voicedDetector{}, tt.tr, tt.cfg)
			_, err := l.Listen(context.Background())

			var appErr *apperror.Error
			if !errors.As(err, &appErr) {
				t.Fatalf("error = %v, want *apperror.Error", err)
			}
			if appErr.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", appErr.Kind(), tt.kind)
			}
			if appErr.Message() != tt.message {
				t.Errorf("Message() = %q, want %q", appErr.Message(), tt.message)
			}
			if tt.tr.calls != tt.calls {
				t.Errorf("transcriber calls = %d, want %d", tt.tr.calls, tt.calls)
			}
		})
	}
}

func TestListener_NoiseBurstEndsAfterSilence(t *testing.T) {
	// 60ms click, then 33s of silence on a microphone that stays open
	src := &fakeSource{frames: concat(frames(2, 0.5), frames(1100, 0)), hold: true}
	tr := &fakeTranscriber{text: "x"}
	l := NewListener(src, voicedDetector{}, tr, DefaultListenerConfig())

	_, err := l.Listen(context.Background())
	if !apperror.IsKind(err, apperror.KindCapture) || !strings.Contains(err.Error(), "speech too short") {
		t.Fatalf("Listen() error = %v, want speech too short", err)
	}

	src.mu.Lock()
	sent := src.sent
	src.mu.Unlock()
	// 2 voiced frames plus the 800ms silence window is 29 frames
	if sent > 40 {
		t.Errorf("read %d frames (%v of audio), want the burst to end with the silence window",
			sent, time.Duration(sent)*30*time.Millisecond)
	}
	if tr.calls != 0 {
		t.Errorf("transcriber called %d times for a noise burst", tr.calls)
	}
}

func TestListener_TranscriberErrorIsWrapped(t *testing.T) {
	cause := apperror.FromTransport("transcribe", errors.New("connection refused"))
	src := &fakeSource{frames: concat(frames(20, 0.5), frames(30, 0)), hold: true}
	l := NewListener(src, voicedDetector{}, &fakeTranscriber{err: cause}, DefaultListenerConfig())

	_, err := l.Listen(context.Background())
	if got := apperror.KindOf(err); got != apperror.KindCapture {
		t.Errorf("KindOf() = %v, want CaptureError", got)
	}
	if !errors.Is(err, cause) {
		t.Error("error should wrap the transcriber failure")
	}
}

func TestListener_Cancel(t *testing.T) {
	src := &fakeSource{hold: true}
	l := NewListener(src, voicedDetector{}, &fakeTranscriber{text: "x"}, DefaultListenerConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := l.Listen(ctx)
	if got := apperror.KindOf(err); got != apperror.KindCanceled {
		t.Errorf("KindOf() = %v, want Canceled", got)
	}
	if src.stops != 1 {
		t.Errorf("stops = %d, want 1", src.stops)
	}
}

func TestListener_CalibrateGatesQuietVoice(t *testing.T) {
	ambient := &fakeSource{frames: frames(40, 0.1), hold: true}
	l := NewListener(ambient, voicedDetector{}, &fakeTranscriber{text: "x"}, DefaultListenerConfig())

	threshold, err := l.Calibrate(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}
	if math.Abs(threshold-0.15) > 1e-6 {
		t.Errorf("threshold = %v, want 0.15", threshold)
	}

	// Voiced frames at the ambient level do not pass the gate.
	l.source = &fakeSource{frames: frames(20, 0.1)}
	_, err = l.Listen(context.Background())
	if !apperror.IsKind(err, apperror.KindCapture) {
		t.Errorf("error = %v, want CaptureError", err)
	}
}

type fakeEngine struct {
	voices []tts.Voice
	voice  tts.Voice
	spoken []string
	err    error
}

func (e *fakeEngine) Name() string { return "fake" }
func (e *fakeEngine) Voices(ctx context.Context) ([]tts.Voice, error) {
	return e.voices, nil
}
func (e *fakeEngine) SetVoice(v tts.Voice) { e.voice = v }
func (e *fakeEngine) Speak(ctx context.Context, text string) error {
	if e.err != nil {
		return e.err
	}
	e.spoken = append(e.spoken, text)
	return nil
}
func (e *fakeEngine) Close() error { return nil }

func TestSpeaker(t *testing.T) {
	engine := &fakeEngine{voices: []tts.Voice{
		{ID: "en", Language: "en"},
		{ID: "zosia", Name: "Zosia", Language: "pl_PL"},
	}}

	s, err := NewSpeaker(context.Background(), engine, "", "pl")
	if err != nil {
		t.Fatalf("NewSpeaker() error = %v", err)
	}
	if engine.voice.ID != "zosia" || s.Voice().ID != "zosia" {
		t.Errorf("voice = %q, want zosia", engine.voice.ID)
	}

	if err := s.Speak(context.Background(), "Cześć"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if err := s.Speak(context.Background(), "   "); err != nil {
		t.Fatalf("Speak(blank) error = %v", err)
	}
	if len(engine.spoken) != 1 || engine.spoken[0] != "Cześć" {
		t.Errorf("spoken = %v", engine.spoken)
	}

	engine.err = errors.New("audio device lost")
	if err := s.Speak(context.Background(), "x"); !apperror.IsKind(err, apperror.KindSynthesis) {
		t.Errorf("error = %v, want SynthesisError", err)
	}
}

func TestNewSpeaker_MissingVoice(t *testing.T) {
	engine := &fakeEngine{voices: []tts.Voice{{ID: "en", Language: "en"}}}

	_, err := NewSpeaker(context.Background(), engine, "", "pl")
	if !apperror.IsKind(err, apperror.KindSynthesis) {
		t.Errorf("error = %v, want SynthesisError", err)
	}
}
