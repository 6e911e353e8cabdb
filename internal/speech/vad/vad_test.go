package vad

import (
	"math"
	"testing"
	"time"
)

const frame = 30 * time.Millisecond

func feed(t *SpeechTracker, speech bool, frames int) {
	for i := 0; i < frames; i++ {
		t.Update(speech, frame)
	}
}

func TestSpeechTracker_IgnoresLeadingSilence(t *testing.T) {
	tr := NewSpeechTracker(DefaultConfig())
	feed(tr, false, 100)

	if tr.Started() {
		t.Error("tracker should not start on silence")
	}
	if tr.State().Elapsed != 0 {
		t.Errorf("Elapsed = %v, want 0", tr.State().Elapsed)
	}
}

func TestSpeechTracker_EndsAfterSilence(t *testing.T) {
	tr := NewSpeechTracker(DefaultConfig())

	feed(tr, true, 20) // 600ms
	if tr.ShouldEndRecording() {
		t.Fatal("should not end while speaking")
	}

	feed(tr, false, 26) // 780ms
	if tr.ShouldEndRecording() {
		t.Fatal("should not end before 800ms of silence")
	}

	feed(tr, false, 1) // 810ms
	if !tr.ShouldEndRecording() {
		t.Fatal("should end after 800ms of silence")
	}

	st := tr.State()
	if st.IsSpeaking {
		t.Error("IsSpeaking should be false after silence")
	}
	if st.SpeechDuration != 600*time.Millisecond {
		t.Errorf("SpeechDuration = %v, want 600ms", st.SpeechDuration)
	}
}

func TestSpeechTracker_SilenceResetsOnSpeech(t *testing.T) {
	tr := NewSpeechTracker(DefaultConfig())

	feed(tr, true, 20)
	feed(tr, false, 20)
	feed(tr, true, 1)

	if got := tr.State().SilenceDuration; got != 0 {
		t.Errorf("SilenceDuration = %v, want 0", got)
	}
	if got := tr.State().SpeechDuration; got != 41*frame {
		t.Errorf("SpeechDuration = %v, want %v", got, 41*frame)
	}
}

func TestSpeechTracker_ShortBurstIsNotValid(t *testing.T) {
	tr := NewSpeechTracker(DefaultConfig())

	feed(tr, true, 3) // 90ms
	feed(tr, false, 26)
	if tr.ShouldDiscard() {
		t.Fatal("burst discarded before the silence window ended")
	}

	feed(tr, false, 4)
	if tr.IsValidSpeech() {
		t.Error("90ms of speech should not be valid")
	}
	if tr.ShouldEndRecording() {
		t.Error("too-short speech should not end recording")
	}
	if !tr.ShouldDiscard() {
		t.Error("burst followed by 900ms of silence should be discarded")
	}
}

func TestSpeechTracker_ValidSpeechIsNotDiscarded(t *testing.T) {
	tr := NewSpeechTracker(DefaultConfig())
	feed(tr, true, 20)
	feed(tr, false, 40)

	if tr.ShouldDiscard() {
		t.Error("600ms of speech should not be discarded")
	}
}

func TestSpeechTracker_PhraseLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PhraseLimit = time.Second
	tr := NewSpeechTracker(cfg)

	feed(tr, true, 33)
	if tr.PhraseLimitReached() {
		t.Fatal("limit reached too early")
	}
	feed(tr, true, 1)
	if !tr.PhraseLimitReached() {
		t.Error("limit should be reached after 1020ms")
	}

	tr.Reset()
	if tr.Started() || tr.PhraseLimitReached() {
		t.Error("Reset should clear the tracker")
	}
}

func TestEnergyGate(t *testing.T) {
	tests := []struct {
		name      string
		ambient   float32
		minimum   float64
		threshold float64
	}{
		{name: "quiet room uses floor", ambient: 0.001, minimum: 0.003, threshold: 0.003},
		{name: "noisy room scales", ambient: 0.1, minimum: 0.003, threshold: 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewEnergyGate(1.5, tt.minimum)
			ambient := []float32{tt.ambient, -tt.ambient, tt.ambient, -tt.ambient}

			got := g.Calibrate(ambient)
			if math.Abs(got-tt.threshold) > 1e-6 {
				t.Errorf("Calibrate() = %v, want %v", got, tt.threshold)
			}
			if g.Pass(ambient) {
				t.Error("ambient noise should not pass the gate")
			}
			if !g.Pass([]float32{0.5, -0.5}) {
				t.Error("loud frame should pass the gate")
			}
		})
	}
}

func TestValidateSampleRate(t *testing.T) {
	for _, rate := range []int{8000, 16000, 32000, 48000} {
		if err := ValidateSampleRate(rate); err != nil {
			t.Errorf("ValidateSampleRate(%d) error = %v", rate, err)
		}
	}
	if err := ValidateSampleRate(44100); err == nil {
		t.Error("ValidateSampleRate(44100) should fail")
	}
}

func TestInt16ToBytes(t *testing.T) {
	got := int16ToBytes([]int16{1, -1, 256})
	want := []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x01}
	if string(got) != string(want) {
		t.Errorf("int16ToBytes() = %v, want %v", got, want)
	}
}
