package apperror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{200, ""},
		{204, ""},
		{401, KindAuth},
		{403, KindAuth},
		{429, KindQuotaExceeded},
		{456, KindQuotaExceeded},
		{500, KindServiceUnavailable},
		{503, KindServiceUnavailable},
		{400, KindServiceUnavailable},
		{404, KindServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			if got := KindForStatus(tt.status); got != tt.want {
				t.Errorf("KindForStatus(%d) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestFromStatus(t *testing.T) {
	err := FromStatus("translate", 403, []byte(`{"message":"Wrong key"}`))
	if err == nil {
		t.Fatal("FromStatus() returned nil")
	}
	if err.Kind() != KindAuth {
		t.Errorf("Kind() = %v, want AuthError", err.Kind())
	}
	if status, _ := err.Detail("status"); status != 403 {
		t.Errorf("status detail = %v, want 403", status)
	}
	if !strings.Contains(err.Error(), "Wrong key") {
		t.Errorf("Error() = %q, want body excerpt", err.Error())
	}

	if FromStatus("translate", 200, nil) != nil {
		t.Error("FromStatus(200) should be nil")
	}

	empty := FromStatus("complete", 503, nil)
	if empty.Message() != "Service Unavailable" {
		t.Errorf("Message() = %q, want status text", empty.Message())
	}
}

func TestExcerpt_Truncates(t *testing.T) {
	body := strings.Repeat("ż", 300)
	got := excerpt([]byte(body))
	if !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt should be truncated, got %d bytes", len(got))
	}
	if !strings.HasPrefix(body, strings.TrimSuffix(got, "...")) {
		t.Error("excerpt should cut on a rune boundary")
	}
}

func TestFromTransport(t *testing.T) {
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	err := FromTransport("complete", fmt.Errorf("post: %w", netErr))
	if err.Kind() != KindNetwork {
		t.Errorf("Kind() = %v, want NetworkError", err.Kind())
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		t.Error("cause should stay reachable through errors.As")
	}

	canceled := FromTransport("complete", fmt.Errorf("post: %w", context.Canceled))
	if canceled.Kind() != KindCanceled {
		t.Errorf("Kind() = %v, want Canceled", canceled.Kind())
	}

	if FromTransport("complete", nil) != nil {
		t.Error("FromTransport(nil) should be nil")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain", errors.New("x"), KindUnknown},
		{"direct", New(KindQuotaExceeded, "translate", ""), KindQuotaExceeded},
		{"wrapped", fmt.Errorf("lane: %w", Malformed("complete", "no completions")), KindMalformedResponse},
		{"canceled", context.Canceled, KindCanceled},
		{"deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_IsByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(KindAuth, "translate", "bad key"))

	if !errors.Is(err, New(KindAuth, "", "")) {
		t.Error("errors.Is should match on kind")
	}
	if errors.Is(err, New(KindQuotaExceeded, "", "")) {
		t.Error("errors.Is should not match a different kind")
	}
	if !IsKind(err, KindAuth) {
		t.Error("IsKind() = false, want true")
	}
}

func TestError_String(t *testing.T) {
	err := Wrap(errors.New("exit status 1"), KindSynthesis, "speak", "espeak-ng failed").WithDetail("voice", "pl")
	want := "speak: SynthesisError: espeak-ng failed [voice=pl]: exit status 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if Wrap(nil, KindSynthesis, "speak", "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"with message", New(KindAuth, "translate", "Wrong key"), "translate failed: credentials rejected (Wrong key)"},
		{"cause only", Wrap(errors.New("refused"), KindNetwork, "complete", ""), "complete failed: service unreachable (refused)"},
		{"no detail", New(KindQuotaExceeded, "translate", ""), "translate failed: quota exceeded"},
		{"canceled", New(KindCanceled, "listen", ""), "listen cancelled"},
		{"plain canceled", context.Canceled, "cancelled"},
		{"plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKind_Transient(t *testing.T) {
	if !KindNetwork.Transient() {
		t.Error("NetworkError should be transient")
	}
	if KindAuth.Transient() {
		t.Error("AuthError should not be transient")
	}
	if KindConfig.Summary() != "configuration error" {
		t.Errorf("Summary() = %q", KindConfig.Summary())
	}
}
