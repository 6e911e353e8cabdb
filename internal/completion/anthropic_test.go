package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/msto63/aichat/pkg/core/apperror"
)

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) *Anthropic {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	params := DefaultParams()
	params.Model = "claude-3-5-haiku-latest"
	return NewAnthropic(Config{BaseURL: server.URL, APIKey: "sk-ant-test", Params: params})
}

func TestApiStopSequences(t *testing.T) {
	got := apiStopSequences([]string{"\n", " ", "Human:"})
	if len(got) != 1 || got[0] != "Human:" {
		t.Errorf("apiStopSequences() = %q, want [Human:]", got)
	}
}

func TestAnthropic_Complete(t *testing.T) {
	client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Path = %v, want /v1/messages", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "sk-ant-test" {
			t.Errorf("X-Api-Key = %q", got)
		}

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["max_tokens"] != float64(64) {
			t.Errorf("max_tokens = %v", body["max_tokens"])
		}
		if _, ok := body["stop_sequences"]; ok {
			t.Errorf("whitespace-only stop sequences must not be sent: %v", body["stop_sequences"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",
			"content":[{"type":"text","text":"Hello there.\nHuman: next"}],
			"stop_reason":"end_turn","stop_sequence":null,
			"usage":{"input_tokens":5,"output_tokens":6}}`))
	})

	got, err := client.Complete(context.Background(), "Human: Hi\nAI:")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "Hello there." {
		t.Errorf("Complete() = %q, want text cut at the newline stop", got)
	}
}

func TestAnthropic_Complete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperror.Kind
	}{
		{"auth", http.StatusUnauthorized, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, apperror.KindAuth},
		{"rate limit", http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, apperror.KindQuotaExceeded},
		{"overloaded", 529, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, apperror.KindServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), "AI:")
			if kind := apperror.KindOf(err); kind != tt.want {
				t.Errorf("KindOf() = %v, want %v (%v)", kind, tt.want, err)
			}
		})
	}
}

func TestAnthropic_Complete_NoText(t *testing.T) {
	client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_2","type":"message","role":"assistant","model":"m","content":[],
			"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`))
	})

	_, err := client.Complete(context.Background(), "AI:")
	if !apperror.IsKind(err, apperror.KindMalformedResponse) {
		t.Errorf("err = %v, want MalformedResponse", err)
	}
}
