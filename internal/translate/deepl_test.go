package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/msto63/aichat/pkg/core/apperror"
)

func newTestDeepL(t *testing.T, handler http.HandlerFunc) *DeepL {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewDeepL(DeepLConfig{BaseURL: server.URL, AuthKey: "test-key", Timeout: 5 * time.Second})
}

func TestDefaultDeepLConfig(t *testing.T) {
	cfg := DefaultDeepLConfig()

	if cfg.BaseURL != "https://api-free.deepl.com" {
		t.Errorf("BaseURL = %v, want https://api-free.deepl.com", cfg.BaseURL)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout)
	}
}

func TestDeepL_Translate(t *testing.T) {
	client := newTestDeepL(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/translate" {
			t.Errorf("Path = %v, want /v2/translate", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Method = %v, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		want := map[string]string{
			"source_lang": "PL",
			"target_lang": "EN",
			"auth_key":    "test-key",
			"text":        "Cześć, jak się masz?",
		}
		for k, v := range want {
			if got := r.PostForm.Get(k); got != v {
				t.Errorf("form %s = %q, want %q", k, got, v)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations":[{"detected_source_language":"PL","text":"  Hi, how are you?\n"},{"text":"second"}]}`))
	})

	got, err := client.Translate(context.Background(), "Cześć, jak się masz?", "pl", "EN")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	// The nested value is returned unchanged, whitespace included.
	if got != "  Hi, how are you?\n" {
		t.Errorf("Translate() = %q, want translations[0].text unchanged", got)
	}
}

func TestDeepL_Translate_SameLanguage(t *testing.T) {
	client := newTestDeepL(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when source equals target")
	})

	got, err := client.Translate(context.Background(), "Hi", "en", "EN")
	if err != nil || got != "Hi" {
		t.Errorf("Translate() = %q, %v", got, err)
	}
}

func TestDeepL_Translate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperror.Kind
	}{
		{"forbidden", http.StatusForbidden, `{"message":"Wrong endpoint"}`, apperror.KindAuth},
		{"unauthorized", http.StatusUnauthorized, ``, apperror.KindAuth},
		{"quota", 456, `{"message":"Quota exceeded"}`, apperror.KindQuotaExceeded},
		{"too many requests", http.StatusTooManyRequests, ``, apperror.KindQuotaExceeded},
		{"unavailable", http.StatusServiceUnavailable, `busy`, apperror.KindServiceUnavailable},
		{"bad request", http.StatusBadRequest, `{"message":"Value for 'target_lang' not supported."}`, apperror.KindServiceUnavailable},
		{"not json", http.StatusOK, `<html>`, apperror.KindMalformedResponse},
		{"missing key", http.StatusOK, `{"result":[]}`, apperror.KindMalformedResponse},
		{"empty array", http.StatusOK, `{"translations":[]}`, apperror.KindMalformedResponse},
		{"missing text", http.StatusOK, `{"translations":[{"detected_source_language":"PL"}]}`, apperror.KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestDeepL(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			got, err := client.Translate(context.Background(), "Cześć", "PL", "EN")
			if err == nil {
				t.Fatalf("Translate() = %q, want error", got)
			}
			if kind := apperror.KindOf(err); kind != tt.want {
				t.Errorf("KindOf() = %v, want %v (%v)", kind, tt.want, err)
			}
		})
	}
}

func TestDeepL_Translate_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewDeepL(DeepLConfig{BaseURL: url, AuthKey: "k", Timeout: time.Second})
	_, err := client.Translate(context.Background(), "Cześć", "PL", "EN")
	if !apperror.IsKind(err, apperror.KindNetwork) {
		t.Errorf("err = %v, want NetworkError", err)
	}
}

func TestDeepL_Translate_Canceled(t *testing.T) {
	client := newTestDeepL(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Translate(ctx, "Cześć", "PL", "EN")
	if !apperror.IsKind(err, apperror.KindCanceled) {
		t.Errorf("err = %v, want Canceled", err)
	}
}

func TestDeepL_Usage(t *testing.T) {
	client := newTestDeepL(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/usage" {
			t.Errorf("Path = %v, want /v2/usage", r.URL.Path)
		}
		r.ParseForm()
		if r.PostForm.Get("auth_key") != "test-key" {
			t.Errorf("auth_key = %q", r.PostForm.Get("auth_key"))
		}
		w.Write([]byte(`{"character_count":1200,"character_limit":500000}`))
	})

	usage, err := client.Usage(context.Background())
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	if usage.CharacterCount != 1200 || usage.CharacterLimit != 500000 {
		t.Errorf("Usage() = %+v", usage)
	}
}
