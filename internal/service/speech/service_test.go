package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/anamnezgpt/backend/internal/config"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewService(config.SpeechConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "whisper-1",
		Language: "tr",
		Enabled:  true,
	})
}

func TestTranscribeReturnsTrimmedText(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("invalid multipart request: %v", err)
		}
		if got := r.FormValue("language"); got != "tr" {
			t.Fatalf("expected tr language field, got %q", got)
		}
		if got := r.FormValue("prompt"); got == "" {
			t.Fatal("expected domain priming prompt")
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %q", auth)
		}
		w.Write([]byte(`{"text": "  Bugün kendimi yorgun hissediyorum.  "}`))
	})

	text, err := svc.Transcribe(context.Background(), []byte("fake-audio"), "webm")
	if err != nil {
		t.Fatalf("Transcribe err: %v", err)
	}
	if text != "Bugün kendimi yorgun hissediyorum." {
		t.Fatalf("expected trimmed text, got %q", text)
	}
}

func TestTranscribeEmptyAudioIsDistinctOutcome(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"text": "   "}`))
	})

	_, err := svc.Transcribe(context.Background(), []byte("silence"), "webm")
	if !errors.Is(err, ErrEmptyTranscription) {
		t.Fatalf("expected ErrEmptyTranscription, got %v", err)
	}
}

func TestTranscribeUpstreamFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := svc.Transcribe(context.Background(), []byte("audio"), "webm")
	if err == nil || errors.Is(err, ErrEmptyTranscription) {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

func TestTranscribeNotConfigured(t *testing.T) {
	svc := NewService(config.SpeechConfig{})

	if _, err := svc.Transcribe(context.Background(), []byte("audio"), "webm"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestTranscribeCleansTempFiles(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	svc.Transcribe(context.Background(), []byte("audio"), "webm")

	leftovers, err := filepath.Glob(filepath.Join(os.TempDir(), "anamnez-asr-*"))
	if err != nil {
		t.Fatalf("glob err: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("temp audio files leaked: %v", leftovers)
	}
}
