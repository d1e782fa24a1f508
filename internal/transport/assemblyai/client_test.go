package assemblyai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperlocal-cloud/bazaar/internal/domain"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.wav")
	if err := os.WriteFile(path, []byte("fake-audio-bytes"), 0o600); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return path
}

func newTestServer(t *testing.T, pollStatuses []string, finalText string) *httptest.Server {
	t.Helper()
	var polls atomic.Int32

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("missing auth header")
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload":
			json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/upload/abc"})
		case r.Method == http.MethodPost && r.URL.Path == "/transcript":
			json.NewEncoder(w).Encode(map[string]string{"id": "tr_1", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/transcript/tr_1":
			i := int(polls.Add(1)) - 1
			if i >= len(pollStatuses) {
				i = len(pollStatuses) - 1
			}
			status := pollStatuses[i]
			resp := map[string]string{"id": "tr_1", "status": status}
			if status == "completed" {
				resp["text"] = finalText
			}
			if status == "error" {
				resp["error"] = "audio unreadable"
			}
			json.NewEncoder(w).Encode(resp)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
}

func TestTranscribe_PollsUntilCompleted(t *testing.T) {
	server := newTestServer(t, []string{"queued", "processing", "completed"}, "नमस्ते दुनिया")
	defer server.Close()

	c := New(&Config{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		PollInterval: time.Millisecond,
		Logger:       zap.NewNop(),
	})

	text, err := c.Transcribe(context.Background(), writeTempAudio(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "नमस्ते दुनिया" {
		t.Errorf("text = %q", text)
	}
}

func TestTranscribe_ErrorStatus(t *testing.T) {
	server := newTestServer(t, []string{"processing", "error"}, "")
	defer server.Close()

	c := New(&Config{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		PollInterval: time.Millisecond,
		Logger:       zap.NewNop(),
	})

	_, err := c.Transcribe(context.Background(), writeTempAudio(t))
	if !errors.Is(err, domain.ErrUpstreamError) {
		t.Fatalf("expected ErrUpstreamError, got %v", err)
	}
}

func TestTranscribe_BoundedWait(t *testing.T) {
	server := newTestServer(t, []string{"processing"}, "")
	defer server.Close()

	c := New(&Config{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		PollInterval: time.Millisecond,
		WaitTimeout:  20 * time.Millisecond,
		Logger:       zap.NewNop(),
	})

	_, err := c.Transcribe(context.Background(), writeTempAudio(t))
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable on timeout, got %v", err)
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	c := New(&Config{APIKey: "test-key", BaseURL: "http://localhost:0", Logger: zap.NewNop()})
	_, err := c.Transcribe(context.Background(), "/nonexistent/audio.wav")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
