package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newFakeAssemblyAIServer drives the upload -> submit -> poll round trip
// Transcribe performs, returning "completed" on the first poll.
func newFakeAssemblyAIServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/upload"):
			json.NewEncoder(w).Encode(struct {
				UploadURL string `json:"upload_url"`
			}{UploadURL: "https://cdn.assemblyai.com/upload/fake"})
		case strings.HasSuffix(r.URL.Path, "/transcript"):
			json.NewEncoder(w).Encode(struct {
				ID string `json:"id"`
			}{ID: "transcript-1"})
		case strings.Contains(r.URL.Path, "/transcript/"):
			json.NewEncoder(w).Encode(struct {
				Status string `json:"status"`
				Text   string `json:"text"`
			}{Status: "completed", Text: "hello from assemblyai"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestAssemblyAITranscribeReturnsCompletedText(t *testing.T) {
	server := newFakeAssemblyAIServer(t)
	defer server.Close()

	s := &AssemblyAISTT{apiKey: "test-key", baseURL: server.URL}

	text, err := s.Transcribe(context.Background(), []byte{0x01, 0x02}, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello from assemblyai" {
		t.Fatalf("expected transcribed text, got %q", text)
	}
}

func TestAssemblyAISTTName(t *testing.T) {
	s := NewAssemblyAISTT("key")
	if s.Name() != "assemblyai-stt" {
		t.Fatalf("unexpected name: %q", s.Name())
	}
}
