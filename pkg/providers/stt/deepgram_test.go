package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// newFakeDeepgramServer accepts one websocket connection, reads binary audio
// frames, and replies with a single scripted final Results message once any
// audio has arrived — enough to exercise StreamTranscribe's sender/receiver
// split without a real Deepgram account.
func newFakeDeepgramServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		_, _, err = conn.Read(ctx)
		if err != nil {
			return
		}

		msg := `{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"hello world"}]}}`
		conn.Write(ctx, websocket.MessageText, []byte(msg))

		// Drain the close message so the client's sender goroutine exits cleanly.
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}))
}

func TestDeepgramStreamTranscribeReportsFinalTranscript(t *testing.T) {
	srv := newFakeDeepgramServer(t)
	defer srv.Close()

	d := &DeepgramSTT{
		apiKey:     "test-key",
		wsScheme:   "ws",
		wsHost:     strings.TrimPrefix(srv.URL, "http://"),
		sampleRate: 16000,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		transcript string
		isFinal    bool
	}
	results := make(chan result, 1)

	audioIn, err := d.StreamTranscribe(ctx, "en", func(transcript string, isFinal bool) error {
		results <- result{transcript, isFinal}
		return nil
	})
	if err != nil {
		t.Fatalf("StreamTranscribe failed: %v", err)
	}

	audioIn <- make([]byte, 640)

	select {
	case r := <-results:
		if r.transcript != "hello world" || !r.isFinal {
			t.Fatalf("unexpected result: %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a transcript event")
	}

	close(audioIn)
}
