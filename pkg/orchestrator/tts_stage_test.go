package orchestrator

import (
	"context"
	"testing"
	"time"
)

// stubTTS is a deterministic TTSProvider whose StreamSynthesize calls
// onChunk once per configured chunk, regardless of the requested text.
type stubTTS struct {
	chunks [][]byte
}

func (s *stubTTS) Name() string { return "stub-tts" }

func (s *stubTTS) Synthesize(ctx context.Context, text string, voice Voice, lang Language) ([]byte, error) {
	var out []byte
	for _, c := range s.chunks {
		out = append(out, c...)
	}
	return out, nil
}

func (s *stubTTS) StreamSynthesize(ctx context.Context, text string, voice Voice, lang Language, onChunk func([]byte) error) error {
	for _, c := range s.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return nil
}

func TestTTSStageSignalsDoneWhenQueueDrainsAndLLMDone(t *testing.T) {
	cfg := DefaultConfig()
	llmQ := NewTextQueue(8)
	outQ := NewByteQueue(32)
	events := NewEvents()
	tts := &stubTTS{chunks: [][]byte{make([]byte, cfg.FrameBytes)}}
	stage := NewTTSStage(llmQ, outQ, tts, events, cfg, NewEchoSuppressor(), NewMetrics(nil), &NoOpLogger{})

	llmQ.Push("hello.")
	events.LLMDone.Set()

	done := make(chan struct{})
	go func() {
		stage.drainTurn(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drainTurn did not return once llmQ drained and LLMDone was set")
	}

	if !events.TTSDone.IsSet() {
		t.Fatal("expected TTSDone to be set")
	}
	if outQ.Len() == 0 {
		t.Fatal("expected synthesized audio to reach outQ")
	}
}

// TestTTSStageRunDrainsConcurrentlyWithLLM verifies that Run starts draining
// llmQ as soon as a turn begins (transcribe_done) rather than waiting for
// the entire LLM reply to finish (llm_done): a chunk pushed before LLMDone
// is set must still reach outQ promptly.
func TestTTSStageRunDrainsConcurrentlyWithLLM(t *testing.T) {
	cfg := DefaultConfig()
	llmQ := NewTextQueue(8)
	outQ := NewByteQueue(32)
	events := NewEvents()
	tts := &stubTTS{chunks: [][]byte{make([]byte, cfg.FrameBytes)}}
	stage := NewTTSStage(llmQ, outQ, tts, events, cfg, NewEchoSuppressor(), NewMetrics(nil), &NoOpLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stage.Run(ctx)

	events.TranscribeDone.Set()
	llmQ.Push("hello.")

	deadline := time.Now().Add(2 * time.Second)
	for outQ.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected audio to reach outQ while the LLM turn is still in flight (LLMDone not yet set)")
		}
		time.Sleep(time.Millisecond)
	}

	if events.TTSDone.IsSet() {
		t.Fatal("TTSDone must not fire before LLMDone, even once llmQ has been drained once")
	}

	events.LLMDone.Set()

	deadline = time.Now().Add(2 * time.Second)
	for !events.TTSDone.IsSet() {
		if time.Now().After(deadline) {
			t.Fatal("expected TTSDone to be set once llmQ drained and LLMDone was set")
		}
		time.Sleep(time.Millisecond)
	}
}

// TestTTSStageBargeInPurgesOutput verifies property 2 from SPEC_FULL.md §8:
// barge-in must drain the outbound queue promptly.
func TestTTSStageBargeInPurgesOutput(t *testing.T) {
	cfg := DefaultConfig()
	llmQ := NewTextQueue(8)
	outQ := NewByteQueue(32)
	events := NewEvents()
	tts := &stubTTS{chunks: [][]byte{make([]byte, cfg.FrameBytes)}}
	stage := NewTTSStage(llmQ, outQ, tts, events, cfg, NewEchoSuppressor(), NewMetrics(nil), &NoOpLogger{})

	outQ.Push(make([]byte, cfg.FrameBytes))
	events.UserBargeIn.Set()

	done := make(chan struct{})
	go func() {
		stage.drainTurn(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drainTurn did not return promptly on barge-in")
	}

	if outQ.Len() != 0 {
		t.Fatal("expected outQ to be purged on barge-in")
	}
	if !events.TTSDone.IsSet() {
		t.Fatal("expected TTSDone to be set on barge-in")
	}
}
