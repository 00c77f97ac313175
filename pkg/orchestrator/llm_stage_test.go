package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"
)

// stubLLM is a deterministic StreamingLLMProvider: StreamComplete replays
// a scripted list of deltas to onDelta, ignoring the actual messages, so
// LLMStage's punctuation-chunking logic can be exercised without a network.
type stubLLM struct {
	deltas []string
}

func (s *stubLLM) Name() string { return "stub-llm" }

func (s *stubLLM) Complete(ctx context.Context, messages []Message) (string, error) {
	return strings.Join(s.deltas, ""), nil
}

func (s *stubLLM) StreamComplete(ctx context.Context, messages []Message, onDelta func(string) error) error {
	for _, d := range s.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return nil
}

func newTestLLMStage(llm StreamingLLMProvider, warmup bool) (*LLMStage, *TextQueue, *TextQueue, *ConversationContext) {
	cfg := DefaultConfig()
	sttQ := NewTextQueue(8)
	llmQ := NewTextQueue(64)
	convo := NewConversationContext("call-1", cfg)
	stage := NewLLMStage(sttQ, llmQ, llm, NewEvents(), cfg, convo, NewMetrics(nil), &NoOpLogger{})
	stage.warmup = warmup
	stage.onUserTurn = func(transcript string) { convo.Append("user", transcript) }
	return stage, sttQ, llmQ, convo
}

// TestLLMStageChunksOnPunctuation verifies property 5 from SPEC_FULL.md §8.
func TestLLMStageChunksOnPunctuation(t *testing.T) {
	llm := &stubLLM{deltas: []string{"Hello", " there", ". ", "How are ", "you", "?"}}
	stage, sttQ, llmQ, _ := newTestLLMStage(llm, false)
	sttQ.Push("hi")

	stage.runTurn(context.Background())

	var chunks []string
	for {
		c, ok := llmQ.Pop(10 * time.Millisecond)
		if !ok {
			break
		}
		chunks = append(chunks, c)
	}

	if len(chunks) != 2 {
		t.Fatalf("expected 2 punctuation-bounded chunks, got %d: %v", len(chunks), chunks)
	}
	for _, c := range chunks {
		last := c[len(c)-1]
		if !strings.ContainsRune(punctuationBoundary, rune(last)) {
			t.Fatalf("chunk %q does not end on a punctuation boundary", c)
		}
	}
	joined := strings.Join(chunks, "")
	if joined != "Hello there. How are you?" {
		t.Fatalf("concatenated chunks do not reconstruct the stream: %q", joined)
	}

	if !stage.events.LLMDone.IsSet() {
		t.Fatal("expected LLMDone to be set after a normal completion")
	}
}

func TestLLMStageFlushesTrailingTextWithSynthesizedPeriod(t *testing.T) {
	llm := &stubLLM{deltas: []string{"no terminator here"}}
	stage, sttQ, llmQ, _ := newTestLLMStage(llm, false)
	sttQ.Push("hi")

	stage.runTurn(context.Background())

	chunk, ok := llmQ.Pop(10 * time.Millisecond)
	if !ok {
		t.Fatal("expected one flushed chunk")
	}
	if chunk != "no terminator here." {
		t.Fatalf("expected trailing text flushed with a synthesized period, got %q", chunk)
	}
}

func TestLLMStageWarmupNeverTouchesContext(t *testing.T) {
	llm := &stubLLM{deltas: []string{"ready."}}
	stage, sttQ, _, convo := newTestLLMStage(llm, true)
	sttQ.Push("are you ready?")

	stage.runTurn(context.Background())

	if convo.Len() != 0 {
		t.Fatalf("warm-up turn must never be appended to the conversation context, got %d entries", convo.Len())
	}
}

func TestLLMStageAppendsUserAndAssistantTurns(t *testing.T) {
	llm := &stubLLM{deltas: []string{"Hi there."}}
	stage, sttQ, _, convo := newTestLLMStage(llm, false)
	sttQ.Push("hello")

	stage.runTurn(context.Background())

	snap := convo.Snapshot()
	if len(snap) != 2 || snap[0].Role != "user" || snap[1].Role != "assistant" {
		t.Fatalf("expected one user then one assistant turn, got %#v", snap)
	}
}

func TestLLMStageEmptyTranscriptSkipsSoftly(t *testing.T) {
	llm := &stubLLM{deltas: []string{"unused"}}
	stage, _, llmQ, _ := newTestLLMStage(llm, false)
	// sttQ left empty: Pop will time out.

	stage.runTurn(context.Background())

	if !stage.events.LLMDone.IsSet() {
		t.Fatal("expected LLMDone to be set even when the transcript is empty")
	}
	if llmQ.Len() != 0 {
		t.Fatal("no chunk should be produced for an empty transcript")
	}
}
