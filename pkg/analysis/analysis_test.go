package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

// scriptedLLM returns one canned response per call, in order, so each of
// Analyze's three independent questions can be driven deterministically.
type scriptedLLM struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedLLM) Name() string { return "scripted-llm" }

func (s *scriptedLLM) Complete(ctx context.Context, messages []orchestrator.Message) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp string
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

func testCall() *orchestrator.CallRecord {
	return &orchestrator.CallRecord{
		CallID: "call-9",
		Turns: []orchestrator.Message{
			{Role: "user", Content: "I need to cancel my order"},
			{Role: "assistant", Content: "I can help with that"},
		},
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"positive",
		"no",
		"The caller asked to cancel an order and was assisted.",
	}}
	a := NewAnalyzer(llm)

	report, err := a.Analyze(context.Background(), testCall())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.CallID != "call-9" {
		t.Fatalf("expected CallID to be carried over, got %q", report.CallID)
	}
	if report.Sentiment != "positive" {
		t.Fatalf("expected sentiment positive, got %q", report.Sentiment)
	}
	if report.FollowUpRequired {
		t.Fatal("expected no follow-up required")
	}
	if !strings.Contains(report.Summary, "cancel") {
		t.Fatalf("expected summary to be passed through, got %q", report.Summary)
	}
}

func TestAnalyzeFollowUpRequiredWithReason(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"negative",
		"yes\nCaller was upset about a billing error.",
		"Summary text.",
	}}
	a := NewAnalyzer(llm)

	report, err := a.Analyze(context.Background(), testCall())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.FollowUpRequired {
		t.Fatal("expected follow-up required")
	}
	if report.FollowUpReason != "Caller was upset about a billing error." {
		t.Fatalf("unexpected follow-up reason: %q", report.FollowUpReason)
	}
}

// TestAnalyzeSentimentFailureDoesNotFailReport exercises the per-question
// error isolation ported from ConversationInsights.py: one question failing
// must not prevent the others from completing.
func TestAnalyzeSentimentFailureDoesNotFailReport(t *testing.T) {
	llm := &scriptedLLM{
		responses: []string{"", "no", "Summary despite sentiment failure."},
		errs:      []error{context.DeadlineExceeded},
	}
	a := NewAnalyzer(llm)

	report, err := a.Analyze(context.Background(), testCall())
	if err != nil {
		t.Fatalf("expected no top-level error when only sentiment fails: %v", err)
	}
	if report.Sentiment != "unknown" {
		t.Fatalf("expected sentiment to fall back to unknown, got %q", report.Sentiment)
	}
	if report.Summary != "Summary despite sentiment failure." {
		t.Fatalf("expected summary to still be produced, got %q", report.Summary)
	}
}

func TestAnalyzeSummaryFailurePropagates(t *testing.T) {
	llm := &scriptedLLM{
		responses: []string{"positive", "no", ""},
		errs:      []error{nil, nil, context.DeadlineExceeded},
	}
	a := NewAnalyzer(llm)

	_, err := a.Analyze(context.Background(), testCall())
	if err == nil {
		t.Fatal("expected Analyze to propagate a summary failure")
	}
}
