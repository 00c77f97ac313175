// Package analysis produces offline conversation insights from a finished
// call, grounded in the original service's ConversationInsights batch job:
// one LLM call for sentiment, one for whether the call needs a human
// follow-up and one for a short summary, run well after the turn completes
// so it never touches the live pipeline's latency budget.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

const roleAgent = "Agent"
const roleCaller = "Caller"

// Analyzer runs post-call analysis over a CallRecord using any batch
// LLMProvider; it reuses the same provider interface the live pipeline uses
// so no separate analysis-only client type is needed.
type Analyzer struct {
	llm orchestrator.LLMProvider
}

func NewAnalyzer(llm orchestrator.LLMProvider) *Analyzer {
	return &Analyzer{llm: llm}
}

// Analyze produces a report for one finished call. Sentiment and follow-up
// analysis each run as an independent LLM call; a failure in one does not
// prevent the other from completing, mirroring the original job's
// per-question error isolation. A summary failure is returned as an error,
// together with the report filled in so far.
func (a *Analyzer) Analyze(ctx context.Context, call *orchestrator.CallRecord) (*orchestrator.AnalysisReport, error) {
	transcript := formatTranscript(call.Turns)

	report := &orchestrator.AnalysisReport{CallID: call.CallID}

	if sentiment, err := a.sentiment(ctx, transcript); err == nil {
		report.Sentiment = sentiment
	} else {
		report.Sentiment = "unknown"
	}

	if required, reason, err := a.followUp(ctx, transcript); err == nil {
		report.FollowUpRequired = required
		report.FollowUpReason = reason
	}

	summary, err := a.summarize(ctx, transcript)
	if err != nil {
		return report, err
	}
	report.Summary = summary

	return report, nil
}

func (a *Analyzer) sentiment(ctx context.Context, transcript string) (string, error) {
	prompt := fmt.Sprintf(`You are analyzing a call between an agent and a caller.
Is the overall sentiment positive or negative? Answer with exactly one word: positive or negative.

Transcript:
%s`, transcript)

	resp, err := a.llm.Complete(ctx, []orchestrator.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", err
	}

	if strings.Contains(strings.ToLower(resp), "positive") {
		return "positive", nil
	}
	return "negative", nil
}

func (a *Analyzer) followUp(ctx context.Context, transcript string) (bool, string, error) {
	prompt := fmt.Sprintf(`You are analyzing a call between an agent and a caller.
Should this call be flagged for human follow-up? Answer on the first line with exactly "yes" or "no".
If yes, give a one-sentence reason on the second line.

Transcript:
%s`, transcript)

	resp, err := a.llm.Complete(ctx, []orchestrator.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return false, "", err
	}

	lines := strings.Split(strings.TrimSpace(resp), "\n")
	if len(lines) == 0 {
		return false, "", nil
	}

	required := strings.Contains(strings.ToLower(lines[0]), "yes")
	if !required {
		return false, "", nil
	}

	reason := ""
	if len(lines) > 1 {
		reason = strings.TrimSpace(lines[1])
	}
	return true, reason, nil
}

func (a *Analyzer) summarize(ctx context.Context, transcript string) (string, error) {
	prompt := fmt.Sprintf(`Summarize this call in two or three sentences, for someone who did not listen to it.

Transcript:
%s`, transcript)

	return a.llm.Complete(ctx, []orchestrator.Message{{Role: "user", Content: prompt}})
}

func formatTranscript(turns []orchestrator.Message) string {
	var b strings.Builder
	for _, t := range turns {
		role := roleCaller
		if t.Role == "assistant" {
			role = roleAgent
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
	}
	return b.String()
}
