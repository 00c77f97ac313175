package orchestrator

import (
	"context"
	"strings"
	"time"
)

// punctuationBoundary is the set of characters that terminate one LLM
// streaming chunk, grounded in the original process_stream generator.
const punctuationBoundary = ".,!?|"

// LLMStage (C5) waits for a finalized transcript, appends it to the
// conversation context, and streams the model's reply, splitting it into
// punctuation-bounded chunks pushed to llmQ as they complete. On barge-in it
// truncates the in-flight response and still records whatever text was
// produced so far as the assistant turn (I3: at most one assistant turn per
// committed user turn, even if cut short).
type LLMStage struct {
	sttQ *TextQueue
	llmQ *TextQueue

	provider StreamingLLMProvider
	events   *Events
	cfg      Config
	context  *ConversationContext
	logger   Logger
	metrics  *Metrics

	// warmup suppresses context writes and is set by the controller for the
	// single synthetic first turn.
	warmup bool

	// onUserTurn is set by the controller and records the finalized
	// transcript as a user turn. The append is attributed to the controller
	// (C7 per the conversation-context ownership split) even though it fires
	// synchronously from inside runTurn, since the transcript only exists
	// once sttQ has been popped here and must be recorded before the
	// messages sent to the LLM below are built from the context.
	onUserTurn func(transcript string)
}

func NewLLMStage(sttQ, llmQ *TextQueue, provider StreamingLLMProvider, events *Events, cfg Config, ctxt *ConversationContext, metrics *Metrics, logger Logger) *LLMStage {
	return &LLMStage{sttQ: sttQ, llmQ: llmQ, provider: provider, events: events, cfg: cfg, context: ctxt, logger: logger, metrics: metrics}
}

// Run blocks until ctx is cancelled or system_shutdown fires.
func (l *LLMStage) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.events.SystemShutdown.Wait():
			return
		case <-l.events.TranscribeDone.Wait():
			if l.events.SystemShutdown.IsSet() {
				return
			}
			l.runTurn(ctx)
			l.events.TranscribeDone.Clear()
		}
	}
}

func (l *LLMStage) runTurn(ctx context.Context) {
	transcript, ok := l.sttQ.Pop(100 * time.Millisecond)
	if !ok || strings.TrimSpace(transcript) == "" {
		l.events.LLMDone.Set()
		return
	}

	if !l.warmup && l.onUserTurn != nil {
		l.onUserTurn(transcript)
	}

	turnCtx, cancel := context.WithTimeout(ctx, time.Duration(l.cfg.LLMTimeoutSeconds)*time.Second)
	defer cancel()

	messages := []Message{{Role: "system", Content: l.cfg.SystemPrompt}, {Role: "user", Content: transcript}}
	if !l.warmup {
		messages = l.context.Messages()
	}

	start := time.Now()
	firstToken := true
	var pending strings.Builder
	var full strings.Builder

	err := l.provider.StreamComplete(turnCtx, messages, func(delta string) error {
		if firstToken {
			l.metrics.TimeToFirstToken.Observe(time.Since(start).Seconds())
			firstToken = false
		}
		full.WriteString(delta)
		pending.WriteString(delta)

		for {
			s := pending.String()
			idx := strings.IndexAny(s, punctuationBoundary)
			if idx < 0 {
				break
			}
			chunk := s[:idx+1]
			pending.Reset()
			pending.WriteString(s[idx+1:])
			l.llmQ.Push(chunk)
		}

		if l.events.UserBargeIn.IsSet() {
			return ErrContextCancelled
		}
		return nil
	})

	l.metrics.ObserveStage("llm", time.Since(start))

	if rest := pending.String(); strings.TrimSpace(rest) != "" {
		l.llmQ.Push(rest + ".")
	}

	if err != nil && err != ErrContextCancelled {
		l.logger.Error("llm stream error", "error", err)
	}

	if l.events.UserBargeIn.IsSet() {
		l.llmQ.Purge()
	}

	response := full.String()
	if !l.warmup && response != "" {
		l.context.Append("assistant", response)
	}

	l.events.LLMDone.Set()
}
