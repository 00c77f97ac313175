package orchestrator

import (
	"context"
	"time"
)

// TTSStage (C6) synthesizes each punctuation-bounded text chunk from llmQ
// into PCM, streamed into outQ in fixed-size reads, grounded in the original
// SpeechGenerator's fixed-640-byte chunking. It starts draining llmQ the
// moment a turn begins (the same transcribe_done signal C5 starts on), so it
// runs concurrently with the LLM producing chunks rather than waiting for
// the whole reply to finish. It stops mid-chunk on barge-in and signals
// tts_done once llmQ is drained and llm_done is set.
type TTSStage struct {
	llmQ *TextQueue
	outQ *ByteQueue

	provider TTSProvider
	events   *Events
	cfg      Config
	echo     *EchoSuppressor
	logger   Logger
	metrics  *Metrics
}

func NewTTSStage(llmQ *TextQueue, outQ *ByteQueue, provider TTSProvider, events *Events, cfg Config, echo *EchoSuppressor, metrics *Metrics, logger Logger) *TTSStage {
	return &TTSStage{llmQ: llmQ, outQ: outQ, provider: provider, events: events, cfg: cfg, echo: echo, logger: logger, metrics: metrics}
}

// Run blocks until ctx is cancelled or system_shutdown fires.
func (t *TTSStage) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.events.SystemShutdown.Wait():
			return
		case <-t.events.TranscribeDone.Wait():
			t.drainTurn(ctx)
		}
	}
}

func (t *TTSStage) drainTurn(ctx context.Context) {
	turnCtx, cancel := context.WithTimeout(ctx, time.Duration(t.cfg.TTSTimeoutSeconds)*time.Second)
	defer cancel()

	for {
		if t.events.SystemShutdown.IsSet() {
			return
		}
		if t.events.UserBargeIn.IsSet() {
			t.outQ.Purge()
			t.events.TTSDone.Set()
			return
		}

		chunk, ok := t.llmQ.Pop(10 * time.Millisecond)
		if !ok {
			if t.events.LLMDone.IsSet() {
				t.events.TTSDone.Set()
				return
			}
			continue
		}

		start := time.Now()
		firstByte := true
		err := t.provider.StreamSynthesize(turnCtx, chunk, t.cfg.VoiceStyle, t.cfg.Language, func(audio []byte) error {
			if t.events.UserBargeIn.IsSet() {
				return ErrContextCancelled
			}
			if firstByte {
				t.metrics.TimeToFirstAudio.Observe(time.Since(start).Seconds())
				firstByte = false
			}
			for off := 0; off < len(audio); off += t.cfg.FrameBytes {
				end := off + t.cfg.FrameBytes
				if end > len(audio) {
					end = len(audio)
				}
				piece := audio[off:end]
				t.outQ.Push(piece)
				if t.echo != nil {
					t.echo.RecordPlayedAudio(piece)
				}
			}
			return nil
		})
		t.metrics.ObserveStage("tts", time.Since(start))

		if err != nil && err != ErrContextCancelled {
			t.logger.Error("tts synthesis error", "error", err)
		}
	}
}
