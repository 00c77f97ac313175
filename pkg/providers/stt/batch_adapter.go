package stt

import (
	"context"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

// BatchStreamAdapter adapts a batch-only STTProvider — one Transcribe call
// over a complete buffer — into a StreamingSTTProvider so it can back the
// per-episode StreamTranscribe contract STTStage relies on. It buffers every
// window pushed during one speech episode and transcribes the whole buffer
// once the episode's context is cancelled (silence_detected), the same point
// at which a real streaming recognizer would report its final result.
type BatchStreamAdapter struct {
	provider orchestrator.STTProvider
}

func NewBatchStreamAdapter(provider orchestrator.STTProvider) *BatchStreamAdapter {
	return &BatchStreamAdapter{provider: provider}
}

func (b *BatchStreamAdapter) Name() string { return b.provider.Name() }

func (b *BatchStreamAdapter) Transcribe(ctx context.Context, audioPCM []byte, lang orchestrator.Language) (string, error) {
	return b.provider.Transcribe(ctx, audioPCM, lang)
}

func (b *BatchStreamAdapter) StreamTranscribe(ctx context.Context, lang orchestrator.Language, onTranscript func(transcript string, isFinal bool) error) (chan<- []byte, error) {
	windows := make(chan []byte, 64)

	go func() {
		var buf []byte
		for {
			select {
			case <-ctx.Done():
				// Collect windows pushed before cancellation but not yet read.
				for pending := true; pending; {
					select {
					case window, ok := <-windows:
						if !ok {
							pending = false
						}
						buf = append(buf, window...)
					default:
						pending = false
					}
				}
				if len(buf) == 0 {
					return
				}
				text, err := b.provider.Transcribe(context.Background(), buf, lang)
				if err != nil {
					return
				}
				onTranscript(text, true)
				return
			case window, ok := <-windows:
				if !ok {
					return
				}
				buf = append(buf, window...)
			}
		}
	}()

	return windows, nil
}
