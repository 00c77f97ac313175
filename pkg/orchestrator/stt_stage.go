package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"
)

// STTStage (C4) owns the streaming recognizer lifecycle for one call. Each
// speech episode (speech_started .. silence_detected) opens a fresh
// recognizer and runs a sender goroutine (pushing vadQ windows to the
// recognizer) alongside a receiver goroutine (accumulating finalized
// transcript segments), grounded in the original send_audio_events /
// handle_events split.
type STTStage struct {
	vadQ *ByteQueue
	sttQ *TextQueue

	provider StreamingSTTProvider
	events   *Events
	cfg      Config
	logger   Logger
	metrics  *Metrics
}

func NewSTTStage(vadQ *ByteQueue, sttQ *TextQueue, provider StreamingSTTProvider, events *Events, cfg Config, metrics *Metrics, logger Logger) *STTStage {
	return &STTStage{vadQ: vadQ, sttQ: sttQ, provider: provider, events: events, cfg: cfg, logger: logger, metrics: metrics}
}

// Run blocks until ctx is cancelled or system_shutdown fires.
func (s *STTStage) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.events.SystemShutdown.Wait():
			return
		case <-s.events.SpeechStarted.Wait():
			if s.events.SystemShutdown.IsSet() {
				return
			}
			s.runEpisode(ctx)
			s.events.SpeechStarted.Clear()
		}
	}
}

func (s *STTStage) runEpisode(ctx context.Context) {
	start := time.Now()
	episodeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	var finals []string

	sttChan, err := s.provider.StreamTranscribe(episodeCtx, s.cfg.Language, func(transcript string, isFinal bool) error {
		if !isFinal || strings.TrimSpace(transcript) == "" {
			return nil
		}
		mu.Lock()
		finals = append(finals, strings.TrimSpace(transcript))
		mu.Unlock()
		return nil
	})
	if err != nil {
		s.logger.Error("failed to start streaming recognizer", "error", err)
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-episodeCtx.Done():
				return
			case <-s.events.SystemShutdown.Wait():
				return
			case <-s.events.SilenceDetected.Wait():
				return
			default:
			}
			window, ok := s.vadQ.Pop(10 * time.Millisecond)
			if !ok {
				continue
			}
			select {
			case sttChan <- window:
			case <-episodeCtx.Done():
				return
			}
		}
	}()

	select {
	case <-s.events.SilenceDetected.Wait():
	case <-episodeCtx.Done():
	case <-s.events.SystemShutdown.Wait():
	}

	cancel()
	wg.Wait()

	mu.Lock()
	transcript := strings.Join(finals, " ")
	mu.Unlock()

	s.metrics.ObserveStage("stt", time.Since(start))
	if transcript != "" {
		s.sttQ.Push(transcript)
	}
	s.events.TranscribeDone.Set()
}
