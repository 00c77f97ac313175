package orchestrator

import (
	"context"
	"time"
)

// VADStage (C3) turns raw inbound PCM into 512-sample decision windows and
// the speech/silence state transitions that drive turn-taking. It is the
// only place MinSpeechWindows/MinSilenceWindows debouncing lives; the
// injected VADProvider is a pure (window) -> probability function.
type VADStage struct {
	inQ  *ByteQueue
	vadQ *ByteQueue

	provider VADProvider
	events   *Events
	cfg      Config
	logger   Logger
	metrics  *Metrics

	raw []int16 // rolling buffer of not-yet-windowed samples

	isSpeaking     bool
	speechWindows  int
	silenceWindows int
}

func NewVADStage(inQ, vadQ *ByteQueue, provider VADProvider, events *Events, cfg Config, metrics *Metrics, logger Logger) *VADStage {
	return &VADStage{
		inQ:      inQ,
		vadQ:     vadQ,
		provider: provider,
		events:   events,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run blocks until ctx is cancelled or system_shutdown fires.
func (v *VADStage) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-v.events.SystemShutdown.Wait():
			return
		default:
		}

		chunk, ok := v.inQ.Pop(1 * time.Second)
		if !ok {
			continue
		}
		v.raw = append(v.raw, bytesToInt16(chunk)...)

		for len(v.raw) >= v.cfg.WindowSamples {
			window := v.raw[:v.cfg.WindowSamples]
			v.raw = v.raw[v.cfg.WindowSamples:]
			v.processWindow(window)
		}
	}
}

func (v *VADStage) processWindow(window []int16) {
	start := time.Now()
	prob, err := v.provider.SpeechProbability(window)
	v.metrics.ObserveStage("vad", time.Since(start))
	if err != nil {
		v.logger.Error("vad provider error", "error", err)
		return
	}

	isSpeechWindow := prob >= v.cfg.SpeechThreshold

	if isSpeechWindow {
		v.silenceWindows = 0
		v.speechWindows++
		v.isSpeaking = true
	} else {
		v.speechWindows = 0
		v.silenceWindows++
	}

	if v.isSpeaking {
		v.vadQ.Push(int16ToBytes(window))
	}

	if v.speechWindows >= v.cfg.MinSpeechWindows {
		v.events.UserBargeIn.Set()
		v.events.SilenceDetected.Clear()
		v.events.SpeechStarted.Set()
	}

	if v.isSpeaking && v.silenceWindows >= v.cfg.MinSilenceWindows {
		v.isSpeaking = false
		v.speechWindows = 0
		v.silenceWindows = 0
		v.events.SilenceDetected.Set()
		v.events.UserBargeIn.Clear()
	}
}

func bytesToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(b[2*i]) | int16(b[2*i+1])<<8
	}
	return out
}

func int16ToBytes(s []int16) []byte {
	out := make([]byte, len(s)*2)
	for i, v := range s {
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}
