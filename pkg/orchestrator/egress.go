package orchestrator

import (
	"bytes"
	"context"
	"time"
)

// EgressStage (C2) drains synthesized PCM from outQ, paces it at real-time
// rate in fixed FrameBytes-sized frames, and hands each frame to sink (the
// WebSocket write loop). On user_barge_in it drops everything buffered so
// far and purges outQ (I4); on system_shutdown it exits without flushing.
type EgressStage struct {
	outQ    *ByteQueue
	events  *Events
	sink    func(frame []byte) error
	pace    time.Duration
	frameSz int
	logger  Logger
	metrics *Metrics
}

func NewEgressStage(outQ *ByteQueue, events *Events, cfg Config, sink func([]byte) error, metrics *Metrics, logger Logger) *EgressStage {
	return &EgressStage{
		outQ:    outQ,
		events:  events,
		sink:    sink,
		pace:    15 * time.Millisecond,
		frameSz: cfg.FrameBytes,
		logger:  logger,
		metrics: metrics,
	}
}

// Run blocks until ctx is cancelled or system_shutdown is set.
func (eg *EgressStage) Run(ctx context.Context) {
	buf := new(bytes.Buffer)
	ticker := time.NewTicker(eg.pace)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-eg.events.SystemShutdown.Wait():
			return
		case <-eg.events.UserBargeIn.Wait():
			buf.Reset()
			eg.outQ.Purge()
			continue
		case <-ticker.C:
			for buf.Len() < eg.frameSz {
				chunk, ok := eg.outQ.Pop(0)
				if !ok {
					break
				}
				buf.Write(chunk)
			}
			if buf.Len() < eg.frameSz {
				continue
			}
			frame := make([]byte, eg.frameSz)
			copy(frame, buf.Next(eg.frameSz))
			if err := eg.sink(frame); err != nil {
				eg.logger.Warn("egress sink write failed", "error", err)
			}
		}
	}
}
