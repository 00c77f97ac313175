package orchestrator

// IngressStage (C1) is the entry point for inbound telephony audio. The
// WebSocket read loop (pkg/telephony) calls Submit for every binary frame it
// receives; IngressStage applies echo suppression and then offers the frame
// to inQ. There is no dedicated goroutine here: the transport's own read
// loop *is* the producer, matching the original VoipSocket pattern of a
// single blocking receive loop per connection.
type IngressStage struct {
	inQ      *ByteQueue
	echo     *EchoSuppressor
	events   *Events
	metrics  *Metrics
	logger   Logger
}

func NewIngressStage(inQ *ByteQueue, echo *EchoSuppressor, events *Events, metrics *Metrics, logger Logger) *IngressStage {
	return &IngressStage{inQ: inQ, echo: echo, events: events, metrics: metrics, logger: logger}
}

// Submit offers one inbound PCM frame to the pipeline. It returns false if
// the call is shutting down (the frame is not queued) or if inQ was full and
// its oldest frame was dropped to make room (this frame is still queued).
func (ig *IngressStage) Submit(frame []byte) bool {
	if ig.events.SystemShutdown.IsSet() {
		return false
	}
	clean := frame
	if ig.echo != nil {
		clean = ig.echo.RemoveEchoRealtime(frame)
	}
	ok := ig.inQ.Push(clean)
	if !ok {
		ig.metrics.QueueDropped("inQ")
		ig.logger.Warn("inQ full, dropped oldest frame")
	}
	return ok
}
