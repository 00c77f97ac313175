package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/tracing"
)

// Controller (C7) owns the turn-taking state machine and the lifecycle of
// C1-C6 for exactly one call. It is the only component that transitions
// TurnState; every stage only ever sets/clears the shared Events.
type Controller struct {
	cfg     Config
	events  *Events
	context *ConversationContext
	logger  Logger
	metrics *Metrics

	inQ  *ByteQueue
	vadQ *ByteQueue
	sttQ *TextQueue
	llmQ *TextQueue
	outQ *ByteQueue

	ingress *IngressStage
	egress  *EgressStage
	vadStg  *VADStage
	sttStg  *STTStage
	llmStg  *LLMStage
	ttsStg  *TTSStage

	mu    sync.Mutex
	state TurnState

	observers   chan OrchestratorEvent
	cancelStage context.CancelFunc
	wg          sync.WaitGroup

	onTeardown func(*CallRecord)
	startedAt  int64

	turnSpan trace.Span
}

// Providers bundles the four pluggable collaborators a Controller drives.
type Providers struct {
	VAD VADProvider
	STT StreamingSTTProvider
	LLM StreamingLLMProvider
	TTS TTSProvider
}

func NewController(callID string, cfg Config, p Providers, sink func([]byte) error, metrics *Metrics, logger Logger) *Controller {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	events := NewEvents()
	convo := NewConversationContext(callID, cfg)
	echo := NewEchoSuppressor()

	inQ := NewByteQueue(256)
	vadQ := NewByteQueue(256)
	sttQ := NewTextQueue(16)
	llmQ := NewTextQueue(64)
	outQ := NewByteQueue(512)

	c := &Controller{
		cfg:     cfg,
		events:  events,
		context: convo,
		logger:  logger,
		metrics: metrics,

		inQ: inQ, vadQ: vadQ, sttQ: sttQ, llmQ: llmQ, outQ: outQ,

		ingress: NewIngressStage(inQ, echo, events, metrics, logger),
		egress:  NewEgressStage(outQ, events, cfg, sink, metrics, logger),
		vadStg:  NewVADStage(inQ, vadQ, p.VAD, events, cfg, metrics, logger),
		sttStg:  NewSTTStage(vadQ, sttQ, p.STT, events, cfg, metrics, logger),
		llmStg:  NewLLMStage(sttQ, llmQ, p.LLM, events, cfg, convo, metrics, logger),
		ttsStg:  NewTTSStage(llmQ, outQ, p.TTS, events, cfg, echo, metrics, logger),

		observers: make(chan OrchestratorEvent, 1024),
		state:     StateIdle,
	}

	// The conversation context's user-turn append is owned by the
	// controller (C7), per the append-only-by-C7-and-C5 split; C5 (LLMStage)
	// only invokes it once it has popped the finalized transcript off sttQ.
	c.llmStg.onUserTurn = func(transcript string) {
		c.context.Append("user", transcript)
	}

	return c
}

// OnTeardown registers a callback invoked with the finished call record once
// Stop completes. Used to hand off to the storage collaborator.
func (c *Controller) OnTeardown(fn func(*CallRecord)) { c.onTeardown = fn }

func (c *Controller) Events() <-chan OrchestratorEvent { return c.observers }

func (c *Controller) State() TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s TurnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.emit(StateChanged, string(s))
}

// PushAudio forwards one inbound telephony frame into the pipeline (C1).
func (c *Controller) PushAudio(frame []byte) {
	c.ingress.Submit(frame)
}

// Start launches every stage goroutine, runs the warm-up turn, then the main
// LISTENING/THINKING/SPEAKING loop. It blocks until Stop is called or ctx is
// cancelled.
func (c *Controller) Start(ctx context.Context) {
	stageCtx, cancel := context.WithCancel(ctx)
	c.cancelStage = cancel
	c.startedAt = nowUnix()
	c.metrics.ActiveCallsGauge.Inc()
	defer c.metrics.ActiveCallsGauge.Dec()

	c.wg.Add(4)
	go func() { defer c.wg.Done(); c.vadStg.Run(stageCtx) }()
	go func() { defer c.wg.Done(); c.sttStg.Run(stageCtx) }()
	go func() { defer c.wg.Done(); c.llmStg.Run(stageCtx) }()
	go func() { defer c.wg.Done(); c.ttsStg.Run(stageCtx) }()
	go c.egress.Run(stageCtx)

	c.runWarmup(stageCtx)
	c.runLoop(stageCtx)
}

func (c *Controller) runWarmup(ctx context.Context) {
	c.setState(StateWarmup)
	warmupStart := time.Now()

	c.llmStg.warmup = true
	c.sttQ.Push(c.cfg.WarmupPrompt)
	c.events.TranscribeDone.Set()

	select {
	case <-c.events.LLMDone.Wait():
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(c.cfg.LLMTimeoutSeconds) * time.Second):
	}

	// Discard whatever warm-up produced; it must never reach the caller or
	// the observable conversation context.
	c.llmQ.Purge()
	c.outQ.Purge()
	c.llmStg.warmup = false

	c.events.ResetTurn()
	c.metrics.WarmupDuration.Observe(time.Since(warmupStart).Seconds())
}

func (c *Controller) runLoop(ctx context.Context) {
	c.setState(StateListening)

	for {
		// LLMDone is only acted on while THINKING and stays set until the
		// turn completes, so the TTS stage can see it once llmQ is drained.
		var llmDone <-chan struct{}
		if c.State() == StateThinking {
			llmDone = c.events.LLMDone.Wait()
		}
		select {
		case <-ctx.Done():
			c.setState(StateTeardown)
			if c.turnSpan != nil {
				c.turnSpan.End()
				c.turnSpan = nil
			}
			return
		case <-c.events.SystemShutdown.Wait():
			c.setState(StateTeardown)
			if c.turnSpan != nil {
				c.turnSpan.End()
				c.turnSpan = nil
			}
			return

		case <-c.events.SpeechStarted.Wait():
			if c.State() == StateSpeaking {
				// barge-in: stages already purged their queues; just
				// reflect the interruption and keep listening for the
				// committed transcript.
				c.metrics.BargeInsTotal.Inc()
				c.emit(Interrupted, nil)
				if c.turnSpan != nil {
					c.turnSpan.End()
					c.turnSpan = nil
				}
				c.setState(StateListening)
			}
			c.emit(UserSpeaking, nil)

		case <-c.events.SilenceDetected.Wait():
			c.emit(UserStopped, nil)
			_, c.turnSpan = tracing.StartTurn(ctx, c.context.ID)
			c.setState(StateThinking)
			c.emit(BotThinking, nil)
			c.events.SilenceDetected.Clear()

		case <-llmDone:
			c.setState(StateSpeaking)
			c.emit(BotSpeaking, nil)

		case <-c.events.TTSDone.Wait():
			c.setState(StateListening)
			c.metrics.TurnsTotal.Inc()
			if c.turnSpan != nil {
				c.turnSpan.End()
				c.turnSpan = nil
			}
			c.events.ResetTurn()
		}
	}
}

// Stop sets system_shutdown, purges every queue, and joins the stage
// goroutines with a bounded deadline.
func (c *Controller) Stop() {
	c.events.ShutdownAll()
	c.inQ.Purge()
	c.vadQ.Purge()
	c.sttQ.Purge()
	c.llmQ.Purge()
	c.outQ.Purge()

	if c.cancelStage != nil {
		c.cancelStage()
	}

	done := make(chan struct{})
	go func() { c.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		c.logger.Warn("stages did not exit within deadline; abandoning")
	}

	close(c.observers)

	if c.onTeardown != nil {
		record := &CallRecord{
			CallID:     c.context.ID,
			StartedAt:  c.startedAt,
			EndedAt:    nowUnix(),
			Turns:      c.context.Snapshot(),
			SampleRate: c.cfg.SampleRate,
			Voice:      string(c.context.CurrentVoice()),
			Language:   string(c.context.CurrentLanguage()),
		}
		c.onTeardown(record)
	}
}

func (c *Controller) emit(t EventType, data interface{}) {
	select {
	case c.observers <- OrchestratorEvent{Type: t, SessionID: c.context.ID, Data: data}:
	default:
	}
}

func nowUnix() int64 {
	return time.Now().Unix()
}
