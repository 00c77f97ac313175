package orchestrator

import "sync"

// Event is a mutex-guarded boolean with broadcast-on-change semantics,
// modeling the latching and sticky events described in the design notes:
// speech_started, silence_detected, llm_done, tts_done (latching, cleared by
// the controller each turn) and user_barge_in, system_shutdown (sticky,
// observed by more than one concurrently-running stage). Wait returns a
// channel that closes the next time the event transitions to set, so callers
// select on it alongside their queue reads instead of polling.
type Event struct {
	mu   sync.Mutex
	set  bool
	wake chan struct{}
}

func NewEvent() *Event {
	return &Event{wake: make(chan struct{})}
}

// Set marks the event as set and wakes every current waiter. Idempotent.
func (e *Event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set {
		return
	}
	e.set = true
	close(e.wake)
}

// Clear resets the event. A fresh wake channel is installed so future Wait
// calls block again until the next Set.
func (e *Event) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.set {
		return
	}
	e.set = false
	e.wake = make(chan struct{})
}

func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Wait returns a channel that is already closed if the event is set, or
// closes on the next Set otherwise. Use in a select alongside queue reads
// and ctx.Done() — never call this in a tight polling loop.
func (e *Event) Wait() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wake
}

// Events bundles the coordination mesh shared by every stage for one call.
// Reads are always outside the stage that sets a given event, so this is a
// mesh of one-directional signals, not a cycle (see design notes).
type Events struct {
	SpeechStarted   *Event // VAD: caller began a speech episode
	SilenceDetected *Event // VAD: caller's speech episode committed
	TranscribeDone  *Event // STT: finalized transcript pushed to sttQ
	LLMDone         *Event // LLM: turn's response text fully streamed (or barge-in truncated)
	TTSDone         *Event // TTS: turn's audio fully streamed (or barge-in truncated)
	UserBargeIn     *Event // sticky: caller interrupted the assistant
	SystemShutdown  *Event // sticky: call is tearing down
}

func NewEvents() *Events {
	return &Events{
		SpeechStarted:   NewEvent(),
		SilenceDetected: NewEvent(),
		TranscribeDone:  NewEvent(),
		LLMDone:         NewEvent(),
		TTSDone:         NewEvent(),
		UserBargeIn:     NewEvent(),
		SystemShutdown:  NewEvent(),
	}
}

// ResetTurn clears the per-turn latching events plus (if set) the sticky
// barge-in flag, in the order the controller uses between turns.
func (ev *Events) ResetTurn() {
	ev.SilenceDetected.Clear()
	ev.TranscribeDone.Clear()
	ev.LLMDone.Clear()
	ev.TTSDone.Clear()
	ev.UserBargeIn.Clear()
	ev.SpeechStarted.Clear()
}

// ShutdownAll sets every event so that any goroutine blocked in a Wait
// unblocks and observes shutdown rather than hanging forever.
func (ev *Events) ShutdownAll() {
	ev.SystemShutdown.Set()
	ev.SilenceDetected.Set()
	ev.TranscribeDone.Set()
	ev.LLMDone.Set()
	ev.TTSDone.Set()
	ev.UserBargeIn.Set()
	ev.SpeechStarted.Set()
}
