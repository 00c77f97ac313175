package orchestrator

import (
	"testing"
	"time"
)

func TestEventSetWaitIdempotent(t *testing.T) {
	e := NewEvent()
	if e.IsSet() {
		t.Fatal("new event should not be set")
	}

	e.Set()
	e.Set() // idempotent, must not panic on double-close

	select {
	case <-e.Wait():
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after Set")
	}
	if !e.IsSet() {
		t.Fatal("expected IsSet true after Set")
	}
}

func TestEventClearResetsWaiters(t *testing.T) {
	e := NewEvent()
	e.Set()
	e.Clear()
	e.Clear() // idempotent

	if e.IsSet() {
		t.Fatal("expected IsSet false after Clear")
	}

	select {
	case <-e.Wait():
		t.Fatal("Wait should block on a cleared event")
	case <-time.After(20 * time.Millisecond):
	}

	e.Set()
	select {
	case <-e.Wait():
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after re-Set")
	}
}

func TestEventsResetTurnClearsLatchingAndSticky(t *testing.T) {
	ev := NewEvents()
	ev.SilenceDetected.Set()
	ev.TranscribeDone.Set()
	ev.LLMDone.Set()
	ev.TTSDone.Set()
	ev.UserBargeIn.Set()
	ev.SpeechStarted.Set()

	ev.ResetTurn()

	for name, e := range map[string]*Event{
		"SilenceDetected": ev.SilenceDetected,
		"TranscribeDone":  ev.TranscribeDone,
		"LLMDone":         ev.LLMDone,
		"TTSDone":         ev.TTSDone,
		"UserBargeIn":     ev.UserBargeIn,
		"SpeechStarted":   ev.SpeechStarted,
	} {
		if e.IsSet() {
			t.Fatalf("%s should be cleared by ResetTurn", name)
		}
	}
}

func TestEventsShutdownAllSetsEverything(t *testing.T) {
	ev := NewEvents()
	ev.ShutdownAll()

	for name, e := range map[string]*Event{
		"SystemShutdown":  ev.SystemShutdown,
		"SilenceDetected": ev.SilenceDetected,
		"TranscribeDone":  ev.TranscribeDone,
		"LLMDone":         ev.LLMDone,
		"TTSDone":         ev.TTSDone,
		"UserBargeIn":     ev.UserBargeIn,
		"SpeechStarted":   ev.SpeechStarted,
	} {
		if !e.IsSet() {
			t.Fatalf("%s should be set by ShutdownAll", name)
		}
	}
}
