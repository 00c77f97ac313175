package orchestrator

import "testing"

func TestIngressStageSubmitPushesToQueue(t *testing.T) {
	inQ := NewByteQueue(4)
	ig := NewIngressStage(inQ, nil, NewEvents(), NewMetrics(nil), &NoOpLogger{})

	if !ig.Submit([]byte{1, 2, 3}) {
		t.Fatal("expected Submit to succeed on a non-full queue")
	}
	if inQ.Len() != 1 {
		t.Fatalf("expected one frame queued, got %d", inQ.Len())
	}
}

func TestIngressStageRejectsAfterShutdown(t *testing.T) {
	inQ := NewByteQueue(4)
	events := NewEvents()
	ig := NewIngressStage(inQ, nil, events, NewMetrics(nil), &NoOpLogger{})

	events.SystemShutdown.Set()
	if ig.Submit([]byte{1}) {
		t.Fatal("expected Submit to reject frames after shutdown")
	}
	if inQ.Len() != 0 {
		t.Fatal("no frame should have been queued after shutdown")
	}
}

func TestIngressStageAppliesEchoSuppression(t *testing.T) {
	inQ := NewByteQueue(4)
	echo := NewEchoSuppressor()
	ig := NewIngressStage(inQ, echo, NewEvents(), NewMetrics(nil), &NoOpLogger{})

	frame := make([]byte, 640)
	ig.Submit(frame)

	got, _ := inQ.Pop(0)
	if len(got) != len(frame) {
		t.Fatalf("expected echo suppression to preserve frame length, got %d want %d", len(got), len(frame))
	}
}
