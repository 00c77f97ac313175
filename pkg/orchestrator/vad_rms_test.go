package orchestrator

import "testing"

func TestRMSVADSilenceYieldsLowProbability(t *testing.T) {
	v := NewRMSVAD()
	window := make([]int16, 512)

	p, err := v.SpeechProbability(window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p > 0.05 {
		t.Fatalf("expected near-zero probability for silence, got %f", p)
	}
}

func TestRMSVADLoudToneYieldsHighProbability(t *testing.T) {
	v := NewRMSVAD()
	window := make([]int16, 512)
	for i := range window {
		if i%2 == 0 {
			window[i] = 20000
		} else {
			window[i] = -20000
		}
	}

	p, err := v.SpeechProbability(window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p < 0.8 {
		t.Fatalf("expected high probability for a loud window, got %f", p)
	}
}

func TestRMSVADEmptyWindow(t *testing.T) {
	v := NewRMSVAD()
	p, err := v.SpeechProbability(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 0 {
		t.Fatalf("expected 0 probability for an empty window, got %f", p)
	}
}

func TestRMSVADName(t *testing.T) {
	if NewRMSVAD().Name() != "rms_vad" {
		t.Fatal("unexpected provider name")
	}
}
