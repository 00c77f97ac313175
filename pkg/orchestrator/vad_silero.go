package orchestrator

import (
	"fmt"
	"sync"

	"github.com/streamer45/silero-vad-go/speech"
)

// SileroVAD wraps the ONNX-runtime binding of the Silero speech-segmentation
// network, the model named explicitly by the original detector
// (`torch.hub.load('snakers4/silero-vad', ...)`). It is selected via
// VAD_PROVIDER=silero plus a model path; everything else about window
// buffering and hysteresis stays in VADStage.
type SileroVAD struct {
	mu       sync.Mutex
	detector *speech.Detector
}

// NewSileroVAD loads the ONNX model at modelPath for the given sample rate.
// windowSamples must match the window size the caller will pass to
// SpeechProbability (512 samples at 16kHz, per the VAD window contract).
func NewSileroVAD(modelPath string, sampleRate, windowSamples int) (*SileroVAD, error) {
	d, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            modelPath,
		SampleRate:           sampleRate,
		WindowSize:           windowSamples,
		Threshold:            0.5,
		MinSilenceDurationMs: 0,
		SpeechPadMs:          0,
	})
	if err != nil {
		return nil, fmt.Errorf("silero vad: failed to load model %q: %w", modelPath, err)
	}
	return &SileroVAD{detector: d}, nil
}

func (s *SileroVAD) Name() string { return "silero_vad" }

// SpeechProbability feeds one window through the network and returns its
// raw speech probability. The detector is not safe for concurrent use across
// calls because it carries internal LSTM state between windows, so access is
// serialized here; one SileroVAD instance should back exactly one call.
func (s *SileroVAD) SpeechProbability(window []int16) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	floats := make([]float32, len(window))
	for i, v := range window {
		floats[i] = float32(v) / 32768.0
	}

	prob, err := s.detector.DetectProbability(floats)
	if err != nil {
		return 0, fmt.Errorf("silero vad: detect failed: %w", err)
	}
	return float64(prob), nil
}

func (s *SileroVAD) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detector != nil {
		return s.detector.Destroy()
	}
	return nil
}
