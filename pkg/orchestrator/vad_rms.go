package orchestrator

import "math"

// RMSVAD is a root-mean-square energy detector: a lightweight, no-dependency
// default VADProvider. It holds no turn-taking state — VADStage owns the
// window buffering and speech/silence hysteresis (MinSpeechWindows /
// MinSilenceWindows); this type only answers "how loud is this window,
// scaled into something threshold-comparable".
type RMSVAD struct {
	// gain controls how quickly RMS saturates toward 1.0 so that
	// SpeechProbability lands in a useful part of [0,1] for typical
	// telephony-level speech. Tuned empirically, not a physical constant.
	gain float64
}

func NewRMSVAD() *RMSVAD {
	return &RMSVAD{gain: 6.0}
}

func (v *RMSVAD) Name() string { return "rms_vad" }

// SpeechProbability returns a monotonic squashing of the window's RMS energy
// into [0, 1]. It is not a calibrated probability, but it satisfies the
// "pure function (window) → probability" contract VADStage depends on.
func (v *RMSVAD) SpeechProbability(window []int16) (float64, error) {
	if len(window) == 0 {
		return 0, nil
	}
	var sum float64
	for _, s := range window {
		f := float64(s) / 32768.0
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(window)))
	p := 1 - math.Exp(-v.gain*rms)
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return p, nil
}
