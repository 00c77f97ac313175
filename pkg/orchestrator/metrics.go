package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the Prometheus-backed collaborator named in the domain stack:
// per-stage latency histograms, time-to-first-token/audio, turn counts, and
// queue-drop counters. It is injected into the controller and every stage so
// none of them need a global registry reference.
type Metrics struct {
	TurnsTotal        prometheus.Counter
	BargeInsTotal     prometheus.Counter
	QueueDropsTotal   *prometheus.CounterVec
	StageLatency      *prometheus.HistogramVec // labels: stage
	TimeToFirstToken  prometheus.Histogram
	TimeToFirstAudio  prometheus.Histogram
	WarmupDuration    prometheus.Histogram
	ActiveCallsGauge  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voice_orchestrator_turns_total",
			Help: "Completed user/assistant turn pairs.",
		}),
		BargeInsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voice_orchestrator_barge_ins_total",
			Help: "Times the caller interrupted assistant playback.",
		}),
		QueueDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_orchestrator_queue_drops_total",
			Help: "Items dropped because a bounded queue was full.",
		}, []string{"queue"}),
		StageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voice_orchestrator_stage_latency_seconds",
			Help:    "Per-stage processing latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		TimeToFirstToken: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_orchestrator_time_to_first_token_seconds",
			Help:    "Latency from LLM request to first streamed token.",
			Buckets: prometheus.DefBuckets,
		}),
		TimeToFirstAudio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_orchestrator_time_to_first_audio_seconds",
			Help:    "Latency from TTS request to first audio chunk.",
			Buckets: prometheus.DefBuckets,
		}),
		WarmupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_orchestrator_warmup_duration_seconds",
			Help:    "Time spent in the WARMUP state before first real turn.",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveCallsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voice_orchestrator_active_calls",
			Help: "Calls currently in progress.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.TurnsTotal, m.BargeInsTotal, m.QueueDropsTotal, m.StageLatency,
			m.TimeToFirstToken, m.TimeToFirstAudio, m.WarmupDuration, m.ActiveCallsGauge)
	}
	return m
}

// ObserveStage records the duration of one stage's unit of work.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) QueueDropped(queue string) {
	if m == nil {
		return
	}
	m.QueueDropsTotal.WithLabelValues(queue).Inc()
}
