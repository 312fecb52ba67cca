package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the transcription pipeline.
type Metrics struct {
	ActiveSessions  prometheus.Gauge
	TicksTotal      prometheus.Counter
	EngineCalls     prometheus.Counter
	EngineFailures  prometheus.Counter
	SegmentsTotal   prometheus.Counter
	RendersTotal    prometheus.Counter
	EngineDuration  prometheus.Histogram
	DrainedPCMBytes prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ptbot_active_sessions",
			Help: "Number of voice sessions currently being transcribed",
		}),
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ptbot_ticks_total",
			Help: "Total number of completed transcription ticks",
		}),
		EngineCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "ptbot_engine_calls_total",
			Help: "Total number of speech-to-text engine invocations",
		}),
		EngineFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ptbot_engine_failures_total",
			Help: "Total number of failed speech-to-text engine invocations",
		}),
		SegmentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ptbot_segments_total",
			Help: "Total number of transcript segments appended",
		}),
		RendersTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ptbot_renders_total",
			Help: "Total number of transcript document renders",
		}),
		EngineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ptbot_engine_duration_seconds",
			Help:    "Latency of speech-to-text engine invocations",
			Buckets: prometheus.DefBuckets,
		}),
		DrainedPCMBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "ptbot_drained_pcm_bytes_total",
			Help: "Total bytes of PCM audio drained from speaker buffers",
		}),
	}
}
