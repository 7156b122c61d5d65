package deckpdf

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects counters about capture sessions. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	frames   prometheus.Counter
	misses   *prometheus.CounterVec
	stops    *prometheus.CounterVec
	gates    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deckpdf_frames_captured_total",
			Help: "Slides captured across all sessions.",
		}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deckpdf_probe_misses_total",
			Help: "Optional UI probes that found nothing or failed.",
		}, []string{"step"}),
		stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deckpdf_capture_stops_total",
			Help: "Capture terminations by reason.",
		}, []string{"reason"}),
		gates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deckpdf_gate_results_total",
			Help: "Gate resolutions by final state.",
		}, []string{"state"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deckpdf_capture_duration_seconds",
			Help:    "Wall time of the capture loop.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.frames, m.misses, m.stops, m.gates, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) frame() {
	if m != nil {
		m.frames.Inc()
	}
}

func (m *Metrics) miss(step string) {
	if m != nil {
		m.misses.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) stop(r StopReason) {
	if m != nil {
		m.stops.WithLabelValues(r.String()).Inc()
	}
}

func (m *Metrics) gate(s GateState) {
	if m != nil {
		m.gates.WithLabelValues(s.String()).Inc()
	}
}

func (m *Metrics) observe(seconds float64) {
	if m != nil {
		m.duration.Observe(seconds)
	}
}
