// Package metrics holds the Prometheus collectors of the site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"portfolio/models"
)

const namespace = "portfolio"

// Generation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeAborted  = "aborted"
)

type Metrics struct {
	GenerateRequests    *prometheus.CounterVec
	GenerateDuration    prometheus.Histogram
	NarrativeResolution *prometheus.CounterVec
	BlockRenders        *prometheus.CounterVec
}

// New registers the collectors with reg, or the default registerer when reg
// is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		GenerateRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generate",
			Name:      "requests_total",
			Help:      "Generate requests by outcome",
		}, []string{"outcome"}),
		GenerateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generate",
			Name:      "duration_seconds",
			Help:      "Time to stream a generated summary",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		NarrativeResolution: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "narrative",
			Name:      "resolutions_total",
			Help:      "Narrative resolutions by source",
		}, []string{"source"}),
		BlockRenders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "renders_total",
			Help:      "Rendered page builder blocks by type",
		}, []string{"type", "known"}),
	}
}

func (m *Metrics) ObserveGenerate(outcome string, elapsed time.Duration) {
	m.GenerateRequests.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.GenerateDuration.Observe(elapsed.Seconds())
	}
}

// ObserveNarrative counts a settled narrative. source is "cache", "stream",
// "failed" or "aborted".
func (m *Metrics) ObserveNarrative(source string) {
	m.NarrativeResolution.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveBlock(blockType models.BlockType, known bool) {
	k := "true"
	if !known {
		k = "false"
	}
	m.BlockRenders.WithLabelValues(string(blockType), k).Inc()
}
