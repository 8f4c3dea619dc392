package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus instruments.
type Metrics struct {
	EventsTotal     prometheus.Counter
	ParseErrors     prometheus.Counter
	ScoresTotal     prometheus.Counter
	DegradedTotal   prometheus.Counter
	SuppressedTotal prometheus.Counter
	AlertsTotal     *prometheus.CounterVec
	WriteErrors     prometheus.Counter
	ScoringSeconds  prometheus.Histogram
}

// New registers the instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "socsentinel",
			Name:      "events_total",
			Help:      "Raw events consumed from the input queue.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "socsentinel",
			Name:      "parse_errors_total",
			Help:      "Events dropped because they could not be parsed.",
		}),
		ScoresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "socsentinel",
			Name:      "scores_total",
			Help:      "Feature vectors scored by the ensemble.",
		}),
		DegradedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "socsentinel",
			Name:      "degraded_scores_total",
			Help:      "Scores produced with only one model path available.",
		}),
		SuppressedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "socsentinel",
			Name:      "suppressed_total",
			Help:      "Scored windows below the alerting threshold.",
		}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socsentinel",
			Name:      "alerts_total",
			Help:      "Alerts emitted, by severity.",
		}, []string{"severity"}),
		WriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "socsentinel",
			Name:      "write_errors_total",
			Help:      "Failed alert write attempts.",
		}),
		ScoringSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "socsentinel",
			Name:      "scoring_duration_seconds",
			Help:      "Wall time of one aggregate-score-explain cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	reg.MustRegister(
		m.EventsTotal, m.ParseErrors, m.ScoresTotal, m.DegradedTotal,
		m.SuppressedTotal, m.AlertsTotal, m.WriteErrors, m.ScoringSeconds,
	)
	return m
}
