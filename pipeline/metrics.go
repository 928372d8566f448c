package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records per-run record outcomes. A nil *Metrics records nothing.
type Metrics struct {
	recordsTotal    *prometheus.CounterVec
	scoringDuration prometheus.Histogram
	averageScore    prometheus.Histogram
	failuresTotal   *prometheus.CounterVec
}

// NewMetrics creates pipeline collectors registered on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		recordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opportunity_scorer_records_total",
				Help: "Inventory records by terminal outcome",
			},
			[]string{"outcome"},
		),
		scoringDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "opportunity_scorer_record_scoring_seconds",
				Help:    "Time spent scoring one record, including failed attempts",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		),
		averageScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "opportunity_scorer_average_score",
				Help:    "Average rubric score of processed records",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			},
		),
		failuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opportunity_scorer_record_failures_total",
				Help: "Abandoned records by failing stage",
			},
			[]string{"stage"},
		),
	}
}

func (m *Metrics) recordOutcome(res RecordResult) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(res.Outcome.String()).Inc()

	if res.Duration > 0 {
		m.scoringDuration.Observe(res.Duration.Seconds())
	}
	if res.Outcome == OutcomeFailed {
		m.failuresTotal.WithLabelValues(string(res.Stage)).Inc()
	}
	if res.Outcome == OutcomeProcessed && res.Scorecard != nil {
		m.averageScore.Observe(res.Scorecard.AverageScore())
	}
}

// LedgerGauge exposes the ledger size reported by size on reg. size is called
// at every gather.
func LedgerGauge(reg prometheus.Registerer, size func() int) prometheus.GaugeFunc {
	return promauto.With(reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "opportunity_scorer_ledger_committed_ids",
			Help: "Number of record ids in the processed ledger",
		},
		func() float64 { return float64(size()) },
	)
}
