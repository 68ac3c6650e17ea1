package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// TrackerMetrics counts commits and selections and exposes per-dialect progress.
// It satisfies tracker.Observer.
type TrackerMetrics struct {
	commits    *prometheus.CounterVec
	selections *prometheus.CounterVec
	recorded   *prometheus.GaugeVec
	total      *prometheus.GaugeVec
}

// NewTrackerMetrics creates and registers the tracker collectors.
func NewTrackerMetrics(registry prometheus.Registerer) (*TrackerMetrics, error) {
	m := &TrackerMetrics{
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "commits_total",
			Help:      "Recording commits by result",
		}, []string{"result"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "selections_total",
			Help:      "Next-sentence selections by policy and result",
		}, []string{"policy", "result"}),
		recorded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "dialect_recorded_sentences",
			Help:      "Recorded sentences per dialect",
		}, []string{"dialect"}),
		total: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "dialect_total_sentences",
			Help:      "Catalog sentences assigned to each dialect",
		}, []string{"dialect"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register tracker metrics: %w", err)
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *TrackerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.commits.Describe(ch)
	m.selections.Describe(ch)
	m.recorded.Describe(ch)
	m.total.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *TrackerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.commits.Collect(ch)
	m.selections.Collect(ch)
	m.recorded.Collect(ch)
	m.total.Collect(ch)
}

// CommitFinished counts a commit outcome.
func (m *TrackerMetrics) CommitFinished(result string) {
	m.commits.WithLabelValues(result).Inc()
}

// SentenceSelected counts a selection.
func (m *TrackerMetrics) SentenceSelected(policy string, found bool) {
	result := ResultFound
	if !found {
		result = ResultEmpty
	}
	m.selections.WithLabelValues(policy, result).Inc()
}

// ProgressUpdated sets the progress gauges of dialect.
func (m *TrackerMetrics) ProgressUpdated(dialect string, recorded, total int) {
	m.recorded.WithLabelValues(dialect).Set(float64(recorded))
	m.total.WithLabelValues(dialect).Set(float64(total))
}
