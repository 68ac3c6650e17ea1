package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics covers the upload pipeline, storage backends and the event bus.
type PipelineMetrics struct {
	stageDuration   *prometheus.HistogramVec
	uploadBytes     prometheus.Histogram
	storageOps      *prometheus.CounterVec
	storageDuration *prometheus.HistogramVec
	eventsDropped   *prometheus.CounterVec
}

// NewPipelineMetrics creates and registers the pipeline collectors.
func NewPipelineMetrics(registry prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "upload_duration_seconds",
			Help:      "Time spent in each upload pipeline stage",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of stored recordings",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
		}),
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "storage_operations_total",
			Help:      "Storage backend operations by result",
		}, []string{"backend", "operation", "result"}),
		storageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Storage backend operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_dropped_total",
			Help:      "Progress events dropped because the event buffer was full",
		}, []string{"type"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.stageDuration.Describe(ch)
	m.uploadBytes.Describe(ch)
	m.storageOps.Describe(ch)
	m.storageDuration.Describe(ch)
	m.eventsDropped.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.stageDuration.Collect(ch)
	m.uploadBytes.Collect(ch)
	m.storageOps.Collect(ch)
	m.storageDuration.Collect(ch)
	m.eventsDropped.Collect(ch)
}

// ObserveStage records the duration of a pipeline stage.
func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveUploadSize records the size of a stored recording.
func (m *PipelineMetrics) ObserveUploadSize(size int) {
	m.uploadBytes.Observe(float64(size))
}

// StorageOperation implements storage.OpObserver.
func (m *PipelineMetrics) StorageOperation(backend, operation string, err error, elapsed time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.storageOps.WithLabelValues(backend, operation, result).Inc()
	m.storageDuration.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
}

// EventDropped implements events.DropObserver.
func (m *PipelineMetrics) EventDropped(eventType string) {
	m.eventsDropped.WithLabelValues(eventType).Inc()
}
