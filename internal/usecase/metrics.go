package usecase

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/meddetect/internal/condition"
)

// Metrics groups the Prometheus collectors updated by the use cases.
type Metrics struct {
	Classifications      *prometheus.CounterVec
	ClassificationErrors *prometheus.CounterVec
	PersistenceWrites    *prometheus.CounterVec
	CacheOperations      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meddetect_classifications_total",
				Help: "Classifications served, partitioned by condition key.",
			},
			[]string{"condition"},
		),
		ClassificationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meddetect_classification_errors_total",
				Help: "Rejected or failed classification requests, partitioned by reason.",
			},
			[]string{"reason"},
		),
		PersistenceWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meddetect_persistence_writes_total",
				Help: "Insert attempts, partitioned by table and result.",
			},
			[]string{"table", "result"},
		),
		CacheOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meddetect_cache_operations_total",
				Help: "Result cache operations, partitioned by operation and result.",
			},
			[]string{"operation", "result"},
		),
	}

	for _, c := range []prometheus.Collector{m.Classifications, m.ClassificationErrors, m.PersistenceWrites, m.CacheOperations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	// Pre-create one series per condition so dashboards see zeros.
	for _, key := range condition.Keys() {
		m.Classifications.WithLabelValues(key)
	}

	return m, nil
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
