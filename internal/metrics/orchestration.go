package metrics

import "github.com/prometheus/client_golang/prometheus"

// Orchestration Prometheus metrics.
var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crossdex",
			Name:      "requests_total",
			Help:      "Total number of orchestrated requests by final state",
		},
		[]string{"state"},
	)

	DomainTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crossdex",
			Name:      "domain_tasks_total",
			Help:      "Total domain tasks by domain and terminal state",
		},
		[]string{"domain", "state"},
	)

	DomainTaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crossdex",
			Name:      "domain_task_duration_seconds",
			Help:      "Domain task duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"domain"},
	)

	IndexLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crossdex",
			Name:      "index_lookups_total",
			Help:      "Total resolution index lookups",
		},
		[]string{"domain"},
	)

	IndexRebuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "crossdex",
			Name:      "index_rebuild_duration_seconds",
			Help:      "Resolution index rebuild duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	IndexRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crossdex",
			Name:      "index_records",
			Help:      "Number of canonical records in the resolution index",
		},
	)

	IndexInconsistenciesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crossdex",
			Name:      "index_inconsistencies_total",
			Help:      "Duplicate canonical keys detected during index builds",
		},
	)

	ConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crossdex",
			Name:      "conflicts_total",
			Help:      "Field conflicts detected by the aggregator",
		},
	)
)

var orchMetricsRegistered bool

// RegisterOrchestrationMetrics registers orchestration metrics. Must be called once from main.
func RegisterOrchestrationMetrics() {
	if orchMetricsRegistered {
		return
	}
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(DomainTasksTotal)
	prometheus.MustRegister(DomainTaskDuration)
	prometheus.MustRegister(IndexLookupsTotal)
	prometheus.MustRegister(IndexRebuildDuration)
	prometheus.MustRegister(IndexRecords)
	prometheus.MustRegister(IndexInconsistenciesTotal)
	prometheus.MustRegister(ConflictsTotal)
	orchMetricsRegistered = true
}
