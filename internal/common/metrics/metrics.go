// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techdata_provider_requests_total",
			Help: "Provider calls by provider, action and outcome (ok, absent, or an error code)",
		},
		[]string{"provider", "action", "outcome"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "techdata_provider_request_duration_seconds",
			Help:    "Duration of provider calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "action"},
	)

	FacetOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techdata_facet_outcomes_total",
			Help: "Aggregation facet results by facet and outcome",
		},
		[]string{"facet", "outcome"},
	)

	HeuristicFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techdata_heuristic_fallbacks_total",
			Help: "Profiles whose lubricants were synthesized, by rule",
		},
		[]string{"rule"},
	)

	ResponseCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techdata_response_cache_lookups_total",
			Help: "Provider response cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)
