package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce      sync.Once
	apiRequestsTotal  *prometheus.CounterVec
	apiLatencySeconds *prometheus.HistogramVec
	apiErrorsTotal    *prometheus.CounterVec

	pipelineRunsTotal     *prometheus.CounterVec
	pipelineDuration      *prometheus.HistogramVec
	pipelineFailuresTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the HTTP surface and the AI pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		pipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_pipeline_runs_total",
			Help: "AI pipeline runs by endpoint and outcome (success, failed, fallback).",
		}, []string{"endpoint", "outcome"})

		pipelineDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ai_pipeline_duration_seconds",
			Help:    "End-to-end duration of AI pipeline runs.",
			Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 21, 34},
		}, []string{"endpoint"})

		pipelineFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_pipeline_failures_total",
			Help: "AI pipeline failures by endpoint, stage and error kind.",
		}, []string{"endpoint", "stage", "kind"})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			pipelineRunsTotal, pipelineDuration, pipelineFailuresTotal,
		)
	})
}

// APIRequests exposes the request counter.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the request latency histogram.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// PipelineRuns exposes the pipeline outcome counter.
func PipelineRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return pipelineRunsTotal
}

// PipelineDuration exposes the pipeline duration histogram.
func PipelineDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return pipelineDuration
}

// PipelineFailures exposes the pipeline failure counter.
func PipelineFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return pipelineFailuresTotal
}
