// Package metrics exposes Prometheus instrumentation for the dashboard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Compilations counts graph compilations by kind and outcome
	// (ok, empty).
	Compilations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visiongraph_compilations_total",
		Help: "Graph compilations by kind and outcome.",
	}, []string{"kind", "outcome"})

	// GraphEdges observes how many edges each compilation produced.
	GraphEdges = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "visiongraph_graph_edges",
		Help:    "Edges per compiled graph.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 9),
	}, []string{"kind"})

	// FetchDuration observes vendor search latency.
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "visiongraph_fetch_duration_seconds",
		Help:    "Vision One search request duration.",
		Buckets: prometheus.DefBuckets,
	})

	// CacheRequests counts cache lookups by result (hit, miss, error).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visiongraph_cache_requests_total",
		Help: "Detection cache lookups by result.",
	}, []string{"result"})

	// LLMRuns counts analysis subprocess runs by outcome
	// (ok, failed).
	LLMRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visiongraph_llm_runs_total",
		Help: "LLM analysis runs by outcome.",
	}, []string{"outcome"})
)

// Serve starts a blocking metrics listener on addr.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
