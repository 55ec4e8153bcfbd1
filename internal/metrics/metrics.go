package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_pipeline_runs_total",
			Help: "Total number of pipeline runs by route and outcome",
		},
		[]string{"route", "status"},
	)
	PipelineRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_pipeline_run_duration_seconds",
			Help: "Duration of pipeline runs",
		},
		[]string{"route"},
	)
	NodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_node_duration_seconds",
			Help: "Duration of individual pipeline nodes",
		},
		[]string{"node"},
	)
	WeatherFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_weather_fallbacks_total",
			Help: "Weather lookups that degraded to an apology context",
		},
	)
	ExternalAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_api_calls_total",
			Help: "Total number of external API calls",
		},
		[]string{"provider", "status"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_http_request_duration_seconds",
			Help: "Duration of HTTP API requests",
		},
		[]string{"method", "endpoint"},
	)
	HistoryEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_history_entries",
			Help: "Number of entries in the conversation history",
		},
	)
)

func init() {
	prometheus.MustRegister(
		PipelineRunsTotal,
		PipelineRunDuration,
		NodeDuration,
		WeatherFallbacksTotal,
		ExternalAPICallsTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HistoryEntries,
	)
}
