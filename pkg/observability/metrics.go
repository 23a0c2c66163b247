package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
}

// InitMetrics initializes the Prometheus metrics exporter.
// Returns the MeterProvider and an HTTP handler for the /metrics endpoint.
func InitMetrics(_ MetricsConfig) (*sdkmetric.MeterProvider, http.Handler, error) {
	exporter, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	handler := promhttp.Handler()

	return provider, handler, nil
}

// PipelineMetrics groups the collectors for the URL analysis pipeline.
type PipelineMetrics struct {
	AnalysesTotal  *prometheus.CounterVec
	SourceLookups  *prometheus.HistogramVec
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	ValidationFail *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline collectors on the default registry.
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "urlassay_analyses_total",
			Help: "Completed URL analyses, partitioned by resulting risk level.",
		}, []string{"risk_level"}),
		SourceLookups: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "urlassay_source_lookup_seconds",
			Help:    "Signal source lookup latency, partitioned by source and outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source", "status"}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "urlassay_signal_cache_hits_total",
			Help: "Signal cache hits per source.",
		}, []string{"source"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "urlassay_signal_cache_misses_total",
			Help: "Signal cache misses per source.",
		}, []string{"source"}),
		ValidationFail: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "urlassay_validation_failures_total",
			Help: "Rejected URLs, partitioned by validation error kind.",
		}, []string{"kind"}),
	}
}
