package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// PrometheusMetrics collects storefront metrics
type PrometheusMetrics struct {
	// HTTP
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
	notModified     prometheus.Counter
	gzipBytesSaved  prometheus.Counter

	// Page assembly
	pageRendersTotal *prometheus.CounterVec
	renderDuration   *prometheus.HistogramVec
	sectionsDropped  *prometheus.CounterVec

	// Content API
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec

	leadsTotal *prometheus.CounterVec

	logger      *zap.Logger
	httpHandler fasthttp.RequestHandler
}

// NewPrometheusMetrics registers with the default registry
func NewPrometheusMetrics(namespace string, logger *zap.Logger) *PrometheusMetrics {
	return NewPrometheusMetricsWithRegistry(namespace, prometheus.DefaultRegisterer, logger)
}

// NewPrometheusMetricsWithRegistry registers with the given registerer; tests
// pass a fresh prometheus.NewRegistry().
func NewPrometheusMetricsWithRegistry(namespace string, registerer prometheus.Registerer, logger *zap.Logger) *PrometheusMetrics {
	pm := &PrometheusMetrics{logger: logger}

	pm.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status class",
		},
		[]string{"route", "status"},
	)

	pm.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time taken to answer HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	pm.activeRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "Requests currently being served",
		},
	)

	pm.notModified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "not_modified_total",
			Help:      "Responses answered with 304 from a matching ETag",
		},
	)

	pm.gzipBytesSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "gzip_bytes_saved_total",
			Help:      "Bytes saved by compressing HTML responses",
		},
	)

	pm.pageRendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "renders_total",
			Help:      "Pages assembled by category",
		},
		[]string{"category"},
	)

	pm.renderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "render_duration_seconds",
			Help:      "Time from request to rendered page, content fetches included",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"category"},
	)

	pm.sectionsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "sections_dropped_total",
			Help:      "Sections removed by each filtering stage",
		},
		[]string{"category", "stage"},
	)

	pm.fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "fetches_total",
			Help:      "Content API calls by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	pm.fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "fetch_duration_seconds",
			Help:      "Content API call latency",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		},
		[]string{"endpoint"},
	)

	pm.leadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "ZIP form submissions by outcome",
		},
		[]string{"outcome"},
	)

	registerer.MustRegister(
		pm.requestsTotal,
		pm.requestDuration,
		pm.activeRequests,
		pm.notModified,
		pm.gzipBytesSaved,
		pm.pageRendersTotal,
		pm.renderDuration,
		pm.sectionsDropped,
		pm.fetchTotal,
		pm.fetchDuration,
		pm.leadsTotal,
	)

	gatherer, ok := registerer.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	pm.httpHandler = fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	logger.Debug("Prometheus metrics initialized", zap.String("namespace", namespace))
	return pm
}

func (pm *PrometheusMetrics) RecordRequest(route string, statusCode int, duration time.Duration) {
	pm.requestsTotal.WithLabelValues(route, statusClass(statusCode)).Inc()
	pm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// statusClass converts a status code to 2xx, 3xx, 4xx, 5xx
func statusClass(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	default:
		return "unknown"
	}
}

func (pm *PrometheusMetrics) IncActiveRequests() { pm.activeRequests.Inc() }
func (pm *PrometheusMetrics) DecActiveRequests() { pm.activeRequests.Dec() }

func (pm *PrometheusMetrics) RecordNotModified() { pm.notModified.Inc() }

func (pm *PrometheusMetrics) RecordCompression(originalSize, compressedSize int) {
	if saved := originalSize - compressedSize; saved > 0 {
		pm.gzipBytesSaved.Add(float64(saved))
	}
}

// RecordPageRender counts an assembled page and the sections each stage dropped
func (pm *PrometheusMetrics) RecordPageRender(category string, duration time.Duration, dropped map[string]int) {
	pm.pageRendersTotal.WithLabelValues(category).Inc()
	pm.renderDuration.WithLabelValues(category).Observe(duration.Seconds())
	for stage, n := range dropped {
		if n > 0 {
			pm.sectionsDropped.WithLabelValues(category, stage).Add(float64(n))
		}
	}
}

// RecordFetch implements content.FetchObserver
func (pm *PrometheusMetrics) RecordFetch(endpoint, result string, duration time.Duration) {
	pm.fetchTotal.WithLabelValues(endpoint, result).Inc()
	pm.fetchDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (pm *PrometheusMetrics) RecordLead(outcome string) {
	pm.leadsTotal.WithLabelValues(outcome).Inc()
}

// ServeHTTP serves the scrape endpoint
func (pm *PrometheusMetrics) ServeHTTP(ctx *fasthttp.RequestCtx) {
	pm.httpHandler(ctx)
}
