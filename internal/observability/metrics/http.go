package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	documentsProcessedTotal *prometheus.CounterVec
	processingDuration      *prometheus.HistogramVec
	actionsExecutedTotal    *prometheus.CounterVec
	modelCallsTotal         *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintake",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docintake",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	documentsProcessedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "pipeline",
			Name:      "documents_processed_total",
			Help:      "Total documents pushed through the processing pipeline.",
		},
		[]string{"service", "file_type", "business_intent", "status"},
	)
	processingDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintake",
			Subsystem: "pipeline",
			Name:      "processing_duration_seconds",
			Help:      "End-to-end document processing duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "file_type"},
	)
	actionsExecutedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "actions",
			Name:      "executed_total",
			Help:      "Total routed follow-up actions by outcome.",
		},
		[]string{"service", "action", "outcome"},
	)
	modelCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "model",
			Name:      "calls_total",
			Help:      "Total generative model calls by caller and outcome.",
		},
		[]string{"service", "caller", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		documentsProcessedTotal,
		processingDuration,
		actionsExecutedTotal,
		modelCallsTotal,
	)

	return &HTTPServerMetrics{
		registry:                registry,
		requestTotal:            requestTotal,
		requestDuration:         requestDuration,
		requestInFlight:         requestInFlight,
		documentsProcessedTotal: documentsProcessedTotal,
		processingDuration:      processingDuration,
		actionsExecutedTotal:    actionsExecutedTotal,
		modelCallsTotal:         modelCallsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/results/"):
		return "/results/{processing_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordDocumentProcessed(service, fileType, businessIntent, status string, duration time.Duration) {
	if fileType == "" {
		fileType = "unknown"
	}
	if businessIntent == "" {
		businessIntent = "Unknown"
	}
	m.documentsProcessedTotal.WithLabelValues(service, fileType, businessIntent, status).Inc()
	m.processingDuration.WithLabelValues(service, fileType).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordActionExecuted(service, action, outcome string) {
	if action == "" {
		action = "unknown"
	}
	m.actionsExecutedTotal.WithLabelValues(service, action, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordModelCall(service, caller, outcome string) {
	if caller == "" {
		caller = "unknown"
	}
	m.modelCallsTotal.WithLabelValues(service, caller, outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
