package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfstudio",
			Name:      "pages_rendered_total",
			Help:      "Total page renders by result (ok, ok_retry, error)",
		},
		[]string{"result"},
	)

	renderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfstudio",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of single page renders",
			Buckets:   prometheus.DefBuckets,
		},
	)

	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfstudio",
			Name:      "operations_total",
			Help:      "Document operations by type and result",
		},
		[]string{"op", "result"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfstudio",
			Name:      "operation_duration_seconds",
			Help:      "Duration of document operations by type",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"op"},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pdfstudio",
			Name:      "queue_depth",
			Help:      "Queue depth gauges for stream and dlq",
		},
		[]string{"type"},
	)

	sessionsLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pdfstudio",
			Name:      "sessions_live",
			Help:      "Number of open document sessions",
		},
	)

	uploadsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfstudio",
			Name:      "uploads_rejected_total",
			Help:      "Rejected uploads by reason (type, size)",
		},
		[]string{"reason"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(pagesRendered, renderDuration, operationsTotal, operationDuration, queueDepth, sessionsLive, uploadsRejected)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveRender(result string, dur time.Duration) {
	pagesRendered.WithLabelValues(result).Inc()
	renderDuration.Observe(dur.Seconds())
}

func ObserveOperation(op, result string, dur time.Duration) {
	operationsTotal.WithLabelValues(op, result).Inc()
	operationDuration.WithLabelValues(op).Observe(dur.Seconds())
}

func SetQueueDepth(kind string, v int64) { queueDepth.WithLabelValues(kind).Set(float64(v)) }

func SetLiveSessions(n int) { sessionsLive.Set(float64(n)) }

func IncUploadRejected(reason string) { uploadsRejected.WithLabelValues(reason).Inc() }
