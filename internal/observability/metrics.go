package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DocumentWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reconnect",
		Name:      "document_writes_total",
		Help:      "Canonical document writes by result",
	}, []string{"result"})

	DocumentPersons = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reconnect",
		Name:      "document_persons",
		Help:      "Number of persons in the last written canonical document",
	})

	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reconnect",
		Name:      "image_uploads_total",
		Help:      "Image uploads by result",
	}, []string{"result"})

	ImageBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "reconnect",
		Name:      "image_bytes_total",
		Help:      "Decoded image bytes written to disk",
	})

	MirrorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reconnect",
		Name:      "mirror_failures_total",
		Help:      "Failed object mirror writes",
	}, []string{"kind"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reconnect",
		Name:      "events_published_total",
		Help:      "Change events published by type and sink",
	}, []string{"type", "sink"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reconnect",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reconnect",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
