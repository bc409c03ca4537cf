// Package metrics provides the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stampcam"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	CapturesTotal     *prometheus.CounterVec
	CaptureDuration   prometheus.Histogram
	ShotsDeleted      prometheus.Counter
	ExportsTotal      *prometheus.CounterVec
	ExportBytes       prometheus.Histogram
	ExportDuration    prometheus.Histogram
	DevicesChecked    prometheus.Gauge
	DevicesTotal      prometheus.Gauge
	ThumbCacheLookups *prometheus.CounterVec
	HTTPRequestsTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CapturesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "capture",
				Name:      "total",
				Help:      "Capture attempts by shot kind and outcome",
			},
			[]string{"kind", "status"}, // status: success, blurry, error
		),
		CaptureDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "capture",
				Name:      "duration_seconds",
				Help:      "Time to encode and persist one shot",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ShotsDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "shots",
				Name:      "deleted_total",
				Help:      "Shots deleted individually",
			},
		),
		ExportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "export",
				Name:      "total",
				Help:      "Archive exports by outcome",
			},
			[]string{"status"},
		),
		ExportBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "export",
				Name:      "size_bytes",
				Help:      "Size of written archives",
				Buckets:   prometheus.ExponentialBuckets(1<<20, 4, 8),
			},
		),
		ExportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "export",
				Name:      "duration_seconds",
				Help:      "Time to write one archive",
				Buckets:   prometheus.DefBuckets,
			},
		),
		DevicesChecked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "devices",
				Name:      "checked",
				Help:      "Devices with every mandatory shot kind",
			},
		),
		DevicesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "devices",
				Name:      "registered",
				Help:      "Registered devices",
			},
		),
		ThumbCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "thumb_cache",
				Name:      "lookups_total",
				Help:      "Thumbnail cache lookups",
			},
			[]string{"result"}, // result: hit, miss
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "API requests by method and status code",
			},
			[]string{"method", "code"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CapturesTotal,
		m.CaptureDuration,
		m.ShotsDeleted,
		m.ExportsTotal,
		m.ExportBytes,
		m.ExportDuration,
		m.DevicesChecked,
		m.DevicesTotal,
		m.ThumbCacheLookups,
		m.HTTPRequestsTotal,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
