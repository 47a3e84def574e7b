package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metrics are registered on a per-server registry so several servers can
// live in one process.
type metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	predictionPaths prometheus.Histogram
	reloads         *prometheus.CounterVec
	tactics         prometheus.Gauge
	wsSessions      prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cnl",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cnl",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"route"}),
		predictionPaths: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cnl",
			Name:      "prediction_paths",
			Help:      "Number of paths returned per prediction",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cnl",
			Name:      "catalog_reloads_total",
			Help:      "Catalog reloads by result",
		}, []string{"result"}),
		tactics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cnl",
			Name:      "tactics",
			Help:      "Tactics registered in the active engine",
		}),
		wsSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cnl",
			Name:      "ws_sessions",
			Help:      "Open websocket prediction sessions",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.predictionPaths,
		m.reloads,
		m.tactics,
		m.wsSessions,
		collectors.NewGoCollector(),
	)
	return m
}
