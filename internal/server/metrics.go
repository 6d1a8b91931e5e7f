package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "como"

type metrics struct {
	sessionsActive     prometheus.Gauge
	sessionsTotal      prometheus.Counter
	disconnections     prometheus.Counter
	protocolViolations prometheus.Counter
	queueOverflows     prometheus.Counter
	sourcesRegistered  prometheus.Gauge
	framesSent         *prometheus.CounterVec
	bytesSent          prometheus.Counter
	messagesReceived   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_active",
			Help:      "Number of observers currently receiving events",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_total",
			Help:      "Total number of accepted TCP sessions",
		}),
		disconnections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "disconnections_total",
			Help:      "Total number of observers removed from the live set",
		}),
		protocolViolations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "protocol_violations_total",
			Help:      "Total number of sessions dropped for a bad header",
		}),
		queueOverflows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "queue_overflows_total",
			Help:      "Total number of sessions dropped because their outbound queue was full",
		}),
		sourcesRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sources_registered",
			Help:      "Number of sources currently in the registry",
		}),
		framesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_sent_total",
			Help:      "Total number of frames written to TCP sessions",
		}, []string{"type"}),
		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bytes_sent_total",
			Help:      "Total number of bytes written to TCP sessions",
		}),
		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_received_total",
			Help:      "Total number of frames received from observers",
		}, []string{"type"}),
	}
}
