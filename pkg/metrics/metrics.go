package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "structhealth_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Ingest metrics
	ReadingsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "structhealth_readings_ingested_total",
			Help: "Total number of sensor readings persisted",
		},
		[]string{"quality"},
	)

	// Alert metrics
	AlertsFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "structhealth_alerts_fired_total",
			Help: "Total number of alerts created",
		},
		[]string{"severity"},
	)

	AlertTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "structhealth_alert_transitions_total",
			Help: "Total number of alert lifecycle transitions",
		},
		[]string{"to_status"},
	)
)
