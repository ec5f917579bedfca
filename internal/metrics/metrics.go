package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixvoice_commands_total",
			Help: "Total number of processed voice commands",
		},
		[]string{"intent", "outcome"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flixvoice_command_duration_seconds",
			Help:    "Voice command processing duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"intent"},
	)

	ActionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixvoice_actions_total",
			Help: "Total number of executed voice actions",
		},
		[]string{"type", "outcome"},
	)

	WakeWordDetections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flixvoice_wake_word_detections_total",
			Help: "Total number of wake word detections",
		},
	)

	HostConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flixvoice_host_connections",
			Help: "Number of connected host sessions",
		},
	)

	PendingReminders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flixvoice_pending_reminders",
			Help: "Number of scheduled reminders not yet due",
		},
	)
)

// Outcome label values
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
	OutcomeFallback = "fallback"
)
