// ABOUTME: Prometheus metrics for scheduling, drafting, calendar import and the HTTP API
// ABOUTME: Registered on the default registry and exposed by the web server at /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ContactsRescheduled tracks next_due recomputations by trigger
	ContactsRescheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "synchro",
			Subsystem: "cadence",
			Name:      "reschedules_total",
			Help:      "Total number of next_due recomputations by trigger",
		},
		[]string{"trigger"},
	)

	// ScheduleOffsetDays tracks the total days between anchor and next_due
	ScheduleOffsetDays = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "synchro",
			Subsystem: "cadence",
			Name:      "offset_days",
			Help:      "Days between the anchor date and the computed next_due",
			Buckets:   []float64{1, 3, 7, 14, 30, 60, 90, 180, 365},
		},
		[]string{"strategy"},
	)

	// ConflictRetries tracks optimistic-concurrency retries on contact writes
	ConflictRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "synchro",
			Subsystem: "lifecycle",
			Name:      "conflict_retries_total",
			Help:      "Total number of contact writes retried after a version conflict",
		},
		[]string{"operation"},
	)

	// StageResets tracks contacts moved back to New by stage removal
	StageResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "synchro",
			Subsystem: "lifecycle",
			Name:      "stage_resets_total",
			Help:      "Total number of contacts moved to New because their stage was removed",
		},
	)

	// DraftsGenerated tracks drafts by outcome (ai or fallback)
	DraftsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "synchro",
			Subsystem: "drafter",
			Name:      "drafts_total",
			Help:      "Total number of generated drafts by outcome",
		},
		[]string{"outcome"},
	)

	// DraftDuration tracks message generation latency
	DraftDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "synchro",
			Subsystem: "drafter",
			Name:      "generation_seconds",
			Help:      "Duration of draft generation in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)

	// DraftTransitions tracks draft status changes
	DraftTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "synchro",
			Subsystem: "drafter",
			Name:      "transitions_total",
			Help:      "Total number of draft status transitions",
		},
		[]string{"status"},
	)

	// CalendarEventsImported tracks events imported from external calendars
	CalendarEventsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "synchro",
			Subsystem: "sync",
			Name:      "events_imported_total",
			Help:      "Total number of external calendar events processed by result",
		},
		[]string{"service", "result"},
	)

	// HTTPRequestsTotal tracks API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "synchro",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks API request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "synchro",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 20},
		},
		[]string{"method", "route"},
	)
)
