package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"attendance-portal/internal/apperr"
)

const namespace = "attendance_portal"

var (
	// HTTPRequests counts handled requests by route template.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthFailures counts requests rejected by the access gate.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Requests rejected by the access gate, by reason.",
	}, []string{"reason"})

	// AttendanceMarks counts mark attempts by outcome.
	AttendanceMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendance_marks_total",
		Help:      "Attendance mark attempts by result.",
	}, []string{"result"})

	// LeaveSubmissions counts leave submissions by outcome.
	LeaveSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leave_submissions_total",
		Help:      "Leave request submissions by result.",
	}, []string{"result"})

	// LeaveDecisions counts admin decisions by resulting status.
	LeaveDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leave_decisions_total",
		Help:      "Leave decisions by status.",
	}, []string{"status"})
)

// Result labels a domain operation outcome.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case errors.Is(err, apperr.ErrInvalidFormat), errors.Is(err, apperr.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
