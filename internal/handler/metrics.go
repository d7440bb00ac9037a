package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth event names and outcomes used as metric labels.
const (
	eventRegister = "register"
	eventLogin    = "login"
	eventLogout   = "logout"
	eventRefresh  = "refresh"

	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

var authEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fortify_auth_events_total",
		Help: "Authentication events by type and outcome",
	},
	[]string{"event", "outcome"},
)

func recordAuthEvent(event, outcome string) {
	authEvents.WithLabelValues(event, outcome).Inc()
}
