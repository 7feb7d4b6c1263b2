// Package metrics registers the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveLogins mirrors the login counter.
	ActiveLogins = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classboard_active_logins",
		Help: "Number of sessions currently marked logged in.",
	})

	// LoginAttempts counts login outcomes by result (ok, invalid, error).
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classboard_login_attempts_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	// Subscribers tracks connected realtime clients.
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classboard_realtime_subscribers",
		Help: "Currently connected websocket subscribers.",
	})
)
