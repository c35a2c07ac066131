// Package metrics exposes the Prometheus collectors shared by the service and
// transport layers. Collectors register with the default registry on import.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "webstarter"

// Authentication outcomes.
const (
	AuthSuccess  = "success"
	AuthFailure  = "failure"
	AuthInactive = "inactive"
)

var (
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Sessions issued.",
	})

	sessionsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Sessions revoked by logout, password change or administrative action.",
	})

	sessionsCleaned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_cleaned_total",
		Help:      "Expired or revoked session rows deleted by cleanup.",
	})

	authentications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authentications_total",
		Help:      "Password authentication attempts by outcome.",
	}, []string{"outcome"})

	passwordRehashes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_rehashes_total",
		Help:      "Stored password hashes upgraded to the current cost parameters.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func SessionCreated() { sessionsCreated.Inc() }

func SessionsRevoked(n int64) {
	if n > 0 {
		sessionsRevoked.Add(float64(n))
	}
}

func SessionsCleaned(n int64) {
	if n > 0 {
		sessionsCleaned.Add(float64(n))
	}
}

func Authentication(outcome string) { authentications.WithLabelValues(outcome).Inc() }

func PasswordRehashed() { passwordRehashes.Inc() }

func ObserveHTTP(method, route, status string, elapsed time.Duration) {
	httpDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
