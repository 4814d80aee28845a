// Package metrics holds the gateway's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProxyRequests counts proxied backend calls by resource, method and upstream status.
	ProxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_proxy_requests_total",
		Help: "Backend calls relayed by the gateway",
	}, []string{"resource", "method", "status"})

	ProxyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_proxy_request_duration_seconds",
		Help:    "Round-trip time of relayed backend calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})

	// SessionTransitions counts session state changes.
	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_session_transitions_total",
		Help: "Session state machine transitions",
	}, []string{"from", "to", "reason"})

	CookiesForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_set_cookies_forwarded_total",
		Help: "Set-Cookie values relayed from the backend to the browser",
	})

	CookieForwardFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_set_cookie_forward_failures_total",
		Help: "Set-Cookie values that could not be parsed or relayed cleanly",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_rate_limited_requests_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"path"})

	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_storage_errors_total",
		Help: "Persisted session storage failures by operation",
	}, []string{"op"})
)
