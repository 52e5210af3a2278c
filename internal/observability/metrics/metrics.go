package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	LoginsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_started_total",
			Help: "Total number of login challenges issued.",
		},
		[]string{"service", "result"},
	)

	LoginsVerifiedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_verified_total",
			Help: "Total number of one-time-code verification attempts.",
		},
		[]string{"service", "result"},
	)

	TokensRefreshedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_refreshed_total",
			Help: "Total number of session tokens reissued by the sliding-expiry policy.",
		},
		[]string{"service"},
	)

	HeartbeatsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_heartbeats_total",
			Help: "Total number of car heartbeats.",
		},
		[]string{"service", "result"},
	)

	SweepEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttlstore_sweep_evictions_total",
			Help: "Total number of records evicted by background sweeps.",
		},
		[]string{"service", "store"},
	)
)

func MustRegister(serviceName string) {
	HTTPRequestsTotal = HTTPRequestsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	HTTPRequestDurationSeconds = HTTPRequestDurationSeconds.MustCurryWith(prometheus.Labels{"service": serviceName}).(*prometheus.HistogramVec)
	LoginsStartedTotal = LoginsStartedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	LoginsVerifiedTotal = LoginsVerifiedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	TokensRefreshedTotal = TokensRefreshedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	HeartbeatsTotal = HeartbeatsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	SweepEvictionsTotal = SweepEvictionsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})

	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		LoginsStartedTotal,
		LoginsVerifiedTotal,
		TokensRefreshedTotal,
		HeartbeatsTotal,
		SweepEvictionsTotal,
	)
}
