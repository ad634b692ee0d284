package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	LoginSuccessTotal      *prometheus.CounterVec
	LoginFailureTotal      *prometheus.CounterVec
	TokensMintedTotal      prometheus.Counter
	RendezvousSuccessTotal prometheus.Counter
	RendezvousTimeoutTotal prometheus.Counter
	RendezvousWaitSeconds  prometheus.Histogram
	ProjectLinksTotal      *prometheus.CounterVec
)

// InitCustomMetrics initializes and registers custom Prometheus metrics.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	LoginSuccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudteams_logins_success_total",
		Help: "Total number of successful provider logins.",
	}, []string{"provider"})
	LoginFailureTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudteams_logins_failure_total",
		Help: "Total number of failed provider logins.",
	}, []string{"provider", "reason"})
	TokensMintedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cloudteams_tokens_minted_total",
		Help: "Total number of internal bearer tokens minted.",
	})
	RendezvousSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cloudteams_rendezvous_success_total",
		Help: "Total number of token rendezvous calls that found a token.",
	})
	RendezvousTimeoutTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cloudteams_rendezvous_timeout_total",
		Help: "Total number of token rendezvous calls that exhausted their attempts.",
	})
	RendezvousWaitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cloudteams_rendezvous_wait_seconds",
		Help:    "Wall-clock time rendezvous callers spent waiting.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	ProjectLinksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudteams_project_links_total",
		Help: "Total number of project link requests.",
	}, []string{"provider", "outcome"})

	collectors := []prometheus.Collector{
		LoginSuccessTotal,
		LoginFailureTotal,
		TokensMintedTotal,
		RendezvousSuccessTotal,
		RendezvousTimeoutTotal,
		RendezvousWaitSeconds,
		ProjectLinksTotal,
	}
	if reg == nil {
		return
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("Failed to register Prometheus metric")
		}
	}
}
