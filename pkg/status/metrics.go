package status

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_status_polls_total",
		Help: "Total cluster status polls by result",
	}, []string{"result"})

	pollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crm_status_poll_duration_seconds",
		Help:    "Cluster status poll duration",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})

	statusAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crm_status_age_seconds",
		Help: "Age of the published cluster status when it was published",
	})

	crmStatusFailed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crm_status_failed",
		Help: "1 if the published cluster status is flagged as failed",
	})
)
