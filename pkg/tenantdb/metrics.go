package tenantdb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantdb_session_validations_total",
		Help: "Connection validation round-trips by result (ok, mismatch, error).",
	}, []string{"result"})

	evictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenantdb_session_evictions_total",
		Help: "Cached tenant sessions closed due to switch, staleness or teardown.",
	})

	acquireRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenantdb_acquire_retries_total",
		Help: "Reset-and-reacquire retries after a failed session acquisition.",
	})
)
