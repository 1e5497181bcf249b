package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talentflow_cache_requests_total",
		Help: "Cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	loadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "talentflow_cache_loads_total",
		Help: "Load functions executed on cache misses",
	})
)
