package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "briefly",
			Name:      "search_requests_total",
			Help:      "Requests made by the search, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	staleResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "briefly",
			Name:      "search_stale_responses_total",
			Help:      "Responses discarded because a newer search has started.",
		},
		[]string{"kind"},
	)
)
