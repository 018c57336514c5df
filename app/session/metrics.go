package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var validationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "briefly",
		Name:      "session_validations_total",
		Help:      "Outcomes of validations of stored sessions.",
	},
	[]string{"outcome"},
)
