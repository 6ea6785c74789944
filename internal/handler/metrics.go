package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersBuilt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop_service",
			Subsystem: "orders",
			Name:      "built_total",
			Help:      "Total number of orders built, labelled by source",
		},
		[]string{"source"},
	)

	paymentSessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shop_service",
			Subsystem: "payments",
			Name:      "sessions_total",
			Help:      "Total number of payment sessions created",
		},
	)

	paymentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop_service",
			Subsystem: "payments",
			Name:      "transitions_total",
			Help:      "Total number of payment status transitions, labelled by resulting status",
		},
		[]string{"status"},
	)

	gatewayErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shop_service",
			Subsystem: "payments",
			Name:      "gateway_errors_total",
			Help:      "Total number of payment gateway refusals surfaced to clients",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		ordersBuilt,
		paymentSessions,
		paymentTransitions,
		gatewayErrors,
	)
}
