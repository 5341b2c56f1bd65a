// Package metrics holds the Prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salesops_orders_created_total",
		Help: "Orders successfully created.",
	})

	OrderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesops_order_failures_total",
		Help: "Order operations that failed, by reason.",
	}, []string{"reason"})

	ReservationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salesops_reservation_conflicts_total",
		Help: "Stock reservations that failed after their availability check passed.",
	})
)
