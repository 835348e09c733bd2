// Package monitoring exposes Prometheus counters for booking traffic.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingsCreated counts successfully created bookings.
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_created_total",
		Help: "Number of bookings created.",
	})

	// BookingsCancelled counts successful cancellations.
	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_cancelled_total",
		Help: "Number of bookings cancelled.",
	})

	// CapacityRejections counts booking attempts turned away for lack
	// of seats, split by whether the window was fully sold out.
	CapacityRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_capacity_rejections_total",
		Help: "Number of bookings rejected because of seat capacity.",
	}, []string{"reason"})
)
