package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings created, by type and entry point",
		},
		[]string{"type", "source"},
	)

	waitlistJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waitlist_joins_total",
			Help: "Waitlist entries created",
		},
	)

	promotions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_promotions_total",
			Help: "Waitlist promotion attempts by outcome",
		},
		[]string{"outcome"},
	)

	paymentsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_confirmed_total",
			Help: "Payment webhook events that marked a booking paid",
		},
	)

	sweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_sweep_runs_total",
			Help: "Expiry sweep invocations",
		},
	)

	sweepDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_sweep_deleted_total",
			Help: "Expired reservations deleted by the sweep",
		},
	)
)

func TrackBookingCreated(bookingType, source string) {
	bookingsCreated.WithLabelValues(bookingType, source).Inc()
}

func TrackWaitlistJoin() {
	waitlistJoins.Inc()
}

func TrackPromotion(outcome string) {
	promotions.WithLabelValues(outcome).Inc()
}

func TrackPaymentConfirmed() {
	paymentsConfirmed.Inc()
}

func TrackSweep(deleted int) {
	sweepRuns.Inc()
	sweepDeleted.Add(float64(deleted))
}
