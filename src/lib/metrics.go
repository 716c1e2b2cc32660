package lib

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ticketbooth",
		Name:      "reservations_created_total",
		Help:      "Reservations committed with at least one ticket.",
	})

	ReservationConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketbooth",
		Name:      "reservation_conflicts_total",
		Help:      "Reservation attempts rejected because a ticket was taken.",
	}, []string{"stage"})

	PaymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketbooth",
		Name:      "payments_processed_total",
		Help:      "Payment attempts by gateway and outcome.",
	}, []string{"gateway", "status"})

	TicketsReleased = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketbooth",
		Name:      "tickets_released_total",
		Help:      "Tickets returned to the pool.",
	}, []string{"reason"})

	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketbooth",
		Name:      "event_publish_failures_total",
		Help:      "Lifecycle events that could not be handed to the broker.",
	}, []string{"broker"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketbooth",
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected by the rate limiter.",
	}, []string{"scope"})
)
