// Package metrics exposes registry activity as Prometheus metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yegors/flightboard/internal/airport"
	"github.com/yegors/flightboard/internal/flight"
)

const namespace = "flightboard"

// Metrics holds the board's collectors
type Metrics struct {
	flightsAdded         prometheus.Counter
	passengersRegistered prometheus.Counter
	transitions          *prometheus.CounterVec
	rejections           *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		flightsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_added_total",
			Help:      "Total number of flights added to the board",
		}),
		passengersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passengers_registered_total",
			Help:      "Total number of passengers registered on flights",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Applied flight status transitions by target status",
		}, []string{"status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_operations_total",
			Help:      "Rejected registry operations by operation",
		}, []string{"operation"}),
	}

	collectors := []prometheus.Collector{m.flightsAdded, m.passengersRegistered, m.transitions, m.rejections}
	var errs []error
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Pre-create every status series so dashboards see zeros
	for _, s := range flight.Statuses {
		m.transitions.WithLabelValues(s.String())
	}
	return m, nil
}

// Hooks feeds the collectors from registry events
func (m *Metrics) Hooks() airport.Hooks {
	return airport.Hooks{
		OnFlightAdded: func(airport.FlightView) {
			m.flightsAdded.Inc()
		},
		OnPassengerRegistered: func(airport.FlightView, string) {
			m.passengersRegistered.Inc()
		},
		OnStatusChanged: func(c airport.Change) {
			m.transitions.WithLabelValues(c.Status.String()).Inc()
		},
		OnRejected: func(op string, _ error) {
			m.rejections.WithLabelValues(op).Inc()
		},
	}
}
