package airport

import (
	"github.com/yegors/flightboard/internal/flight"
	"github.com/yegors/flightboard/internal/notify"
	"github.com/yegors/flightboard/pkg/logger"
)

// fanOut announces a status change to the board, staff and every booked
// passenger, and releases the flight once it reaches a terminal status.
// Runs with r.mu held by the operation that triggered the transition.
func (r *Registry) fanOut(f *flight.Flight, status flight.Status) {
	notify.Board(r.sink, f, status)
	r.staff.Notify(f, status)

	bookings, booked := r.passengers[f]
	for _, b := range bookings {
		b.passenger.Notify(f, status)
	}

	if !status.IsTerminal() {
		return
	}

	w := r.wired[f]
	f.Unsubscribe(w.fanOut)
	f.Unsubscribe(w.stats)
	delete(r.wired, f)
	if booked {
		for _, b := range bookings {
			f.Unsubscribe(b.sub)
		}
		delete(r.passengers, f)
	}

	r.logger.WithFlight(f.ID(), f.Destination()).Info("Flight closed",
		logger.String("status", status.String()),
		logger.Int("released_passengers", len(bookings)),
		logger.Int("listeners", f.ListenerCount()))
}

// countStatus keeps the statistics and reports the change to the hooks
func (r *Registry) countStatus(f *flight.Flight, status flight.Status) {
	switch status {
	case flight.Departed:
		r.stats.Completed++
	case flight.Delayed:
		r.stats.Delayed++
	case flight.Cancelled:
		r.stats.Cancelled++
	}

	if r.hooks.OnStatusChanged != nil {
		r.hooks.OnStatusChanged(Change{
			FlightID:    f.ID(),
			Destination: f.Destination(),
			VIP:         f.VIP(),
			Status:      status,
			Revision:    f.Revision(),
			At:          r.now(),
		})
	}
}
