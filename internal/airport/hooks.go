package airport

import (
	"time"

	"github.com/yegors/flightboard/internal/flight"
)

// Change describes one applied status transition
type Change struct {
	FlightID    string        `json:"flight_id"`
	Destination string        `json:"destination"`
	VIP         bool          `json:"vip"`
	Status      flight.Status `json:"status"`
	Revision    int           `json:"revision"`
	At          time.Time     `json:"at"`
}

// Hooks are called synchronously, with the registry lock held, after the
// registry has applied its own bookkeeping. Hooks must not call back into
// the Registry.
type Hooks struct {
	OnFlightAdded         func(FlightView)
	OnPassengerRegistered func(view FlightView, passenger string)
	OnStatusChanged       func(Change)
	OnRejected            func(operation string, err error)
}

// ChainHooks returns hooks that call each of the given hooks in order
func ChainHooks(all ...Hooks) Hooks {
	return Hooks{
		OnFlightAdded: func(v FlightView) {
			for _, h := range all {
				if h.OnFlightAdded != nil {
					h.OnFlightAdded(v)
				}
			}
		},
		OnPassengerRegistered: func(v FlightView, passenger string) {
			for _, h := range all {
				if h.OnPassengerRegistered != nil {
					h.OnPassengerRegistered(v, passenger)
				}
			}
		},
		OnStatusChanged: func(c Change) {
			for _, h := range all {
				if h.OnStatusChanged != nil {
					h.OnStatusChanged(c)
				}
			}
		},
		OnRejected: func(op string, err error) {
			for _, h := range all {
				if h.OnRejected != nil {
					h.OnRejected(op, err)
				}
			}
		},
	}
}
