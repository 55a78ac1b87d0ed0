// Package notify turns flight status changes into notices for the board,
// airport staff and registered passengers.
package notify

import (
	"sync"

	"github.com/yegors/flightboard/internal/flight"
)

// Audience identifies who a notice is addressed to
type Audience string

const (
	AudienceBoard     Audience = "board"
	AudienceStaff     Audience = "staff"
	AudiencePassenger Audience = "passenger"
)

// Notice is one announcement about a flight, independent of how it is rendered
type Notice struct {
	Audience    Audience      `json:"audience"`
	Recipient   string        `json:"recipient,omitempty"` // passenger name, empty otherwise
	FlightID    string        `json:"flight_id"`
	Destination string        `json:"destination"`
	VIP         bool          `json:"vip"`
	Status      flight.Status `json:"status"`
	Revision    int           `json:"revision"`
	Message     string        `json:"message"`
}

// Sink receives notices. Deliver must not block the caller for long;
// it runs inside the status-change dispatch.
type Sink interface {
	Deliver(n Notice)
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(n Notice)

// Deliver implements Sink
func (f SinkFunc) Deliver(n Notice) { f(n) }

// Multi fans a notice out to several sinks in order
type Multi []Sink

// Deliver implements Sink
func (m Multi) Deliver(n Notice) {
	for _, s := range m {
		if s != nil {
			s.Deliver(n)
		}
	}
}

// Discard drops every notice
var Discard Sink = SinkFunc(func(Notice) {})

// Recorder keeps every delivered notice in memory
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Deliver implements Sink
func (r *Recorder) Deliver(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// For returns the recorded notices for one audience
func (r *Recorder) For(audience Audience) []Notice {
	var out []Notice
	for _, n := range r.Notices() {
		if n.Audience == audience {
			out = append(out, n)
		}
	}
	return out
}

func newNotice(audience Audience, recipient string, f *flight.Flight, status flight.Status, message string) Notice {
	return Notice{
		Audience:    audience,
		Recipient:   recipient,
		FlightID:    f.ID(),
		Destination: f.Destination(),
		VIP:         f.VIP(),
		Status:      status,
		Revision:    f.Revision(),
		Message:     message,
	}
}
