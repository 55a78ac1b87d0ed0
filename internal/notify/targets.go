package notify

import (
	"fmt"

	"github.com/yegors/flightboard/internal/flight"
)

// Board announces a status change before staff and passengers hear of it
func Board(sink Sink, f *flight.Flight, status flight.Status) {
	msg := fmt.Sprintf("Flight to %s: status changed to %s.", f.Destination(), status)
	sink.Deliver(newNotice(AudienceBoard, "", f, status, msg))
}

// Staff is the airport staff shared by every flight of a registry
type Staff struct {
	sink Sink
}

// NewStaff creates staff that deliver to sink
func NewStaff(sink Sink) *Staff {
	return &Staff{sink: sink}
}

// Notify implements flight.Listener
func (s *Staff) Notify(f *flight.Flight, status flight.Status) {
	s.sink.Deliver(newNotice(AudienceStaff, "", f, status, staffMessage(f.Destination(), status)))
}

// Passenger is a traveller registered for one flight
type Passenger struct {
	name string
	sink Sink
	seen int
}

// NewPassenger creates a passenger that delivers to sink
func NewPassenger(name string, sink Sink) *Passenger {
	return &Passenger{name: name, sink: sink}
}

// Name returns the passenger's name
func (p *Passenger) Name() string { return p.name }

// Notify implements flight.Listener. A passenger is reached both through
// the registry fan-out and its own subscription; each flight revision is
// announced once.
func (p *Passenger) Notify(f *flight.Flight, status flight.Status) {
	if f.Revision() <= p.seen {
		return
	}
	p.seen = f.Revision()
	p.sink.Deliver(newNotice(AudiencePassenger, p.name, f, status, passengerMessage(p.name, f.Destination(), status)))
}

func staffMessage(destination string, status flight.Status) string {
	switch status {
	case flight.Waiting:
		return fmt.Sprintf("Staff: preparing flight to %s. Inform the passengers.", destination)
	case flight.Boarding:
		return fmt.Sprintf("Staff: boarding for the flight to %s has started. Organise the boarding process.", destination)
	case flight.Departed:
		return fmt.Sprintf("Staff: the flight to %s has departed. Attend to the passengers.", destination)
	case flight.Delayed:
		return fmt.Sprintf("Staff: the flight to %s is delayed. Update the schedule and notify the passengers.", destination)
	case flight.Cancelled:
		return fmt.Sprintf("Staff: the flight to %s is cancelled. Notify the passengers and arrange alternatives.", destination)
	default:
		return fmt.Sprintf("Staff: status update for the flight to %s.", destination)
	}
}

func passengerMessage(name, destination string, status flight.Status) string {
	switch status {
	case flight.Waiting:
		return fmt.Sprintf("Passenger %s! Your flight to %s is expected. Please be ready.", name, destination)
	case flight.Boarding:
		return fmt.Sprintf("Passenger %s! Boarding for your flight to %s has started. Please proceed to the aircraft.", name, destination)
	case flight.Departed:
		return fmt.Sprintf("Passenger %s! Your flight to %s has departed. Have a comfortable trip!", name, destination)
	case flight.Delayed:
		return fmt.Sprintf("Passenger %s! Your flight to %s is delayed. Please wait for further instructions.", name, destination)
	case flight.Cancelled:
		return fmt.Sprintf("Passenger %s! Unfortunately your flight to %s is cancelled. Please contact the information desk.", name, destination)
	default:
		return fmt.Sprintf("Passenger %s: the status of your flight to %s has been updated.", name, destination)
	}
}
