// Package flight holds the flight state machine: a validated status
// transition table and an ordered set of listeners notified on every
// applied transition.
package flight

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidTransition is returned when the target status is not
	// reachable from the current one
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownStatus is returned for values outside the status enum
	ErrUnknownStatus = errors.New("unknown flight status")
)

// TransitionError names the rejected transition
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Listener reacts to a status change that has already been applied
type Listener func(f *Flight, status Status)

// Subscription is the handle returned by Subscribe. Removal is by handle
// identity, so two subscriptions of equivalent listeners stay independent.
type Subscription struct {
	listener Listener
}

// Flight is a single flight. Identity fields never change after creation;
// status and listeners change only through RequestTransition, Subscribe
// and Unsubscribe. A Flight is not safe for concurrent use.
type Flight struct {
	id          string
	destination string
	vip         bool

	status    Status
	revision  int
	listeners []*Subscription
}

// New creates a flight in the Waiting status
func New(destination string, vip bool) *Flight {
	return &Flight{
		id:          uuid.NewString(),
		destination: destination,
		vip:         vip,
		status:      Waiting,
	}
}

// ID returns the flight's unique identifier
func (f *Flight) ID() string { return f.id }

// Destination returns the flight's destination
func (f *Flight) Destination() string { return f.destination }

// VIP reports whether this is a VIP flight
func (f *Flight) VIP() bool { return f.vip }

// Status returns the current status
func (f *Flight) Status() Status { return f.status }

// Revision counts the transitions applied so far
func (f *Flight) Revision() int { return f.revision }

// ListenerCount returns the number of active subscriptions
func (f *Flight) ListenerCount() int { return len(f.listeners) }

// Subscribe appends a listener and returns its handle
func (f *Flight) Subscribe(l Listener) *Subscription {
	sub := &Subscription{listener: l}
	f.listeners = append(f.listeners, sub)
	return sub
}

// Unsubscribe removes the first entry for the given handle. It reports
// whether the handle was found.
func (f *Flight) Unsubscribe(sub *Subscription) bool {
	for i, s := range f.listeners {
		if s == sub {
			f.listeners = append(f.listeners[:i], f.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// RequestTransition validates and applies a status change, then invokes
// every listener subscribed at that moment in subscription order.
//
// Listeners see the event even if an earlier listener unsubscribes them
// while handling it.
func (f *Flight) RequestTransition(to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStatus, int(to))
	}
	if !CanTransition(f.status, to) {
		return &TransitionError{From: f.status, To: to}
	}

	f.status = to
	f.revision++

	snapshot := make([]*Subscription, len(f.listeners))
	copy(snapshot, f.listeners)
	for _, sub := range snapshot {
		sub.listener(f, to)
	}
	return nil
}
