package flight

import (
	"fmt"
	"strconv"
	"strings"
)

// Status represents the lifecycle stage of a flight
type Status int

const (
	Waiting Status = iota
	Boarding
	Departed
	Delayed
	Cancelled
)

// Statuses lists every status in menu order
var Statuses = []Status{Waiting, Boarding, Departed, Delayed, Cancelled}

var statusNames = map[Status]string{
	Waiting:   "waiting",
	Boarding:  "boarding",
	Departed:  "departed",
	Delayed:   "delayed",
	Cancelled: "cancelled",
}

// transitions lists every allowed (from -> to) pair.
// Departed and Cancelled are terminal and have no outgoing edges.
var transitions = map[Status][]Status{
	Waiting:   {Boarding, Delayed, Cancelled},
	Boarding:  {Departed, Delayed, Cancelled},
	Departed:  {},
	Delayed:   {Waiting, Boarding, Cancelled},
	Cancelled: {},
}

// Allowed returns the statuses reachable from the given status
func Allowed(from Status) []Status {
	next := transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether moving from -> to is permitted
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// MarshalText encodes the status by name
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts anything ParseStatus does
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus converts a status name (case-insensitive) or its menu number
func ParseStatus(raw string) (Status, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for status, name := range statusNames {
		if name == value {
			return status, nil
		}
	}
	if n, err := strconv.Atoi(value); err == nil && Status(n).Valid() {
		return Status(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}
