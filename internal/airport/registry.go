// Package airport owns the flights of one airport, the passengers booked on
// them and the running statistics, and wires every flight's listeners.
package airport

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/yegors/flightboard/internal/flight"
	"github.com/yegors/flightboard/internal/notify"
	"github.com/yegors/flightboard/pkg/logger"
)

var (
	ErrEmptyDestination     = errors.New("destination must not be empty")
	ErrInvalidPassengerName = errors.New("passenger name must not be empty or contain digits")
	ErrNoFlights            = errors.New("no flights have been added")
	ErrFlightIndex          = errors.New("flight index out of range")
	ErrFlightClosed         = errors.New("flight is no longer accepting passengers")
)

// Statistics counts transitions into the reported statuses
type Statistics struct {
	Completed int `json:"completed"`
	Delayed   int `json:"delayed"`
	Cancelled int `json:"cancelled"`
}

// FlightView is a read-only snapshot of a flight. Index is the insertion
// position used by RegisterPassenger and ChangeFlightStatus.
type FlightView struct {
	Index       int           `json:"index"`
	ID          string        `json:"id"`
	Destination string        `json:"destination"`
	Status      flight.Status `json:"status"`
	VIP         bool          `json:"vip"`
	Passengers  int           `json:"passengers"`
}

// booking ties a passenger to the exact handle it was subscribed with
type booking struct {
	passenger *notify.Passenger
	sub       *flight.Subscription
}

// wiring holds the registry's own handles on a flight
type wiring struct {
	fanOut *flight.Subscription
	stats  *flight.Subscription
}

// Registry is the airport. All public methods are safe for concurrent use;
// each runs to completion, listener dispatch included, under one lock.
type Registry struct {
	mu         sync.Mutex
	flights    []*flight.Flight
	passengers map[*flight.Flight][]booking
	wired      map[*flight.Flight]wiring
	stats      Statistics

	staff  *notify.Staff
	sink   notify.Sink
	hooks  Hooks
	now    func() time.Time
	logger *logger.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithHooks registers lifecycle hooks
func WithHooks(h Hooks) Option {
	return func(r *Registry) {
		r.hooks = h
	}
}

// WithClock overrides the time source used for Change timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New creates an empty registry delivering notices to sink
func New(sink notify.Sink, log *logger.Logger, opts ...Option) *Registry {
	if sink == nil {
		sink = notify.Discard
	}
	if log == nil {
		log = logger.NewNop()
	}
	r := &Registry{
		passengers: make(map[*flight.Flight][]booking),
		wired:      make(map[*flight.Flight]wiring),
		staff:      notify.NewStaff(sink),
		sink:       sink,
		now:        time.Now,
		logger:     log.Named("airport"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasFlights reports whether any flight has been added
func (r *Registry) HasFlights() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flights) > 0
}

// AddFlight creates a flight in the Waiting status and wires its listeners
func (r *Registry) AddFlight(destination string, vip bool) (FlightView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	destination = strings.TrimSpace(destination)
	if destination == "" {
		return FlightView{}, r.reject("add_flight", ErrEmptyDestination)
	}

	f := flight.New(destination, vip)
	r.wired[f] = wiring{
		fanOut: f.Subscribe(r.fanOut),
		stats:  f.Subscribe(r.countStatus),
	}
	r.flights = append(r.flights, f)
	r.passengers[f] = []booking{}

	view := r.view(len(r.flights)-1, f)
	r.logger.WithFlight(f.ID(), destination).Info("Flight added",
		logger.Int("index", view.Index),
		logger.Bool("vip", vip))
	if r.hooks.OnFlightAdded != nil {
		r.hooks.OnFlightAdded(view)
	}
	return view, nil
}

// RegisterPassenger books a passenger on the flight at the given insertion
// index and subscribes the passenger to its status changes
func (r *Registry) RegisterPassenger(name string, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ValidatePassengerName(name); err != nil {
		return r.reject("register_passenger", err)
	}
	f, err := r.flightAt(index)
	if err != nil {
		return r.reject("register_passenger", err)
	}
	if f.Status().IsTerminal() {
		return r.reject("register_passenger",
			fmt.Errorf("%w: flight to %s is already %s", ErrFlightClosed, f.Destination(), f.Status()))
	}

	p := notify.NewPassenger(strings.TrimSpace(name), r.sink)
	r.passengers[f] = append(r.passengers[f], booking{
		passenger: p,
		sub:       f.Subscribe(p.Notify),
	})

	view := r.view(index, f)
	r.logger.WithFlight(f.ID(), f.Destination()).Info("Passenger registered",
		logger.String("passenger", p.Name()),
		logger.Int("passengers", view.Passengers))
	if r.hooks.OnPassengerRegistered != nil {
		r.hooks.OnPassengerRegistered(view, p.Name())
	}
	return nil
}

// ChangeFlightStatus requests a transition on the flight at the given
// insertion index
func (r *Registry) ChangeFlightStatus(index int, status flight.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.flightAt(index)
	if err != nil {
		return r.reject("change_status", err)
	}
	if err := f.RequestTransition(status); err != nil {
		return r.reject("change_status", err)
	}
	return nil
}

// ListFlights returns every flight, VIP flights first, then by destination
func (r *Registry) ListFlights() []FlightView {
	r.mu.Lock()
	defer r.mu.Unlock()

	views := make([]FlightView, len(r.flights))
	for i, f := range r.flights {
		views[i] = r.view(i, f)
	}
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].VIP != views[j].VIP {
			return views[i].VIP
		}
		return views[i].Destination < views[j].Destination
	})
	return views
}

// Flight returns the view of the flight at the given insertion index
func (r *Registry) Flight(index int) (FlightView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.flightAt(index)
	if err != nil {
		return FlightView{}, err
	}
	return r.view(index, f), nil
}

// Statistics returns the current counters
func (r *Registry) Statistics() Statistics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// ListenerCount returns how many listeners the flight at index still has
func (r *Registry) ListenerCount(index int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.flightAt(index)
	if err != nil {
		return 0, err
	}
	return f.ListenerCount(), nil
}

// ValidatePassengerName rejects blank names and names containing digits
func ValidatePassengerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidPassengerName
	}
	for _, c := range name {
		if unicode.IsDigit(c) {
			return ErrInvalidPassengerName
		}
	}
	return nil
}

func (r *Registry) flightAt(index int) (*flight.Flight, error) {
	if len(r.flights) == 0 {
		return nil, ErrNoFlights
	}
	if index < 0 || index >= len(r.flights) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrFlightIndex, index, len(r.flights))
	}
	return r.flights[index], nil
}

func (r *Registry) view(index int, f *flight.Flight) FlightView {
	return FlightView{
		Index:       index,
		ID:          f.ID(),
		Destination: f.Destination(),
		Status:      f.Status(),
		VIP:         f.VIP(),
		Passengers:  len(r.passengers[f]),
	}
}

func (r *Registry) reject(op string, err error) error {
	r.logger.Warn("Operation rejected", logger.String("operation", op), logger.Error(err))
	if r.hooks.OnRejected != nil {
		r.hooks.OnRejected(op, err)
	}
	return err
}
