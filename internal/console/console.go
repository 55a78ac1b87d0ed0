// Package console is the interactive menu in front of the airport registry.
// It validates raw input, calls the registry and renders the outcome.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/yegors/flightboard/internal/airport"
	"github.com/yegors/flightboard/internal/flight"
	"github.com/yegors/flightboard/pkg/logger"
)

const menu = `
Airport flight monitoring and service system

Menu:
1. Add flight
2. Register passenger
3. Change flight status
4. Show flights
5. Show statistics
0. Exit`

// Console runs the menu loop
type Console struct {
	registry *airport.Registry
	render   *Renderer
	in       *bufio.Scanner
	logger   *logger.Logger

	lines   chan string
	scanErr error
}

// New creates a console reading commands from in
func New(registry *airport.Registry, render *Renderer, in io.Reader, log *logger.Logger) *Console {
	return &Console{
		registry: registry,
		render:   render,
		in:       bufio.NewScanner(in),
		logger:   log.Named("console"),
	}
}

// Run processes commands until the user exits, input ends or ctx is done.
// It returns nil on exit or end of input and ctx.Err() on cancellation,
// even while waiting for a line. Run must be called at most once.
func (c *Console) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	c.lines = make(chan string)
	go c.scan(done)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.render.Menu(menu)
		c.render.Prompt("Your choice: ")
		choice, err := c.readLine(ctx)
		if err != nil {
			return endOfInput(err)
		}

		switch strings.TrimSpace(choice) {
		case "1":
			err = c.addFlight(ctx)
		case "2":
			err = c.registerPassenger(ctx)
		case "3":
			err = c.changeStatus(ctx)
		case "4":
			if c.requireFlights() {
				c.render.Flights(c.registry.ListFlights())
			}
		case "5":
			c.render.Statistics(c.registry.Statistics())
		case "0":
			c.render.Success("Simulation finished.")
			return nil
		default:
			c.render.Error("Invalid choice. Try again.")
		}
		if err != nil {
			return endOfInput(err)
		}
	}
}

func (c *Console) addFlight(ctx context.Context) error {
	var destination string
	for {
		c.render.Prompt("Enter flight destination: ")
		line, err := c.readLine(ctx)
		if err != nil {
			return err
		}
		destination = strings.TrimSpace(line)
		if destination != "" {
			break
		}
		c.render.Error("Error: destination must not be empty.")
	}

	c.render.Prompt("Is this a VIP flight? (yes - 1 / no - 2): ")
	answer, err := c.readLine(ctx)
	if err != nil {
		return err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	vip := answer == "1" || answer == "yes" || answer == "y"

	view, err := c.registry.AddFlight(destination, vip)
	if err != nil {
		c.render.Error(describe(err))
		return nil
	}
	c.render.Success(fmt.Sprintf("Flight to %s added.", view.Destination))
	return nil
}

func (c *Console) registerPassenger(ctx context.Context) error {
	if !c.requireFlights() {
		return nil
	}
	c.render.Flights(c.registry.ListFlights())

	var name string
	for {
		c.render.Prompt("Enter passenger name: ")
		line, err := c.readLine(ctx)
		if err != nil {
			return err
		}
		name = strings.TrimSpace(line)
		if name == "" {
			c.render.Error("Error: name must not be empty. Try again.")
			continue
		}
		if strings.IndexFunc(name, unicode.IsDigit) >= 0 {
			c.render.Error("Error: name must not contain digits. Try again.")
			continue
		}
		break
	}

	number, valid, err := c.readNumber(ctx, "Select flight number: ")
	if err != nil {
		return err
	}
	if !valid {
		c.render.Error("Error: invalid flight number format.")
		return nil
	}

	if err := c.registry.RegisterPassenger(name, number-1); err != nil {
		c.render.Error(describe(err))
		return nil
	}
	if view, err := c.registry.Flight(number - 1); err == nil {
		c.render.Success(fmt.Sprintf("Passenger %s registered for the flight to %s.", name, view.Destination))
	}
	return nil
}

func (c *Console) changeStatus(ctx context.Context) error {
	if !c.requireFlights() {
		return nil
	}
	c.render.Flights(c.registry.ListFlights())

	number, valid, err := c.readNumber(ctx, "Select flight number: ")
	if err != nil {
		return err
	}
	if !valid {
		c.render.Error("Invalid flight number.")
		return nil
	}

	c.render.Menu("Available statuses:")
	for _, s := range flight.Statuses {
		c.render.Menu(fmt.Sprintf("%d. %s", int(s), s))
	}

	code, valid, err := c.readNumber(ctx, "Select new status: ")
	if err != nil {
		return err
	}
	status := flight.Status(code)
	if !valid || !status.Valid() {
		c.render.Error("Invalid status choice.")
		return nil
	}

	if err := c.registry.ChangeFlightStatus(number-1, status); err != nil {
		c.render.Error(describe(err))
	}
	return nil
}

func (c *Console) requireFlights() bool {
	if c.registry.HasFlights() {
		return true
	}
	c.render.Error("No flights yet. Add a flight first.")
	return false
}

// readNumber reports whether the line was a valid integer. The error is
// non-nil only when no line could be read.
func (c *Console) readNumber(ctx context.Context, prompt string) (int, bool, error) {
	c.render.Prompt(prompt)
	line, err := c.readLine(ctx)
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// readLine waits for the next line or for ctx. It returns io.EOF once the
// input is exhausted.
func (c *Console) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if ok {
			return line, nil
		}
		c.logger.Debug("Input closed")
		if c.scanErr != nil {
			return "", c.scanErr
		}
		return "", io.EOF
	}
}

// scan feeds input lines to readLine so that a blocked read never holds up
// cancellation. scanErr is set before lines is closed.
func (c *Console) scan(done <-chan struct{}) {
	defer close(c.lines)
	for c.in.Scan() {
		select {
		case c.lines <- c.in.Text():
		case <-done:
			return
		}
	}
	c.scanErr = c.in.Err()
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// describe turns registry rejections into console messages
func describe(err error) string {
	var te *flight.TransitionError
	switch {
	case errors.As(err, &te):
		return fmt.Sprintf("Impossible transition from '%s' to '%s'.", te.From, te.To)
	case errors.Is(err, airport.ErrNoFlights):
		return "No flights yet. Add a flight first."
	case errors.Is(err, airport.ErrFlightIndex):
		return "Invalid flight selection."
	case errors.Is(err, airport.ErrFlightClosed):
		return "Registration impossible: " + err.Error() + "."
	case errors.Is(err, airport.ErrEmptyDestination):
		return "Error: destination must not be empty. Try again."
	default:
		return "Error: " + err.Error()
	}
}
