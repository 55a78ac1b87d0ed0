package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/yegors/flightboard/internal/airport"
	"github.com/yegors/flightboard/internal/notify"
)

const flightsHeading = "Flights (numbers are the order flights were added, not list positions):"

// Renderer writes notices and board listings as text
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer writing to out
func NewRenderer(out io.Writer, styles Styles) *Renderer {
	return &Renderer{out: out, styles: styles}
}

// Deliver implements notify.Sink
func (r *Renderer) Deliver(n notify.Notice) {
	switch n.Audience {
	case notify.AudienceBoard:
		r.println("\n" + n.Message)
	default:
		r.println(r.styles.forStatus(n.Status).Render(n.Message))
	}
}

// Flights prints the board in display order (VIP first). Each flight keeps
// its insertion number, which is what the index-based commands expect, so
// the numbers are not list positions.
func (r *Renderer) Flights(views []airport.FlightView) {
	r.println("\n" + flightsHeading)
	for _, v := range views {
		vip := ""
		if v.VIP {
			vip = " (VIP)"
		}
		line := fmt.Sprintf("%d. %s - %s%s", v.Index+1, v.Destination, v.Status, vip)
		r.println(r.styles.forStatus(v.Status).Render(line))
	}
}

// Statistics prints the counters
func (r *Renderer) Statistics(s airport.Statistics) {
	r.println("\nFlight statistics:")
	r.println(r.styles.Success.Render(fmt.Sprintf("Completed flights: %d", s.Completed)))
	r.println(r.styles.Warning.Render(fmt.Sprintf("Delayed flights: %d", s.Delayed)))
	r.println(r.styles.Error.Render(fmt.Sprintf("Cancelled flights: %d", s.Cancelled)))
}

// Success prints a confirmation
func (r *Renderer) Success(msg string) { r.println(r.styles.Success.Render(msg)) }

// Error prints a rejection
func (r *Renderer) Error(msg string) { r.println(r.styles.Error.Render(msg)) }

// Menu prints menu text
func (r *Renderer) Menu(msg string) { r.println(r.styles.Menu.Render(msg)) }

// Prompt prints without a trailing newline
func (r *Renderer) Prompt(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, msg)
}

func (r *Renderer) println(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, msg)
}
