package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/yegors/flightboard/internal/flight"
)

// ANSI palette, one color per flight status
const (
	colorGreen  = "10"
	colorBlue   = "12"
	colorCyan   = "14"
	colorYellow = "11"
	colorRed    = "9"
)

// Styles holds the console's text styles
type Styles struct {
	Menu    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Status  map[flight.Status]lipgloss.Style
}

// DefaultStyles returns colored styles bound to renderer
func DefaultStyles(r *lipgloss.Renderer) Styles {
	color := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Menu:    color(colorCyan),
		Success: color(colorGreen),
		Warning: color(colorYellow),
		Error:   color(colorRed),
		Status: map[flight.Status]lipgloss.Style{
			flight.Waiting:   color(colorGreen),
			flight.Boarding:  color(colorBlue),
			flight.Departed:  color(colorCyan),
			flight.Delayed:   color(colorYellow),
			flight.Cancelled: color(colorRed),
		},
	}
}

// NoColorStyles returns unstyled components for plain output
func NoColorStyles() Styles {
	return Styles{
		Menu:    lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Status:  map[flight.Status]lipgloss.Style{},
	}
}

func (s Styles) forStatus(status flight.Status) lipgloss.Style {
	if style, ok := s.Status[status]; ok {
		return style
	}
	return lipgloss.NewStyle()
}
