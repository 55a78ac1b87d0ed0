package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/flightboard/internal/airport"
	"github.com/yegors/flightboard/internal/flight"
	"github.com/yegors/flightboard/internal/storage/sqlite"
	"github.com/yegors/flightboard/pkg/logger"
)

// Handler serves the board's HTTP endpoints
type Handler struct {
	registry     *airport.Registry
	history      *sqlite.HistoryStorage
	historyLimit int
	hub          *NoticeHub
	startedAt    time.Time
	logger       *logger.Logger
}

// NewHandler creates a new handler. history may be nil when status history
// is disabled.
func NewHandler(registry *airport.Registry, history *sqlite.HistoryStorage, historyLimit int, hub *NoticeHub, log *logger.Logger) *Handler {
	return &Handler{
		registry:     registry,
		history:      history,
		historyLimit: historyLimit,
		hub:          hub,
		startedAt:    time.Now(),
		logger:       log.Named("api-handler"),
	}
}

// FlightsResponse represents the API response for the flight list
type FlightsResponse struct {
	Timestamp time.Time            `json:"timestamp"`
	Count     int                  `json:"count"`
	Flights   []airport.FlightView `json:"flights"`
}

// AddFlightRequest is the body of POST /flights
type AddFlightRequest struct {
	Destination string `json:"destination"`
	VIP         bool   `json:"vip"`
}

// RegisterPassengerRequest is the body of POST /flights/{index}/passengers
type RegisterPassengerRequest struct {
	Name string `json:"name"`
}

// ChangeStatusRequest is the body of PUT /flights/{index}/status
type ChangeStatusRequest struct {
	Status flight.Status `json:"status"`
}

// HistoryResponse represents the API response for status history
type HistoryResponse struct {
	Count   int                          `json:"count"`
	Changes []*sqlite.StatusChangeRecord `json:"changes"`
}

// StatusInfo describes a status and the statuses reachable from it
type StatusInfo struct {
	Status   flight.Status   `json:"status"`
	Code     int             `json:"code"`
	Terminal bool            `json:"terminal"`
	Next     []flight.Status `json:"next"`
}

// ErrorResponse is returned for every rejected request
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListFlights returns every flight, VIP first then by destination
func (h *Handler) ListFlights(w http.ResponseWriter, r *http.Request) {
	flights := h.registry.ListFlights()
	h.writeJSON(w, http.StatusOK, FlightsResponse{
		Timestamp: time.Now().UTC(),
		Count:     len(flights),
		Flights:   flights,
	})
}

// AddFlight creates a flight
func (h *Handler) AddFlight(w http.ResponseWriter, r *http.Request) {
	var req AddFlightRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.registry.AddFlight(req.Destination, req.VIP)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, view)
}

// GetFlight returns a single flight by insertion index
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	index, ok := h.flightIndex(w, r)
	if !ok {
		return
	}

	view, err := h.registry.Flight(index)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// RegisterPassenger books a passenger on a flight
func (h *Handler) RegisterPassenger(w http.ResponseWriter, r *http.Request) {
	index, ok := h.flightIndex(w, r)
	if !ok {
		return
	}
	var req RegisterPassengerRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.registry.RegisterPassenger(req.Name, index); err != nil {
		h.writeError(w, err)
		return
	}
	view, err := h.registry.Flight(index)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, view)
}

// ChangeFlightStatus requests a status transition
func (h *Handler) ChangeFlightStatus(w http.ResponseWriter, r *http.Request) {
	index, ok := h.flightIndex(w, r)
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.registry.ChangeFlightStatus(index, req.Status); err != nil {
		h.writeError(w, err)
		return
	}
	view, err := h.registry.Flight(index)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// GetFlightHistory returns the status changes of one flight
func (h *Handler) GetFlightHistory(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	index, ok := h.flightIndex(w, r)
	if !ok {
		return
	}
	view, err := h.registry.Flight(index)
	if err != nil {
		h.writeError(w, err)
		return
	}

	changes, err := h.history.GetHistoryByFlight(view.ID, h.historyLimit)
	if err != nil {
		h.logger.Error("Failed to get flight history", logger.String("flight_id", view.ID), logger.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to load history"})
		return
	}
	h.writeJSON(w, http.StatusOK, HistoryResponse{Count: len(changes), Changes: changes})
}

// GetRecentHistory returns the latest status changes across all flights
func (h *Handler) GetRecentHistory(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}

	limit := h.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, h.historyLimit)
	}

	changes, err := h.history.GetRecentChanges(limit)
	if err != nil {
		h.logger.Error("Failed to get recent history", logger.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to load history"})
		return
	}
	h.writeJSON(w, http.StatusOK, HistoryResponse{Count: len(changes), Changes: changes})
}

// GetStatistics returns the completed/delayed/cancelled counters
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.registry.Statistics())
}

// GetStatuses returns the transition table
func (h *Handler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	infos := make([]StatusInfo, 0, len(flight.Statuses))
	for _, s := range flight.Statuses {
		infos = append(infos, StatusInfo{
			Status:   s,
			Code:     int(s),
			Terminal: s.IsTerminal(),
			Next:     flight.Allowed(s),
		})
	}
	h.writeJSON(w, http.StatusOK, infos)
}

// GetHealth returns the service health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"uptime":          time.Since(h.startedAt).Round(time.Second).String(),
		"has_flights":     h.registry.HasFlights(),
		"notice_clients":  h.hub.ClientCount(),
		"history_enabled": h.history != nil,
	})
}

// StreamNotices upgrades to a websocket streaming every notice as JSON
func (h *Handler) StreamNotices(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeHTTP(w, r)
}

func (h *Handler) flightIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "flight index must be an integer"})
		return 0, false
	}
	return index, true
}

func (h *Handler) historyEnabled(w http.ResponseWriter) bool {
	if h.history == nil {
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "status history is disabled"})
		return false
	}
	return true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// statusFor maps registry rejections to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, airport.ErrEmptyDestination),
		errors.Is(err, airport.ErrInvalidPassengerName),
		errors.Is(err, flight.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, airport.ErrNoFlights),
		errors.Is(err, airport.ErrFlightIndex):
		return http.StatusNotFound
	case errors.Is(err, flight.ErrInvalidTransition),
		errors.Is(err, airport.ErrFlightClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, statusFor(err), ErrorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}
