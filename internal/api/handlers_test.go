package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/yegors/flightboard/internal/airport"
	"github.com/yegors/flightboard/internal/config"
	"github.com/yegors/flightboard/internal/flight"
	"github.com/yegors/flightboard/internal/metrics"
	"github.com/yegors/flightboard/internal/notify"
	"github.com/yegors/flightboard/internal/storage/sqlite"
	"github.com/yegors/flightboard/pkg/logger"
)

type testServer struct {
	handler  http.Handler
	registry *airport.Registry
	hub      *NoticeHub
}

func newTestServer(t *testing.T, withHistory bool, origins ...string) *testServer {
	t.Helper()
	log := logger.NewNop()
	cfg := config.DefaultConfig()
	cfg.Server.CORSAllowedOrigins = origins

	hub := NewNoticeHub(cfg.Server.NoticeBufferSize, cfg.Server.CORSAllowedOrigins, log)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	hooks := []airport.Hooks{m.Hooks()}

	var history *sqlite.HistoryStorage
	if withHistory {
		db, err := sqlite.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		history, err = sqlite.NewHistoryStorage(db, log)
		require.NoError(t, err)
		hooks = append(hooks, history.Hooks())
	}

	registry := airport.New(hub, log, airport.WithHooks(airport.ChainHooks(hooks...)))
	handler := NewHandler(registry, history, cfg.Storage.HistoryLimit, hub, log)
	router := NewRouter(handler, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), cfg, log)

	return &testServer{handler: router.Routes(), registry: registry, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestFlightLifecycle(t *testing.T) {
	s := newTestServer(t, true)

	rr := s.do(t, http.MethodPost, "/api/v1/flights", `{"destination":"Paris","vip":false}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeBody[airport.FlightView](t, rr)
	assert.Equal(t, 0, created.Index)
	assert.Equal(t, flight.Waiting, created.Status)

	rr = s.do(t, http.MethodPost, "/api/v1/flights/0/passengers", `{"name":"Anna"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, decodeBody[airport.FlightView](t, rr).Passengers)

	rr = s.do(t, http.MethodPut, "/api/v1/flights/0/status", `{"status":"boarding"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, flight.Boarding, decodeBody[airport.FlightView](t, rr).Status)

	rr = s.do(t, http.MethodPut, "/api/v1/flights/0/status", `{"status":"waiting"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rr).Error, "boarding to waiting")

	rr = s.do(t, http.MethodPut, "/api/v1/flights/0/status", `{"status":"departed"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/flights/0/passengers", `{"name":"Bob"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/v1/statistics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, airport.Statistics{Completed: 1}, decodeBody[airport.Statistics](t, rr))

	rr = s.do(t, http.MethodGet, "/api/v1/flights/0/history", "")
	require.Equal(t, http.StatusOK, rr.Code)
	history := decodeBody[HistoryResponse](t, rr)
	require.Equal(t, 2, history.Count)
	assert.Equal(t, "boarding", history.Changes[0].Status)
	assert.Equal(t, "departed", history.Changes[1].Status)

	rr = s.do(t, http.MethodGet, "/api/v1/history?limit=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decodeBody[HistoryResponse](t, rr).Count)

	rr = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `flightboard_status_transitions_total{status="departed"} 1`)
	assert.Contains(t, rr.Body.String(), `flightboard_rejected_operations_total{operation="change_status"} 1`)
}

func TestListFlights_Order(t *testing.T) {
	s := newTestServer(t, false)
	for _, body := range []string{
		`{"destination":"Zurich"}`,
		`{"destination":"Rome","vip":true}`,
		`{"destination":"Amsterdam"}`,
	} {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/flights", body).Code)
	}

	rr := s.do(t, http.MethodGet, "/api/v1/flights", "")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody[FlightsResponse](t, rr)
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, "Rome", resp.Flights[0].Destination)
	assert.Equal(t, 1, resp.Flights[0].Index)
	assert.Equal(t, "Amsterdam", resp.Flights[1].Destination)
	assert.Equal(t, "Zurich", resp.Flights[2].Destination)

	rr = s.do(t, http.MethodGet, "/api/v1/flights/2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Amsterdam", decodeBody[airport.FlightView](t, rr).Destination)
}

func TestRejections(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"no flights", http.MethodPut, "/api/v1/flights/0/status", `{"status":"boarding"}`, http.StatusNotFound},
		{"empty destination", http.MethodPost, "/api/v1/flights", `{"destination":"  "}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/v1/flights", `{"destination":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/flights", `{"city":"Rome"}`, http.StatusBadRequest},
		{"passenger on empty board", http.MethodPost, "/api/v1/flights/5/passengers", `{"name":"X"}`, http.StatusNotFound},
		{"non-numeric index", http.MethodGet, "/api/v1/flights/first", "", http.StatusBadRequest},
		{"history disabled", http.MethodGet, "/api/v1/history", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/flights", `{"destination":"Rome"}`).Code)

	more := []struct {
		name string
		path string
		body string
		want int
	}{
		{"index out of range", "/api/v1/flights/3/status", `{"status":"boarding"}`, http.StatusNotFound},
		{"unknown status", "/api/v1/flights/0/status", `{"status":"landed"}`, http.StatusBadRequest},
		{"invalid transition", "/api/v1/flights/0/status", `{"status":"departed"}`, http.StatusConflict},
	}
	for _, tt := range more {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}

	rr := s.do(t, http.MethodPost, "/api/v1/flights/0/passengers", `{"name":"Agent 47"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetStatuses(t *testing.T) {
	s := newTestServer(t, false)

	rr := s.do(t, http.MethodGet, "/api/v1/statuses", "")
	require.Equal(t, http.StatusOK, rr.Code)
	infos := decodeBody[[]StatusInfo](t, rr)
	require.Len(t, infos, 5)
	assert.Equal(t, flight.Waiting, infos[0].Status)
	assert.Equal(t, []flight.Status{flight.Boarding, flight.Delayed, flight.Cancelled}, infos[0].Next)
	assert.True(t, infos[2].Terminal)
	assert.Empty(t, infos[2].Next)
	assert.Equal(t, 4, infos[4].Code)
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://board.local")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://board.local", rr.Header().Get("Access-Control-Allow-Origin"))
	health := decodeBody[map[string]any](t, rr)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["has_flights"])
	assert.Equal(t, true, health["history_enabled"])

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/flights", nil)
	req.Header.Set("Origin", "http://board.local")
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestOriginAllowed(t *testing.T) {
	assert.False(t, originAllowed(nil, ""))
	assert.True(t, originAllowed(nil, "http://a"))
	assert.True(t, originAllowed([]string{"*"}, "http://a"))
	assert.True(t, originAllowed([]string{"http://a"}, "http://a"))
	assert.False(t, originAllowed([]string{"http://a"}, "http://b"))
}

func TestStreamNotices(t *testing.T) {
	s := newTestServer(t, false)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/notices/ws"
	ws, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = s.registry.AddFlight("Rome", true)
	require.NoError(t, err)
	require.NoError(t, s.registry.RegisterPassenger("Anna", 0))
	require.NoError(t, s.registry.ChangeFlightStatus(0, flight.Cancelled))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got []notify.Notice
	for i := 0; i < 3; i++ {
		var n notify.Notice
		require.NoError(t, websocket.JSON.Receive(ws, &n))
		got = append(got, n)
	}

	assert.Equal(t, notify.AudienceBoard, got[0].Audience)
	assert.Equal(t, notify.AudienceStaff, got[1].Audience)
	assert.Equal(t, notify.AudiencePassenger, got[2].Audience)
	assert.Equal(t, "Anna", got[2].Recipient)
	assert.Equal(t, flight.Cancelled, got[2].Status)

	ws.Close()
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNoticeHub_DropsForSlowClients(t *testing.T) {
	hub := NewNoticeHub(1, nil, logger.NewNop())
	ch, unsubscribe := hub.subscribe()

	hub.Deliver(notify.Notice{Message: "first"})
	hub.Deliver(notify.Notice{Message: "second"})

	assert.Equal(t, 1, hub.Dropped())
	assert.Equal(t, "first", (<-ch).Message)

	unsubscribe()
	assert.Equal(t, 0, hub.ClientCount())
	hub.Deliver(notify.Notice{Message: "third"})
	assert.Equal(t, 1, hub.Dropped())
}

func TestNoticeHub_Handshake(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		wantErr bool
	}{
		{"no origin header", nil, "", false},
		{"same host without allow list", nil, "http://example.com", false},
		{"cross site without allow list", nil, "http://evil.example", true},
		{"listed origin", []string{"http://board.example"}, "http://board.example", false},
		{"unlisted origin", []string{"http://board.example"}, "http://evil.example", true},
		{"wildcard", []string{"*"}, "http://evil.example", false},
		{"no origin header with allow list", []string{"http://board.example"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewNoticeHub(1, tt.origins, logger.NewNop())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/notices/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			err := hub.handshake(nil, req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStreamNotices_RejectsCrossSiteOrigin(t *testing.T) {
	s := newTestServer(t, false, "http://board.example")
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/notices/ws"
	_, err := websocket.Dial(wsURL, "", "http://evil.example")
	require.Error(t, err)
	assert.Equal(t, 0, s.hub.ClientCount())

	ws, err := websocket.Dial(wsURL, "", "http://board.example")
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}
