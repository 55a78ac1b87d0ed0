package api

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/yegors/flightboard/internal/notify"
	"github.com/yegors/flightboard/pkg/logger"
)

// NoticeHub broadcasts notices to connected websocket clients. Deliver
// never blocks: a client whose buffer is full misses the notice.
type NoticeHub struct {
	mu         sync.Mutex
	clients    map[chan notify.Notice]struct{}
	bufferSize int
	dropped    int
	origins    []string
	logger     *logger.Logger
}

// NewNoticeHub creates a hub with a per-client buffer of bufferSize notices.
// Browser clients must come from one of allowedOrigins, or from the
// server's own host when the list is empty.
func NewNoticeHub(bufferSize int, allowedOrigins []string, log *logger.Logger) *NoticeHub {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &NoticeHub{
		clients:    make(map[chan notify.Notice]struct{}),
		bufferSize: bufferSize,
		origins:    allowedOrigins,
		logger:     log.Named("notice-hub"),
	}
}

// Deliver implements notify.Sink
func (h *NoticeHub) Deliver(n notify.Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.clients {
		select {
		case ch <- n:
		default:
			h.dropped++
			h.logger.Warn("Dropping notice for slow client",
				logger.String("flight_id", n.FlightID),
				logger.Int("dropped_total", h.dropped))
		}
	}
}

// ClientCount returns the number of connected clients
func (h *NoticeHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many notices were dropped for slow clients
func (h *NoticeHub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

func (h *NoticeHub) subscribe() (<-chan notify.Notice, func()) {
	ch := make(chan notify.Notice, h.bufferSize)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}
}

// ServeHTTP upgrades the request to a websocket connection
func (h *NoticeHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server := websocket.Server{
		Handshake: h.handshake,
		Handler:   h.serve,
	}
	server.ServeHTTP(w, r)
}

// handshake refuses cross-site browser connections. Requests without an
// Origin header come from non-browser clients and are accepted.
func (h *NoticeHub) handshake(_ *websocket.Config, r *http.Request) error {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return nil
	}

	if len(h.origins) == 0 {
		if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
			return nil
		}
	} else if originAllowed(h.origins, origin) {
		return nil
	}

	h.logger.Warn("Rejected notice client",
		logger.String("origin", origin),
		logger.String("remote_addr", r.RemoteAddr))
	return fmt.Errorf("origin %q not allowed", origin)
}

func (h *NoticeHub) serve(ws *websocket.Conn) {
	defer ws.Close()

	notices, unsubscribe := h.subscribe()
	defer unsubscribe()

	h.logger.Debug("Notice client connected", logger.String("remote_addr", ws.Request().RemoteAddr))

	// Clients never send anything; a read returning means the peer went away.
	closed := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, ws)
		close(closed)
	}()

	for {
		select {
		case n := <-notices:
			if err := websocket.JSON.Send(ws, n); err != nil {
				h.logger.Debug("Notice client write failed", logger.Error(err))
				return
			}
		case <-closed:
			h.logger.Debug("Notice client disconnected")
			return
		}
	}
}
