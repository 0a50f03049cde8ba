// Package events feeds a local dashboard with pipeline progress over
// WebSocket. The feed is UX-only: nothing in it is used for control flow and
// nothing in it contains document text.
package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/raaihank/docsentinel/internal/config"
	"github.com/raaihank/docsentinel/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served on localhost for a single user; origin
	// checking is not meaningful here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub maintains the set of connected dashboard clients and broadcasts
// events to them. Progress events are rate-limited so a chatty extraction
// cannot flood the socket; terminal (100%) updates always go through.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan Event
	register   chan *client
	unregister chan *client
	limiter    *rate.Limiter
	logger     *logger.Logger

	mu   sync.RWMutex
	quit chan struct{}
	once sync.Once
}

// NewHub creates a hub; call Run in a goroutine to start it.
func NewHub(cfg config.EventsConfig, log *logger.Logger) *Hub {
	perSecond := cfg.ProgressPerSecond
	if perSecond <= 0 {
		perSecond = 20
	}
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:     log.WithComponent("events"),
		quit:       make(chan struct{}),
	}
}

// Run handles client registration and broadcasting until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.quit) })
}

func (h *Hub) broadcastEvent(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			// Client cannot keep up; drop it.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) publish(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event", zap.String("event_type", string(event.Type)))
	}
}

// Progress publishes an extraction progress event, throttled.
func (h *Hub) Progress(page int, percent float64, status string) {
	if percent < 100 && !h.limiter.Allow() {
		return
	}
	h.publish(Event{
		Type:      EventTypeProgress,
		Timestamp: time.Now(),
		Data:      ProgressEvent{Page: page, Percent: percent, Status: status},
	})
}

// Detections publishes per-type counts for one page. Counts only: the
// detected text stays inside the process.
func (h *Hub) Detections(page int, byType map[string]int) {
	total := 0
	for _, n := range byType {
		total += n
	}
	h.publish(Event{
		Type:      EventTypeDetections,
		Timestamp: time.Now(),
		Data:      DetectionSummaryEvent{Page: page, Total: total, ByType: byType},
	})
}

// System publishes a pipeline state message.
func (h *Hub) System(message string) {
	h.publish(Event{
		Type:      EventTypeSystem,
		Timestamp: time.Now(),
		Data:      SystemEvent{Message: message},
	})
}

// Router returns the HTTP routes for the dashboard feed.
func (h *Hub) Router(path string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(path, h.handleWebSocket)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan Event, 64)}
	select {
	case h.register <- c:
	case <-h.quit:
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection so pings/pongs and close frames are
// processed; the feed is one-way.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.quit:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
