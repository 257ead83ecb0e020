package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("realtime hub closed")

// Envelope is the frame written to every socket.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub tracks websocket clients by room and fans events out to them.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]struct{}
	closed   bool
	upgrader websocket.Upgrader
	log      *zap.Logger
}

type client struct {
	id    string
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	rooms []string
	once  sync.Once
}

// NewHub builds a hub that accepts upgrades from allowedOrigins. "*" allows any
// origin; requests without an Origin header are always accepted.
func NewHub(allowedOrigins []string, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		rooms: make(map[string]map[*client]struct{}),
		log:   log,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// Serve upgrades the request and joins the connection to rooms. It returns
// once the connection is registered; the pumps run in their own goroutines.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, rooms []string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}
	c := &client{
		id:    uuid.NewString(),
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
		rooms: rooms,
	}
	if err := h.register(c); err != nil {
		conn.Close()
		return err
	}
	h.log.Debug("websocket connected", zap.String("client_id", c.id), zap.Strings("rooms", rooms))

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	for _, room := range c.rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*client]struct{})
		}
		h.rooms[room][c] = struct{}{}
	}
	return nil
}

func (h *Hub) unregister(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		for _, room := range c.rooms {
			if clients, ok := h.rooms[room]; ok {
				delete(clients, c)
				if len(clients) == 0 {
					delete(h.rooms, room)
				}
			}
		}
		h.mu.Unlock()
		close(c.done)
	})
}

// Emit queues event once for every client joined to any of rooms, so a
// client in several of them still gets a single frame. A client whose buffer
// is full is disconnected. Empty rooms are not an error.
func (h *Hub) Emit(_ context.Context, rooms []string, event string, payload any) error {
	msg, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrClosed
	}
	targets := make(map[*client]struct{})
	for _, room := range rooms {
		for c := range h.rooms[room] {
			targets[c] = struct{}{}
		}
	}
	h.mu.RUnlock()

	for c := range targets {
		select {
		case <-c.done:
		case c.send <- msg:
		default:
			h.log.Warn("websocket client too slow, dropping", zap.String("client_id", c.id))
			h.unregister(c)
		}
	}
	return nil
}

// RoomSize returns the number of clients currently joined to room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close disconnects every client and rejects further emits.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	seen := make(map[*client]struct{})
	for _, clients := range h.rooms {
		for c := range clients {
			seen[c] = struct{}{}
		}
	}
	h.mu.Unlock()

	for c := range seen {
		h.unregister(c)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("websocket write failed", zap.String("client_id", c.id), zap.Error(err))
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// readPump only services control frames; clients never send application data.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket closed", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
	}
}
