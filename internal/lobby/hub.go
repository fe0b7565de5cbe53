// Package lobby implements the shared trading-lobby presence hub:
// connected players broadcast their 2D positions to everyone else over
// WebSockets. The lobby shares no state with the marketplace ledger.
package lobby

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/orbitalworks/salvage-exchange/internal/metrics"
)

// Spawn point for newly joined players, matching the lobby scene origin.
const (
	spawnX = 400.0
	spawnY = 300.0
)

// Message is the JSON frame exchanged with lobby clients.
type Message struct {
	Type string  `json:"type"` // "join", "pos", "leave"
	ID   string  `json:"id"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
}

// clientMsg is what clients send: position updates only.
type clientMsg struct {
	Action string  `json:"action"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type client struct {
	conn     *websocket.Conn
	playerID string
	x, y     float64
	lastSeen time.Time
}

// Hub tracks lobby connections and fans position updates out to all
// connected clients. Connections that stop sending are expired after the
// TTL, mirroring how the lobby treats crashed clients.
type Hub struct {
	ttl time.Duration

	mu      sync.RWMutex
	clients map[*websocket.Conn]*client

	broadcast  chan []byte
	register   chan *client
	unregister chan *websocket.Conn
}

// NewHub creates a lobby hub with the given stale-connection TTL.
func NewHub(ttl time.Duration) *Hub {
	return &Hub{
		ttl:        ttl,
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *websocket.Conn),
	}
}

// Run starts the hub's event loop. Must be called in a goroutine.
func (h *Hub) Run() {
	sweep := time.NewTicker(h.ttl / 4)
	defer sweep.Stop()

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.conn] = c
			total := len(h.clients)
			h.mu.Unlock()
			metrics.LobbyClients.Set(float64(total))
			slog.Info("lobby client joined", "player", c.playerID, "total", total)

		case conn := <-h.unregister:
			h.drop(conn, true)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()

		case now := <-sweep.C:
			h.sweepStale(now)
		}
	}
}

// drop removes a connection, optionally announcing the departure.
func (h *Hub) drop(conn *websocket.Conn, announce bool) {
	h.mu.Lock()
	c, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		conn.Close()
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	metrics.LobbyClients.Set(float64(total))
	if announce {
		h.send(Message{Type: "leave", ID: c.playerID})
	}
}

// sweepStale expires connections that have not sent anything within the
// TTL window.
func (h *Hub) sweepStale(now time.Time) {
	h.mu.Lock()
	var stale []*websocket.Conn
	for conn, c := range h.clients {
		if now.Sub(c.lastSeen) > h.ttl {
			stale = append(stale, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range stale {
		slog.Info("lobby connection expired")
		h.drop(conn, true)
	}
}

// send marshals and queues a message for broadcast, dropping it if the
// buffer is full rather than blocking the caller.
func (h *Hub) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // game clients connect from arbitrary origins
	},
}

// HandleWS upgrades GET /lobby/ws?pid=<playerID> connections and pumps
// position updates into the hub.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("pid")
	if playerID == "" {
		http.Error(w, "missing pid", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("lobby ws upgrade failed", "err", err)
		return
	}

	c := &client{
		conn:     conn,
		playerID: playerID,
		x:        spawnX,
		y:        spawnY,
		lastSeen: time.Now(),
	}
	h.register <- c

	// Tell the newcomer who is already here.
	h.mu.RLock()
	for _, other := range h.clients {
		if other.conn == conn {
			continue
		}
		if data, err := json.Marshal(Message{Type: "join", ID: other.playerID, X: other.x, Y: other.y}); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
	}
	h.mu.RUnlock()

	h.send(Message{Type: "join", ID: playerID, X: c.x, Y: c.y})

	go h.readPump(c)
}

// readPump consumes position updates until the connection dies.
func (h *Hub) readPump(c *client) {
	defer func() { h.unregister <- c.conn }()

	c.conn.SetReadDeadline(time.Now().Add(h.ttl))
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(h.ttl))

		var msg clientMsg
		if err := json.Unmarshal(data, &msg); err != nil || msg.Action != "pos" {
			continue
		}

		h.mu.Lock()
		c.x = msg.X
		c.y = msg.Y
		c.lastSeen = time.Now()
		h.mu.Unlock()

		h.send(Message{Type: "pos", ID: c.playerID, X: msg.X, Y: msg.Y})
	}
}
