package httpapi

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	liveWriteWait  = 5 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
	liveSendBuffer = 4
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard may be opened from any host name of the device
	},
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes every new /sensor-data body to connected websocket clients.
// Broadcast never blocks: a client that falls behind misses updates.
type Hub struct {
	store SnapshotReader

	mu      sync.Mutex
	clients map[*liveClient]struct{}
}

// NewHub creates a hub; store supplies the snapshot sent on connect.
func NewHub(store SnapshotReader) *Hub {
	return &Hub{store: store, clients: make(map[*liveClient]struct{})}
}

// Broadcast queues payload for every client.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the connection and streams snapshots until the client
// goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	c := &liveClient{conn: conn, send: make(chan []byte, liveSendBuffer)}

	// Join before reading the snapshot so no broadcast falls in between.
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if body, err := SensorDataJSON(h.store.Read()); err == nil {
		select {
		case c.send <- body:
		default:
		}
	}

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop only watches for close frames and pongs.
func (h *Hub) readLoop(c *liveClient) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
	}()

	c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: websocket error: %v", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *liveClient) {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
