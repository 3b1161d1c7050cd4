package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/predict"
)

const (
	// writeWait is the deadline for a single websocket write.
	writeWait = 5 * time.Second
	// sendBuffer is how many events a client may lag before events are dropped for it.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LabelMessage is the JSON pushed to websocket clients for every event.
type LabelMessage struct {
	RequestID string  `json:"request_id,omitempty"`
	Encoder   string  `json:"encoder,omitempty"`
	Label     *string `json:"label"`
	Status    int     `json:"status,omitempty"`
	Failure   string  `json:"failure,omitempty"`
	LatencyMs int64   `json:"latency_ms"`
	Timestamp int64   `json:"timestamp"`
}

func newLabelMessage(e predict.Event) LabelMessage {
	msg := LabelMessage{
		RequestID: e.RequestID,
		Encoder:   e.Encoder,
		Status:    e.Status,
		Failure:   predict.Kind(e.Err),
		LatencyMs: e.Latency.Milliseconds(),
		Timestamp: e.At.UnixMilli(),
	}
	if e.OK() {
		s := e.Label.String()
		msg.Label = &s
	}
	return msg
}

// Hub broadcasts prediction events to websocket clients. It implements
// predict.Observer and is served at /api/labels.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	log     logrus.FieldLogger
}

// NewHub creates an empty Hub.
func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]chan []byte),
		log:     log,
	}
}

// OnResult queues e for every connected client without blocking. Clients
// whose buffer is full miss the event.
func (h *Hub) OnResult(e predict.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(newLabelMessage(e))
	if err != nil {
		h.log.WithError(err).Warn("[server.Hub] encoding event")
		return
	}

	for conn, send := range h.clients {
		select {
		case send <- msg:
		default:
			h.log.WithField("remote", conn.RemoteAddr().String()).Debug("[server.Hub] client lagging, event dropped")
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	deadline := time.Now().Add(writeWait)
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		conn.Close()
		delete(h.clients, conn)
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("[server.Hub] websocket upgrade")
		return
	}
	defer conn.Close()

	send := make(chan []byte, sendBuffer)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Reads only detect the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
