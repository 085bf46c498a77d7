package main

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// stateMessage is the push-channel frame carrying a board snapshot.
type stateMessage struct {
	Type string `json:"type"` // "gameState"
	GameState
}

// textMessage is the push-channel frame carrying a free-text notification.
type textMessage struct {
	Type    string `json:"type"` // "message"
	Content string `json:"content"`
}

type viewer struct {
	id   string
	conn *websocket.Conn
	send chan any
}

// Hub fans session updates out to every connected viewer. Delivery is
// best-effort, at most once per viewer per call; viewers that cannot
// keep up are dropped. No history is replayed on connect.
type Hub struct {
	mu      sync.Mutex
	viewers map[*viewer]bool
}

func NewHub() *Hub {
	return &Hub{
		viewers: make(map[*viewer]bool),
	}
}

// NotifyState implements Notifier.
func (h *Hub) NotifyState(state GameState) {
	h.broadcast(stateMessage{Type: "gameState", GameState: state})
}

// NotifyMessage implements Notifier.
func (h *Hub) NotifyMessage(text string) {
	h.broadcast(textMessage{Type: "message", Content: text})
}

func (h *Hub) broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for v := range h.viewers {
		select {
		case v.send <- msg:
		default:
			delete(h.viewers, v)
			close(v.send)
		}
	}
}

func (h *Hub) register(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.viewers[v] = true
}

func (h *Hub) unregister(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.viewers[v]; ok {
		delete(h.viewers, v)
		close(v.send)
	}
}

// Count reports the number of connected viewers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.viewers)
}

// serveWS upgrades a viewer connection and attaches it to the hub.
// The channel is push-only; inbound frames are drained and ignored.
func serveWS(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("upgrade error")
			return
		}

		v := &viewer{
			id:   uuid.NewString(),
			conn: conn,
			send: make(chan any, 8),
		}

		hub.register(v)
		log.Debug().Str("viewer", v.id).Str("addr", realIP(r)).Msg("viewer connected")

		go v.writePump()
		v.readPump(hub)
	}
}

func (v *viewer) readPump(hub *Hub) {
	defer func() {
		hub.unregister(v)
		_ = v.conn.Close()
		log.Debug().Str("viewer", v.id).Msg("viewer disconnected")
	}()

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (v *viewer) writePump() {
	defer v.conn.Close()

	for msg := range v.send {
		if err := v.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
