package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"memento-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// relayChannel carries turn frames between instances so every device
// watching a session sees the exchange, whichever node served it.
const relayChannel = "memento:ws:turns"

// Hub tracks live websocket connections per session. A session can have
// several watchers at once (patient device plus a caregiver view).
type Hub struct {
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// rdb, when set, relays frames to other instances.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.relayLoop()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"session_id": client.SessionID,
				"user_id":    client.UserID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
					h.logger.Info("Hub", "Session has no watchers left", map[string]interface{}{
						"session_id": client.SessionID,
					})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish fans a frame out to every local watcher of the session and, when
// redis is wired, to the other instances.
func (h *Hub) Publish(sessionID uuid.UUID, frame OutboundFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Warn("Hub", "Frame marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliverLocal(sessionID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(relayPayload{
			SessionID: sessionID.String(),
			Frame:     data,
		})
		h.rdb.Publish(context.Background(), relayChannel, payload)
	}
}

func (h *Hub) deliverLocal(sessionID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients := h.clients[sessionID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Send buffer full, dropping client", map[string]interface{}{
				"session_id": sessionID,
			})
			close(client.Send)
			h.unregister <- client
		}
	}
}

type relayPayload struct {
	SessionID string          `json:"session_id"`
	Frame     json.RawMessage `json:"frame"`
}

// relayLoop receives frames published by other instances and delivers them
// to local watchers of the same session.
func (h *Hub) relayLoop() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload relayPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Relay payload parse failed", map[string]interface{}{"error": err.Error()})
			continue
		}
		sessionID, err := uuid.Parse(payload.SessionID)
		if err != nil {
			continue
		}
		h.deliverLocal(sessionID, payload.Frame)
	}
}
