package server

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub routes game messages to the websocket client bound to each player ID.
// It implements game.Transport. Send never blocks: a client whose buffer is
// full is disconnected.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[int]*Client
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[int]*Client),
	}
}

// Send marshals msg and queues it for the player's client. Messages for
// players without a connection are dropped; reconnecting resends what matters.
func (h *Hub) Send(playerID int, msg any) {
	h.mu.RLock()
	c, ok := h.clients[playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message",
			zap.Int("player_id", playerID),
			zap.Error(err),
		)
		return
	}
	c.enqueue(data)
}

func (h *Hub) bind(playerID int, c *Client) {
	h.mu.Lock()
	old := h.clients[playerID]
	h.clients[playerID] = c
	h.mu.Unlock()

	if old != nil && old != c {
		h.logger.Info("player connection replaced", zap.Int("player_id", playerID))
		old.close()
	}
}

// unbind removes the mapping only if it still points at c.
func (h *Hub) unbind(playerID int, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[playerID] == c {
		delete(h.clients, playerID)
	}
}

// Connected reports whether a client is bound to playerID.
func (h *Hub) Connected(playerID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[playerID]
	return ok
}

// CloseAll disconnects every bound client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[int]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
