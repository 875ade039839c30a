package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"kizuna/internal/observability"
)

// ChatEvent is the envelope for frames pushed to chat sockets.
type ChatEvent struct {
	Type    string      `json:"type"`
	ChatID  uint        `json:"chat_id"`
	Payload interface{} `json:"payload"`
}

// ChatHub keeps a registry of live sockets per chat and fans events out
// to every participant connected to that chat. A user with two devices
// holds two clients; each receives every event, including echoes of that
// user's own messages.
type ChatHub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]struct{}
}

func NewChatHub() *ChatHub {
	return &ChatHub{
		rooms: make(map[uint]map[*Client]struct{}),
	}
}

// Name implements WSHub for metrics labels.
func (h *ChatHub) Name() string { return "chat" }

// RegisterClient attaches a client to its chat room.
func (h *ChatHub) RegisterClient(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.ChatID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.ChatID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	observability.WebSocketChatConnections.WithLabelValues(chatLabel(c.ChatID)).Inc()
	observability.WebSocketConnectionsTotal.Inc()
	slog.Info("chat socket registered", "chat_id", c.ChatID, "user_id", c.UserID)
}

// UnregisterClient detaches a client and closes its send channel. Safe to
// call more than once for the same client.
func (h *ChatHub) UnregisterClient(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.ChatID]
	if ok {
		if _, present := room[c]; present {
			delete(room, c)
			close(c.Send)
			if len(room) == 0 {
				delete(h.rooms, c.ChatID)
			}
			observability.WebSocketChatConnections.WithLabelValues(chatLabel(c.ChatID)).Dec()
		} else {
			ok = false
		}
	}
	h.mu.Unlock()

	if ok {
		slog.Info("chat socket unregistered", "chat_id", c.ChatID, "user_id", c.UserID)
	}
}

// Broadcast delivers a raw frame to every client attached to the chat.
func (h *ChatHub) Broadcast(chatID uint, payload []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.TrySend(payload)
	}
}

// BroadcastEvent marshals an event and delivers it to the chat's clients.
func (h *ChatHub) BroadcastEvent(event ChatEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal chat event", "chat_id", event.ChatID, "error", err)
		return
	}
	h.Broadcast(event.ChatID, payload)
}

// ConnectionCount returns the number of live sockets for a chat.
func (h *ChatHub) ConnectionCount(chatID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

// StartWiring subscribes the hub to chat events published by other
// instances and replays them to local sockets. Blocks until ctx is done.
func (h *ChatHub) StartWiring(ctx context.Context, notifier *Notifier) error {
	if !notifier.Enabled() {
		return fmt.Errorf("chat hub wiring requires a redis-backed notifier")
	}
	notifier.StartChatSubscriber(ctx, func(chatID uint, payload []byte) {
		h.Broadcast(chatID, payload)
	})
	return nil
}

// Shutdown closes every live socket. Used during graceful server stop.
func (h *ChatHub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[uint]map[*Client]struct{})
	h.mu.Unlock()

	for chatID, room := range rooms {
		for c := range room {
			close(c.Send)
			if c.Conn != nil {
				_ = c.Conn.Close()
			}
			observability.WebSocketChatConnections.WithLabelValues(chatLabel(chatID)).Dec()
		}
	}
	return nil
}

func chatLabel(chatID uint) string {
	return strconv.FormatUint(uint64(chatID), 10)
}
