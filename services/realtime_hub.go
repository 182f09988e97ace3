package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nutriplan/models"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type WSClient struct {
	UserID uint
	Conn   *websocket.Conn
	wmu    sync.Mutex // gorilla allows one concurrent writer
}

func (c *WSClient) write(kind int, msg []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(kind, msg)
}

// Ping keeps the connection alive through idle-timeout proxies.
func (c *WSClient) Ping() error { return c.write(websocket.PingMessage, nil) }

// RealtimeHub delivers events to each user's open websocket connections.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*WSClient]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[uint]map[*WSClient]struct{})}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

// Unregister is safe to call more than once.
func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

func (h *RealtimeHub) Connected(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Broadcast sends payload to every connection of userID and drops the
// connections that fail.
func (h *RealtimeHub) Broadcast(userID uint, payload any) error {
	msg, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			h.Unregister(c)
		}
	}
	return nil
}

func (h *RealtimeHub) Name() string { return "websocket" }

func (h *RealtimeHub) PublishCompletion(_ context.Context, ev models.CompletionEvent) error {
	return h.Broadcast(ev.UserID, map[string]any{
		"kind":  "plan.completed",
		"event": ev,
	})
}
