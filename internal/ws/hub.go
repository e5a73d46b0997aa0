package ws

import (
	"encoding/json"
	"sync"
)

// Client is a single WebSocket connection with user context.
type Client struct {
	UserID string
	Send   chan []byte

	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// Hub tracks active billing-status connections per user and fans updates
// out to them. One user can hold several connections.
type Hub struct {
	mu     sync.RWMutex
	byUser map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{byUser: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
}

// BroadcastToUser sends payload to every open connection of userID. Slow
// consumers are skipped rather than blocking the payment path.
func (h *Hub) BroadcastToUser(userID string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	m := h.byUser[userID]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// NotifyInvoiceStatus pushes an invoice transition to the paying user.
func (h *Hub) NotifyInvoiceStatus(userID, invoiceID, status string) {
	h.BroadcastToUser(userID, map[string]string{
		"type":       "invoice_status",
		"invoice_id": invoiceID,
		"status":     status,
	})
}

// ConnectionCount reports the number of open connections for userID.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}
