package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is what subscribers receive. The payload deliberately carries no row
// data: the contract is "something changed for you, re-fetch what you need".
type Event struct {
	Type string `json:"type"`
}

const EventNotificationsChanged = "notifications_changed"

const (
	writeTimeout = 10 * time.Second
	pingInterval = 25 * time.Second
)

// Client is one websocket subscriber. A user may hold several (multiple
// tabs/devices); each gets its own send queue.
type Client struct {
	UserID uuid.UUID

	conn *websocket.Conn
	send chan Event
	once sync.Once
	done chan struct{}
}

// Hub fans change events out to the sockets of the affected user. It holds
// no history; a subscriber that connects late simply re-fetches.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// AddClient registers a socket for the user and starts its write and
// keep-alive loops.
func (h *Hub) AddClient(userID uuid.UUID, conn *websocket.Conn) *Client {
	c := &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan Event, 16),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	go c.writeLoop()

	return c
}

// RemoveClient unsubscribes the socket and closes it. Safe to call more than
// once.
func (h *Hub) RemoveClient(c *Client) {
	c.once.Do(func() { close(c.done) })

	h.mu.Lock()
	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()

	_ = c.conn.Close()
}

// NotifyUser queues an event for every socket the user holds. A slow socket
// whose queue is full is skipped rather than blocking the caller.
func (h *Hub) NotifyUser(userID uuid.UUID, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- ev:
		default:
			log.Printf("realtime: dropping event for user %s, send queue full", userID)
		}
	}
}

// SubscriberCount reports how many sockets the user currently holds.
func (h *Hub) SubscriberCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// TotalSubscribers reports the socket count across all users.
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// writeLoop is the sole writer on the connection; pings share it so writes
// never race.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
