package websocket

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"emprende/internal/usecase/chatfeed"
	"emprende/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBufferSize = 64
)

// Client represents a WebSocket connection client. Every subscription it opens (chat watches,
// bus topics) is owned by the client and closed when the connection ends.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu        sync.Mutex
	subs      map[string]io.Closer
	released  bool
	closeOnce sync.Once
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
		subs:   make(map[string]io.Closer),
	}
}

// AddSubscription stores sub under key, replacing and closing any previous one with the same key.
// If the client is already gone the subscription is closed immediately.
func (c *Client) AddSubscription(key string, sub io.Closer) {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		sub.Close()
		return
	}
	previous := c.subs[key]
	c.subs[key] = sub
	c.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
}

// Subscription returns the subscription stored under key, or nil.
func (c *Client) Subscription(key string) io.Closer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[key]
}

// chatWatch returns the live feed of a chat the client has joined, or nil.
func (c *Client) chatWatch(chatID string) *chatfeed.Watch {
	watch, _ := c.Subscription(chatSubscriptionKey(chatID)).(*chatfeed.Watch)
	return watch
}

func (c *Client) RemoveSubscription(key string) {
	c.mu.Lock()
	sub := c.subs[key]
	delete(c.subs, key)
	c.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// SubscriptionCount is the number of subscriptions still held.
func (c *Client) SubscriptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// ReleaseSubscriptions closes everything the client holds. Later AddSubscription calls close
// their argument right away, so a watch started concurrently with shutdown cannot leak.
func (c *Client) ReleaseSubscriptions() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]io.Closer)
	c.released = true
	c.mu.Unlock()

	for key, sub := range subs {
		if err := sub.Close(); err != nil {
			logger.Warn("WebSocket: failed to close subscription %s of %s: %v", key, c.UserID, err)
		}
	}
}

// Enqueue queues a frame without blocking. It reports false when the client is closed or too slow.
func (c *Client) Enqueue(message []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// Manager manages all active WebSocket connections. A user may hold several connections.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	chats      ChatService
}

func NewManager(chats ChatService) *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		chats:      chats,
	}
}

// Start runs the manager's main loop in a goroutine. When ctx ends every client is closed.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		defer close(m.done)

		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if m.clients[client.UserID] == nil {
					m.clients[client.UserID] = make(map[*Client]struct{})
				}
				m.clients[client.UserID][client] = struct{}{}
				m.mutex.Unlock()
				logger.Debug("WebSocket: client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.remove(client)
				logger.Debug("WebSocket: client unregistered: %s", client.UserID)

			case <-ctx.Done():
				m.mutex.Lock()
				for _, conns := range m.clients {
					for client := range conns {
						client.closeSend()
					}
				}
				m.clients = make(map[string]map[*Client]struct{})
				m.mutex.Unlock()
				return
			}
		}
	}()
}

// Done is closed once the main loop has stopped.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if conns, ok := m.clients[client.UserID]; ok {
		if _, ok := conns[client]; ok {
			delete(conns, client)
			client.closeSend()
		}
		if len(conns) == 0 {
			delete(m.clients, client.UserID)
		}
	}
}

// SendToUser queues message on every connection of userID. Slow connections are dropped.
func (m *Manager) SendToUser(userID string, message []byte) int {
	m.mutex.RLock()
	targets := make([]*Client, 0, len(m.clients[userID]))
	for client := range m.clients[userID] {
		targets = append(targets, client)
	}
	m.mutex.RUnlock()

	delivered := 0
	for _, client := range targets {
		if client.Enqueue(message) {
			delivered++
			continue
		}
		logger.Warn("WebSocket: dropping slow client %s", client.UserID)
		m.remove(client)
	}
	return delivered
}

func (m *Manager) ConnectionCount(userID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID])
}

// ReadPump reads frames until the connection fails, then releases everything the client owns.
func (c *Client) ReadPump(ctx context.Context, m *Manager) {
	defer func() {
		c.ReleaseSubscriptions()
		select {
		case m.Unregister <- c:
		case <-m.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket: read error for %s: %v", c.UserID, err)
			}
			return
		}

		m.HandleClientMessage(ctx, c, message)
	}
}

// WritePump sends queued frames and keepalive pings until Send is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket: write error for %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
