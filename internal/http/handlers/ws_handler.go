package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/hostops/automation-backend/internal/events"
	"go.uber.org/zap"
)

// wsConn is the slice of *websocket.Conn the hub uses.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// wsClient wraps a connection with a write lock. The underlying conn
// supports at most one concurrent writer, and the rules and logs streams
// deliver on separate goroutines, so broadcasts for one mutation can race.
type wsClient struct {
	conn wsConn

	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub pushes rule and log update events to every connected client, so
// observers always see that the current snapshot changed without polling.
// Events carry change notices, not the data itself: on receipt a client
// re-reads the full rules or logs list over the HTTP API.
type WSHub struct {
	subscriber events.Subscriber
	log        *zap.Logger

	mu      sync.RWMutex
	clients []*wsClient
}

func NewWSHub(subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{subscriber: subscriber, log: log}
}

func (h *WSHub) Start(ctx context.Context) {
	for _, stream := range []string{events.StreamRules, events.StreamLogs} {
		_ = h.subscriber.Subscribe(ctx, stream, func(event events.Event) {
			h.broadcast(event)
		})
	}
}

func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		_ = client.write(data)
	}
}

func (h *WSHub) register(conn wsConn) *wsClient {
	client := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients = append(h.clients, client)
	h.mu.Unlock()
	return client
}

func (h *WSHub) unregister(client *wsClient) {
	h.mu.Lock()
	for i, c := range h.clients {
		if c == client {
			h.clients = append(h.clients[:i], h.clients[i+1:]...)
			break
		}
	}
	h.mu.Unlock()
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	client := h.register(conn)
	defer func() {
		h.unregister(client)
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
