package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"tabib_ai/internal/domain/entities"
	"tabib_ai/internal/usecase/interfaces"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer      = 256
	broadcastBuffer = 64
	writeWait       = 10 * time.Second
)

// eventMessage is what browsers see; the complaint and recipe stay server side.
type eventMessage struct {
	Type        entities.OrderEventType `json:"type"`
	OrderID     string                  `json:"order_id"`
	Name        string                  `json:"name"`
	Status      entities.OrderStatus    `json:"status"`
	Total       int64                   `json:"total"`
	InvoiceCode string                  `json:"invoice_code,omitempty"`
	CheckoutURL string                  `json:"checkout_url,omitempty"`
	OccurredAt  time.Time               `json:"occurred_at"`
}

// Client is one connected websocket.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the connected clients and pushes order events to all of them.
// The client set is owned by the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	connected  atomic.Int64
	upgrader   websocket.Upgrader
}

var _ interfaces.IOrderNotifier = (*Hub)(nil)

// NewHub accepts sockets from the given origins. "*" allows any origin; with no
// origins only same-host pages and non-browser clients may connect.
func NewHub(allowedOrigins ...string) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	h.upgrader.CheckOrigin = originChecker(allowedOrigins)
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = true
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if set[strings.ToLower(origin)] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.connected.Add(1)
			log.Printf("[realtime][hub] client registered clients=%d", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Printf("[realtime][hub] client unregistered clients=%d", len(h.clients))
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.connected.Add(-1)
}

// Clients reports how many sockets are registered.
func (h *Hub) Clients() int {
	return int(h.connected.Load())
}

// Notify broadcasts the event as JSON. Events are dropped when the hub is backed up.
func (h *Hub) Notify(_ context.Context, evt entities.OrderEvent) {
	o := evt.Order
	data, err := json.Marshal(eventMessage{
		Type:        evt.Type,
		OrderID:     o.ID,
		Name:        o.PatientName,
		Status:      o.Status,
		Total:       o.Total(),
		InvoiceCode: o.InvoiceCode,
		CheckoutURL: o.CheckoutURL,
		OccurredAt:  evt.OccurredAt,
	})
	if err != nil {
		log.Printf("[realtime][hub] encode failed type=%s err=%v", evt.Type, err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Printf("[realtime][hub] broadcast queue full, dropping type=%s order_id=%s", evt.Type, evt.Order.ID)
	}
}

// ServeHTTP upgrades the request and attaches the socket to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[realtime][hub] upgrade failed err=%v", err)
		return
	}
	client := &Client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
