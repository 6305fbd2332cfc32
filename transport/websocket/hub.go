package websocket

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/nim-lobby/game/clock"
	"github.com/wricardo/nim-lobby/game/lobby"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Frames queued per client before the client is dropped.
	sendBufferSize = 256
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrClientClosed   = errors.New("client closed")
	ErrHubStopped     = errors.New("hub stopped")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The lobby page may be served from a tunnel or another host.
		return true
	},
}

// Handler receives connection events on the hub's event loop
type Handler interface {
	Connect(conn lobby.Conn) lobby.ConnID
	Receive(id lobby.ConnID, data []byte)
	Close(id lobby.ConnID)
}

// Client is one websocket connection. It implements lobby.Conn; Send and
// Close are only called from the event loop.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	id     lobby.ConnID
	closed bool
	once   sync.Once
}

type inboundFrame struct {
	client *Client
	data   []byte
}

// Hub owns the event loop. Connection events, client frames, timer
// callbacks and queries all run on the goroutine that calls Run.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	tasks      chan func()

	done     chan struct{}
	stopOnce sync.Once
	logger   *log.Logger
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame),
		tasks:      make(chan func(), 64),
		done:       make(chan struct{}),
		logger:     log.Default(),
	}
}

// SetLogger replaces the hub logger. Call before Run.
func (h *Hub) SetLogger(l *log.Logger) {
	if l != nil {
		h.logger = l
	}
}

// Run processes events until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context, handler Handler) {
	defer h.stop()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			client.id = handler.Connect(client)
			h.logger.Printf("[WS] client registered as conn=%d (total clients: %d)", client.id, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; !ok {
				continue
			}
			delete(h.clients, client)
			handler.Close(client.id)
			client.Close()
			h.logger.Printf("[WS] conn=%d unregistered (remaining clients: %d)", client.id, len(h.clients))

		case frame := <-h.inbound:
			if _, ok := h.clients[frame.client]; !ok {
				continue
			}
			handler.Receive(frame.client.id, frame.data)

		case task := <-h.tasks:
			task()

		case <-ctx.Done():
			h.logger.Printf("[WS] shutting down, closing %d clients", len(h.clients))
			for client := range h.clients {
				client.Close()
			}
			return
		}
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Done is closed once the event loop has exited
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// AfterFunc schedules f on the event loop after d. A timer that has already
// fired may still deliver f after Stop; callbacks must tolerate that.
func (h *Hub) AfterFunc(d time.Duration, f func()) clock.Timer {
	return time.AfterFunc(d, func() {
		select {
		case h.tasks <- f:
		case <-h.done:
		}
	})
}

// Do runs fn on the event loop and waits for it to finish
func (h *Hub) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case h.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}
}

// ServeWS upgrades the request and attaches the connection to the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("[WS] upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// Send queues a frame. A client that cannot keep up is closed.
func (c *Client) Send(data []byte) error {
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		c.hub.logger.Printf("[WS] conn=%d send buffer full, dropping client", c.id)
		c.Close()
		return ErrSendBufferFull
	}
}

// Close flushes queued frames and closes the connection. It is idempotent.
func (c *Client) Close() error {
	c.once.Do(func() {
		c.closed = true
		close(c.send)
	})
	return nil
}

// readPump pumps frames from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Printf("[WS] read error: %v", err)
			}
			return
		}

		select {
		case c.hub.inbound <- inboundFrame{client: c, data: data}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump pumps frames from the hub to the websocket connection. Each
// frame is written as its own text message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
