package light

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1024
)

// EventTurnOn is the envelope type broadcast for a turn-on action.
const EventTurnOn = "light.turn_on"

// ErrNoClients is returned by Hub.TurnOn when no controller is connected.
var ErrNoClients = errors.New("no light controllers connected")

// ErrHubClosed is returned once the hub's Run loop has stopped.
var ErrHubClosed = errors.New("light hub closed")

// Envelope is the message light controllers receive over the WebSocket.
type Envelope struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	CreatedAt int64          `json:"created_at"` // Unix milliseconds
	Params    map[string]any `json:"params"`
}

type broadcastReq struct {
	msg       []byte
	delivered chan int
}

// Hub fans light actions out to connected WebSocket controllers. The client
// set is owned by the Run goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan broadcastReq
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	upgrader   websocket.Upgrader
}

// NewHub creates a Hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		clients:    map[*Client]struct{}{},
		broadcast:  make(chan broadcastReq),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			log.Debug().Str("remote", c.remote).Int("clients", len(h.clients)).Msg("light controller connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				log.Debug().Str("remote", c.remote).Int("clients", len(h.clients)).Msg("light controller disconnected")
			}
		case req := <-h.broadcast:
			n := 0
			for c := range h.clients {
				select {
				case c.send <- req.msg:
					n++
				default:
					delete(h.clients, c)
					close(c.send)
					log.Warn().Str("remote", c.remote).Msg("dropping slow light controller")
				}
			}
			req.delivered <- n
		}
	}
}

// TurnOn broadcasts params as a light.turn_on envelope. It returns once the
// envelope is queued for every connected controller. Controllers send no
// acknowledgement, so it does not wait for the light to change.
//
// # Errors
//
//   - ErrNoClients if no controller received the envelope
//   - ErrHubClosed if Run has stopped
//   - ctx.Err() if ctx is done first
func (h *Hub) TurnOn(ctx context.Context, params map[string]any) error {
	env := Envelope{
		ID:        uuid.NewString(),
		Type:      EventTurnOn,
		CreatedAt: time.Now().UnixMilli(),
		Params:    params,
	}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	req := broadcastReq{msg: b, delivered: make(chan int, 1)}
	select {
	case h.broadcast <- req:
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	if n := <-req.delivered; n == 0 {
		return ErrNoClients
	}
	return nil
}

// ServeHTTP upgrades the request to a WebSocket and registers the
// connection as a light controller.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("light controller upgrade failed")
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, 128), remote: r.RemoteAddr}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// Client is one connected light controller.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	remote string
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
