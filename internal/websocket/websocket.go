package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/surveydesk/internal/auth"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// TokenParser validates session tokens presented on connect
type TokenParser interface {
	Parse(token, purpose string) (*auth.Claims, error)
}

// UnreadCounter supplies the unread badge sent to a client on connect
type UnreadCounter interface {
	CountUnread(ctx context.Context, userID int) (int, error)
}

// envelope is a message addressed to one user, or to everyone when userID is 0
type envelope struct {
	userID int
	msg    models.WSMessage
}

// Hub maintains the set of active clients, grouped by user, and routes messages to them
type Hub struct {
	log        logger.Logger
	tokens     TokenParser
	unread     UnreadCounter
	clients    map[int]map[*Client]bool
	outbox     chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub    *Hub
	userID int
	conn   *websocket.Conn
	send   chan models.WSMessage
}

// New creates a new Hub instance with injected dependencies. unread may be nil.
func New(log logger.Logger, tokens TokenParser, unread UnreadCounter) *Hub {
	return &Hub{
		log:        log,
		tokens:     tokens,
		unread:     unread,
		clients:    make(map[int]map[*Client]bool),
		outbox:     make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start begins the hub's main loop in a goroutine; it stops when ctx is done
func (h *Hub) Start(ctx context.Context) {
	go h.run(ctx)
}

// run handles client registration/unregistration and message routing
func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for userID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			h.mutex.Unlock()
			close(h.done)
			h.log.Info("Websocket hub stopped")
			return

		case client := <-h.register:
			h.mutex.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mutex.Unlock()
			h.log.Debug("Client connected", "user_id", client.userID, "total_clients", h.ClientCount())

			if h.unread != nil {
				go func(c *Client) {
					count, err := h.unread.CountUnread(context.Background(), c.userID)
					if err != nil {
						return
					}
					h.SendToUser(c.userID, "unread_count", map[string]int{"unread": count})
				}(client)
			}

		case client := <-h.unregister:
			h.remove(client)

		case env := <-h.outbox:
			h.deliver(env)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	if set, ok := h.clients[client.userID]; ok && set[client] {
		delete(set, client)
		close(client.send)
		if len(set) == 0 {
			delete(h.clients, client.userID)
		}
	}
	h.mutex.Unlock()
	h.log.Debug("Client disconnected", "user_id", client.userID, "total_clients", h.ClientCount())
}

func (h *Hub) deliver(env envelope) {
	h.mutex.RLock()
	var targets []*Client
	if env.userID == 0 {
		for _, set := range h.clients {
			for client := range set {
				targets = append(targets, client)
			}
		}
	} else {
		for client := range h.clients[env.userID] {
			targets = append(targets, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range targets {
		select {
		case client.send <- env.msg:
		default:
			// Client's send channel is full, unregister
			go h.leave(client)
		}
	}
}

// leave hands a client to the run loop for removal unless the hub has stopped
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SendToUser queues a message for every connection of one user. Users
// without a connection are skipped; the stored notification is the record.
func (h *Hub) SendToUser(userID int, msgType string, payload interface{}) {
	h.enqueue(envelope{userID: userID, msg: models.WSMessage{Type: msgType, Payload: payload}})
}

// BroadcastMessage sends a message to all connected clients
func (h *Hub) BroadcastMessage(msgType string, payload interface{}) {
	h.enqueue(envelope{msg: models.WSMessage{Type: msgType, Payload: payload}})
}

func (h *Hub) enqueue(env envelope) {
	select {
	case h.outbox <- env:
	default:
		h.log.Warn("Websocket outbox full, dropping message", "type", env.msg.Type, "user_id", env.userID)
	}
}

// IsConnected reports whether a user has at least one open connection
func (h *Hub) IsConnected(userID int) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[userID]) > 0
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.hub.log.Debug("Received message", "type", msg.Type, "user_id", c.userID)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs authenticates a session token (?token= or Authorization header)
// and registers the connection under the token's user ID
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.TokenFromRequest(r)
	}
	claims, err := h.tokens.Parse(token, auth.PurposeSession)
	if err != nil || claims.UserID == 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:    h,
		userID: claims.UserID,
		conn:   conn,
		send:   make(chan models.WSMessage, 256),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
