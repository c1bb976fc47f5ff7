package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"chat-core/models"
	"chat-core/services"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 30 * time.Second
	pongWait       = 300 * time.Second
	pingPeriod     = 240 * time.Second
	maxFrameSize   = 1 << 20
	sendBufferSize = 256
)

type Hub struct {
	// roomID -> clients
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}

	log *zap.Logger
	mu  sync.RWMutex
}

type outbound struct {
	roomID string
	data   []byte
}

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	roomID   string
	userID   string
	username string
	msgSvc   *services.MessageService

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// frame is the JSON shape of everything written to a socket.
type frame struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	RoomID   string `json:"room_id,omitempty"`
	Seq      int64  `json:"seq,omitempty"`
	SenderID string `json:"sender_id,omitempty"`
	Username string `json:"username,omitempty"`
	Content  string `json:"content,omitempty"`
	TS       int64  `json:"ts,omitempty"`
	Error    string `json:"error,omitempty"`
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, sendBufferSize),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves registrations and fan-out until ctx is cancelled, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case out := <-h.broadcast:
			h.fanOut(out)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.roomID] == nil {
		h.rooms[client.roomID] = make(map[*Client]bool)
	}
	h.rooms[client.roomID][client] = true

	h.log.Debug("client joined room",
		zap.String("user_id", client.userID),
		zap.String("room_id", client.roomID),
		zap.Int("clients", len(h.rooms[client.roomID])))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *Client) {
	clients, exists := h.rooms[client.roomID]
	if !exists {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	client.close()
	h.log.Debug("client left room",
		zap.String("user_id", client.userID),
		zap.String("room_id", client.roomID),
		zap.Int("clients", len(clients)))

	if len(clients) == 0 {
		delete(h.rooms, client.roomID)
	}
}

func (h *Hub) fanOut(out outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[out.roomID] {
		if !client.queue(out.data) {
			h.log.Warn("dropping slow client",
				zap.String("user_id", client.userID),
				zap.String("room_id", client.roomID))
			h.dropLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID, clients := range h.rooms {
		for client := range clients {
			client.close()
		}
		delete(h.rooms, roomID)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS: allow all for demo
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and attaches the connection to roomID. Callers
// must have checked that user is a member of the room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, roomID string, user *models.User, msgSvc *services.MessageService) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		roomID:   roomID,
		userID:   user.ID,
		username: user.Username,
		msgSvc:   msgSvc,
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

// queue hands data to the write pump without blocking. It reports false when
// the buffer is full.
func (c *Client) queue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) reply(f frame) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	c.queue(b)
}

// readPump turns inbound frames into appended messages. Persisted messages
// come back to every client of the room, the sender included, through the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read error", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var in struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(message, &in); err != nil {
			c.reply(frame{Type: "error", Error: "invalid JSON"})
			continue
		}

		switch in.Type {
		case "ping":
			c.reply(frame{Type: "pong"})
			continue
		case "pong":
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		_, err = c.msgSvc.Append(ctx, c.roomID, c.userID, in.Content)
		cancel()
		if err != nil {
			if errors.Is(err, services.ErrStoreUnavailable) {
				c.hub.log.Error("websocket append failed", zap.String("room_id", c.roomID), zap.Error(err))
				c.reply(frame{Type: "error", Error: "message could not be stored"})
			} else {
				c.reply(frame{Type: "error", Error: err.Error()})
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.log.Debug("websocket write error", zap.String("user_id", c.userID), zap.Error(err))
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

// BroadcastMessage allows services to fan-out persisted messages to all clients.
func (h *Hub) BroadcastMessage(msg models.Message, username string) {
	b, err := json.Marshal(frame{
		Type:     "message",
		ID:       msg.ID,
		RoomID:   msg.RoomID,
		Seq:      msg.Seq,
		SenderID: msg.SenderID,
		Username: username,
		Content:  msg.Content,
		TS:       msg.CreatedAt.UnixMilli(),
	})
	if err != nil {
		h.log.Error("broadcast marshal failed", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- outbound{roomID: msg.RoomID, data: b}:
	case <-h.done:
	}
}

// ClientCount returns the number of live connections in a room.
func (h *Hub) ClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, exists := h.rooms[roomID]; exists {
		return len(clients)
	}
	return 0
}
