package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/tile2048/game/engine"
	"github.com/wricardo/tile2048/observability"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Time a command handler may take before the client gets an error.
	commandTimeout = 5 * time.Second
)

// Outbound event names
const (
	EventStateUpdate = "state_update"
	EventGameOver    = "game_over"
	EventError       = "error"
)

// Inbound command types
const (
	CommandMove    = "move"
	CommandRestart = "restart"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Message represents an outbound WebSocket message
type Message struct {
	SessionID string            `json:"session_id"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Event     string            `json:"event,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// Command is an inbound frame from a viewer
type Command struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
}

// CommandHandler applies a viewer command to its session. The handler is
// responsible for broadcasting the resulting state.
type CommandHandler func(ctx context.Context, sessionID string, cmd Command) error

// Snapshot returns the current state of a session, or nil when it is gone
type Snapshot func() *engine.GameState

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	snapshot  Snapshot
}

type directMessage struct {
	client *Client
	data   []byte
}

type countQuery struct {
	sessionID string
	reply     chan int
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by lower-cased session ID, owned by Run
	sessions map[string]map[*Client]bool

	// Messages fanned out to every client of a session
	broadcast chan *Message

	// Messages for a single client
	direct chan directMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Client count lookups
	counts chan countQuery

	quit     chan struct{}
	stopOnce sync.Once

	handlerMu sync.RWMutex
	handler   CommandHandler
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, engine.WebSocketBufferSize),
		direct:     make(chan directMessage, engine.WebSocketBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countQuery),
		quit:       make(chan struct{}),
	}
}

// SetCommandHandler installs the function that applies inbound commands
func (h *Hub) SetCommandHandler(handler CommandHandler) {
	h.handlerMu.Lock()
	defer h.handlerMu.Unlock()
	h.handler = handler
}

func (h *Hub) commandHandler() CommandHandler {
	h.handlerMu.RLock()
	defer h.handlerMu.RUnlock()
	return h.handler
}

// Run starts the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case msg := <-h.direct:
			h.deliver(msg.client, msg.data)

		case q := <-h.counts:
			q.reply <- len(h.sessions[sessionKey(q.sessionID)])

		case <-h.quit:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and closes every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// ServeWS handles WebSocket requests from clients. A non-nil snapshot is
// taken once the client is registered and sent as its first message, so no
// broadcast can fall between the two.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, snapshot Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, engine.WebSocketBufferSize),
		sessionID: sessionID,
		snapshot:  snapshot,
	}

	select {
	case h.register <- client:
	case <-h.quit:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// BroadcastToSession sends a game state update to all clients in a session
func (h *Hub) BroadcastToSession(sessionID string, state *engine.GameState) {
	h.enqueue(stateMessage(sessionID, state))
}

// BroadcastGameOver tells the viewers of a session that its game has ended
// without sending a new grid
func (h *Hub) BroadcastGameOver(sessionID string) {
	h.BroadcastEvent(sessionID, EventGameOver, map[string]bool{"game_over": true})
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

// ClientCount returns the number of viewers of a session
func (h *Hub) ClientCount(sessionID string) int {
	q := countQuery{sessionID: sessionID, reply: make(chan int, 1)}
	select {
	case h.counts <- q:
		return <-q.reply
	case <-h.quit:
		return 0
	}
}

func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.quit:
	default:
		log.Printf("WebSocket broadcast queue full, dropping %s for session %s", message.Event, message.SessionID)
	}
}

func stateMessage(sessionID string, state *engine.GameState) *Message {
	event := EventStateUpdate
	if state != nil && state.GameOver {
		event = EventGameOver
	}
	return &Message{
		SessionID: sessionID,
		GameState: state,
		Event:     event,
	}
}

// sessionKey is the form session IDs are grouped under. Lookups elsewhere
// ignore case, so viewers of "AbCd" and "abcd" watch the same game.
func sessionKey(sessionID string) string {
	return strings.ToLower(sessionID)
}

// registerClient adds a client to a session and queues its first snapshot
func (h *Hub) registerClient(client *Client) {
	key := sessionKey(client.sessionID)
	if h.sessions[key] == nil {
		h.sessions[key] = make(map[*Client]bool)
	}
	h.sessions[key][client] = true
	observability.WebSocketConnections.Inc()

	log.Printf("Client registered for session %s (total clients: %d)",
		client.sessionID, len(h.sessions[key]))

	if client.snapshot == nil {
		return
	}
	if state := client.snapshot(); state != nil {
		data, err := json.Marshal(stateMessage(client.sessionID, state))
		if err != nil {
			log.Printf("Failed to marshal initial state: %v", err)
			return
		}
		h.deliver(client, data)
	}
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	key := sessionKey(client.sessionID)
	if clients, ok := h.sessions[key]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
			observability.WebSocketConnections.Dec()

			// Clean up empty sessions
			if len(clients) == 0 {
				delete(h.sessions, key)
			}

			log.Printf("Client unregistered from session %s (remaining clients: %d)",
				client.sessionID, len(clients))
		}
	}
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	for client := range h.sessions[sessionKey(message.SessionID)] {
		h.deliver(client, data)
	}
}

// deliver queues data for one registered client, dropping it when its
// buffer is full
func (h *Hub) deliver(client *Client, data []byte) {
	if !h.sessions[sessionKey(client.sessionID)][client] {
		return
	}
	select {
	case client.send <- data:
	default:
		h.unregisterClient(client)
	}
}

func (h *Hub) closeAll() {
	for _, clients := range h.sessions {
		for client := range clients {
			h.unregisterClient(client)
		}
	}
}

// reply sends an error event back to the client that caused it
func (c *Client) reply(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case c.hub.direct <- directMessage{client: c, data: data}:
	case <-c.hub.quit:
	}
}

// handleFrame decodes one inbound frame and runs it. Malformed frames are
// ignored.
func (c *Client) handleFrame(frame []byte) {
	var cmd Command
	if err := json.Unmarshal(frame, &cmd); err != nil {
		return
	}
	if cmd.Type != CommandMove && cmd.Type != CommandRestart {
		return
	}

	handler := c.hub.commandHandler()
	if handler == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := handler(ctx, c.sessionID, cmd); err != nil {
		c.reply(&Message{
			SessionID: c.sessionID,
			Event:     EventError,
			Data:      err.Error(),
		})
	}
}

// readPump pumps commands from the WebSocket connection to the handler
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
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
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.handleFrame(frame)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
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

			// One JSON document per frame
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
