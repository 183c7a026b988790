package transport

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zachegner/QuipWits/internal/ids"
)

// envelope is the wire shape for both directions: {"type": "...", "payload": {...}}
// inbound and {"event": "...", "data": {...}} outbound, matching the
// named-message convention in §4.9.
type inboundEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client is one long-lived websocket connection.
type Client struct {
	connID string
	conn   *websocket.Conn
	send   chan outboundEnvelope
}

// Hub fans events out to connections, grouped by logical room, and
// dispatches inbound messages to a Dispatcher. It implements Emitter.
type Hub struct {
	mu          sync.RWMutex
	clients     map[string]*Client         // connID -> client
	roomMembers map[string]map[string]bool // roomCode -> set of connID
	hosts       map[string]string          // roomCode -> host connID

	dispatcher Dispatcher
}

func NewHub(dispatcher Dispatcher) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		roomMembers: make(map[string]map[string]bool),
		hosts:       make(map[string]string),
		dispatcher:  dispatcher,
	}
}

// SetDispatcher rebinds the Hub's dispatcher after construction, for the
// common case where the dispatcher (the FSM service) itself needs a
// reference to the Hub as its Emitter.
func (h *Hub) SetDispatcher(dispatcher Dispatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dispatcher = dispatcher
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades an HTTP request to a websocket connection and starts
// its read/write pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("quipwits: websocket upgrade error:", err)
		return
	}

	c := &Client{
		connID: ids.New(),
		conn:   conn,
		send:   make(chan outboundEnvelope, 16),
	}

	h.mu.Lock()
	h.clients[c.connID] = c
	h.mu.Unlock()

	if h.dispatcher != nil {
		h.dispatcher.HandleConnect(c.connID)
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *Client) {
	defer h.unregister(c)

	for {
		var env inboundEnvelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		if h.dispatcher != nil {
			h.dispatcher.HandleMessage(InboundMessage{
				ConnID:  c.connID,
				Type:    env.Type,
				Payload: env.Payload,
			})
		}
	}
}

func (h *Hub) writePump(c *Client) {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.connID)
	for code, members := range h.roomMembers {
		if members[c.connID] {
			delete(members, c.connID)
		}
		if h.hosts[code] == c.connID {
			delete(h.hosts, code)
		}
	}
	h.mu.Unlock()

	close(c.send)
	_ = c.conn.Close()

	if h.dispatcher != nil {
		h.dispatcher.HandleDisconnect(c.connID)
	}
}

// JoinRoom adds connID to the logical room's membership set, so it
// receives subsequent ToRoom broadcasts.
func (h *Hub) JoinRoom(connID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.roomMembers[roomCode]
	if !ok {
		members = make(map[string]bool)
		h.roomMembers[roomCode] = members
	}
	members[connID] = true
}

// LeaveRoom removes connID from a logical room's membership set.
func (h *Hub) LeaveRoom(connID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.roomMembers[roomCode]; ok {
		delete(members, connID)
	}
}

// SetHost records which connection is the host's for a room, for ToHost.
func (h *Hub) SetHost(roomCode, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hosts[roomCode] = connID
}

func (h *Hub) ToConnection(connID, name string, payload any) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case c.send <- outboundEnvelope{Event: name, Data: payload}:
	default:
		// Slow consumer; drop rather than block the caller's room lock.
	}
}

func (h *Hub) ToRoom(roomCode, name string, payload any) {
	h.mu.RLock()
	members := h.roomMembers[roomCode]
	connIDs := make([]string, 0, len(members))
	for id := range members {
		connIDs = append(connIDs, id)
	}
	h.mu.RUnlock()

	for _, id := range connIDs {
		h.ToConnection(id, name, payload)
	}
}

func (h *Hub) ToHost(roomCode, name string, payload any) {
	h.mu.RLock()
	connID, ok := h.hosts[roomCode]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.ToConnection(connID, name, payload)
}
