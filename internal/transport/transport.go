// Package transport implements the event dispatch & transport adapter
// (§4.9): a Socket.IO-flavored bidirectional event bus over a websocket
// upgrade, with per-connection emit and room-scoped broadcast. It is
// grounded on the teacher's Hub/Client pair in celebrity.go, generalized
// from one hub per game to one Hub serving every room via an explicit
// room-membership map.
package transport

// Emitter is the three targeting primitives the FSM uses to reach
// clients: a single connection, every connection joined to a room, and
// shortcut to a room's host connection.
type Emitter interface {
	ToConnection(connID, name string, payload any)
	ToRoom(roomCode, name string, payload any)
	ToHost(roomCode, name string, payload any)
}

// InboundMessage is one decoded client→server event.
type InboundMessage struct {
	ConnID  string
	Type    string
	Payload []byte
}

// Dispatcher is supplied by the FSM/handler layer to process inbound
// messages and connection lifecycle events. The transport layer never
// interprets payloads itself — it only decodes the envelope and routes.
type Dispatcher interface {
	HandleMessage(msg InboundMessage)
	HandleConnect(connID string)
	HandleDisconnect(connID string)
}
