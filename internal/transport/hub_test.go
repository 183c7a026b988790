package transport

import "testing"

// newTestClient builds a Client with no real websocket connection, for
// tests that only exercise the Hub's membership/broadcast bookkeeping.
func newTestClient(connID string) *Client {
	return &Client{connID: connID, send: make(chan outboundEnvelope, 16)}
}

func (h *Hub) addTestClient(c *Client) {
	h.mu.Lock()
	h.clients[c.connID] = c
	h.mu.Unlock()
}

func TestHub_ToConnection_DeliversToRegisteredClient(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient("conn-1")
	h.addTestClient(c)

	h.ToConnection("conn-1", "PING", map[string]int{"n": 1})

	select {
	case got := <-c.send:
		if got.Event != "PING" {
			t.Fatalf("event = %q, want PING", got.Event)
		}
	default:
		t.Fatal("expected a queued outbound message")
	}
}

func TestHub_ToConnection_UnknownConnIDIsNoop(t *testing.T) {
	h := NewHub(nil)
	// Must not panic for a connection that was never registered.
	h.ToConnection("ghost", "PING", nil)
}

func TestHub_JoinRoom_ToRoomBroadcastsToMembersOnly(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a")
	b := newTestClient("b")
	outsider := newTestClient("c")
	h.addTestClient(a)
	h.addTestClient(b)
	h.addTestClient(outsider)

	h.JoinRoom("a", "ROOM1")
	h.JoinRoom("b", "ROOM1")

	h.ToRoom("ROOM1", "STATE", "payload")

	for _, c := range []*Client{a, b} {
		select {
		case <-c.send:
		default:
			t.Fatalf("client %s should have received the room broadcast", c.connID)
		}
	}

	select {
	case <-outsider.send:
		t.Fatal("non-member must not receive a room broadcast")
	default:
	}
}

func TestHub_LeaveRoom_StopsFurtherBroadcasts(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a")
	h.addTestClient(a)
	h.JoinRoom("a", "ROOM1")
	h.LeaveRoom("a", "ROOM1")

	h.ToRoom("ROOM1", "STATE", nil)

	select {
	case <-a.send:
		t.Fatal("client that left the room must not receive its broadcasts")
	default:
	}
}

func TestHub_SetHost_ToHostTargetsOnlyTheHost(t *testing.T) {
	h := NewHub(nil)
	host := newTestClient("host-conn")
	player := newTestClient("player-conn")
	h.addTestClient(host)
	h.addTestClient(player)

	h.SetHost("ROOM1", "host-conn")
	h.JoinRoom("player-conn", "ROOM1")

	h.ToHost("ROOM1", "HOST_ONLY", nil)

	select {
	case <-host.send:
	default:
		t.Fatal("host should have received the ToHost broadcast")
	}
	select {
	case <-player.send:
		t.Fatal("non-host room member must not receive a ToHost broadcast")
	default:
	}
}

func TestHub_ToHost_UnknownRoomIsNoop(t *testing.T) {
	h := NewHub(nil)
	h.ToHost("NOPE", "HOST_ONLY", nil)
}

func TestHub_ManualDisconnectBookkeeping_ClearsHostAndNotifiesDispatcher(t *testing.T) {
	var disconnected []string
	h := NewHub(&stubDispatcher{onDisconnect: func(connID string) {
		disconnected = append(disconnected, connID)
	}})

	c := &Client{connID: "host-conn", send: make(chan outboundEnvelope, 16)}
	h.addTestClient(c)
	h.JoinRoom("host-conn", "ROOM1")
	h.SetHost("ROOM1", "host-conn")

	h.mu.Lock()
	_, stillPresent := h.clients["host-conn"]
	h.mu.Unlock()
	if !stillPresent {
		t.Fatal("setup failed: client should be registered before unregister")
	}

	// unregister closes c.send and calls conn.Close(); give it a nil-safe
	// conn stand-in isn't possible here, so exercise the bookkeeping the
	// same way unregister does, directly.
	h.mu.Lock()
	delete(h.clients, c.connID)
	for _, members := range h.roomMembers {
		delete(members, c.connID)
	}
	delete(h.hosts, "ROOM1")
	h.mu.Unlock()
	h.dispatcher.HandleDisconnect(c.connID)

	if len(disconnected) != 1 || disconnected[0] != "host-conn" {
		t.Fatalf("disconnected = %v, want [host-conn]", disconnected)
	}

	h.mu.RLock()
	_, hostStillSet := h.hosts["ROOM1"]
	h.mu.RUnlock()
	if hostStillSet {
		t.Fatal("host mapping should be cleared")
	}
}

type stubDispatcher struct {
	onConnect    func(connID string)
	onDisconnect func(connID string)
	onMessage    func(InboundMessage)
}

func (s *stubDispatcher) HandleConnect(connID string) {
	if s.onConnect != nil {
		s.onConnect(connID)
	}
}

func (s *stubDispatcher) HandleDisconnect(connID string) {
	if s.onDisconnect != nil {
		s.onDisconnect(connID)
	}
}

func (s *stubDispatcher) HandleMessage(msg InboundMessage) {
	if s.onMessage != nil {
		s.onMessage(msg)
	}
}
