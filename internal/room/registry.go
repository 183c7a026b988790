package room

import (
	"strings"
	"sync"
	"time"

	"github.com/zachegner/QuipWits/internal/config"
	"github.com/zachegner/QuipWits/internal/ids"
)

// Role identifies which side of a connection found a room.
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// Registry is the process-wide mapping from room code to Room. It is
// guarded by a reader-writer lock (§5); mutation of an individual
// Room's contents is guarded by that Room's own embedded mutex instead, so
// registry operations that touch a room's fields still lock that room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// CreateRoom picks a fresh room code by rejection sampling and registers a
// new lobby room for the given host connection.
func (reg *Registry) CreateRoom(hostConnectionID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for {
		code = ids.RoomCode(config.RoomCodeLength)
		if _, exists := reg.rooms[code]; !exists {
			break
		}
	}

	r := New(code, hostConnectionID, ids.New())
	reg.rooms[code] = r
	return r
}

// GetRoom looks up a room by code, case-insensitively.
func (reg *Registry) GetRoom(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	r, ok := reg.rooms[strings.ToUpper(code)]
	return r, ok
}

// DeleteRoom removes a room from the registry entirely.
func (reg *Registry) DeleteRoom(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.rooms, strings.ToUpper(code))
}

// AddPlayer appends a new player to the room's roster, subject to the
// lobby-admission guards in §4.1.
func (reg *Registry) AddPlayer(code, playerID, name, connectionID string) (*Room, *Player, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 || len(name) > 15 {
		return nil, nil, ErrInvalidName
	}

	r, ok := reg.GetRoom(code)
	if !ok {
		return nil, nil, ErrRoomNotFound
	}

	r.Lock()
	defer r.Unlock()

	if r.State != StateLobby {
		return nil, nil, ErrGameInProgress
	}
	if len(r.Players) >= config.MaxPlayers {
		return nil, nil, ErrRoomFull
	}
	if r.FindPlayerByName(name) != nil {
		return nil, nil, ErrNameTaken
	}

	p := &Player{
		ID:               playerID,
		ConnectionID:     connectionID,
		Name:             name,
		Connected:        true,
		PromptsAssigned:  []string{},
		AnswersSubmitted: 0,
		HasVoted:         make(map[string]bool),
	}
	r.Players = append(r.Players, p)
	r.Scores[playerID] = 0

	return r, p, nil
}

// RemovePlayer deletes a player from the roster (host KICK).
func (reg *Registry) RemovePlayer(code, playerID string) error {
	r, ok := reg.GetRoom(code)
	if !ok {
		return ErrRoomNotFound
	}

	r.Lock()
	defer r.Unlock()

	for i, p := range r.Players {
		if p.ID == playerID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return nil
		}
	}
	return ErrNotInRoom
}

// MarkPlayerDisconnected flags a player as disconnected without removing
// them from the roster; they remain rejoinable by playerID.
func (reg *Registry) MarkPlayerDisconnected(code, playerID string) error {
	r, ok := reg.GetRoom(code)
	if !ok {
		return ErrRoomNotFound
	}

	r.Lock()
	defer r.Unlock()

	p := r.FindPlayer(playerID)
	if p == nil {
		return ErrNotInRoom
	}
	p.Connected = false
	return nil
}

// UpdatePlayerConnection rebinds a player's connection on rejoin.
func (reg *Registry) UpdatePlayerConnection(code, playerID, newConnectionID string) error {
	r, ok := reg.GetRoom(code)
	if !ok {
		return ErrRoomNotFound
	}

	r.Lock()
	defer r.Unlock()

	p := r.FindPlayer(playerID)
	if p == nil {
		return ErrNotInRoom
	}
	p.ConnectionID = newConnectionID
	p.Connected = true
	return nil
}

// UpdateHostConnection rebinds the host's connection, but only when hostID
// matches the room's stable host identity.
func (reg *Registry) UpdateHostConnection(code, hostID, newConnectionID string) error {
	r, ok := reg.GetRoom(code)
	if !ok {
		return ErrRoomNotFound
	}

	r.Lock()
	defer r.Unlock()

	if r.HostID != hostID {
		return ErrInvalidHost
	}
	r.HostConnectionID = newConnectionID
	return nil
}

// FindByConnection resolves a transport connection ID to its room and
// role, and (for players) the player record.
func (reg *Registry) FindByConnection(connectionID string) (*Room, Role, *Player, bool) {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	for _, r := range rooms {
		r.Lock()
		if r.HostConnectionID == connectionID {
			r.Unlock()
			return r, RoleHost, nil, true
		}
		if p := r.FindPlayerByConnection(connectionID); p != nil {
			r.Unlock()
			return r, RolePlayer, p, true
		}
		r.Unlock()
	}
	return nil, "", nil, false
}

// CleanupOlderThan deletes every room whose CreatedAt is older than maxAge.
func (reg *Registry) CleanupOlderThan(maxAge time.Duration) []string {
	cutoff := time.Now().Add(-maxAge)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	var reaped []string
	for code, r := range reg.rooms {
		if r.CreatedAt.Before(cutoff) {
			delete(reg.rooms, code)
			reaped = append(reaped, code)
		}
	}
	return reaped
}

// StartReaper launches a background sweeper that deletes rooms older than
// maxAge every maxAge/2, until stop is closed.
func (reg *Registry) StartReaper(maxAge time.Duration, stop <-chan struct{}, onReap func(code string)) {
	if maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(maxAge / 2)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, code := range reg.CleanupOlderThan(maxAge) {
					if onReap != nil {
						onReap(code)
					}
				}
			case <-stop:
				return
			}
		}
	}()
}
