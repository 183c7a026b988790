package fsm

import (
	"github.com/zachegner/QuipWits/internal/config"
	"github.com/zachegner/QuipWits/internal/room"
)

// hub is the subset of transport.Hub used for room membership bookkeeping,
// kept as an interface so Service doesn't depend on the concrete type.
type hub interface {
	JoinRoom(connID, roomCode string)
	LeaveRoom(connID, roomCode string)
	SetHost(roomCode, connID string)
}

// Service.hub() uses Emit for room membership bookkeeping when Emit also
// implements hub; otherwise (as with unit-test emitters) it falls back to
// noopHub and membership tracking is skipped.
var _ hub = (*noopHub)(nil)

type noopHub struct{}

func (noopHub) JoinRoom(string, string)  {}
func (noopHub) LeaveRoom(string, string) {}
func (noopHub) SetHost(string, string)   {}

// CreateRoom creates a new lobby room for a host connection.
func (s *Service) CreateRoom(connID string) *room.Room {
	r := s.Registry.CreateRoom(connID)
	s.hub().SetHost(r.Code, connID)
	s.hub().JoinRoom(connID, r.Code)

	s.Emit.ToConnection(connID, "ROOM_CREATED", map[string]any{
		"roomCode": r.Code,
		"hostId":   r.HostID,
	})
	return r
}

func (s *Service) hub() hub {
	if h, ok := s.Emit.(hub); ok {
		return h
	}
	return noopHub{}
}

// JoinRoom admits a new player to a lobby room.
func (s *Service) JoinRoom(code, playerName, connID string) (*room.Room, *room.Player, error) {
	playerID := newOpaqueID()
	r, p, err := s.Registry.AddPlayer(code, playerID, playerName, connID)
	if err != nil {
		s.Emit.ToConnection(connID, "ERROR", errPayload(err))
		return nil, nil, err
	}

	s.hub().JoinRoom(connID, r.Code)

	s.Emit.ToConnection(connID, "ROOM_JOINED", map[string]any{
		"roomCode": r.Code,
		"playerId": p.ID,
		"name":     p.Name,
	})
	s.Emit.ToRoom(r.Code, "ROOM_UPDATE", s.roomSnapshot(r))
	return r, p, nil
}

// RejoinPlayer reassociates a known playerID with a new connection.
func (s *Service) RejoinPlayer(code, playerID, connID string) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		s.Emit.ToConnection(connID, "ERROR", errPayload(room.ErrRoomNotFound))
		return room.ErrRoomNotFound
	}

	if err := s.Registry.UpdatePlayerConnection(code, playerID, connID); err != nil {
		s.Emit.ToConnection(connID, "ERROR", errPayload(err))
		return err
	}

	s.hub().JoinRoom(connID, r.Code)

	r.Lock()
	snapshot := s.roomSnapshotLocked(r)
	r.Unlock()

	s.Emit.ToConnection(connID, "REJOIN_SUCCESS", snapshot)
	s.Emit.ToRoom(r.Code, "ROOM_UPDATE", snapshot)
	return nil
}

// RejoinHost reassociates the host identity with a new connection.
func (s *Service) RejoinHost(code, hostID, connID string) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		s.Emit.ToConnection(connID, "ERROR", errPayload(room.ErrRoomNotFound))
		return room.ErrRoomNotFound
	}

	if err := s.Registry.UpdateHostConnection(code, hostID, connID); err != nil {
		s.Emit.ToConnection(connID, "ERROR", errPayload(err))
		return err
	}

	s.hub().SetHost(r.Code, connID)
	s.hub().JoinRoom(connID, r.Code)

	r.Lock()
	snapshot := s.roomSnapshotLocked(r)
	r.Unlock()

	s.Emit.ToConnection(connID, "REJOIN_HOST_SUCCESS", snapshot)
	return nil
}

// StartGame moves a lobby room into its first PROMPT phase.
func (s *Service) StartGame(code, connID, theme string) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return s.reject(connID, room.ErrRoomNotFound)
	}

	r.Lock()
	if connID != r.HostConnectionID {
		r.Unlock()
		return s.reject(connID, room.ErrNotHost)
	}
	if r.State != room.StateLobby {
		r.Unlock()
		return s.reject(connID, room.ErrGameInProgress)
	}
	if len(r.Players) < config.MinPlayers {
		r.Unlock()
		return s.reject(connID, room.ErrNotEnoughPlayers)
	}
	if len(theme) > 120 {
		theme = theme[:120]
	}
	r.Theme = theme
	code2 := r.Code
	r.Unlock()

	s.Emit.ToRoom(code2, "GAME_STARTED", map[string]any{"theme": theme, "totalRounds": config.RoundsPerGame})
	s.enterPrompt(code2)
	return nil
}

// KickPlayer removes a player from the roster; host-only, any phase.
func (s *Service) KickPlayer(code, connID, targetPlayerID string) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return s.reject(connID, room.ErrRoomNotFound)
	}

	r.Lock()
	if connID != r.HostConnectionID {
		r.Unlock()
		return s.reject(connID, room.ErrNotHost)
	}
	p := r.FindPlayer(targetPlayerID)
	r.Unlock()
	if p == nil {
		return s.reject(connID, room.ErrNotInRoom)
	}

	if err := s.Registry.RemovePlayer(code, targetPlayerID); err != nil {
		return s.reject(connID, err)
	}

	s.hub().LeaveRoom(p.ConnectionID, code)
	s.Emit.ToConnection(p.ConnectionID, "PLAYER_KICKED", map[string]any{"reason": "removed by host"})
	s.Emit.ToRoom(code, "ROOM_UPDATE", s.roomSnapshotByCode(code))
	return nil
}

// SkipPlayer forces a player's unanswered current-round prompts to the
// skipped sentinel, treated identically to a timeout sweep (§4.4).
func (s *Service) SkipPlayer(code, connID, targetPlayerID string) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return s.reject(connID, room.ErrRoomNotFound)
	}

	r.Lock()
	if connID != r.HostConnectionID {
		r.Unlock()
		return s.reject(connID, room.ErrNotHost)
	}
	if r.State != room.StatePrompt {
		r.Unlock()
		return nil
	}

	for _, p := range r.Prompts {
		if p.Player1ID == targetPlayerID && p.Player1Answer == nil {
			v := config.SkippedSentinel
			p.Player1Answer = &v
		}
		if p.Player2ID == targetPlayerID && p.Player2Answer == nil {
			v := config.SkippedSentinel
			p.Player2Answer = &v
		}
	}
	allIn := allAnswersIn(r)
	code2 := r.Code
	r.Unlock()

	if allIn {
		s.Timers.Cancel(code2)
		s.enterVoting(code2)
	}
	return nil
}

// PauseGame freezes the room's active timer.
func (s *Service) PauseGame(code, connID string) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return s.reject(connID, room.ErrRoomNotFound)
	}

	r.Lock()
	if connID != r.HostConnectionID {
		r.Unlock()
		return s.reject(connID, room.ErrNotHost)
	}
	if r.Paused {
		r.Unlock()
		return nil
	}
	remaining, ok2 := s.Timers.Pause(code)
	if ok2 {
		r.PauseRemainingSeconds = &remaining
		r.PausedInState = r.State
		r.Paused = true
	}
	code2 := r.Code
	r.Unlock()

	s.Emit.ToRoom(code2, "GAME_PAUSED", map[string]any{})
	return nil
}

// ResumeGame rearms the room's timer from where it was paused, using the
// dispatch table that maps a paused phase to its resumption action
// (§4.8, §9 design note).
func (s *Service) ResumeGame(code, connID string) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return s.reject(connID, room.ErrRoomNotFound)
	}

	r.Lock()
	if connID != r.HostConnectionID {
		r.Unlock()
		return s.reject(connID, room.ErrNotHost)
	}
	if !r.Paused {
		r.Unlock()
		return nil
	}
	remaining := 0
	if r.PauseRemainingSeconds != nil {
		remaining = *r.PauseRemainingSeconds
	}
	state := r.PausedInState
	r.Paused = false
	r.PauseRemainingSeconds = nil
	code2 := r.Code
	r.Unlock()

	cb := s.callbackFor(state)
	s.Timers.Resume(code2, remaining, func() { cb(code2) })

	s.Emit.ToRoom(code2, "GAME_RESUMED", map[string]any{})
	return nil
}

// ExtendTime adds extra seconds to the room's active timer.
func (s *Service) ExtendTime(code, connID string, seconds int) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return s.reject(connID, room.ErrRoomNotFound)
	}

	r.Lock()
	if connID != r.HostConnectionID {
		r.Unlock()
		return s.reject(connID, room.ErrNotHost)
	}
	state := r.State
	code2 := r.Code
	r.Unlock()

	if seconds <= 0 {
		seconds = 30
	}

	cb := s.callbackFor(state)
	s.Timers.Extend(code2, durationSeconds(seconds), func() { cb(code2) })
	return nil
}

// EndGame ends a room at host request from any non-terminal state.
func (s *Service) EndGame(code, connID string) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return s.reject(connID, room.ErrRoomNotFound)
	}

	r.Lock()
	if connID != r.HostConnectionID {
		r.Unlock()
		return s.reject(connID, room.ErrNotHost)
	}
	if r.State == room.StateGameOver {
		r.Unlock()
		return nil
	}
	code2 := r.Code
	r.Unlock()

	s.Timers.Cancel(code2)
	s.enterGameOver(code2)
	return nil
}

// HandleDisconnect reacts to a transport "disconnecting" event. A player
// is marked disconnected and ROOM_UPDATE is broadcast. A host disconnect
// changes no room state and broadcasts nothing; the room has no host-
// disconnected flag. Neither case is an error (§7).
func (s *Service) HandleDisconnect(connID string) {
	r, roleRole, player, ok := s.Registry.FindByConnection(connID)
	if !ok {
		return
	}

	if roleRole == room.RoleHost {
		// Host disconnection is not fatal; the room continues and the
		// host may reconnect with a matching hostId (§7).
		return
	}

	if player != nil {
		_ = s.Registry.MarkPlayerDisconnected(r.Code, player.ID)
		s.Emit.ToRoom(r.Code, "ROOM_UPDATE", s.roomSnapshotByCode(r.Code))
	}
}

func (s *Service) reject(connID string, err error) error {
	s.Emit.ToConnection(connID, "ERROR", errPayload(err))
	return err
}

func errPayload(err error) map[string]any {
	return map[string]any{"message": err.Error(), "code": room.Code(err)}
}

func allAnswersIn(r *room.Room) bool {
	for _, p := range r.Prompts {
		if p.Player1Answer == nil || p.Player2Answer == nil {
			return false
		}
	}
	return true
}
