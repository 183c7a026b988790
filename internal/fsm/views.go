package fsm

import "github.com/zachegner/QuipWits/internal/room"

// playerView is the public projection of a Player sent in room snapshots;
// it omits HasVoted and other server-internal bookkeeping.
type playerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Score     int    `json:"score"`
}

// roomSnapshot locks r itself and returns its ROOM_UPDATE/REJOIN payload.
func (s *Service) roomSnapshot(r *room.Room) map[string]any {
	r.Lock()
	defer r.Unlock()
	return s.roomSnapshotLocked(r)
}

// roomSnapshotByCode looks up a room by code and snapshots it; returns an
// empty map if the room no longer exists (e.g. raced with a reap).
func (s *Service) roomSnapshotByCode(code string) map[string]any {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return map[string]any{}
	}
	return s.roomSnapshot(r)
}

// roomSnapshotLocked assumes the caller already holds r's lock.
func (s *Service) roomSnapshotLocked(r *room.Room) map[string]any {
	players := make([]playerView, len(r.Players))
	for i, p := range r.Players {
		players[i] = playerView{
			ID:        p.ID,
			Name:      p.Name,
			Connected: p.Connected,
			Score:     r.Scores[p.ID],
		}
	}

	return map[string]any{
		"roomCode":     r.Code,
		"state":        string(r.State),
		"players":      players,
		"currentRound": r.CurrentRound,
		"theme":        r.Theme,
		"paused":       r.Paused,
	}
}

type promptAssignmentView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type finaleAnswerView struct {
	PlayerID string `json:"playerId"`
	Answer   string `json:"answer"`
}

type finaleResultView struct {
	PlayerID string `json:"playerId"`
	Answer   string `json:"answer"`
	Points   int    `json:"points"`
	Votes    int    `json:"votes"`
	IsWinner bool   `json:"isWinner"`
}
