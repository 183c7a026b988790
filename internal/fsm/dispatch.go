package fsm

import (
	"encoding/json"

	"github.com/zachegner/QuipWits/internal/transport"
)

// HandleConnect is invoked by the transport layer when a connection
// attaches. No room association exists yet, so there is nothing to do
// until the connection's first create_room/join_room/rejoin event.
func (s *Service) HandleConnect(connID string) {}

// inbound payload shapes, one per wire event named in §4.9.
type joinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type rejoinPayload struct {
	PlayerID string `json:"playerId"`
	RoomCode string `json:"roomCode"`
}

type rejoinHostPayload struct {
	RoomCode string `json:"roomCode"`
	HostID   string `json:"hostId"`
}

type startGamePayload struct {
	RoomCode string `json:"roomCode"`
	Theme    string `json:"theme"`
}

type submitAnswerPayload struct {
	RoomCode   string `json:"roomCode"`
	PromptID   string `json:"promptId"`
	Answer     string `json:"answer"`
	IsLastLash bool   `json:"isLastLash"`
}

type submitVotePayload struct {
	RoomCode string `json:"roomCode"`
	PromptID string `json:"promptId"`
	Vote     int    `json:"vote"`
}

type submitLastLashVotesPayload struct {
	RoomCode   string `json:"roomCode"`
	VotedForID string `json:"votedForId"`
}

type roomScopedPayload struct {
	RoomCode string `json:"roomCode"`
}

type skipOrKickPayload struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type extendTimePayload struct {
	RoomCode string `json:"roomCode"`
	Seconds  int    `json:"seconds"`
}

// HandleMessage decodes an inbound envelope's payload and routes it to the
// matching Service method, per the table in §4.9. Handler errors are
// reported to the offending connection only (§7); a payload that fails to
// decode is dropped without any reply. The transport layer never needs to
// know what went wrong.
func (s *Service) HandleMessage(msg transport.InboundMessage) {
	switch msg.Type {
	case "create_room":
		s.CreateRoom(msg.ConnID)

	case "join_room":
		var p joinRoomPayload
		if !decode(msg.Payload, &p) {
			return
		}
		_, _, _ = s.JoinRoom(p.RoomCode, p.PlayerName, msg.ConnID)

	case "rejoin":
		var p rejoinPayload
		if !decode(msg.Payload, &p) {
			return
		}
		_ = s.RejoinPlayer(p.RoomCode, p.PlayerID, msg.ConnID)

	case "rejoin_host":
		var p rejoinHostPayload
		if !decode(msg.Payload, &p) {
			return
		}
		_ = s.RejoinHost(p.RoomCode, p.HostID, msg.ConnID)

	case "start_game":
		var p startGamePayload
		if !decode(msg.Payload, &p) {
			return
		}
		_ = s.StartGame(p.RoomCode, msg.ConnID, p.Theme)

	case "submit_answer":
		var p submitAnswerPayload
		if !decode(msg.Payload, &p) {
			return
		}
		if p.IsLastLash {
			_ = s.SubmitLastLashAnswer(p.RoomCode, msg.ConnID, p.Answer)
		} else {
			_ = s.SubmitAnswer(p.RoomCode, msg.ConnID, p.PromptID, p.Answer)
		}

	case "submit_vote":
		var p submitVotePayload
		if !decode(msg.Payload, &p) {
			return
		}
		_ = s.SubmitVote(p.RoomCode, msg.ConnID, p.PromptID, p.Vote)

	case "submit_last_lash_votes":
		var p submitLastLashVotesPayload
		if !decode(msg.Payload, &p) {
			return
		}
		_ = s.SubmitLastLashVote(p.RoomCode, msg.ConnID, p.VotedForID)

	case "skip_player":
		var p skipOrKickPayload
		if !decode(msg.Payload, &p) {
			return
		}
		_ = s.SkipPlayer(p.RoomCode, msg.ConnID, p.PlayerID)

	case "kick_player":
		var p skipOrKickPayload
		if !decode(msg.Payload, &p) {
			return
		}
		_ = s.KickPlayer(p.RoomCode, msg.ConnID, p.PlayerID)

	case "pause_game":
		var p roomScopedPayload
		if !decode(msg.Payload, &p) {
			return
		}
		_ = s.PauseGame(p.RoomCode, msg.ConnID)

	case "resume_game":
		var p roomScopedPayload
		if !decode(msg.Payload, &p) {
			return
		}
		_ = s.ResumeGame(p.RoomCode, msg.ConnID)

	case "extend_time":
		var p extendTimePayload
		if !decode(msg.Payload, &p) {
			return
		}
		_ = s.ExtendTime(p.RoomCode, msg.ConnID, p.Seconds)

	case "end_game":
		var p roomScopedPayload
		if !decode(msg.Payload, &p) {
			return
		}
		_ = s.EndGame(p.RoomCode, msg.ConnID)

	case "continue_last_wit":
		// Acknowledged but otherwise a no-op: the FSM advances phases on
		// its own hold timers rather than waiting for host confirmation.
	}
}

func decode(payload []byte, dst any) bool {
	if len(payload) == 0 {
		return true
	}
	return json.Unmarshal(payload, dst) == nil
}
