// Package room holds the QuipWits data model: Room, Player, Prompt, and the
// LastLash finale block, plus the mutation helpers the session FSM drives.
//
// A *Room is owned exclusively by whichever caller holds its embedded
// mutex; the FSM and the registry both lock it before touching any field,
// giving every room a single logical writer at a time (§5 of the spec).
package room

import (
	"strings"
	"sync"
	"time"

	"github.com/zachegner/QuipWits/internal/config"
)

// State is one phase in the room's finite state machine.
type State string

const (
	StateLobby          State = "LOBBY"
	StatePrompt         State = "PROMPT"
	StateVoting         State = "VOTING"
	StateScoring        State = "SCORING"
	StateLastLash       State = "LAST_LASH"
	StateLastLashVoting State = "LAST_LASH_VOTING"
	StateGameOver       State = "GAME_OVER"
)

// Mode selects the finale variant for a game's LastLash block.
type Mode string

const (
	Flashback Mode = "FLASHBACK"
	WordLash  Mode = "WORD_LASH"
	AcroLash  Mode = "ACRO_LASH"
)

// Player is a participating connection. Identity persists across
// reconnection; ConnectionID and Connected are the only fields that change
// on rejoin.
type Player struct {
	ID               string
	ConnectionID     string
	Name             string
	Connected        bool
	PromptsAssigned  []string
	AnswersSubmitted int
	HasVoted         map[string]bool
}

// Prompt is one matchup within a round: a question paired with its two
// authors and, once submitted, their answers and vote tallies.
type Prompt struct {
	ID            string
	Text          string
	Player1ID     string
	Player2ID     string
	Player1Answer *string
	Player2Answer *string
	Player1Votes  int
	Player2Votes  int
	IsJinx        bool
	Quipwit       int // 0 = none, 1 or 2
}

// FinaleAnswer is one player's submission to the LastLash finale.
type FinaleAnswer struct {
	PlayerID          string
	Answer            string
	Points            int
	Votes             int
	IsWinner          bool
	ValidationWarning string
}

// LastLash is the finale block: one shared prompt, every player's answer,
// and the anonymized vote each player cast.
type LastLash struct {
	Prompt  string
	Mode    Mode
	Letters []string
	Answers []*FinaleAnswer
	Votes   map[string]string // voterPlayerID -> votedForPlayerID
}

// Room is the authoritative state for one game session.
type Room struct {
	sync.Mutex

	Code                  string
	HostConnectionID      string
	HostID                string
	State                 State
	Players               []*Player
	CurrentRound          int
	Theme                 string
	Prompts               []*Prompt
	Scores                map[string]int
	CurrentMatchupIndex   int
	UsedPromptTexts       map[string]bool
	LastLashBlock         *LastLash
	Paused                bool
	TimerEndEpoch         *time.Time
	PauseRemainingSeconds *int
	PausedInState         State
	CreatedAt             time.Time
}

// New creates a fresh lobby room for the given host.
func New(code, hostConnectionID, hostID string) *Room {
	return &Room{
		Code:             code,
		HostConnectionID: hostConnectionID,
		HostID:           hostID,
		State:            StateLobby,
		Players:          make([]*Player, 0, config.MaxPlayers),
		Scores:           make(map[string]int),
		UsedPromptTexts:  make(map[string]bool),
		CreatedAt:        time.Now(),
	}
}

// FindPlayer returns the player with the given ID, assumes the caller
// holds the room lock.
func (r *Room) FindPlayer(playerID string) *Player {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// FindPlayerByConnection returns the player currently bound to connID.
func (r *Room) FindPlayerByConnection(connID string) *Player {
	for _, p := range r.Players {
		if p.ConnectionID == connID {
			return p
		}
	}
	return nil
}

// FindPlayerByName returns the player whose name matches case-insensitively.
func (r *Room) FindPlayerByName(name string) *Player {
	for _, p := range r.Players {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// FindPrompt returns the prompt with the given ID in the current round.
func (r *Room) FindPrompt(promptID string) *Prompt {
	for _, p := range r.Prompts {
		if p.ID == promptID {
			return p
		}
	}
	return nil
}

// PlayerIDs returns the IDs of every player in join order.
func (r *Room) PlayerIDs() []string {
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}

// EligibleVoters returns the number of players other than the two authors
// of a matchup.
func (r *Room) EligibleVoters(p *Prompt) int {
	n := 0
	for _, pl := range r.Players {
		if pl.ID != p.Player1ID && pl.ID != p.Player2ID {
			n++
		}
	}
	return n
}

// ResetHasVoted clears every player's per-round vote set, used on entry to
// VOTING and to LAST_LASH_VOTING.
func (r *Room) ResetHasVoted() {
	for _, p := range r.Players {
		p.HasVoted = make(map[string]bool)
	}
}
