package fsm

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/zachegner/QuipWits/internal/config"
	"github.com/zachegner/QuipWits/internal/prompts"
	"github.com/zachegner/QuipWits/internal/room"
)

// fakeEmitter records every emitted event for assertions; it intentionally
// does not implement the hub interface, so Service.hub() falls back to the
// no-op hub and room-membership bookkeeping is skipped in these tests.
type fakeEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

type emittedEvent struct {
	target  string // "conn:<id>" | "room:<code>" | "host:<code>"
	name    string
	payload any
}

func (f *fakeEmitter) ToConnection(connID, name string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{"conn:" + connID, name, payload})
}

func (f *fakeEmitter) ToRoom(roomCode, name string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{"room:" + roomCode, name, payload})
}

func (f *fakeEmitter) ToHost(roomCode, name string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{"host:" + roomCode, name, payload})
}

func (f *fakeEmitter) last(name string) (emittedEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].name == name {
			return f.events[i], true
		}
	}
	return emittedEvent{}, false
}

func newTestService() (*Service, *fakeEmitter) {
	reg := room.NewRegistry()
	src := prompts.NewFallback(nil, prompts.NewTemplateSource(rand.New(rand.NewSource(1))))
	emit := &fakeEmitter{}
	s := New(reg, src, emit, &config.Config{})
	return s, emit
}

// playThroughRound submits every player's two assigned answers, then
// drives voting to completion using a fixed vote (player 1 always wins),
// advancing matchups synchronously instead of waiting on the hold timers
// the real FSM schedules via time.AfterFunc.
func playThroughRound(t *testing.T, s *Service, code string, players []*room.Player) {
	t.Helper()

	r, ok := s.Registry.GetRoom(code)
	if !ok {
		t.Fatalf("room %s not found", code)
	}

	r.Lock()
	if r.State != room.StatePrompt {
		r.Unlock()
		t.Fatalf("expected PROMPT state, got %s", r.State)
	}
	assignedPrompts := make([]*room.Prompt, len(r.Prompts))
	copy(assignedPrompts, r.Prompts)
	r.Unlock()

	byPlayer := map[string]*room.Player{}
	for _, p := range players {
		byPlayer[p.ID] = p
	}

	for _, pr := range assignedPrompts {
		if err := s.SubmitAnswer(code, byPlayer[pr.Player1ID].ConnectionID, pr.ID, "answer from p1"); err != nil {
			t.Fatalf("submit answer p1: %v", err)
		}
		if err := s.SubmitAnswer(code, byPlayer[pr.Player2ID].ConnectionID, pr.ID, "answer from p2"); err != nil {
			t.Fatalf("submit answer p2: %v", err)
		}
	}

	r.Lock()
	state := r.State
	r.Unlock()
	if state != room.StateVoting {
		t.Fatalf("expected VOTING after all answers in, got %s", state)
	}

	// The real FSM waits VotingGraceDelay before presenting the first
	// matchup; tests trigger it directly instead of sleeping.
	s.presentMatchup(code)

	for {
		r.Lock()
		if r.State != room.StateVoting {
			r.Unlock()
			break
		}
		idx := r.CurrentMatchupIndex
		if idx >= len(r.Prompts) {
			r.Unlock()
			break
		}
		pr := r.Prompts[idx]
		r.Unlock()

		for _, p := range players {
			if p.ID == pr.Player1ID || p.ID == pr.Player2ID {
				continue
			}
			if err := s.SubmitVote(code, p.ConnectionID, pr.ID, 1); err != nil {
				t.Fatalf("submit vote: %v", err)
			}
		}

		// finishMatchup ran synchronously inside the last SubmitVote call;
		// advance past its hold timer manually.
		s.advanceMatchup(code)
	}

	r.Lock()
	if r.State != room.StateScoring {
		r.Unlock()
		t.Fatalf("expected SCORING after all matchups, got %s", r.State)
	}
	round := r.CurrentRound
	r.Unlock()

	// enterScoring schedules the next-phase branch behind ScoringHold;
	// replicate that branch directly instead of waiting on it.
	if round < config.RoundsPerGame {
		s.enterPrompt(code)
	} else {
		s.enterLastLash(code)
	}
}

func TestFullGame_MinimumPlayers(t *testing.T) {
	s, emit := newTestService()

	hostRoom := s.CreateRoom("host-conn")
	code := hostRoom.Code

	names := []string{"Alice", "Bob", "Carol"}
	var players []*room.Player
	for _, name := range names {
		_, p, err := s.JoinRoom(code, name, "conn-"+name)
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		players = append(players, p)
	}

	if err := s.StartGame(code, "host-conn", "office life"); err != nil {
		t.Fatalf("start game: %v", err)
	}

	for round := 1; round <= config.RoundsPerGame; round++ {
		playThroughRound(t, s, code, players)
	}

	r, _ := s.Registry.GetRoom(code)
	r.Lock()
	if r.State != room.StateLastLash {
		r.Unlock()
		t.Fatalf("expected LAST_LASH after final round, got %s", r.State)
	}
	r.Unlock()

	for _, p := range players {
		if err := s.SubmitLastLashAnswer(code, p.ConnectionID, "finale answer from "+p.Name); err != nil {
			t.Fatalf("submit finale answer: %v", err)
		}
	}

	r.Lock()
	if r.State != room.StateLastLashVoting {
		r.Unlock()
		t.Fatalf("expected LAST_LASH_VOTING, got %s", r.State)
	}
	r.Unlock()

	// Everyone votes for Alice; CannotVoteSelf means Alice votes for Bob.
	for _, p := range players {
		target := players[0].ID
		if p.ID == players[0].ID {
			target = players[1].ID
		}
		if err := s.SubmitLastLashVote(code, p.ConnectionID, target); err != nil {
			t.Fatalf("submit finale vote: %v", err)
		}
	}

	// finishLastLashVoting scored the finale but the GAME_OVER transition
	// sits behind LastLashHold; drive it directly instead of waiting.
	s.enterGameOver(code)

	r.Lock()
	if r.State != room.StateGameOver {
		r.Unlock()
		t.Fatalf("expected GAME_OVER, got %s", r.State)
	}
	r.Unlock()

	ev, ok := emit.last("GAME_OVER")
	if !ok {
		t.Fatalf("GAME_OVER was never emitted")
	}
	payload := ev.payload.(map[string]any)
	winners, _ := payload["winners"].([]string)
	if len(winners) == 0 {
		t.Fatalf("expected at least one winner, got %v", winners)
	}
}

func TestStartGame_NotEnoughPlayers(t *testing.T) {
	s, _ := newTestService()
	r := s.CreateRoom("host-conn")

	_, _, err := s.JoinRoom(r.Code, "Alice", "conn-alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := s.StartGame(r.Code, "host-conn", ""); err != room.ErrNotEnoughPlayers {
		t.Fatalf("start with 1 player: err = %v, want ErrNotEnoughPlayers", err)
	}
}

func TestStartGame_RequiresHost(t *testing.T) {
	s, _ := newTestService()
	r := s.CreateRoom("host-conn")
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		if _, _, err := s.JoinRoom(r.Code, name, "conn-"+name); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}

	if err := s.StartGame(r.Code, "conn-Alice", ""); err != room.ErrNotHost {
		t.Fatalf("start from non-host: err = %v, want ErrNotHost", err)
	}
}

// S5. Own-matchup vote rejected, counters unchanged.
func TestSubmitVote_OwnMatchupRejected(t *testing.T) {
	s, _ := newTestService()
	r := s.CreateRoom("host-conn")

	var players []*room.Player
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		_, p, _ := s.JoinRoom(r.Code, name, "conn-"+name)
		players = append(players, p)
	}

	if err := s.StartGame(r.Code, "host-conn", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Submit answers so we can reach VOTING.
	byPlayer := map[string]*room.Player{}
	for _, p := range players {
		byPlayer[p.ID] = p
	}
	r.Lock()
	allPrompts := make([]*room.Prompt, len(r.Prompts))
	copy(allPrompts, r.Prompts)
	r.Unlock()
	for _, pr := range allPrompts {
		_ = s.SubmitAnswer(r.Code, byPlayer[pr.Player1ID].ConnectionID, pr.ID, "a")
		_ = s.SubmitAnswer(r.Code, byPlayer[pr.Player2ID].ConnectionID, pr.ID, "b")
	}
	s.presentMatchup(r.Code)

	r.Lock()
	cur := r.Prompts[r.CurrentMatchupIndex]
	authorConnID := byPlayer[cur.Player1ID].ConnectionID
	beforeVotes := cur.Player1Votes + cur.Player2Votes
	r.Unlock()

	err := s.SubmitVote(r.Code, authorConnID, cur.ID, 1)
	if err != room.ErrOwnMatchup {
		t.Fatalf("author voting on own matchup: err = %v, want ErrOwnMatchup", err)
	}

	r.Lock()
	afterVotes := cur.Player1Votes + cur.Player2Votes
	r.Unlock()
	if afterVotes != beforeVotes {
		t.Fatalf("vote counters changed on a rejected vote: before=%d after=%d", beforeVotes, afterVotes)
	}
}

func TestSubmitAnswer_AlreadySubmitted(t *testing.T) {
	s, _ := newTestService()
	r := s.CreateRoom("host-conn")
	var players []*room.Player
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		_, p, _ := s.JoinRoom(r.Code, name, "conn-"+name)
		players = append(players, p)
	}
	if err := s.StartGame(r.Code, "host-conn", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	r.Lock()
	pr := r.Prompts[0]
	r.Unlock()

	byPlayer := map[string]*room.Player{}
	for _, p := range players {
		byPlayer[p.ID] = p
	}

	if err := s.SubmitAnswer(r.Code, byPlayer[pr.Player1ID].ConnectionID, pr.ID, "first"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := s.SubmitAnswer(r.Code, byPlayer[pr.Player1ID].ConnectionID, pr.ID, "second"); err != room.ErrAlreadySubmitted {
		t.Fatalf("second submit: err = %v, want ErrAlreadySubmitted", err)
	}
}

// S9. Disconnect-and-continue: a disconnected player's missing answers
// are swept with the sentinel by the timeout path, and the phase still
// advances.
func TestAnswerTimeoutSweep_FillsMissingAnswers(t *testing.T) {
	s, _ := newTestService()
	r := s.CreateRoom("host-conn")
	var players []*room.Player
	for _, name := range []string{"Alice", "Bob", "Carol", "Dave"} {
		_, p, _ := s.JoinRoom(r.Code, name, "conn-"+name)
		players = append(players, p)
	}
	if err := s.StartGame(r.Code, "host-conn", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	_ = s.Registry.MarkPlayerDisconnected(r.Code, players[3].ID)

	s.onAnswerTimerExpired(r.Code)

	r.Lock()
	defer r.Unlock()
	if r.State != room.StateVoting {
		t.Fatalf("expected VOTING after timeout sweep, got %s", r.State)
	}
	for _, pr := range r.Prompts {
		if pr.Player1Answer == nil || pr.Player2Answer == nil {
			t.Fatalf("prompt %s has an unset answer after timeout sweep", pr.ID)
		}
	}
}
