package fsm

import (
	"fmt"
	"time"

	"github.com/zachegner/QuipWits/internal/config"
	"github.com/zachegner/QuipWits/internal/pairing"
	"github.com/zachegner/QuipWits/internal/prompts"
	"github.com/zachegner/QuipWits/internal/room"
	"github.com/zachegner/QuipWits/internal/scoring"
)

// enterPrompt runs the PROMPT phase entry behavior (§4.6): advance the
// round counter, pair players, draw prompt text, and arm the answer timer.
func (s *Service) enterPrompt(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	r.CurrentRound++
	round := r.CurrentRound
	players := r.PlayerIDs()
	theme := r.Theme
	seen := r.UsedPromptTexts
	r.Unlock()

	pairs := pairing.Assign(players, config.PromptsPerPlayer, newRand())
	texts, err := s.Prompts.GeneratePrompts(ctx(), len(pairs), seen, theme)
	if err != nil || len(texts) < len(pairs) {
		// The combined source is documented infallible (§4.2, §9); a
		// shortfall here would be a bug in the wiring, not a runtime
		// condition to recover from gracefully.
		for len(texts) < len(pairs) {
			texts = append(texts, fmt.Sprintf("Prompt %d", len(texts)+1))
		}
	}

	r.Lock()
	r.Prompts = make([]*room.Prompt, len(pairs))
	for i, pair := range pairs {
		r.Prompts[i] = &room.Prompt{
			ID:        fmt.Sprintf("r%d_p%d", round, i),
			Text:      texts[i],
			Player1ID: pair.Player1,
			Player2ID: pair.Player2,
		}
	}

	assigned := make(map[string][]promptAssignmentView)
	for _, p := range r.Players {
		p.PromptsAssigned = nil
		p.AnswersSubmitted = 0
	}
	for _, pr := range r.Prompts {
		if p1 := r.FindPlayer(pr.Player1ID); p1 != nil {
			p1.PromptsAssigned = append(p1.PromptsAssigned, pr.ID)
		}
		if p2 := r.FindPlayer(pr.Player2ID); p2 != nil {
			p2.PromptsAssigned = append(p2.PromptsAssigned, pr.ID)
		}
		assigned[pr.Player1ID] = append(assigned[pr.Player1ID], promptAssignmentView{ID: pr.ID, Text: pr.Text})
		assigned[pr.Player2ID] = append(assigned[pr.Player2ID], promptAssignmentView{ID: pr.ID, Text: pr.Text})
	}

	r.State = room.StatePrompt
	r.CurrentMatchupIndex = 0
	playerCount := len(r.Players)
	connByPlayer := make(map[string]string, len(r.Players))
	for _, p := range r.Players {
		connByPlayer[p.ID] = p.ConnectionID
	}
	r.Unlock()

	s.Emit.ToHost(code, "PROMPT_PHASE", map[string]any{
		"round":       round,
		"totalRounds": config.RoundsPerGame,
		"playerCount": playerCount,
	})

	for playerID, prompts := range assigned {
		connID, ok := connByPlayer[playerID]
		if !ok {
			continue
		}
		s.Emit.ToConnection(connID, "RECEIVE_PROMPTS", map[string]any{
			"prompts":   prompts,
			"timeLimit": int(config.AnswerTime.Seconds()),
		})
	}

	s.Timers.Arm(code, config.AnswerTime, func() { s.onAnswerTimerExpired(code) })
}

// onAnswerTimerExpired sweeps every unanswered prompt side with the
// no-answer sentinel (§4.4 timeout sweep) and advances to VOTING.
func (s *Service) onAnswerTimerExpired(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	for _, p := range r.Prompts {
		if p.Player1Answer == nil {
			v := config.NoAnswerSentinel
			p.Player1Answer = &v
		}
		if p.Player2Answer == nil {
			v := config.NoAnswerSentinel
			p.Player2Answer = &v
		}
	}
	r.Unlock()

	s.enterVoting(code)
}

// enterVoting resets vote tracking and, after a short grace period,
// presents the first matchup.
func (s *Service) enterVoting(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	r.ResetHasVoted()
	r.CurrentMatchupIndex = 0
	r.State = room.StateVoting
	matchupCount := len(r.Prompts)
	r.Unlock()

	s.Emit.ToRoom(code, "VOTING_PHASE", map[string]any{"matchupCount": matchupCount})

	if matchupCount == 0 {
		s.enterScoring(code)
		return
	}

	time.AfterFunc(config.VotingGraceDelay, func() { s.presentMatchup(code) })
}

// presentMatchup emits VOTE_MATCHUP for the room's current matchup index,
// or advances to SCORING once every matchup has been presented.
func (s *Service) presentMatchup(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	if r.State != room.StateVoting {
		r.Unlock()
		return
	}
	if r.CurrentMatchupIndex >= len(r.Prompts) {
		r.Unlock()
		s.enterScoring(code)
		return
	}

	p := r.Prompts[r.CurrentMatchupIndex]
	p1 := r.FindPlayer(p.Player1ID)
	p2 := r.FindPlayer(p.Player2ID)
	payload := map[string]any{
		"promptId":     p.ID,
		"promptText":   p.Text,
		"answer1":      derefOr(p.Player1Answer, config.NoAnswerSentinel),
		"answer2":      derefOr(p.Player2Answer, config.NoAnswerSentinel),
		"player1Id":    p.Player1ID,
		"player2Id":    p.Player2ID,
		"player1Name":  playerName(p1),
		"player2Name":  playerName(p2),
		"matchupIndex": r.CurrentMatchupIndex,
		"totalMatchups": len(r.Prompts),
	}
	r.Unlock()

	s.Timers.Arm(code, config.VoteTime, func() { s.onVoteTimerExpired(code) })
	s.Emit.ToRoom(code, "VOTE_MATCHUP", payload)
}

func playerName(p *room.Player) string {
	if p == nil {
		return ""
	}
	return p.Name
}

// onVoteTimerExpired forces completion of whichever matchup is currently
// presented, regardless of how many votes are in.
func (s *Service) onVoteTimerExpired(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}
	r.Lock()
	idx := r.CurrentMatchupIndex
	r.Unlock()

	s.finishMatchup(code, idx)
}

// finishMatchup scores the matchup at expectedIndex if it is still the
// room's current one (a stale timer firing after the matchup already
// completed via all-votes-in is a safe no-op), then holds and advances.
func (s *Service) finishMatchup(code string, expectedIndex int) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	if r.State != room.StateVoting || r.CurrentMatchupIndex != expectedIndex || expectedIndex >= len(r.Prompts) {
		r.Unlock()
		return
	}

	p := r.Prompts[expectedIndex]
	a1 := derefOr(p.Player1Answer, config.NoAnswerSentinel)
	a2 := derefOr(p.Player2Answer, config.NoAnswerSentinel)
	result := scoring.ScoreMatchup(a1, a2, p.Player1Votes, p.Player2Votes)

	p.IsJinx = result.IsJinx
	p.Quipwit = result.Quipwit
	r.Scores[p.Player1ID] += result.Score1
	r.Scores[p.Player2ID] += result.Score2

	payload := map[string]any{
		"promptId":      p.ID,
		"isJinx":        p.IsJinx,
		"quipwit":       p.Quipwit,
		"player1Id":     p.Player1ID,
		"player2Id":     p.Player2ID,
		"answer1":       a1,
		"answer2":       a2,
		"player1Votes":  p.Player1Votes,
		"player2Votes":  p.Player2Votes,
		"player1Score":  result.Score1,
		"player2Score":  result.Score2,
		"player1Total":  r.Scores[p.Player1ID],
		"player2Total":  r.Scores[p.Player2ID],
	}
	r.Unlock()

	s.Timers.Cancel(code)
	s.Emit.ToRoom(code, "MATCHUP_RESULT", payload)

	time.AfterFunc(config.MatchupResultHold, func() { s.advanceMatchup(code) })
}

func (s *Service) advanceMatchup(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}
	r.Lock()
	if r.State != room.StateVoting {
		r.Unlock()
		return
	}
	r.CurrentMatchupIndex++
	r.Unlock()

	s.presentMatchup(code)
}

// enterScoring emits the round scoreboard and, after a hold, branches to
// the next round or to LAST_LASH.
func (s *Service) enterScoring(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	r.State = room.StateScoring
	round := r.CurrentRound
	order := r.PlayerIDs()
	scoreboard := scoring.Scoreboard(order, r.Scores)
	r.Unlock()

	s.Emit.ToRoom(code, "ROUND_SCORES", map[string]any{
		"round":      round,
		"scoreboard": scoreboard,
	})

	time.AfterFunc(config.ScoringHold, func() {
		r, ok := s.Registry.GetRoom(code)
		if !ok {
			return
		}
		r.Lock()
		round := r.CurrentRound
		r.Unlock()

		if round < config.RoundsPerGame {
			s.enterPrompt(code)
		} else {
			s.enterLastLash(code)
		}
	})
}

// enterLastLash fetches the finale prompt and arms the finale answer timer.
func (s *Service) enterLastLash(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	theme := r.Theme
	seen := r.UsedPromptTexts
	r.Unlock()

	ll, err := s.Prompts.GenerateLastLash(ctx(), seen, theme)
	if err != nil {
		ll = prompts.LastLash{Prompt: "Finish the story...", Mode: prompts.Flashback}
	}

	r.Lock()
	r.State = room.StateLastLash
	r.LastLashBlock = &room.LastLash{
		Prompt:  ll.Prompt,
		Mode:    room.Mode(ll.Mode),
		Letters: ll.Letters,
		Votes:   make(map[string]string),
	}
	r.Unlock()

	payload := map[string]any{
		"prompt":       ll.Prompt,
		"mode":         string(ll.Mode),
		"letters":      ll.Letters,
		"instructions": ll.Instructions,
		"timeLimit":    int(config.LastLashAnswerTime.Seconds()),
	}
	s.Emit.ToHost(code, "LAST_LASH_PHASE", payload)
	s.Emit.ToRoom(code, "LAST_LASH_PROMPT", payload)

	s.Timers.Arm(code, config.LastLashAnswerTime, func() { s.onLastLashAnswerTimerExpired(code) })
}

// onLastLashAnswerTimerExpired fills every non-submitting player's finale
// answer with the no-answer sentinel and advances to voting.
func (s *Service) onLastLashAnswerTimerExpired(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	if r.LastLashBlock != nil {
		answered := make(map[string]bool, len(r.LastLashBlock.Answers))
		for _, a := range r.LastLashBlock.Answers {
			answered[a.PlayerID] = true
		}
		for _, p := range r.Players {
			if !answered[p.ID] {
				r.LastLashBlock.Answers = append(r.LastLashBlock.Answers, &room.FinaleAnswer{
					PlayerID: p.ID,
					Answer:   config.NoAnswerSentinel,
				})
			}
		}
	}
	r.Unlock()

	s.enterLastLashVoting(code)
}

// enterLastLashVoting shuffles the finale answers for presentation and
// arms the finale vote timer.
func (s *Service) enterLastLashVoting(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	r.State = room.StateLastLashVoting
	r.ResetHasVoted()
	if r.LastLashBlock == nil {
		r.LastLashBlock = &room.LastLash{Votes: make(map[string]string)}
	}
	answers := make([]*room.FinaleAnswer, len(r.LastLashBlock.Answers))
	copy(answers, r.LastLashBlock.Answers)
	rng := newRand()
	rng.Shuffle(len(answers), func(i, j int) { answers[i], answers[j] = answers[j], answers[i] })

	views := make([]finaleAnswerView, len(answers))
	for i, a := range answers {
		views[i] = finaleAnswerView{PlayerID: a.PlayerID, Answer: a.Answer}
	}
	r.Unlock()

	s.Emit.ToRoom(code, "LAST_LASH_VOTING", map[string]any{"answers": views})

	s.Timers.Arm(code, config.LastLashVoteTime, func() { s.onLastLashVoteTimerExpired(code) })
}

func (s *Service) onLastLashVoteTimerExpired(code string) {
	s.finishLastLashVoting(code)
}

// finishLastLashVoting tallies finale votes, applies the scoring kernel's
// finale variant, and advances to GAME_OVER after a results hold.
func (s *Service) finishLastLashVoting(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	if r.State != room.StateLastLashVoting {
		r.Unlock()
		return
	}
	if r.LastLashBlock == nil {
		r.State = room.StateGameOver
		r.Unlock()
		return
	}

	tally := make(map[string]int, len(r.LastLashBlock.Answers))
	for _, votedFor := range r.LastLashBlock.Votes {
		tally[votedFor]++
	}

	entries := make([]scoring.FinaleEntry, len(r.LastLashBlock.Answers))
	for i, a := range r.LastLashBlock.Answers {
		entries[i] = scoring.FinaleEntry{PlayerID: a.PlayerID, Votes: tally[a.PlayerID]}
	}
	results := scoring.ScoreLastLash(entries)

	resultByID := make(map[string]scoring.FinaleResult, len(results))
	for _, res := range results {
		resultByID[res.PlayerID] = res
	}

	views := make([]finaleResultView, len(r.LastLashBlock.Answers))
	for i, a := range r.LastLashBlock.Answers {
		res := resultByID[a.PlayerID]
		a.Points = res.Points
		a.Votes = tally[a.PlayerID]
		a.IsWinner = res.IsWinner
		r.Scores[a.PlayerID] += res.Points

		views[i] = finaleResultView{
			PlayerID: a.PlayerID,
			Answer:   a.Answer,
			Points:   a.Points,
			Votes:    a.Votes,
			IsWinner: a.IsWinner,
		}
	}
	r.Unlock()

	s.Timers.Cancel(code)
	s.Emit.ToRoom(code, "LAST_LASH_RESULTS", map[string]any{"results": views})

	time.AfterFunc(config.LastLashHold, func() { s.enterGameOver(code) })
}

// enterGameOver emits final standings; it is also reachable directly from
// EndGame for early termination.
func (s *Service) enterGameOver(code string) {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	r.State = room.StateGameOver
	order := r.PlayerIDs()
	winners := scoring.Winners(order, r.Scores)
	scoreboard := scoring.Scoreboard(order, r.Scores)
	r.Unlock()

	s.Timers.Cancel(code)
	s.Emit.ToRoom(code, "GAME_OVER", map[string]any{
		"winners":    winners,
		"scoreboard": scoreboard,
	})
}

// callbackFor maps a paused state to the action that should resume it,
// per the dispatch-table design note (§9): resumption always re-derives
// its behavior from current room state rather than a captured closure.
func (s *Service) callbackFor(state room.State) func(code string) {
	switch state {
	case room.StatePrompt:
		return s.onAnswerTimerExpired
	case room.StateVoting:
		return s.onVoteTimerExpired
	case room.StateLastLash:
		return s.onLastLashAnswerTimerExpired
	case room.StateLastLashVoting:
		return s.onLastLashVoteTimerExpired
	default:
		return func(string) {}
	}
}
