package fsm

import (
	"strings"

	"github.com/zachegner/QuipWits/internal/config"
	"github.com/zachegner/QuipWits/internal/room"
)

// SubmitAnswer implements the regular-round submit-answer rule (§4.4).
func (s *Service) SubmitAnswer(code, connID, promptID, text string) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return s.reject(connID, room.ErrRoomNotFound)
	}

	r.Lock()
	player := r.FindPlayerByConnection(connID)
	if player == nil {
		r.Unlock()
		return s.reject(connID, room.ErrNotInRoom)
	}

	p := r.FindPrompt(promptID)
	if p == nil {
		r.Unlock()
		return s.reject(connID, room.ErrPromptNotFound)
	}

	var slot **string
	switch player.ID {
	case p.Player1ID:
		slot = &p.Player1Answer
	case p.Player2ID:
		slot = &p.Player2Answer
	default:
		r.Unlock()
		return s.reject(connID, room.ErrNotAssigned)
	}

	if *slot != nil {
		r.Unlock()
		return s.reject(connID, room.ErrAlreadySubmitted)
	}

	stored := sanitizeAnswer(text, config.MaxAnswerLength, config.NoAnswerSentinel)
	*slot = &stored
	player.AnswersSubmitted++

	done := allAnswersIn(r)
	r.Unlock()

	s.Emit.ToHost(code, "PLAYER_SUBMITTED", map[string]any{"playerId": player.ID, "promptId": promptID})

	if done {
		s.Timers.Cancel(code)
		s.enterVoting(code)
	}
	return nil
}

// SubmitVote implements the submit-vote rule (§4.4).
func (s *Service) SubmitVote(code, connID, promptID string, choice int) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return s.reject(connID, room.ErrRoomNotFound)
	}

	r.Lock()
	voter := r.FindPlayerByConnection(connID)
	if voter == nil {
		r.Unlock()
		return s.reject(connID, room.ErrNotInRoom)
	}

	p := r.FindPrompt(promptID)
	if p == nil {
		r.Unlock()
		return s.reject(connID, room.ErrPromptNotFound)
	}

	if voter.ID == p.Player1ID || voter.ID == p.Player2ID {
		r.Unlock()
		return s.reject(connID, room.ErrOwnMatchup)
	}
	if voter.HasVoted[promptID] {
		r.Unlock()
		return s.reject(connID, room.ErrAlreadyVoted)
	}
	if choice != 1 && choice != 2 {
		r.Unlock()
		return s.reject(connID, room.ErrInvalidVote)
	}

	if choice == 1 {
		p.Player1Votes++
	} else {
		p.Player2Votes++
	}
	voter.HasVoted[promptID] = true

	eligible := r.EligibleVoters(p)
	allIn := p.Player1Votes+p.Player2Votes >= eligible
	expectedIndex := r.CurrentMatchupIndex
	matchupIsCurrent := r.Prompts != nil && expectedIndex < len(r.Prompts) && r.Prompts[expectedIndex].ID == promptID
	r.Unlock()

	s.Emit.ToRoom(code, "PLAYER_VOTED", map[string]any{"voterId": voter.ID, "promptId": promptID})

	if allIn && matchupIsCurrent {
		s.finishMatchup(code, expectedIndex)
	}
	return nil
}

// SubmitLastLashAnswer implements the finale answer submit rule (§4.4),
// including the soft mode validation of §4.7.
func (s *Service) SubmitLastLashAnswer(code, connID, text string) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return s.reject(connID, room.ErrRoomNotFound)
	}

	r.Lock()
	player := r.FindPlayerByConnection(connID)
	if player == nil {
		r.Unlock()
		return s.reject(connID, room.ErrNotInRoom)
	}
	if r.LastLashBlock == nil {
		r.Unlock()
		return s.reject(connID, room.ErrPromptNotFound)
	}
	for _, a := range r.LastLashBlock.Answers {
		if a.PlayerID == player.ID {
			r.Unlock()
			return s.reject(connID, room.ErrAlreadySubmitted)
		}
	}

	stored := sanitizeAnswer(text, config.MaxAnswerLength, config.NoAnswerSentinel)
	warning := validateFinaleAnswer(r.LastLashBlock.Mode, r.LastLashBlock.Letters, stored)

	r.LastLashBlock.Answers = append(r.LastLashBlock.Answers, &room.FinaleAnswer{
		PlayerID:          player.ID,
		Answer:            stored,
		ValidationWarning: warning,
	})

	done := len(r.LastLashBlock.Answers) >= len(r.Players)
	r.Unlock()

	s.Emit.ToHost(code, "PLAYER_SUBMITTED", map[string]any{"playerId": player.ID, "isLastLash": true})

	if done {
		s.Timers.Cancel(code)
		s.enterLastLashVoting(code)
	}
	return nil
}

// SubmitLastLashVote implements the finale vote submit rule (§4.4).
func (s *Service) SubmitLastLashVote(code, connID, votedForID string) error {
	r, ok := s.Registry.GetRoom(code)
	if !ok {
		return s.reject(connID, room.ErrRoomNotFound)
	}

	r.Lock()
	voter := r.FindPlayerByConnection(connID)
	if voter == nil {
		r.Unlock()
		return s.reject(connID, room.ErrNotInRoom)
	}
	if r.LastLashBlock == nil {
		r.Unlock()
		return s.reject(connID, room.ErrInvalidTarget)
	}
	if votedForID == voter.ID {
		r.Unlock()
		return s.reject(connID, room.ErrCannotVoteSelf)
	}
	if _, already := r.LastLashBlock.Votes[voter.ID]; already {
		r.Unlock()
		return s.reject(connID, room.ErrAlreadyVoted)
	}

	target := false
	for _, a := range r.LastLashBlock.Answers {
		if a.PlayerID == votedForID {
			target = true
			break
		}
	}
	if !target {
		r.Unlock()
		return s.reject(connID, room.ErrInvalidTarget)
	}

	r.LastLashBlock.Votes[voter.ID] = votedForID
	allIn := len(r.LastLashBlock.Votes) >= len(r.Players)
	r.Unlock()

	s.Emit.ToRoom(code, "PLAYER_VOTED", map[string]any{"voterId": voter.ID})

	if allIn {
		s.Timers.Cancel(code)
		s.finishLastLashVoting(code)
	}
	return nil
}

// validateFinaleAnswer implements the soft per-mode checks of §4.7; it
// never rejects, only attaches a warning describing the mismatch.
func validateFinaleAnswer(mode room.Mode, letters []string, answer string) string {
	switch mode {
	case room.WordLash:
		words := strings.Fields(answer)
		if len(words) < len(letters) {
			return "fewer words than required letters"
		}
		return checkLetters(words, letters)

	case room.AcroLash:
		words := strings.Fields(answer)
		if len(words) != len(letters) {
			return "word count does not match the required letters"
		}
		return checkLetters(words, letters)

	default:
		return ""
	}
}

func checkLetters(words, letters []string) string {
	for i, letter := range letters {
		if i >= len(words) {
			break
		}
		if len(words[i]) == 0 || !strings.EqualFold(words[i][:1], letter) {
			return "does not match the required starting letters"
		}
	}
	return ""
}
