// Package scoring implements the pure scoring kernel (§4.5): matchup
// scoring with the Jinx and QuipWit special cases, LastLash finale
// scoring, winner selection, and the scoreboard.
//
// Every function here is a pure function of its inputs — no player
// identity leaks in beyond routing the totals — so they can be unit
// tested directly against the spec's scoring scenarios (S2-S4, S6, S7).
package scoring

import (
	"sort"
	"strings"

	"github.com/zachegner/QuipWits/internal/config"
)

// MatchupResult is the outcome of scoring a single completed matchup.
type MatchupResult struct {
	IsJinx  bool
	Score1  int
	Score2  int
	Quipwit int // 0 = none, 1 or 2
}

// ScoreMatchup implements §4.5 rules 1-4. It depends only on the two
// answers and their vote counts.
func ScoreMatchup(answer1, answer2 string, votes1, votes2 int) MatchupResult {
	canon1 := strings.ToLower(strings.TrimSpace(answer1))
	canon2 := strings.ToLower(strings.TrimSpace(answer2))

	if canon1 == canon2 && canon1 != strings.ToLower(config.NoAnswerSentinel) {
		return MatchupResult{IsJinx: true}
	}

	score1 := votes1 * config.PointsPerVote
	score2 := votes2 * config.PointsPerVote

	result := MatchupResult{Score1: score1, Score2: score2}

	total := votes1 + votes2
	if total > 0 {
		if votes1 == total {
			result.Score1 += config.QuipwitBonus
			result.Quipwit = 1
		} else if votes2 == total {
			result.Score2 += config.QuipwitBonus
			result.Quipwit = 2
		}
	}

	return result
}

// FinaleEntry is one player's tally going into LastLash scoring.
type FinaleEntry struct {
	PlayerID string
	Votes    int
}

// FinaleResult is the per-player outcome of LastLash scoring.
type FinaleResult struct {
	PlayerID string
	Points   int
	IsWinner bool
}

// ScoreLastLash implements the single-vote plurality-with-winner-bonus
// variant (§4.5 finale rule, first option; see DESIGN.md for why this
// build commits to that variant over the ranked 300/200/100 alternative).
// Every author tied at the maximum vote count wins, provided that maximum
// is greater than zero.
func ScoreLastLash(entries []FinaleEntry) []FinaleResult {
	results := make([]FinaleResult, len(entries))

	maxVotes := 0
	for _, e := range entries {
		if e.Votes > maxVotes {
			maxVotes = e.Votes
		}
	}

	for i, e := range entries {
		points := e.Votes * config.PointsPerVote
		isWinner := maxVotes > 0 && e.Votes == maxVotes
		if isWinner {
			points += config.LastLashFirst
		}
		results[i] = FinaleResult{PlayerID: e.PlayerID, Points: points, IsWinner: isWinner}
	}

	return results
}

// Winners returns every player whose score equals the maximum score. With
// no players, it returns an empty slice.
func Winners(order []string, scores map[string]int) []string {
	if len(order) == 0 {
		return nil
	}

	max := scores[order[0]]
	for _, id := range order[1:] {
		if scores[id] > max {
			max = scores[id]
		}
	}

	var winners []string
	for _, id := range order {
		if scores[id] == max {
			winners = append(winners, id)
		}
	}
	return winners
}

// Entry is one row of the scoreboard.
type Entry struct {
	PlayerID string
	Score    int
}

// Scoreboard sorts players descending by score; ties keep registry
// (join) order, since sort.SliceStable preserves relative order among
// equal keys.
func Scoreboard(order []string, scores map[string]int) []Entry {
	entries := make([]Entry, len(order))
	for i, id := range order {
		entries[i] = Entry{PlayerID: id, Score: scores[id]}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	return entries
}
