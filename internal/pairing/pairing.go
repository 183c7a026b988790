// Package pairing implements the prompt-to-player assignment algorithm
// (§4.3): given a roster and a per-player prompt budget, it assigns every
// prompt slot exactly two distinct players such that each player ends up
// with PromptsPerPlayer assignments (one player may get a bonus assignment
// when the product is odd).
package pairing

import "math/rand"

// Pair is one prompt slot's two assigned players.
type Pair struct {
	Player1 string
	Player2 string
}

// Assign runs the greedy-by-remaining-need algorithm with randomized
// tie-breaks. len(players) must be between 3 and 8; k is PromptsPerPlayer.
// It returns ceil(len(players)*k/2) pairs.
func Assign(players []string, k int, rng *rand.Rand) []Pair {
	p := len(players)
	if p == 0 || k <= 0 {
		return nil
	}

	need := make(map[string]int, p)
	for _, id := range players {
		need[id] = k
	}

	slots := (p*k + 1) / 2
	pairs := make([]Pair, 0, slots)

	for s := 0; s < slots; s++ {
		top := maxNeedTier(players, need, true)
		if len(top) == 0 {
			break
		}
		shuffle(top, rng)

		player1 := top[0]

		var player2 string
		remaining := removeFirst(players, player1)
		second := maxNeedTier(remaining, need, false)
		if len(second) == 0 {
			// Only one player has positive need left; pair them with any
			// other player, who accepts a bonus assignment.
			others := removeFirst(players, player1)
			shuffle(others, rng)
			if len(others) == 0 {
				break
			}
			player2 = others[0]
			need[player1]--
			pairs = append(pairs, Pair{Player1: player1, Player2: player2})
			continue
		}

		shuffle(second, rng)
		player2 = second[0]

		need[player1]--
		need[player2]--
		pairs = append(pairs, Pair{Player1: player1, Player2: player2})
	}

	return pairs
}

// maxNeedTier returns the subset of candidates with the maximum remaining
// need. When allowNonPositive is false, a maximum at or below zero yields
// an empty tier (used to detect "nobody but player1 still needs a slot").
// When allowNonPositive is true, the tier is returned regardless of sign,
// so the outer loop always has a player1 candidate to fall back on.
func maxNeedTier(candidates []string, need map[string]int, allowNonPositive bool) []string {
	if len(candidates) == 0 {
		return nil
	}
	max := need[candidates[0]]
	for _, id := range candidates[1:] {
		if need[id] > max {
			max = need[id]
		}
	}
	if max <= 0 && !allowNonPositive {
		return nil
	}
	tier := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if need[id] == max {
			tier = append(tier, id)
		}
	}
	return tier
}

func removeFirst(ids []string, target string) []string {
	out := make([]string, 0, len(ids))
	removed := false
	for _, id := range ids {
		if !removed && id == target {
			removed = true
			continue
		}
		out = append(out, id)
	}
	return out
}

func shuffle(ids []string, rng *rand.Rand) {
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}
