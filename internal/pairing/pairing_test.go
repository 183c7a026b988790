package pairing

import (
	"math/rand"
	"testing"
)

// S1. Minimum game: 3 players, K=2 prompts per player yields 3 pairs.
func TestAssign_MinimumGame(t *testing.T) {
	players := []string{"Alice", "Bob", "Carol"}
	rng := rand.New(rand.NewSource(1))

	pairs := Assign(players, 2, rng)

	if len(pairs) != 3 {
		t.Fatalf("len(pairs) = %d, want 3", len(pairs))
	}

	assigned := map[string]int{}
	for _, p := range pairs {
		if p.Player1 == p.Player2 {
			t.Fatalf("pair has identical players: %+v", p)
		}
		assigned[p.Player1]++
		assigned[p.Player2]++
	}

	total := 0
	for _, id := range players {
		n := assigned[id]
		if n < 2 || n > 3 {
			t.Fatalf("player %s assigned %d prompts, want 2 or 3", id, n)
		}
		total += n
	}
	if total != 2*len(pairs) {
		t.Fatalf("total assignments = %d, want %d", total, 2*len(pairs))
	}
}

func TestAssign_EveryPrompt_TwoDistinctPlayers(t *testing.T) {
	players := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	rng := rand.New(rand.NewSource(42))

	pairs := Assign(players, 2, rng)

	wantSlots := (len(players)*2 + 1) / 2
	if len(pairs) != wantSlots {
		t.Fatalf("len(pairs) = %d, want %d", len(pairs), wantSlots)
	}
	for _, p := range pairs {
		if p.Player1 == "" || p.Player2 == "" || p.Player1 == p.Player2 {
			t.Fatalf("invalid pair: %+v", p)
		}
	}
}

func TestAssign_AtMostOnePlayerGetsBonus(t *testing.T) {
	// 3 players * K=3 is odd (9), so exactly one player may land on K+1.
	players := []string{"A", "B", "C"}
	rng := rand.New(rand.NewSource(7))

	pairs := Assign(players, 3, rng)

	need := map[string]int{}
	for _, p := range pairs {
		need[p.Player1]++
		need[p.Player2]++
	}

	bonusCount := 0
	for _, id := range players {
		n := need[id]
		if n < 3 || n > 4 {
			t.Fatalf("player %s assigned %d, want 3 or 4", id, n)
		}
		if n == 4 {
			bonusCount++
		}
	}
	if bonusCount > 1 {
		t.Fatalf("more than one player received a bonus assignment: %d", bonusCount)
	}
}

func TestAssign_EvenProductNoAsymmetry(t *testing.T) {
	players := []string{"A", "B", "C", "D"}
	rng := rand.New(rand.NewSource(99))

	pairs := Assign(players, 2, rng)

	need := map[string]int{}
	for _, p := range pairs {
		need[p.Player1]++
		need[p.Player2]++
	}
	for _, id := range players {
		if need[id] != 2 {
			t.Fatalf("player %s assigned %d, want exactly 2 (even product)", id, need[id])
		}
	}
}

func TestAssign_EmptyRosterNoPanic(t *testing.T) {
	if pairs := Assign(nil, 2, rand.New(rand.NewSource(1))); pairs != nil {
		t.Fatalf("expected nil pairs for empty roster, got %v", pairs)
	}
}
