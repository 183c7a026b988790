package scoring

import "testing"

// S2. Basic scoring: a unanimous 2-0 vote is a QuipWit.
func TestScoreMatchup_QuipWit(t *testing.T) {
	got := ScoreMatchup("a", "b", 2, 0)

	if got.IsJinx {
		t.Fatalf("expected no jinx")
	}
	if got.Score1 != 2*100+100 {
		t.Fatalf("player1 score = %d, want %d", got.Score1, 2*100+100)
	}
	if got.Score2 != 0 {
		t.Fatalf("player2 score = %d, want 0", got.Score2)
	}
	if got.Quipwit != 1 {
		t.Fatalf("quipwit = %d, want 1", got.Quipwit)
	}
}

// S3. Jinx: case/whitespace-insensitive equal answers zero both scores.
func TestScoreMatchup_Jinx(t *testing.T) {
	got := ScoreMatchup("Hello World", "  hello world ", 3, 1)

	if !got.IsJinx {
		t.Fatalf("expected jinx")
	}
	if got.Score1 != 0 || got.Score2 != 0 {
		t.Fatalf("jinx scores = (%d, %d), want (0, 0)", got.Score1, got.Score2)
	}
	if got.Quipwit != 0 {
		t.Fatalf("jinx must not also flag quipwit")
	}
}

// S4. No-answer jinx exemption: both sides "[No answer]" is not a jinx.
func TestScoreMatchup_NoAnswerExemption(t *testing.T) {
	got := ScoreMatchup("[No answer]", "[No answer]", 2, 0)

	if got.IsJinx {
		t.Fatalf("double no-answer must not be treated as jinx")
	}
	if got.Score1 != 2*100+100 {
		t.Fatalf("player1 score = %d, want %d", got.Score1, 2*100+100)
	}
	if got.Score2 != 0 {
		t.Fatalf("player2 score = %d, want 0", got.Score2)
	}
}

func TestScoreMatchup_NoVotesNoQuipwit(t *testing.T) {
	got := ScoreMatchup("a", "b", 0, 0)

	if got.Score1 != 0 || got.Score2 != 0 {
		t.Fatalf("zero votes must yield zero scores, got (%d, %d)", got.Score1, got.Score2)
	}
	if got.Quipwit != 0 {
		t.Fatalf("quipwit must not fire when total votes is zero")
	}
}

func TestScoreMatchup_SplitVotesNoQuipwit(t *testing.T) {
	got := ScoreMatchup("a", "b", 1, 1)

	if got.Quipwit != 0 {
		t.Fatalf("a split vote is not unanimous, must not flag quipwit")
	}
	if got.Score1 != 100 || got.Score2 != 100 {
		t.Fatalf("split-vote scores = (%d, %d), want (100, 100)", got.Score1, got.Score2)
	}
}

// S6. Finale unanimous: three voters all pick the same answer.
func TestScoreLastLash_Unanimous(t *testing.T) {
	entries := []FinaleEntry{
		{PlayerID: "A", Votes: 3},
		{PlayerID: "B", Votes: 0},
		{PlayerID: "C", Votes: 0},
		{PlayerID: "D", Votes: 0},
	}

	results := ScoreLastLash(entries)

	byID := map[string]FinaleResult{}
	for _, r := range results {
		byID[r.PlayerID] = r
	}

	if byID["A"].Points != 3*100+300 {
		t.Fatalf("winner points = %d, want %d", byID["A"].Points, 3*100+300)
	}
	if !byID["A"].IsWinner {
		t.Fatalf("expected A to be flagged as winner")
	}
	for _, id := range []string{"B", "C", "D"} {
		if byID[id].Points != 0 || byID[id].IsWinner {
			t.Fatalf("%s should have 0 points and not be a winner, got %+v", id, byID[id])
		}
	}
}

func TestScoreLastLash_TieForFirst(t *testing.T) {
	entries := []FinaleEntry{
		{PlayerID: "A", Votes: 2},
		{PlayerID: "B", Votes: 2},
		{PlayerID: "C", Votes: 0},
	}

	results := ScoreLastLash(entries)

	winners := 0
	for _, r := range results {
		if r.IsWinner {
			winners++
			if r.Points != 2*100+300 {
				t.Fatalf("tied winner points = %d, want %d", r.Points, 2*100+300)
			}
		}
	}
	if winners != 2 {
		t.Fatalf("expected 2 tied winners, got %d", winners)
	}
}

func TestScoreLastLash_NoVotesNoWinner(t *testing.T) {
	entries := []FinaleEntry{{PlayerID: "A", Votes: 0}, {PlayerID: "B", Votes: 0}}

	results := ScoreLastLash(entries)

	for _, r := range results {
		if r.IsWinner {
			t.Fatalf("no votes cast means no winner, got winner=%s", r.PlayerID)
		}
	}
}

// S7. Exact tie for overall winner.
func TestWinners_Tie(t *testing.T) {
	order := []string{"P0", "P1", "P2", "P3"}
	scores := map[string]int{"P0": 500, "P1": 500, "P2": 300, "P3": 200}

	winners := Winners(order, scores)

	if len(winners) != 2 {
		t.Fatalf("winners = %v, want 2 entries", winners)
	}
	want := map[string]bool{"P0": true, "P1": true}
	for _, w := range winners {
		if !want[w] {
			t.Fatalf("unexpected winner %s", w)
		}
	}
}

func TestWinners_Empty(t *testing.T) {
	if got := Winners(nil, map[string]int{}); got != nil {
		t.Fatalf("expected nil winners for no players, got %v", got)
	}
}

func TestScoreboard_TiesKeepRegistryOrder(t *testing.T) {
	order := []string{"P0", "P1", "P2", "P3"}
	scores := map[string]int{"P0": 500, "P1": 500, "P2": 300, "P3": 200}

	board := Scoreboard(order, scores)

	if len(board) != 4 {
		t.Fatalf("scoreboard length = %d, want 4", len(board))
	}
	if board[0].PlayerID != "P0" || board[1].PlayerID != "P1" {
		t.Fatalf("tied entries must keep join order, got %+v", board[:2])
	}
	if board[2].PlayerID != "P2" || board[3].PlayerID != "P3" {
		t.Fatalf("descending order violated: %+v", board)
	}
}
