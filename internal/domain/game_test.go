package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestScoreboardApply(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	var s Scoreboard
	s.Ruleset = "chess"
	s.Apply(ResultWhite, t0)
	s.Apply(ResultDraw, t1)
	s.Apply(ResultBlack, t1)

	want := Scoreboard{
		Ruleset:     "chess",
		GamesPlayed: 3,
		WhiteWins:   1,
		BlackWins:   1,
		Draws:       1,
		LastResult:  ResultBlack,
		LastPlayed:  t1,
		UpdatedAt:   t1,
		CreatedAt:   t0,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("scoreboard (-want +got):\n%s", diff)
	}
}
