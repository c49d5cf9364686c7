package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func checkersSession(b Board) *Session {
	return &Session{Ruleset: Checkers, Mode: ModeLocal, Difficulty: Easy, Board: b, Turn: White, State: StatePlaying}
}

func TestCheckersOpeningMoves(t *testing.T) {
	b := NewBoard(Checkers)
	if got := len(AllLegalMoves(&b, White)); got != 7 {
		t.Fatalf("white opening moves = %d, want 7", got)
	}
	if got := len(AllLegalMoves(&b, Black)); got != 7 {
		t.Fatalf("black opening moves = %d, want 7", got)
	}
	if got := LegalMoves(&b, Sq(6, 1), White); len(got) != 0 {
		t.Fatalf("back-row man should be boxed in, got %v", destinations(got))
	}
}

func TestMenMoveForwardOnlyKingsBothWays(t *testing.T) {
	b := boardFrom(t, Checkers,
		"........",
		"........",
		"........",
		"..b.....",
		"........",
		"......W.",
		"........",
		"........",
	)
	if diff := cmp.Diff([]string{"b4", "d4"}, destinations(LegalMoves(&b, sq(t, "c5"), Black))); diff != "" {
		t.Fatalf("black man (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"f2", "f4", "h2", "h4"}, destinations(LegalMoves(&b, sq(t, "g3"), White))); diff != "" {
		t.Fatalf("white king (-want +got):\n%s", diff)
	}
}

func TestMandatoryCapture(t *testing.T) {
	b := boardFrom(t, Checkers,
		"........",
		"........",
		"........",
		"........",
		".....b..",
		"w...w...",
		"........",
		"........",
	)
	if got := LegalMoves(&b, sq(t, "a3"), White); len(got) != 0 {
		t.Fatalf("a3 must wait while a capture exists, got %v", destinations(got))
	}
	moves := LegalMoves(&b, sq(t, "e3"), White)
	if len(moves) != 1 || moves[0].To != sq(t, "g5") || !moves[0].IsCapture() {
		t.Fatalf("e3 should only jump to g5, got %+v", moves)
	}
	if got := len(CapturesAvailable(&b, White)); got != 1 {
		t.Fatalf("CapturesAvailable = %d, want 1", got)
	}

	s := checkersSession(b)
	res := s.ApplyMove(sq(t, "a3"), sq(t, "b4"))
	if res.Valid || res.Message != MsgMustCapture {
		t.Fatalf("want rejection %q, got %+v", MsgMustCapture, res)
	}
}

func TestMultiJumpKeepsTurn(t *testing.T) {
	b := boardFrom(t, Checkers,
		".......b",
		"........",
		"........",
		"....b...",
		"........",
		"..b.....",
		".w......",
		"......w.",
	)
	s := checkersSession(b)

	res := s.ApplyMove(sq(t, "b2"), sq(t, "d4"))
	if !res.Valid {
		t.Fatalf("first jump rejected: %s", res.Message)
	}
	if !res.ChainContinues || s.Turn != White {
		t.Fatalf("chain should continue with white to move, got continues=%v turn=%s", res.ChainContinues, s.Turn)
	}
	if res.Notation != "b2×d4" {
		t.Fatalf("notation = %q, want b2×d4", res.Notation)
	}
	if !s.Board.At(sq(t, "c3")).IsEmpty() {
		t.Fatalf("jumped man on c3 not removed")
	}

	other := s.ApplyMove(sq(t, "g1"), sq(t, "h2"))
	if other.Valid || other.Message != MsgChainJump {
		t.Fatalf("only the jumping piece may move, got %+v", other)
	}
	if got := s.AllLegalMoves(); len(got) != 1 || got[0].From != sq(t, "d4") {
		t.Fatalf("AllLegalMoves during chain = %+v", got)
	}

	res = s.ApplyMove(sq(t, "d4"), sq(t, "f6"))
	if !res.Valid || res.ChainContinues {
		t.Fatalf("second jump should end the chain, got %+v", res)
	}
	if s.Turn != Black || s.Chain != nil {
		t.Fatalf("turn should pass to black, got turn=%s chain=%v", s.Turn, s.Chain)
	}
	if diff := cmp.Diff([]string{"b2×d4", "d4×f6"}, s.History); diff != "" {
		t.Fatalf("history (-want +got):\n%s", diff)
	}
}

func TestCrowningOnFarRow(t *testing.T) {
	b := boardFrom(t, Checkers,
		"........",
		"..w.....",
		"........",
		"......b.",
		"........",
		"........",
		"........",
		"........",
	)
	s := checkersSession(b)
	res := s.ApplyMove(sq(t, "c7"), sq(t, "b8"))
	if !res.Valid {
		t.Fatalf("crowning move rejected: %s", res.Message)
	}
	if res.Notation != "c7-b8♔" {
		t.Fatalf("notation = %q, want c7-b8♔", res.Notation)
	}
	if got := s.Board.At(sq(t, "b8")); got != (Piece{Side: White, Kind: CrownedKing}) {
		t.Fatalf("b8 = %+v, want white king", got)
	}
	if !res.Move.Promotion {
		t.Fatalf("move should carry the promotion flag")
	}
	// crowned piece now reaches backwards
	if diff := cmp.Diff([]string{"a7", "c7"}, destinations(LegalMoves(&s.Board, sq(t, "b8"), White))); diff != "" {
		t.Fatalf("crowned moves (-want +got):\n%s", diff)
	}
}

func TestContinuationCheckedBeforeCrowning(t *testing.T) {
	// a black man landing on the last row would have a backward jump as a
	// king, but the follow-up is judged on the uncrowned man
	b := boardFrom(t, Checkers,
		"........",
		"........",
		"........",
		"........",
		"........",
		"..b.....",
		"...w.w..",
		"........",
	)
	ex := Execute(&b, sq(t, "c3"), sq(t, "e1"))
	if !ex.Jumped || !ex.Promoted {
		t.Fatalf("expected jump and crown, got %+v", ex)
	}
	if ex.ChainContinues {
		t.Fatalf("crowning jump must not continue the chain")
	}
}
