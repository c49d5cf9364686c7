package game

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func destinations(moves []Move) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.To.String())
	}
	sort.Strings(out)
	return out
}

func TestStartingPositionHasTwentyMoves(t *testing.T) {
	b := NewBoard(Chess)
	if got := len(AllLegalMoves(&b, White)); got != 20 {
		t.Fatalf("white start moves = %d, want 20", got)
	}
	if got := len(AllLegalMoves(&b, Black)); got != 20 {
		t.Fatalf("black start moves = %d, want 20", got)
	}
}

func TestPawnMoves(t *testing.T) {
	b := boardFrom(t, Chess,
		"....k...",
		"........",
		"........",
		"........",
		"........",
		"..n.....",
		".P.P....",
		"....K...",
	)
	if diff := cmp.Diff([]string{"b3", "b4", "c3"}, destinations(LegalMoves(&b, sq(t, "b2"), White))); diff != "" {
		t.Fatalf("b2 pawn (-want +got):\n%s", diff)
	}
	// c3 is capturable from d2 as well
	if diff := cmp.Diff([]string{"c3", "d3", "d4"}, destinations(LegalMoves(&b, sq(t, "d2"), White))); diff != "" {
		t.Fatalf("d2 pawn (-want +got):\n%s", diff)
	}

	blocked := boardFrom(t, Chess,
		"....k...",
		"........",
		"........",
		"........",
		"........",
		".n......",
		".P......",
		"....K...",
	)
	if got := LegalMoves(&blocked, sq(t, "b2"), White); len(got) != 0 {
		t.Fatalf("blocked pawn should have no moves, got %v", destinations(got))
	}
}

func TestPawnDoubleStepNeedsBothSquaresEmpty(t *testing.T) {
	b := boardFrom(t, Chess,
		"....k...",
		"........",
		"........",
		"........",
		".n......",
		"........",
		".P......",
		"....K...",
	)
	if diff := cmp.Diff([]string{"b3"}, destinations(LegalMoves(&b, sq(t, "b2"), White))); diff != "" {
		t.Fatalf("b2 pawn (-want +got):\n%s", diff)
	}
}

func TestSlidingRaysStopAtFirstPiece(t *testing.T) {
	b := boardFrom(t, Chess,
		"....k...",
		"........",
		"........",
		"........",
		"...p....",
		"........",
		"...R.P..",
		"....K...",
	)
	want := []string{"a2", "b2", "c2", "d1", "d3", "d4", "e2"}
	if diff := cmp.Diff(want, destinations(LegalMoves(&b, sq(t, "d2"), White))); diff != "" {
		t.Fatalf("rook d2 (-want +got):\n%s", diff)
	}
}

func TestKingAvoidsAttackedSquares(t *testing.T) {
	b := boardFrom(t, Chess,
		"....k...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"r.......",
		"....K...",
	)
	// rook on a2 covers the whole second rank
	if diff := cmp.Diff([]string{"d1", "f1"}, destinations(LegalMoves(&b, sq(t, "e1"), White))); diff != "" {
		t.Fatalf("king e1 (-want +got):\n%s", diff)
	}
}

func TestKingCannotCaptureAdjacentQueen(t *testing.T) {
	b := boardFrom(t, Chess,
		"k.......",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....q...",
		"....K...",
	)
	// the queen covers e2 itself, so taking it is not a king move
	if !IsSquareAttacked(&b, sq(t, "e2"), White) {
		t.Fatalf("queen should cover its own square")
	}
	if got := LegalMoves(&b, sq(t, "e1"), White); len(got) != 0 {
		t.Fatalf("king e1 should have no moves, got %v", destinations(got))
	}
	state, winner := Classify(&b, Chess, White)
	if state != StateCheckmate || winner != Black {
		t.Fatalf("Classify = %s %s, want checkmate for black", state, winner)
	}
}

func TestPinnedPieceCannotExposeKing(t *testing.T) {
	b := boardFrom(t, Chess,
		"....k...",
		"........",
		"........",
		"........",
		"....r...",
		"........",
		"....N...",
		"....K...",
	)
	if got := LegalMoves(&b, sq(t, "e2"), White); len(got) != 0 {
		t.Fatalf("pinned knight should not move, got %v", destinations(got))
	}
}

func TestCastlingIgnoresHistory(t *testing.T) {
	b := boardFrom(t, Chess,
		"r...k..r",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"R...K..R",
	)
	moves := destinations(LegalMoves(&b, sq(t, "e1"), White))
	want := []string{"c1", "d1", "d2", "e2", "f1", "f2", "g1"}
	if diff := cmp.Diff(want, moves); diff != "" {
		t.Fatalf("castling moves (-want +got):\n%s", diff)
	}

	// walk the king away and back: both castles stay available
	s := &Session{Ruleset: Chess, Mode: ModeLocal, Difficulty: Easy, Board: b, Turn: White, State: StatePlaying}
	for _, step := range [][2]string{{"e1", "e2"}, {"e8", "e7"}, {"e2", "e1"}, {"e7", "e8"}} {
		if res := s.ApplyMove(sq(t, step[0]), sq(t, step[1])); !res.Valid {
			t.Fatalf("%s-%s rejected: %s", step[0], step[1], res.Message)
		}
	}
	res := s.ApplyMove(sq(t, "e1"), sq(t, "g1"))
	if !res.Valid {
		t.Fatalf("castling after king moves rejected: %s", res.Message)
	}
	if got := s.Board.At(sq(t, "f1")); got != (Piece{Side: White, Kind: Rook}) {
		t.Fatalf("rook not relocated to f1, got %+v", got)
	}
	if !s.Board.At(sq(t, "h1")).IsEmpty() {
		t.Fatalf("h1 should be empty after castling")
	}
	if res.Notation != "Kg1" {
		t.Fatalf("notation = %q, want Kg1", res.Notation)
	}
}

func TestCastlingBlockedByAttackOrCheck(t *testing.T) {
	throughAttack := boardFrom(t, Chess,
		"....k...",
		"........",
		"........",
		"........",
		"........",
		".....r..",
		"........",
		"R...K..R",
	)
	// f1 is attacked: no king-side castle, queen-side still fine
	got := destinations(LegalMoves(&throughAttack, sq(t, "e1"), White))
	for _, d := range got {
		if d == "g1" {
			t.Fatalf("castled through attacked f1: %v", got)
		}
	}
	if !contains(got, "c1") {
		t.Fatalf("queen-side castle missing: %v", got)
	}

	inCheck := boardFrom(t, Chess,
		"....k...",
		"........",
		"........",
		"....r...",
		"........",
		"........",
		"........",
		"R...K..R",
	)
	got = destinations(LegalMoves(&inCheck, sq(t, "e1"), White))
	if contains(got, "g1") || contains(got, "c1") {
		t.Fatalf("castled out of check: %v", got)
	}

	noRooks := boardFrom(t, Chess,
		"....k...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"n...K..N",
	)
	got = destinations(LegalMoves(&noRooks, sq(t, "e1"), White))
	if contains(got, "g1") || contains(got, "c1") {
		t.Fatalf("castled without an own rook: %v", got)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func TestPromotionToQueen(t *testing.T) {
	b := boardFrom(t, Chess,
		"......k.",
		"P.......",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....K...",
	)
	s := &Session{Ruleset: Chess, Board: b, Turn: White, State: StatePlaying, Difficulty: Easy}
	res := s.ApplyMove(sq(t, "a7"), sq(t, "a8"))
	if !res.Valid {
		t.Fatalf("promotion rejected: %s", res.Message)
	}
	if got := s.Board.At(sq(t, "a8")); got != (Piece{Side: White, Kind: Queen}) {
		t.Fatalf("a8 = %+v, want white queen", got)
	}
	if res.Notation != "a8=Q+" {
		t.Fatalf("notation = %q, want a8=Q+", res.Notation)
	}
	if !res.Move.Promotion {
		t.Fatalf("move should carry the promotion flag")
	}
}

func TestEnPassantSideEffectFiresOnAnyDiagonalIntoEmpty(t *testing.T) {
	b := boardFrom(t, Chess,
		"....k...",
		"........",
		"........",
		"...Pn...",
		"........",
		"........",
		"........",
		"....K...",
	)
	// not generated as a legal pawn move
	if contains(destinations(LegalMoves(&b, sq(t, "d5"), White)), "e6") {
		t.Fatalf("diagonal into empty square must not be generated")
	}
	// but executing it removes whatever stands beside the pawn, knight included
	ex := Execute(&b, sq(t, "d5"), sq(t, "e6"))
	if !ex.EnPassant {
		t.Fatalf("expected en-passant side effect")
	}
	if !b.At(sq(t, "e5")).IsEmpty() {
		t.Fatalf("e5 should have been cleared")
	}
	if ex.Captured != (Piece{Side: Black, Kind: Knight}) {
		t.Fatalf("captured = %+v, want black knight", ex.Captured)
	}
}

func TestSimulateAndRestoreRoundTrip(t *testing.T) {
	b := NewBoard(Chess)
	before := b
	for _, m := range AllLegalMoves(&b, White) {
		func() {
			undo := b.relocate(m.From, m.To)
			defer undo()
		}()
		if diff := cmp.Diff(before, b); diff != "" {
			t.Fatalf("move %s-%s not restored (-want +got):\n%s", m.From, m.To, diff)
		}
	}
}

// Random playouts: no legal move may leave the mover's king attacked.
func TestLegalMovesNeverExposeKing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for game := 0; game < 20; game++ {
		s := NewGame(Chess, ModeLocal, Easy)
		for ply := 0; ply < 80 && !s.State.Terminal(); ply++ {
			moves := s.AllLegalMoves()
			for _, m := range moves {
				probe := s.Board
				Execute(&probe, m.From, m.To)
				if IsInCheck(&probe, s.Turn) {
					t.Fatalf("game %d ply %d: %s-%s leaves %s in check", game, ply, m.From, m.To, s.Turn)
				}
			}
			m := moves[rng.Intn(len(moves))]
			if res := s.ApplyMove(m.From, m.To); !res.Valid {
				t.Fatalf("generated move %s-%s rejected: %s", m.From, m.To, res.Message)
			}
		}
	}
}
