package game

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/chess-checkers-engine/internal/domain"
)

func TestExportChessScholarsMate(t *testing.T) {
	moves := []string{"e2e4", "e7e5", "f1c4", "b8c6", "d1h5", "g8f6", "h5f7"}
	export, err := ExportChess(moves, PGNHeaders{
		Date:        time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		White:       "Player",
		Black:       "Computer",
		Result:      domain.ResultWhite,
		Termination: "Checkmate",
	})
	if err != nil {
		t.Fatalf("ExportChess: %v", err)
	}

	wantSAN := []string{"e4", "e5", "Bc4", "Nc6", "Qh5", "Nf6", "Qxf7#"}
	if diff := cmp.Diff(wantSAN, export.SAN); diff != "" {
		t.Fatalf("SAN mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(export.FEN, "r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq") {
		t.Fatalf("unexpected FEN: %s", export.FEN)
	}
	for _, want := range []string{
		`[Event "Casual Game"]`,
		`[Site "board-server"]`,
		`[Date "2024.03.09"]`,
		`[Termination "checkmate"]`,
		`[Result "1-0"]`,
		"1. e4 e5 2. Bc4 Nc6 3. Qh5 Nf6 4. Qxf7# 1-0",
	} {
		if !strings.Contains(export.PGN, want) {
			t.Errorf("PGN missing %q:\n%s", want, export.PGN)
		}
	}
}

func TestExportChessRejectsUnsupportedCastle(t *testing.T) {
	// The king walks out and back, then castles: legal for the engine, not
	// under full rules.
	moves := []string{
		"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6",
		"e1f1", "a7a6", "f1e1", "a6a5", "e1g1",
	}
	_, err := ExportChess(moves, PGNHeaders{})
	if err == nil {
		t.Fatalf("expected castling without rights to be refused")
	}
	if !strings.Contains(err.Error(), "move 11") {
		t.Fatalf("error should name the refused move: %v", err)
	}
}

func TestResultToPGN(t *testing.T) {
	cases := map[string]string{
		domain.ResultWhite: "1-0",
		domain.ResultBlack: "0-1",
		domain.ResultDraw:  "1/2-1/2",
		"":                 "*",
	}
	for in, want := range cases {
		if got := resultToPGN(in); got != want {
			t.Errorf("resultToPGN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildPGNSanitizesHeaders(t *testing.T) {
	pgn := buildPGN([]string{"e4"}, PGNHeaders{White: `Bob "the" \King`, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)})
	if !strings.Contains(pgn, `[White "Bob 'the'  King"]`) {
		t.Fatalf("header not sanitized:\n%s", pgn)
	}
	if !strings.HasSuffix(pgn, "1. e4 *") {
		t.Fatalf("unexpected movetext:\n%s", pgn)
	}
}
