package game

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEasyOpponentIsUniform(t *testing.T) {
	b := boardFrom(t, Chess,
		".......k",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"K.......",
	)
	rng := rand.New(rand.NewSource(1))
	counts := map[Square]int{}
	const draws = 3000
	for i := 0; i < draws; i++ {
		m, ok := ComputeOpponentMove(&b, White, Easy, rng)
		if !ok {
			t.Fatalf("king should have moves")
		}
		counts[m.To]++
	}
	if len(counts) != 3 {
		t.Fatalf("want 3 distinct destinations, got %v", counts)
	}
	for to, n := range counts {
		if n < draws/3-200 || n > draws/3+200 {
			t.Fatalf("destination %s drawn %d times out of %d", to, n, draws)
		}
	}
}

func TestMediumOpponentPrefersCaptures(t *testing.T) {
	b := boardFrom(t, Chess,
		".......k",
		"........",
		"........",
		"...p....",
		"........",
		"........",
		"........",
		"K..R....",
	)
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		m, ok := ComputeOpponentMove(&b, White, Medium, rng)
		if !ok || !m.IsCapture() || m.To != sq(t, "d5") {
			t.Fatalf("draw %d: want Rxd5, got %+v", i, m)
		}
	}
}

func TestMediumOpponentFallsBackToAnyMove(t *testing.T) {
	b := NewBoard(Chess)
	m, ok := ComputeOpponentMove(&b, White, Medium, rand.New(rand.NewSource(3)))
	if !ok {
		t.Fatalf("start position has moves")
	}
	if _, legal := containsMove(LegalMoves(&b, m.From, White), m.To); !legal {
		t.Fatalf("picked illegal move %+v", m)
	}
}

func TestHardOpponentTakesBiggestMaterialAndRestoresBoard(t *testing.T) {
	b := boardFrom(t, Chess,
		".......k",
		"........",
		"...q....",
		"........",
		"p.......",
		"........",
		"........",
		"...Q...K",
	)
	before := b
	m, ok := ComputeOpponentMove(&b, White, Hard, rand.New(rand.NewSource(4)))
	if !ok {
		t.Fatalf("white has moves")
	}
	if m.From != sq(t, "d1") || m.To != sq(t, "d6") {
		t.Fatalf("want Qxd6, got %s-%s", m.From, m.To)
	}
	if diff := cmp.Diff(before, b); diff != "" {
		t.Fatalf("board changed by evaluation (-want +got):\n%s", diff)
	}
}

func TestHardOpponentCountsCheckersJumps(t *testing.T) {
	b := boardFrom(t, Checkers,
		"........",
		"........",
		"........",
		"........",
		".b...B..",
		"w...w...",
		"........",
		"........",
	)
	before := b
	m, ok := ComputeOpponentMove(&b, White, Hard, nil)
	if !ok {
		t.Fatalf("white has moves")
	}
	// a3×c5 is generated first but only wins a man
	if m.From != sq(t, "e3") || m.To != sq(t, "g5") {
		t.Fatalf("want e3×g5, got %s-%s", m.From, m.To)
	}
	if diff := cmp.Diff(before, b); diff != "" {
		t.Fatalf("board changed by evaluation (-want +got):\n%s", diff)
	}
}

func TestOpponentWithoutMoves(t *testing.T) {
	b := boardFrom(t, Chess,
		"k.......",
		"........",
		".Q......",
		"........",
		"........",
		"........",
		"........",
		".......K",
	)
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		if _, ok := ComputeOpponentMove(&b, Black, d, rand.New(rand.NewSource(5))); ok {
			t.Fatalf("%s: stalemated side should have no move", d)
		}
	}
}

func TestMaterial(t *testing.T) {
	b := NewBoard(Chess)
	if got := Material(&b, White); got != 0 {
		t.Fatalf("start material = %d", got)
	}
	b.Set(sq(t, "d8"), Empty)
	if got := Material(&b, White); got != 9 {
		t.Fatalf("white material without black queen = %d, want 9", got)
	}
	if got := Material(&b, Black); got != -9 {
		t.Fatalf("black material without black queen = %d, want -9", got)
	}
}

func TestParseDifficulty(t *testing.T) {
	cases := map[string]Difficulty{
		"1":      Easy,
		"easy":   Easy,
		" Hard ": Hard,
		"2":      Medium,
		"3":      Hard,
	}
	for raw, want := range cases {
		got, err := ParseDifficulty(raw)
		if err != nil || got != want {
			t.Fatalf("ParseDifficulty(%q) = %v, %v; want %v", raw, got, err, want)
		}
	}
	if _, err := ParseDifficulty("4"); err == nil {
		t.Fatalf("difficulty 4 should be rejected")
	}
}
