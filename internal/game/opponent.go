package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

type Difficulty int

const (
	Easy   Difficulty = 1
	Medium Difficulty = 2
	Hard   Difficulty = 3
)

func (d Difficulty) Valid() bool { return d >= Easy && d <= Hard }

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return strconv.Itoa(int(d))
	}
}

func ParseDifficulty(raw string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "easy", "beginner":
		return Easy, nil
	case "2", "medium", "intermediate":
		return Medium, nil
	case "3", "hard", "advanced":
		return Hard, nil
	default:
		return 0, fmt.Errorf("unknown difficulty: %q", raw)
	}
}

var pieceValues = map[Kind]int{
	Pawn:        1,
	Knight:      3,
	Bishop:      3,
	Rook:        5,
	Queen:       9,
	King:        100,
	Man:         1,
	CrownedKing: 3,
}

// Material is the static score of b from side's point of view: the value of
// side's pieces minus the value of the other side's.
func Material(b *Board, side Side) int {
	score := 0
	b.each(func(_ Square, p Piece) {
		switch {
		case p.IsEmpty():
		case p.Side == side:
			score += pieceValues[p.Kind]
		default:
			score -= pieceValues[p.Kind]
		}
	})
	return score
}

// ComputeOpponentMove picks a move for side from all of its legal moves. ok is
// false only when side has no legal move.
func ComputeOpponentMove(b *Board, side Side, d Difficulty, rng *rand.Rand) (Move, bool) {
	return SelectMove(b, AllLegalMoves(b, side), side, d, rng)
}

// SelectMove applies the difficulty policy to a precomputed move list:
// easy is uniform, medium prefers captures, hard maximises material one ply ahead.
func SelectMove(b *Board, moves []Move, side Side, d Difficulty, rng *rand.Rand) (Move, bool) {
	if len(moves) == 0 {
		return Move{}, false
	}
	switch d {
	case Easy:
		return moves[rng.Intn(len(moves))], true
	case Hard:
		return greedyMove(b, moves, side), true
	default:
		var captures []Move
		for _, m := range moves {
			if m.IsCapture() {
				captures = append(captures, m)
			}
		}
		if len(captures) > 0 {
			return captures[rng.Intn(len(captures))], true
		}
		return moves[rng.Intn(len(moves))], true
	}
}

// greedyMove scores the position after each move and keeps the first best.
// It looks one ply ahead only; the reply is never considered.
func greedyMove(b *Board, moves []Move, side Side) Move {
	best := moves[0]
	bestScore := 0
	for i, m := range moves {
		score := scoreAfter(b, m, side)
		if i == 0 || score > bestScore {
			best, bestScore = m, score
		}
	}
	return best
}

func scoreAfter(b *Board, m Move, side Side) int {
	restore := b.snapshot()
	defer restore()
	Execute(b, m.From, m.To)
	return Material(b, side)
}
