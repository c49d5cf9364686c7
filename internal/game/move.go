package game

// Move is relative to the board it was generated from.
type Move struct {
	From      Square  `json:"from"`
	To        Square  `json:"to"`
	Captured  *Square `json:"captured,omitempty"`
	Promotion bool    `json:"promotion,omitempty"`
}

// IsCapture reports whether the move lands on an enemy piece (chess) or jumps one (checkers).
func (m Move) IsCapture() bool { return m.Captured != nil }

// Executed describes what executing a move did to the board.
type Executed struct {
	Piece      Piece
	Captured   Piece
	CapturedAt *Square
	Promoted   bool
	Castled    bool
	EnPassant  bool
	Jumped     bool

	// ChainContinues is set when the jumping piece can capture again from its landing square.
	ChainContinues bool
}

// LegalMoves returns the legal moves of the piece on from for side. The ruleset
// is taken from the piece. An empty square or a piece of the other side yields nil.
func LegalMoves(b *Board, from Square, side Side) []Move {
	p := b.At(from)
	if !IsOwn(p, side) {
		return nil
	}
	switch p.Ruleset() {
	case Chess:
		return chessLegalMoves(b, from)
	case Checkers:
		return checkersLegalMoves(b, from)
	default:
		return nil
	}
}

// AllLegalMoves enumerates legal moves for every piece of side in scan order.
func AllLegalMoves(b *Board, side Side) []Move {
	var out []Move
	b.each(func(sq Square, p Piece) {
		if IsOwn(p, side) {
			out = append(out, LegalMoves(b, sq, side)...)
		}
	})
	return out
}

func hasLegalMove(b *Board, side Side) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			sq := Square{Row: r, Col: c}
			if IsOwn(b.At(sq), side) && len(LegalMoves(b, sq, side)) > 0 {
				return true
			}
		}
	}
	return false
}

// Execute performs from→to with the ruleset side effects of the moving piece.
// It does not check legality.
func Execute(b *Board, from, to Square) Executed {
	switch b.At(from).Ruleset() {
	case Checkers:
		return executeCheckers(b, from, to)
	default:
		return executeChess(b, from, to)
	}
}

func containsMove(moves []Move, to Square) (Move, bool) {
	for _, m := range moves {
		if m.To == to {
			return m, true
		}
	}
	return Move{}, false
}
