package game

func checkersSimpleMoves(b *Board, from Square) []Move {
	p := b.At(from)
	var out []Move
	for _, d := range directions(p).dirs {
		to := from.add(d)
		if to.Valid() && b.At(to).IsEmpty() {
			out = append(out, checkersMove(from, to, nil, p))
		}
	}
	return out
}

// checkersCaptures returns the jumps available to the piece on from.
func checkersCaptures(b *Board, from Square) []Move {
	p := b.At(from)
	var out []Move
	for _, d := range directions(p).dirs {
		over := from.add(d)
		landing := over.add(d)
		if !landing.Valid() {
			continue
		}
		if isEnemy(b.At(over), p.Side) && b.At(landing).IsEmpty() {
			captured := over
			out = append(out, checkersMove(from, landing, &captured, p))
		}
	}
	return out
}

func checkersMove(from, to Square, captured *Square, p Piece) Move {
	return Move{
		From:      from,
		To:        to,
		Captured:  captured,
		Promotion: p.Kind == Man && to.Row == farRow(p.Side),
	}
}

// CapturesAvailable lists every jump open to side.
func CapturesAvailable(b *Board, side Side) []Move {
	var out []Move
	b.each(func(sq Square, p Piece) {
		if IsOwn(p, side) && p.Ruleset() == Checkers {
			out = append(out, checkersCaptures(b, sq)...)
		}
	})
	return out
}

func sideCanCapture(b *Board, side Side) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			sq := Square{Row: r, Col: c}
			if p := b.At(sq); IsOwn(p, side) && p.Ruleset() == Checkers && len(checkersCaptures(b, sq)) > 0 {
				return true
			}
		}
	}
	return false
}

// checkersLegalMoves applies mandatory capture: while any piece of the side
// can jump, pieces without a jump have no moves.
func checkersLegalMoves(b *Board, from Square) []Move {
	if sideCanCapture(b, b.At(from).Side) {
		return checkersCaptures(b, from)
	}
	return checkersSimpleMoves(b, from)
}

// executeCheckers relocates the piece, removes a jumped piece and crowns a
// man on the far row. Legality is not checked.
func executeCheckers(b *Board, from, to Square) Executed {
	p := b.At(from)
	ex := Executed{Piece: p}
	b.relocate(from, to)
	if abs(to.Row-from.Row) == 2 {
		over := Square{Row: (from.Row + to.Row) / 2, Col: (from.Col + to.Col) / 2}
		ex.Captured = b.At(over)
		ex.CapturedAt = &over
		ex.Jumped = true
		b.Set(over, Empty)
		// Checked with the uncrowned piece.
		ex.ChainContinues = len(checkersCaptures(b, to)) > 0
	}
	if p.Kind == Man && to.Row == farRow(p.Side) {
		b.Set(to, Piece{Side: p.Side, Kind: CrownedKing})
		ex.Promoted = true
	}
	return ex
}
