package game

// IsSquareAttacked reports whether any chess piece not belonging to side
// threatens sq on the current board.
func IsSquareAttacked(b *Board, sq Square, side Side) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b[r][c]
			if !isEnemy(p, side) {
				continue
			}
			if attacks(b, Square{Row: r, Col: c}, p, sq) {
				return true
			}
		}
	}
	return false
}

// IsInCheck finds side's king and tests it. A board without that king is never in check.
func IsInCheck(b *Board, side Side) bool {
	king, ok := findKing(b, side)
	if !ok {
		return false
	}
	return IsSquareAttacked(b, king, side)
}

func findKing(b *Board, side Side) (Square, bool) {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if p := b[r][c]; p.Kind == King && p.Side == side {
				return Square{Row: r, Col: c}, true
			}
		}
	}
	return Square{}, false
}

// attacks evaluates the per-kind attack predicate of p standing on from.
func attacks(b *Board, from Square, p Piece, target Square) bool {
	if p.Ruleset() != Chess {
		return false
	}
	dr, dc := target.Row-from.Row, target.Col-from.Col
	if p.Kind == Pawn {
		return dr == forward(p.Side) && abs(dc) == 1
	}
	r := rules[p.Kind]
	// Sliders and the king count their own square as attacked.
	if dr == 0 && dc == 0 {
		return r.sliding || p.Kind == King
	}
	for _, d := range r.dirs {
		if !r.sliding {
			if dr == d.dr && dc == d.dc {
				return true
			}
			continue
		}
		if sign(dr) == d.dr && sign(dc) == d.dc && (dr == 0 || dc == 0 || abs(dr) == abs(dc)) {
			return pathClear(b, from, target)
		}
	}
	return false
}

// pathClear reports whether every square strictly between from and to is
// empty. from and to must share a rank, file or diagonal.
func pathClear(b *Board, from, to Square) bool {
	d := offset{dr: sign(to.Row - from.Row), dc: sign(to.Col - from.Col)}
	for sq := from.add(d); sq != to; sq = sq.add(d) {
		if !b.At(sq).IsEmpty() {
			return false
		}
	}
	return true
}
