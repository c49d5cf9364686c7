package game

func pawnStartRow(side Side) int {
	if side == White {
		return 6
	}
	return 1
}

// chessCandidates returns pseudo-legal moves for the piece on from. King
// steps are already screened against attacked squares.
func chessCandidates(b *Board, from Square) []Move {
	p := b.At(from)
	switch p.Kind {
	case Pawn:
		return pawnCandidates(b, from, p)
	case King:
		return kingCandidates(b, from, p)
	}
	var out []Move
	for _, to := range rays(b, from, p, rules[p.Kind]) {
		out = append(out, chessMove(b, from, to, p))
	}
	return out
}

func chessMove(b *Board, from, to Square, p Piece) Move {
	m := Move{From: from, To: to}
	if !b.At(to).IsEmpty() {
		captured := to
		m.Captured = &captured
	}
	if p.Kind == Pawn && to.Row == farRow(p.Side) {
		m.Promotion = true
	}
	return m
}

func pawnCandidates(b *Board, from Square, p Piece) []Move {
	var out []Move
	f := forward(p.Side)
	one := from.add(offset{dr: f})
	if one.Valid() && b.At(one).IsEmpty() {
		out = append(out, chessMove(b, from, one, p))
		two := one.add(offset{dr: f})
		if from.Row == pawnStartRow(p.Side) && b.At(two).IsEmpty() {
			out = append(out, chessMove(b, from, two, p))
		}
	}
	for _, d := range directions(p).dirs {
		to := from.add(d)
		if to.Valid() && isEnemy(b.At(to), p.Side) {
			out = append(out, chessMove(b, from, to, p))
		}
	}
	return out
}

func kingCandidates(b *Board, from Square, p Piece) []Move {
	var out []Move
	for _, to := range rays(b, from, p, rules[King]) {
		if !IsSquareAttacked(b, to, p.Side) {
			out = append(out, chessMove(b, from, to, p))
		}
	}
	if from.Col != 4 || IsInCheck(b, p.Side) {
		return out
	}
	row := from.Row
	rook := Piece{Side: p.Side, Kind: Rook}
	emptyCols := func(cols ...int) bool {
		for _, c := range cols {
			if !b[row][c].IsEmpty() {
				return false
			}
		}
		return true
	}
	safeCols := func(cols ...int) bool {
		for _, c := range cols {
			if IsSquareAttacked(b, Square{Row: row, Col: c}, p.Side) {
				return false
			}
		}
		return true
	}
	if emptyCols(5, 6) && b[row][7] == rook && safeCols(5, 6) {
		out = append(out, Move{From: from, To: Square{Row: row, Col: 6}})
	}
	if emptyCols(3, 2, 1) && b[row][0] == rook && safeCols(3, 2) {
		out = append(out, Move{From: from, To: Square{Row: row, Col: 2}})
	}
	return out
}

func chessLegalMoves(b *Board, from Square) []Move {
	p := b.At(from)
	candidates := chessCandidates(b, from)
	legal := candidates[:0]
	for _, m := range candidates {
		if !exposesKing(b, m, p.Side) {
			legal = append(legal, m)
		}
	}
	return legal
}

// exposesKing simulates m and reports whether side's king is attacked afterwards.
func exposesKing(b *Board, m Move, side Side) bool {
	undo := b.relocate(m.From, m.To)
	defer undo()
	return IsInCheck(b, side)
}

// executeChess relocates the piece and applies promotion, castling rook
// relocation and the diagonal-into-empty pawn removal. Legality is not checked.
func executeChess(b *Board, from, to Square) Executed {
	p := b.At(from)
	target := b.At(to)
	ex := Executed{Piece: p, Captured: target}
	if !target.IsEmpty() {
		sq := to
		ex.CapturedAt = &sq
	}
	b.relocate(from, to)

	if p.Kind == Pawn && to.Row == farRow(p.Side) {
		b.Set(to, Piece{Side: p.Side, Kind: Queen})
		ex.Promoted = true
	}
	if p.Kind == King && abs(to.Col-from.Col) == 2 {
		switch to.Col {
		case 6:
			b[from.Row][5] = b[from.Row][7]
			b[from.Row][7] = Empty
			ex.Castled = true
		case 2:
			b[from.Row][3] = b[from.Row][0]
			b[from.Row][0] = Empty
			ex.Castled = true
		}
	}
	if p.Kind == Pawn && abs(to.Col-from.Col) == 1 && target.IsEmpty() {
		behind := Square{Row: from.Row, Col: to.Col}
		ex.Captured = b.At(behind)
		if !ex.Captured.IsEmpty() {
			ex.CapturedAt = &behind
		}
		b.Set(behind, Empty)
		ex.EnPassant = true
	}
	return ex
}
