package game

type offset struct {
	dr, dc int
}

var (
	orthogonal  = []offset{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	diagonal    = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	omni        = append(append([]offset{}, orthogonal...), diagonal...)
	knightJumps = []offset{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
)

// rule describes how a kind moves: a direction set, and whether it slides
// along each direction until blocked or takes a single step.
type rule struct {
	dirs    []offset
	sliding bool
}

// Pawns and men are side-dependent and resolved by directions.
var rules = map[Kind]rule{
	Knight:      {dirs: knightJumps},
	Bishop:      {dirs: diagonal, sliding: true},
	Rook:        {dirs: orthogonal, sliding: true},
	Queen:       {dirs: omni, sliding: true},
	King:        {dirs: omni},
	CrownedKing: {dirs: diagonal},
}

func directions(p Piece) rule {
	switch p.Kind {
	case Pawn, Man:
		f := forward(p.Side)
		return rule{dirs: []offset{{f, -1}, {f, 1}}}
	default:
		return rules[p.Kind]
	}
}

// walk visits squares from origin along d, stopping at the edge, after one
// step when not sliding, or when visit returns false.
func walk(origin Square, d offset, sliding bool, visit func(sq Square) bool) {
	sq := origin.add(d)
	for sq.Valid() {
		if !visit(sq) {
			return
		}
		if !sliding {
			return
		}
		sq = sq.add(d)
	}
}

// rays collects destinations for a stepping or sliding piece: empty squares,
// and the first occupied square when it holds an enemy.
func rays(b *Board, from Square, p Piece, r rule) []Square {
	var out []Square
	for _, d := range r.dirs {
		walk(from, d, r.sliding, func(sq Square) bool {
			target := b.At(sq)
			if target.IsEmpty() {
				out = append(out, sq)
				return true
			}
			if isEnemy(target, p.Side) {
				out = append(out, sq)
			}
			return false
		})
	}
	return out
}
