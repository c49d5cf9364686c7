package game

import (
	"fmt"
	"strings"
)

type Side uint8

const (
	NoSide Side = iota
	White
	Black
)

func (s Side) Opponent() Side {
	switch s {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoSide
	}
}

func (s Side) String() string {
	switch s {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return ""
	}
}

func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return NoSide, fmt.Errorf("unknown side: %q", raw)
	}
}

type Ruleset uint8

const (
	NoRuleset Ruleset = iota
	Chess
	Checkers
)

func (r Ruleset) String() string {
	switch r {
	case Chess:
		return "chess"
	case Checkers:
		return "checkers"
	default:
		return ""
	}
}

func ParseRuleset(raw string) (Ruleset, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "chess":
		return Chess, nil
	case "checkers", "draughts":
		return Checkers, nil
	default:
		return NoRuleset, fmt.Errorf("unknown ruleset: %q", raw)
	}
}

// Kind values are unique across rulesets, so a piece always knows which game it belongs to.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
	Man
	CrownedKing
)

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	case Man:
		return "man"
	case CrownedKing:
		return "crowned king"
	default:
		return ""
	}
}

type Piece struct {
	Side Side
	Kind Kind
}

var Empty Piece

func (p Piece) IsEmpty() bool { return p.Kind == NoKind }

func (p Piece) Ruleset() Ruleset {
	switch p.Kind {
	case Pawn, Knight, Bishop, Rook, Queen, King:
		return Chess
	case Man, CrownedKing:
		return Checkers
	default:
		return NoRuleset
	}
}

// IsOwn reports whether p is a piece belonging to side.
func IsOwn(p Piece, side Side) bool {
	return !p.IsEmpty() && p.Side == side
}

func isEnemy(p Piece, side Side) bool {
	return !p.IsEmpty() && p.Side != side
}

type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func Sq(row, col int) Square { return Square{Row: row, Col: col} }

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) add(d offset) Square {
	return Square{Row: s.Row + d.dr, Col: s.Col + d.dc}
}

// String renders the square in algebraic form: file a-h from col, rank 8-row.
func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return string(rune('a'+s.Col)) + string(rune('0'+8-s.Row))
}

func ParseSquare(raw string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if len(v) != 2 {
		return Square{}, fmt.Errorf("invalid square: %q", raw)
	}
	sq := Square{Row: 8 - int(v[1]-'0'), Col: int(v[0] - 'a')}
	if v[0] < 'a' || v[0] > 'h' || v[1] < '1' || v[1] > '8' || !sq.Valid() {
		return Square{}, fmt.Errorf("invalid square: %q", raw)
	}
	return sq, nil
}

// Board is row-major; row 0 is Black's home rank.
type Board [8][8]Piece

func (b *Board) At(sq Square) Piece { return b[sq.Row][sq.Col] }

func (b *Board) Set(sq Square, p Piece) { b[sq.Row][sq.Col] = p }

// relocate moves the piece on from to to and returns a func restoring both squares.
func (b *Board) relocate(from, to Square) (undo func()) {
	moving, replaced := b.At(from), b.At(to)
	b.Set(to, moving)
	b.Set(from, Empty)
	return func() {
		b.Set(from, moving)
		b.Set(to, replaced)
	}
}

// snapshot returns a func that puts the whole board back as it is now.
func (b *Board) snapshot() (restore func()) {
	saved := *b
	return func() { *b = saved }
}

func (b *Board) each(fn func(sq Square, p Piece)) {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			fn(Square{Row: r, Col: c}, b[r][c])
		}
	}
}

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func NewBoard(r Ruleset) Board {
	var b Board
	switch r {
	case Chess:
		for c := 0; c < 8; c++ {
			b[0][c] = Piece{Side: Black, Kind: backRank[c]}
			b[1][c] = Piece{Side: Black, Kind: Pawn}
			b[6][c] = Piece{Side: White, Kind: Pawn}
			b[7][c] = Piece{Side: White, Kind: backRank[c]}
		}
	case Checkers:
		for r := 0; r < 8; r++ {
			for c := 0; c < 8; c++ {
				if (r+c)%2 == 0 {
					continue
				}
				switch {
				case r < 3:
					b[r][c] = Piece{Side: Black, Kind: Man}
				case r > 4:
					b[r][c] = Piece{Side: White, Kind: Man}
				}
			}
		}
	}
	return b
}

// forward is the row delta a pawn or man of side advances by.
func forward(side Side) int {
	if side == White {
		return -1
	}
	return 1
}

func farRow(side Side) int {
	if side == White {
		return 0
	}
	return 7
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
