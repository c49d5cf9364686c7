package game

import (
	"fmt"
	"strings"
)

// Letter encodes a piece the way the web client draws boards: chess pieces as
// PNBRQK (upper case White), checkers men as w/b and kings as W/B.
func Letter(p Piece) string {
	var l string
	switch p.Kind {
	case Pawn:
		l = "p"
	case Knight:
		l = "n"
	case Bishop:
		l = "b"
	case Rook:
		l = "r"
	case Queen:
		l = "q"
	case King:
		l = "k"
	case Man, CrownedKing:
		l = "b"
		if p.Side == White {
			l = "w"
		}
		if p.Kind == CrownedKing {
			return strings.ToUpper(l)
		}
		return l
	default:
		return ""
	}
	if p.Side == White {
		return strings.ToUpper(l)
	}
	return l
}

func PieceFromLetter(r Ruleset, letter string) (Piece, error) {
	if letter == "" {
		return Empty, nil
	}
	switch r {
	case Chess:
		side := Black
		if strings.ToUpper(letter) == letter {
			side = White
		}
		switch strings.ToLower(letter) {
		case "p":
			return Piece{Side: side, Kind: Pawn}, nil
		case "n":
			return Piece{Side: side, Kind: Knight}, nil
		case "b":
			return Piece{Side: side, Kind: Bishop}, nil
		case "r":
			return Piece{Side: side, Kind: Rook}, nil
		case "q":
			return Piece{Side: side, Kind: Queen}, nil
		case "k":
			return Piece{Side: side, Kind: King}, nil
		}
	case Checkers:
		switch letter {
		case "w":
			return Piece{Side: White, Kind: Man}, nil
		case "W":
			return Piece{Side: White, Kind: CrownedKing}, nil
		case "b":
			return Piece{Side: Black, Kind: Man}, nil
		case "B":
			return Piece{Side: Black, Kind: CrownedKing}, nil
		}
	}
	return Empty, fmt.Errorf("unknown %s piece %q", r, letter)
}

func EncodeBoard(b Board) [][]string {
	rows := make([][]string, 8)
	for r := range b {
		rows[r] = make([]string, 8)
		for c, p := range b[r] {
			rows[r][c] = Letter(p)
		}
	}
	return rows
}

func DecodeBoard(r Ruleset, rows [][]string) (Board, error) {
	var b Board
	if len(rows) != 8 {
		return b, fmt.Errorf("board must have 8 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if len(row) != 8 {
			return b, fmt.Errorf("board row %d must have 8 squares, got %d", i, len(row))
		}
		for j, letter := range row {
			p, err := PieceFromLetter(r, strings.TrimSpace(letter))
			if err != nil {
				return b, fmt.Errorf("square %s: %w", Sq(i, j), err)
			}
			b[i][j] = p
		}
	}
	return b, nil
}
