package game

import "strings"

const (
	captureMark     = "×"
	stepMark        = "-"
	queenPromotion  = "=Q"
	crownPromotion  = "♔"
	checkSuffix     = "+"
	checkmateSuffix = "#"
)

var chessLetters = map[Kind]string{
	Knight: "N",
	Bishop: "B",
	Rook:   "R",
	Queen:  "Q",
	King:   "K",
}

// chessNotation renders <piece><×?><destination>[=Q]; pawns carry no letter.
func chessNotation(m Move, ex Executed) string {
	var sb strings.Builder
	sb.WriteString(chessLetters[ex.Piece.Kind])
	if m.IsCapture() {
		sb.WriteString(captureMark)
	}
	sb.WriteString(m.To.String())
	if ex.Promoted {
		sb.WriteString(queenPromotion)
	}
	return sb.String()
}

// checkersNotation renders <from>[×|-]<to>[♔].
func checkersNotation(m Move, ex Executed) string {
	mark := stepMark
	if ex.Jumped {
		mark = captureMark
	}
	out := m.From.String() + mark + m.To.String()
	if ex.Promoted {
		out += crownPromotion
	}
	return out
}

func stateSuffix(s State) string {
	switch s {
	case StateCheck:
		return checkSuffix
	case StateCheckmate:
		return checkmateSuffix
	default:
		return ""
	}
}
