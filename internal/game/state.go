package game

type State string

const (
	StatePlaying   State = "playing"
	StateCheck     State = "check"
	StateCheckmate State = "checkmate"
	StateStalemate State = "stalemate"
	StateWin       State = "win"
	StateDraw      State = "draw"
)

// Terminal reports whether no further moves are accepted. Check is not terminal.
func (s State) Terminal() bool {
	switch s {
	case StateCheckmate, StateStalemate, StateWin, StateDraw:
		return true
	default:
		return false
	}
}

// Classify derives the state for side, the side about to move. When the state
// is decisive the returned winner is the other side; otherwise it is NoSide.
func Classify(b *Board, r Ruleset, side Side) (State, Side) {
	if hasLegalMove(b, side) {
		if r == Chess && IsInCheck(b, side) {
			return StateCheck, NoSide
		}
		return StatePlaying, NoSide
	}
	if r == Checkers {
		return StateWin, side.Opponent()
	}
	if IsInCheck(b, side) {
		return StateCheckmate, side.Opponent()
	}
	return StateStalemate, NoSide
}
