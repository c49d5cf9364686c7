package game

import (
	"math/rand"
	"strings"
)

type Mode string

const (
	ModeAI    Mode = "ai"
	ModeLocal Mode = "local"
)

func ParseMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "local", "pvp", "hotseat", "human":
		return ModeLocal
	default:
		return ModeAI
	}
}

const (
	MsgInvalidMove = "invalid move"
	MsgGameOver    = "game is over"
	MsgMustCapture = "a capture is available and must be taken"
	MsgChainJump   = "the jumping piece must continue capturing"
)

type Scores struct {
	White int `json:"white"`
	Black int `json:"black"`
}

func (s *Scores) credit(side Side) {
	switch side {
	case White:
		s.White++
	case Black:
		s.Black++
	}
}

// Session owns one game: its board, side to move, ply history and scores.
// It is not safe for concurrent use.
type Session struct {
	Ruleset    Ruleset
	Mode       Mode
	Difficulty Difficulty
	Board      Board
	Turn       Side
	History    []string
	State      State
	Winner     Side
	Scores     Scores

	// Chain is the square of a checkers piece in the middle of a multi-jump.
	Chain *Square
}

type MoveResult struct {
	Valid          bool
	Move           Move
	Board          Board
	State          State
	Notation       string
	Message        string
	Turn           Side
	Winner         Side
	ChainContinues bool
}

// NewGame returns a session at the starting position with White to move.
func NewGame(r Ruleset, mode Mode, d Difficulty) *Session {
	if !d.Valid() {
		d = Medium
	}
	s := &Session{Ruleset: r, Mode: mode, Difficulty: d}
	s.Reset()
	return s
}

// Reset starts a fresh board on the session. Scores are kept.
func (s *Session) Reset() {
	s.Board = NewBoard(s.Ruleset)
	s.Turn = White
	s.History = nil
	s.State = StatePlaying
	s.Winner = NoSide
	s.Chain = nil
}

// LegalMoves returns the moves of the piece on from for the side to move.
// During a multi-jump only the jumping piece may move.
func (s *Session) LegalMoves(from Square) []Move {
	if s.State.Terminal() {
		return nil
	}
	if s.Chain != nil {
		if from != *s.Chain {
			return nil
		}
		return checkersCaptures(&s.Board, from)
	}
	return LegalMoves(&s.Board, from, s.Turn)
}

// AllLegalMoves returns every legal move for the side to move.
func (s *Session) AllLegalMoves() []Move {
	if s.Chain != nil {
		return s.LegalMoves(*s.Chain)
	}
	if s.State.Terminal() {
		return nil
	}
	return AllLegalMoves(&s.Board, s.Turn)
}

// ApplyMove validates from→to against the legal moves of the side to move and
// plays it. An illegal request leaves the session untouched.
func (s *Session) ApplyMove(from, to Square) MoveResult {
	if s.State.Terminal() {
		return s.reject(MsgGameOver)
	}
	if !from.Valid() || !to.Valid() {
		return s.reject(MsgInvalidMove)
	}
	m, ok := containsMove(s.LegalMoves(from), to)
	if !ok {
		return s.reject(s.rejectReason(from))
	}

	mover := s.Turn
	ex := Execute(&s.Board, m.From, m.To)

	var notation string
	continues := false
	switch s.Ruleset {
	case Checkers:
		notation = checkersNotation(m, ex)
		continues = ex.ChainContinues
	default:
		notation = chessNotation(m, ex)
	}

	if continues {
		landing := m.To
		s.Chain = &landing
	} else {
		s.Chain = nil
		s.Turn = mover.Opponent()
	}

	s.State, s.Winner = Classify(&s.Board, s.Ruleset, s.Turn)
	if s.State.Terminal() {
		s.Scores.credit(s.Winner)
	}
	notation += stateSuffix(s.State)
	s.History = append(s.History, notation)

	return MoveResult{
		Valid:          true,
		Move:           m,
		Board:          s.Board,
		State:          s.State,
		Notation:       notation,
		Turn:           s.Turn,
		Winner:         s.Winner,
		ChainContinues: continues,
	}
}

// OpponentMove selects a move for the side to move using the session's
// difficulty. ok is false when no move exists.
func (s *Session) OpponentMove(rng *rand.Rand) (Move, bool) {
	return SelectMove(&s.Board, s.AllLegalMoves(), s.Turn, s.Difficulty, rng)
}

// Resign ends the game in favour of the side not on move.
func (s *Session) Resign() {
	if s.State.Terminal() {
		return
	}
	s.Chain = nil
	s.State = StateWin
	s.Winner = s.Turn.Opponent()
	s.Scores.credit(s.Winner)
}

func (s *Session) reject(msg string) MoveResult {
	return MoveResult{
		Valid:   false,
		Board:   s.Board,
		State:   s.State,
		Message: msg,
		Turn:    s.Turn,
		Winner:  s.Winner,
	}
}

func (s *Session) rejectReason(from Square) string {
	if s.Ruleset != Checkers || !IsOwn(s.Board.At(from), s.Turn) {
		return MsgInvalidMove
	}
	if s.Chain != nil && from != *s.Chain {
		return MsgChainJump
	}
	if sideCanCapture(&s.Board, s.Turn) {
		return MsgMustCapture
	}
	return MsgInvalidMove
}
