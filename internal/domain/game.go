package domain

import "time"

// Result tokens stored on finished games.
const (
	ResultWhite = "white"
	ResultBlack = "black"
	ResultDraw  = "draw"
)

// Termination methods.
const (
	MethodCheckmate   = "checkmate"
	MethodStalemate   = "stalemate"
	MethodBlockade    = "blockade"
	MethodResignation = "resignation"
)

// GameRecord is a finished game. A session can produce several records, one
// per round started with restart.
type GameRecord struct {
	ID         int64
	SessionID  string
	Round      int
	PlayerID   string
	Ruleset    string
	Mode       string
	Difficulty int
	Result     string
	Method     string
	Moves      []string
	Notation   []string
	PGN        string
	FinalFEN   string
	StartedAt  time.Time
	EndedAt    time.Time
	Duration   time.Duration
}

// Scoreboard aggregates results per ruleset.
type Scoreboard struct {
	Ruleset     string
	GamesPlayed int
	WhiteWins   int
	BlackWins   int
	Draws       int
	LastResult  string
	LastPlayed  time.Time
	UpdatedAt   time.Time
	CreatedAt   time.Time
}

// Apply counts one finished game.
func (s *Scoreboard) Apply(result string, at time.Time) {
	s.GamesPlayed++
	switch result {
	case ResultWhite:
		s.WhiteWins++
	case ResultBlack:
		s.BlackWins++
	default:
		s.Draws++
	}
	s.LastResult = result
	s.LastPlayed = at
	s.UpdatedAt = at
	if s.CreatedAt.IsZero() {
		s.CreatedAt = at
	}
}
