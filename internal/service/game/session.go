package game

import (
	"errors"
	"fmt"
	"time"

	coregame "github.com/park285/chess-checkers-engine/internal/game"
)

var (
	ErrSessionNotFound = errors.New("game session not found")
	ErrGameFinished    = errors.New("game already finished")
	ErrInvalidMove     = errors.New("invalid move request")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrGameNotFound    = errors.New("game record not found")
	ErrConflict        = errors.New("concurrent update, retry")
)

// sessionPayload is the JSON document stored under a session key. The board is
// kept as piece letters so the document stays readable in redis-cli.
type sessionPayload struct {
	ID         string          `json:"id"`
	PlayerID   string          `json:"player_id,omitempty"`
	Round      int             `json:"round"`
	Ruleset    string          `json:"ruleset"`
	Mode       string          `json:"mode"`
	Difficulty int             `json:"difficulty"`
	Board      [][]string      `json:"board"`
	Turn       string          `json:"turn"`
	State      string          `json:"state"`
	Winner     string          `json:"winner,omitempty"`
	Chain      string          `json:"chain,omitempty"`
	History    []string        `json:"history"`
	Moves      []string        `json:"moves"`
	Scores     coregame.Scores `json:"scores"`
	Method     string          `json:"method,omitempty"`
	RecordID   int64           `json:"record_id,omitempty"`
	Version    int64           `json:"version"`
	StartedAt  time.Time       `json:"started_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func newPayload(id, playerID string, s *coregame.Session, now time.Time) *sessionPayload {
	p := &sessionPayload{
		ID:        id,
		PlayerID:  playerID,
		Round:     1,
		StartedAt: now,
		UpdatedAt: now,
	}
	p.capture(s)
	return p
}

// capture copies the engine session into the payload.
func (p *sessionPayload) capture(s *coregame.Session) {
	p.Ruleset = s.Ruleset.String()
	p.Mode = string(s.Mode)
	p.Difficulty = int(s.Difficulty)
	p.Board = coregame.EncodeBoard(s.Board)
	p.Turn = s.Turn.String()
	p.State = string(s.State)
	p.Winner = s.Winner.String()
	p.History = append([]string{}, s.History...)
	p.Scores = s.Scores
	p.Chain = ""
	if s.Chain != nil {
		p.Chain = s.Chain.String()
	}
}

// session rebuilds the engine session.
func (p *sessionPayload) session() (*coregame.Session, error) {
	ruleset, err := coregame.ParseRuleset(p.Ruleset)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", p.ID, err)
	}
	board, err := coregame.DecodeBoard(ruleset, p.Board)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", p.ID, err)
	}
	turn, err := coregame.ParseSide(p.Turn)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", p.ID, err)
	}
	s := &coregame.Session{
		Ruleset:    ruleset,
		Mode:       coregame.ParseMode(p.Mode),
		Difficulty: coregame.Difficulty(p.Difficulty),
		Board:      board,
		Turn:       turn,
		History:    append([]string(nil), p.History...),
		State:      coregame.State(p.State),
		Scores:     p.Scores,
	}
	if !s.Difficulty.Valid() {
		s.Difficulty = coregame.Medium
	}
	if p.Winner != "" {
		if s.Winner, err = coregame.ParseSide(p.Winner); err != nil {
			return nil, fmt.Errorf("session %s: %w", p.ID, err)
		}
	}
	if p.Chain != "" {
		sq, err := coregame.ParseSquare(p.Chain)
		if err != nil {
			return nil, fmt.Errorf("session %s chain: %w", p.ID, err)
		}
		s.Chain = &sq
	}
	return s, nil
}

// moveCode renders a move as from+to squares, with a trailing q for a chess
// promotion so the list replays as UCI.
func moveCode(r coregame.Ruleset, m coregame.Move) string {
	code := m.From.String() + m.To.String()
	if r == coregame.Chess && m.Promotion {
		code += "q"
	}
	return code
}

// parseMoveCode reads the from/to squares back out of a move code.
func parseMoveCode(code string) (coregame.Square, coregame.Square, error) {
	if len(code) < 4 {
		return coregame.Square{}, coregame.Square{}, fmt.Errorf("short move code %q", code)
	}
	from, err := coregame.ParseSquare(code[:2])
	if err != nil {
		return coregame.Square{}, coregame.Square{}, err
	}
	to, err := coregame.ParseSquare(code[2:4])
	if err != nil {
		return coregame.Square{}, coregame.Square{}, err
	}
	return from, to, nil
}
