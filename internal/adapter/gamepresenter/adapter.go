package gamepresenter

import (
	"github.com/park285/chess-checkers-engine/internal/domain"
	coregame "github.com/park285/chess-checkers-engine/internal/game"
	svc "github.com/park285/chess-checkers-engine/internal/service/game"
	"github.com/park285/chess-checkers-engine/pkg/gamedto"
)

func ToDTOState(s *svc.SessionState) *gamedto.SessionState {
	if s == nil {
		return nil
	}
	return &gamedto.SessionState{
		Success:       true,
		GameID:        s.ID,
		GameType:      s.Ruleset.String(),
		Mode:          string(s.Mode),
		Difficulty:    int(s.Difficulty),
		Round:         s.Round,
		Board:         coregame.EncodeBoard(s.Board),
		CurrentPlayer: s.Turn.String(),
		GameState:     string(s.State),
		Winner:        s.Winner.String(),
		History:       append([]string{}, s.History...),
		Scores:        toDTOScores(s.Scores),
		ChainSquare:   squarePair(s.Chain),
		Message:       s.Message,
		RecordID:      s.RecordID,
		StartedAt:     s.StartedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// FromSession builds a state DTO straight from an engine session, for
// clients that play without the session service.
func FromSession(s *coregame.Session, message string) *gamedto.SessionState {
	if s == nil {
		return nil
	}
	return &gamedto.SessionState{
		Success:       true,
		GameType:      s.Ruleset.String(),
		Mode:          string(s.Mode),
		Difficulty:    int(s.Difficulty),
		Round:         1,
		Board:         coregame.EncodeBoard(s.Board),
		CurrentPlayer: s.Turn.String(),
		GameState:     string(s.State),
		Winner:        s.Winner.String(),
		History:       append([]string{}, s.History...),
		Scores:        toDTOScores(s.Scores),
		ChainSquare:   squarePair(s.Chain),
		Message:       message,
	}
}

// ToDTOMoveResponse flattens a move summary into the browser client's shape.
// The ai_* fields carry the last computer ply.
func ToDTOMoveResponse(m *svc.MoveSummary) *gamedto.MoveResponse {
	if m == nil {
		return nil
	}
	resp := &gamedto.MoveResponse{Valid: m.Valid, Message: m.Message}
	if m.State != nil && !m.Valid {
		resp.Board = coregame.EncodeBoard(m.State.Board)
		resp.GameState = string(m.State.State)
		resp.CurrentPlayer = m.State.Turn.String()
		return resp
	}
	if p := m.Player; p != nil {
		resp.Board = coregame.EncodeBoard(p.Board)
		resp.GameState = string(p.State)
		resp.MoveNotation = p.Notation
		resp.CurrentPlayer = p.Turn.String()
		resp.ChainSquare = chainAfter(p)
	}
	if n := len(m.Opponent); n > 0 {
		last := m.Opponent[n-1]
		resp.AIMove = []int{last.From.Row, last.From.Col, last.To.Row, last.To.Col}
		resp.AIBoard = coregame.EncodeBoard(last.Board)
		resp.AIGameState = string(last.State)
		resp.AIMoveNotation = last.Notation
		resp.CurrentPlayer = last.Turn.String()
		resp.AIMoves = make([]gamedto.AIPly, 0, n)
		for _, ply := range m.Opponent {
			resp.AIMoves = append(resp.AIMoves, gamedto.AIPly{
				Move:     []int{ply.From.Row, ply.From.Col, ply.To.Row, ply.To.Col},
				Notation: ply.Notation,
			})
		}
	}
	if m.State != nil {
		resp.Winner = m.State.Winner.String()
		scores := toDTOScores(m.State.Scores)
		resp.Scores = &scores
	}
	resp.RecordID = m.GameID
	return resp
}

// ToDTOMoveResult maps a single engine result, used by local clients.
func ToDTOMoveResult(r coregame.MoveResult, scores coregame.Scores) *gamedto.MoveResponse {
	resp := &gamedto.MoveResponse{
		Valid:         r.Valid,
		Message:       r.Message,
		Board:         coregame.EncodeBoard(r.Board),
		GameState:     string(r.State),
		MoveNotation:  r.Notation,
		CurrentPlayer: r.Turn.String(),
		Winner:        r.Winner.String(),
	}
	if r.ChainContinues {
		resp.ChainSquare = []int{r.Move.To.Row, r.Move.To.Col}
	}
	s := toDTOScores(scores)
	resp.Scores = &s
	return resp
}

// ToDTOMoves lists move targets as [row, col] pairs.
func ToDTOMoves(moves []coregame.Move) [][]int {
	out := make([][]int, 0, len(moves))
	for _, m := range moves {
		out = append(out, []int{m.To.Row, m.To.Col})
	}
	return out
}

func ToDTOGames(list []*domain.GameRecord) []*gamedto.GameRecord {
	out := make([]*gamedto.GameRecord, 0, len(list))
	for _, g := range list {
		if g == nil {
			continue
		}
		out = append(out, ToDTOGame(g))
	}
	return out
}

func ToDTOGame(g *domain.GameRecord) *gamedto.GameRecord {
	if g == nil {
		return nil
	}
	return &gamedto.GameRecord{
		ID:         g.ID,
		SessionID:  g.SessionID,
		Round:      g.Round,
		PlayerID:   g.PlayerID,
		GameType:   g.Ruleset,
		Mode:       g.Mode,
		Difficulty: g.Difficulty,
		Result:     g.Result,
		Method:     g.Method,
		Moves:      append([]string{}, g.Moves...),
		Notation:   append([]string{}, g.Notation...),
		PGN:        g.PGN,
		FinalFEN:   g.FinalFEN,
		StartedAt:  g.StartedAt,
		EndedAt:    g.EndedAt,
		DurationMS: g.Duration.Milliseconds(),
	}
}

func ToDTOScoreboard(b *domain.Scoreboard) *gamedto.Scoreboard {
	if b == nil {
		return nil
	}
	return &gamedto.Scoreboard{
		GameType:    b.Ruleset,
		GamesPlayed: b.GamesPlayed,
		WhiteWins:   b.WhiteWins,
		BlackWins:   b.BlackWins,
		Draws:       b.Draws,
		LastResult:  b.LastResult,
		LastPlayed:  b.LastPlayed,
	}
}

func toDTOScores(s coregame.Scores) gamedto.Scores {
	return gamedto.Scores{White: s.White, Black: s.Black}
}

func squarePair(sq *coregame.Square) []int {
	if sq == nil {
		return nil
	}
	return []int{sq.Row, sq.Col}
}

func chainAfter(p *svc.PlyResult) []int {
	if p == nil || !p.ChainContinues {
		return nil
	}
	return []int{p.To.Row, p.To.Col}
}
