package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/chess-checkers-engine/internal/domain"
	coregame "github.com/park285/chess-checkers-engine/internal/game"
	"github.com/park285/chess-checkers-engine/internal/msgcat"
)

var ErrRenderDisabled = errors.New("board rendering disabled")

const maxHistoryLimit = 50

type Config struct {
	HistoryLimit      int
	DefaultDifficulty coregame.Difficulty
	// Seed fixes the opponent's random source. Zero seeds from the clock.
	Seed int64
}

// NewGameParams describes a session to open. Zero values fall back to chess,
// the computer opponent and the configured difficulty.
type NewGameParams struct {
	Ruleset    coregame.Ruleset
	Mode       coregame.Mode
	Difficulty coregame.Difficulty
	PlayerID   string
}

type Service struct {
	store    *SessionStore
	repo     Repository
	renderer BoardRenderer
	catalog  *msgcat.Catalog
	cfg      Config
	logger   *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

type SessionState struct {
	ID         string
	PlayerID   string
	Round      int
	Ruleset    coregame.Ruleset
	Mode       coregame.Mode
	Difficulty coregame.Difficulty
	Board      coregame.Board
	Turn       coregame.Side
	State      coregame.State
	Winner     coregame.Side
	History    []string
	Moves      []string
	Scores     coregame.Scores
	Chain      *coregame.Square
	Method     string
	Message    string
	RecordID   int64
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// PlyResult is one applied ply and the position right after it.
type PlyResult struct {
	From           coregame.Square
	To             coregame.Square
	Captured       *coregame.Square
	Notation       string
	Board          coregame.Board
	State          coregame.State
	Turn           coregame.Side
	Winner         coregame.Side
	ChainContinues bool
}

type MoveSummary struct {
	Valid    bool
	Message  string
	Player   *PlyResult
	Opponent []PlyResult
	State    *SessionState
	Finished bool
	GameID   int64
}

// NewService wires the session service. renderer and catalog may be nil: board
// images are then refused and messages fall back to the engine's English text.
func NewService(store *SessionStore, repo Repository, renderer BoardRenderer, catalog *msgcat.Catalog, cfg Config, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("game repository is required")
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = 10
	}
	if !cfg.DefaultDifficulty.Valid() {
		cfg.DefaultDifficulty = coregame.Medium
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{
		store:    store,
		repo:     repo,
		renderer: renderer,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger,
		rng:      rand.New(rand.NewSource(seed)),
	}, nil
}

// Ping checks the session store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) NewGame(ctx context.Context, params NewGameParams) (*SessionState, error) {
	ruleset := params.Ruleset
	if ruleset != coregame.Checkers {
		ruleset = coregame.Chess
	}
	mode := params.Mode
	if mode != coregame.ModeLocal {
		mode = coregame.ModeAI
	}
	difficulty := params.Difficulty
	if !difficulty.Valid() {
		difficulty = s.cfg.DefaultDifficulty
	}

	session := coregame.NewGame(ruleset, mode, difficulty)
	payload := newPayload(uuid.NewString(), strings.TrimSpace(params.PlayerID), session, time.Now())
	if err := s.store.Create(ctx, payload); err != nil {
		return nil, err
	}

	s.logger.Info("board_game_started",
		zap.String("game_id", payload.ID),
		zap.String("ruleset", payload.Ruleset),
		zap.String("mode", payload.Mode),
		zap.Int("difficulty", payload.Difficulty),
	)

	state, err := s.stateFromPayload(payload)
	if err != nil {
		return nil, err
	}
	state.Message = s.catalog.Text("game.started", map[string]any{
		"Ruleset":    ruleset.String(),
		"Mode":       string(mode),
		"Difficulty": difficulty.String(),
	}, state.Message)
	return state, nil
}

func (s *Service) State(ctx context.Context, id string) (*SessionState, error) {
	payload, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.stateFromPayload(payload)
}

// LegalMoves lists the moves of the piece on from for the side to move.
func (s *Service) LegalMoves(ctx context.Context, id string, from coregame.Square) ([]coregame.Move, error) {
	if !from.Valid() {
		return nil, ErrInvalidRequest
	}
	payload, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	session, err := payload.session()
	if err != nil {
		return nil, err
	}
	return session.LegalMoves(from), nil
}

// PreviewMoves answers a legal-move query for a board supplied by the caller.
func (s *Service) PreviewMoves(ruleset coregame.Ruleset, board coregame.Board, side coregame.Side, from coregame.Square) ([]coregame.Move, error) {
	if !from.Valid() || side == coregame.NoSide {
		return nil, ErrInvalidRequest
	}
	return coregame.LegalMoves(&board, from, side), nil
}

// Play applies from→to for the side to move. In ai mode the computer answers
// in the same call, jumping on for as long as a checkers chain continues. An
// illegal move comes back as Valid=false with the session untouched.
func (s *Service) Play(ctx context.Context, id string, from, to coregame.Square) (*MoveSummary, error) {
	if !from.Valid() || !to.Valid() {
		return nil, ErrInvalidRequest
	}

	var summary *MoveSummary
	payload, err := s.store.Update(ctx, id, func(p *sessionPayload) error {
		summary = &MoveSummary{}
		session, err := p.session()
		if err != nil {
			return err
		}

		res := session.ApplyMove(from, to)
		if !res.Valid {
			summary.Message = s.rejectMessage(res.Message, session)
			return errNoWrite
		}
		summary.Valid = true
		p.Moves = append(p.Moves, moveCode(session.Ruleset, res.Move))
		summary.Player = plyFrom(res)

		if session.Mode == coregame.ModeAI && !res.State.Terminal() && !res.ChainContinues {
			for {
				move, ok := s.opponentMove(session)
				if !ok {
					summary.Message = s.catalog.Text("move.no_reply", nil, "no reply")
					break
				}
				reply := session.ApplyMove(move.From, move.To)
				if !reply.Valid {
					return fmt.Errorf("opponent move %s-%s rejected: %s", move.From, move.To, reply.Message)
				}
				p.Moves = append(p.Moves, moveCode(session.Ruleset, reply.Move))
				summary.Opponent = append(summary.Opponent, *plyFrom(reply))
				if reply.State.Terminal() || !reply.ChainContinues {
					break
				}
			}
		}

		p.capture(session)
		if session.State.Terminal() {
			p.Method = methodFor(session.Ruleset, session.State)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	state, err := s.stateFromPayload(payload)
	if err != nil {
		return nil, err
	}
	summary.State = state
	if !summary.Valid {
		return summary, nil
	}

	s.logger.Info("board_move_applied",
		zap.String("game_id", payload.ID),
		zap.String("move", summary.Player.Notation),
		zap.Int("replies", len(summary.Opponent)),
		zap.String("state", payload.State),
	)

	if state.State.Terminal() {
		summary.Finished = true
		summary.GameID = s.persistFinished(ctx, payload)
		state.RecordID = summary.GameID
	}
	return summary, nil
}

// Resign ends the game with the side to move losing.
func (s *Service) Resign(ctx context.Context, id string) (*SessionState, error) {
	payload, err := s.store.Update(ctx, id, func(p *sessionPayload) error {
		session, err := p.session()
		if err != nil {
			return err
		}
		if session.State.Terminal() {
			return ErrGameFinished
		}
		session.Resign()
		p.capture(session)
		p.Method = domain.MethodResignation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("board_game_resigned",
		zap.String("game_id", payload.ID),
		zap.String("winner", payload.Winner),
	)

	state, err := s.stateFromPayload(payload)
	if err != nil {
		return nil, err
	}
	state.RecordID = s.persistFinished(ctx, payload)
	return state, nil
}

// Restart puts a fresh board on the session and opens the next round. Scores
// carry over; an unfinished board is dropped without a record.
func (s *Service) Restart(ctx context.Context, id string) (*SessionState, error) {
	payload, err := s.store.Update(ctx, id, func(p *sessionPayload) error {
		session, err := p.session()
		if err != nil {
			return err
		}
		session.Reset()
		p.capture(session)
		p.Round++
		p.Moves = nil
		p.Method = ""
		p.RecordID = 0
		p.StartedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	state, err := s.stateFromPayload(payload)
	if err != nil {
		return nil, err
	}
	state.Message = s.catalog.Text("game.restarted", map[string]any{
		"White": state.Scores.White,
		"Black": state.Scores.Black,
	}, state.Message)
	return state, nil
}

// Discard deletes a live session. Its finished rounds stay in history.
func (s *Service) Discard(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Sessions lists the live sessions opened under playerID.
func (s *Service) Sessions(ctx context.Context, playerID string) ([]*SessionState, error) {
	payloads, err := s.store.PlayerSessions(ctx, playerID)
	if err != nil {
		return nil, err
	}
	out := make([]*SessionState, 0, len(payloads))
	for _, p := range payloads {
		state, err := s.stateFromPayload(p)
		if err != nil {
			s.logger.Warn("board_session_unreadable", zap.String("game_id", p.ID), zap.Error(err))
			continue
		}
		out = append(out, state)
	}
	return out, nil
}

func (s *Service) History(ctx context.Context, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.GetRecentGames(ctx, limit)
}

func (s *Service) Game(ctx context.Context, id int64) (*domain.GameRecord, error) {
	game, err := s.repo.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// Scoreboard returns the totals for a ruleset; a ruleset with no finished
// games yields an empty board.
func (s *Service) Scoreboard(ctx context.Context, ruleset coregame.Ruleset) (*domain.Scoreboard, error) {
	board, err := s.repo.GetScoreboard(ctx, ruleset.String())
	if err != nil {
		return nil, err
	}
	if board == nil {
		board = &domain.Scoreboard{Ruleset: ruleset.String()}
	}
	return board, nil
}

// BoardImage renders the session's board with the last ply highlighted.
func (s *Service) BoardImage(ctx context.Context, id string) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrRenderDisabled
	}
	payload, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	state, err := s.stateFromPayload(payload)
	if err != nil {
		return nil, err
	}

	opts := RenderOptions{
		Chain:     state.Chain,
		Scores:    state.Scores,
		HUDHeader: s.catalog.Text("hud.title", map[string]any{"Ruleset": titleCase(state.Ruleset.String()), "Mode": string(state.Mode)}, state.Ruleset.String()),
	}
	if state.State.Terminal() {
		opts.HUDTurn = s.catalog.Text("hud.finished", map[string]any{"State": state.Message}, string(state.State))
	} else {
		opts.HUDTurn = s.catalog.Text("hud.turn", map[string]any{"Turn": sideTitle(state.Turn)}, sideTitle(state.Turn))
	}
	if n := len(payload.Moves); n > 0 {
		if from, to, err := parseMoveCode(payload.Moves[n-1]); err == nil {
			opts.Highlight = &MoveHighlight{From: from, To: to, Mover: state.Board.At(to).Side}
		}
	}

	data, err := s.renderer.RenderPNG(ctx, &state.Board, opts)
	if err != nil {
		return nil, fmt.Errorf("render board: %w", err)
	}
	return data, nil
}

func (s *Service) opponentMove(session *coregame.Session) (coregame.Move, bool) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return session.OpponentMove(s.rng)
}

// persistFinished records a finished round and counts it on the scoreboard.
// Failures are logged; the game itself has already been stored in Redis.
func (s *Service) persistFinished(ctx context.Context, p *sessionPayload) int64 {
	if p.RecordID != 0 {
		return p.RecordID
	}
	record := s.buildRecord(p)

	gameID, err := s.repo.InsertGame(ctx, record)
	if errors.Is(err, ErrDuplicateGame) {
		existing, fetchErr := s.repo.GetGameBySession(ctx, p.ID, p.Round)
		if fetchErr != nil || existing == nil {
			s.logger.Warn("board_game_duplicate_lookup_failed", zap.String("game_id", p.ID), zap.Error(fetchErr))
			return 0
		}
		return existing.ID
	}
	if err != nil {
		s.logger.Error("board_game_persist_failed", zap.String("game_id", p.ID), zap.Error(err))
		return 0
	}

	board, err := s.repo.GetScoreboard(ctx, record.Ruleset)
	if err != nil {
		s.logger.Warn("board_scoreboard_load_failed", zap.String("ruleset", record.Ruleset), zap.Error(err))
	} else {
		if board == nil {
			board = &domain.Scoreboard{Ruleset: record.Ruleset}
		}
		board.Apply(record.Result, record.EndedAt)
		if err := s.repo.UpsertScoreboard(ctx, board); err != nil {
			s.logger.Warn("board_scoreboard_save_failed", zap.String("ruleset", record.Ruleset), zap.Error(err))
		}
	}

	round := p.Round
	if _, err := s.store.Update(ctx, p.ID, func(cur *sessionPayload) error {
		if cur.Round != round || cur.RecordID != 0 {
			return errNoWrite
		}
		cur.RecordID = gameID
		return nil
	}); err != nil {
		s.logger.Warn("board_record_link_failed", zap.String("game_id", p.ID), zap.Int64("record_id", gameID), zap.Error(err))
	}

	s.logger.Info("board_game_recorded",
		zap.String("game_id", p.ID),
		zap.Int64("record_id", gameID),
		zap.String("result", record.Result),
		zap.String("method", record.Method),
	)
	return gameID
}

func (s *Service) buildRecord(p *sessionPayload) *domain.GameRecord {
	now := time.Now()
	record := &domain.GameRecord{
		SessionID:  p.ID,
		Round:      p.Round,
		PlayerID:   p.PlayerID,
		Ruleset:    p.Ruleset,
		Mode:       p.Mode,
		Difficulty: p.Difficulty,
		Result:     resultFor(p),
		Method:     p.Method,
		Moves:      append([]string{}, p.Moves...),
		Notation:   append([]string{}, p.History...),
		StartedAt:  p.StartedAt,
		EndedAt:    now,
		Duration:   now.Sub(p.StartedAt),
	}

	if p.Ruleset == coregame.Chess.String() {
		white, black := "Player", "Computer"
		if coregame.ParseMode(p.Mode) == coregame.ModeLocal {
			black = "Player"
		}
		export, err := ExportChess(p.Moves, PGNHeaders{
			Date:        p.StartedAt,
			White:       white,
			Black:       black,
			Result:      record.Result,
			Termination: record.Method,
		})
		if err != nil {
			s.logger.Warn("board_pgn_export_failed", zap.String("game_id", p.ID), zap.Error(err))
		} else {
			record.PGN = export.PGN
			record.FinalFEN = export.FEN
		}
	}
	return record
}

func (s *Service) stateFromPayload(p *sessionPayload) (*SessionState, error) {
	session, err := p.session()
	if err != nil {
		return nil, err
	}
	state := &SessionState{
		ID:         p.ID,
		PlayerID:   p.PlayerID,
		Round:      p.Round,
		Ruleset:    session.Ruleset,
		Mode:       session.Mode,
		Difficulty: session.Difficulty,
		Board:      session.Board,
		Turn:       session.Turn,
		State:      session.State,
		Winner:     session.Winner,
		History:    append([]string{}, session.History...),
		Moves:      append([]string{}, p.Moves...),
		Scores:     session.Scores,
		Chain:      session.Chain,
		Method:     p.Method,
		RecordID:   p.RecordID,
		StartedAt:  p.StartedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	state.Message = s.stateMessage(state)
	return state, nil
}

func (s *Service) stateMessage(st *SessionState) string {
	data := map[string]any{
		"Turn":   sideTitle(st.Turn),
		"Winner": sideTitle(st.Winner),
		"Loser":  sideTitle(st.Winner.Opponent()),
	}
	switch st.State {
	case coregame.StateCheck:
		return s.catalog.Text("state.check", data, "check")
	case coregame.StateCheckmate:
		return s.catalog.Text("state.checkmate", data, "checkmate")
	case coregame.StateStalemate:
		return s.catalog.Text("state.stalemate", data, "stalemate")
	case coregame.StateWin:
		if st.Method == domain.MethodResignation {
			return s.catalog.Text("game.resigned", data, "resigned")
		}
		return s.catalog.Text("state.win", data, "win")
	case coregame.StateDraw:
		return s.catalog.Text("state.draw", data, "draw")
	default:
		return s.catalog.Text("state.playing", data, "playing")
	}
}

func (s *Service) rejectMessage(msg string, session *coregame.Session) string {
	switch msg {
	case coregame.MsgGameOver:
		return s.catalog.Text("move.game_over", nil, msg)
	case coregame.MsgMustCapture:
		return s.catalog.Text("move.must_capture", nil, msg)
	case coregame.MsgChainJump:
		square := ""
		if session.Chain != nil {
			square = session.Chain.String()
		}
		return s.catalog.Text("move.chain_jump", map[string]any{"Square": square}, msg)
	default:
		return s.catalog.Text("move.invalid", nil, msg)
	}
}

func plyFrom(res coregame.MoveResult) *PlyResult {
	return &PlyResult{
		From:           res.Move.From,
		To:             res.Move.To,
		Captured:       res.Move.Captured,
		Notation:       res.Notation,
		Board:          res.Board,
		State:          res.State,
		Turn:           res.Turn,
		Winner:         res.Winner,
		ChainContinues: res.ChainContinues,
	}
}

func methodFor(r coregame.Ruleset, st coregame.State) string {
	switch st {
	case coregame.StateCheckmate:
		return domain.MethodCheckmate
	case coregame.StateStalemate:
		return domain.MethodStalemate
	case coregame.StateWin:
		if r == coregame.Checkers {
			return domain.MethodBlockade
		}
	}
	return ""
}

// resultFor maps the stored winner to a result token; no winner is a draw.
func resultFor(p *sessionPayload) string {
	switch p.Winner {
	case coregame.White.String():
		return domain.ResultWhite
	case coregame.Black.String():
		return domain.ResultBlack
	default:
		return domain.ResultDraw
	}
}

func sideTitle(side coregame.Side) string {
	return titleCase(side.String())
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
