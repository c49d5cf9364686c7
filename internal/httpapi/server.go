package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/chess-checkers-engine/internal/adapter/gamepresenter"
	"github.com/park285/chess-checkers-engine/internal/domain"
	coregame "github.com/park285/chess-checkers-engine/internal/game"
	svc "github.com/park285/chess-checkers-engine/internal/service/game"
	"github.com/park285/chess-checkers-engine/pkg/gamedto"
)

const (
	maxJSONBodyBytes = 1 << 20
	requestTimeout   = 10 * time.Second
	healthMessage    = "Chess & Checkers API is running"
)

// Backend is the part of the session service the HTTP layer drives.
type Backend interface {
	Ping(ctx context.Context) error
	NewGame(ctx context.Context, params svc.NewGameParams) (*svc.SessionState, error)
	State(ctx context.Context, id string) (*svc.SessionState, error)
	LegalMoves(ctx context.Context, id string, from coregame.Square) ([]coregame.Move, error)
	PreviewMoves(ruleset coregame.Ruleset, board coregame.Board, side coregame.Side, from coregame.Square) ([]coregame.Move, error)
	Play(ctx context.Context, id string, from, to coregame.Square) (*svc.MoveSummary, error)
	Resign(ctx context.Context, id string) (*svc.SessionState, error)
	Restart(ctx context.Context, id string) (*svc.SessionState, error)
	Discard(ctx context.Context, id string) error
	Sessions(ctx context.Context, playerID string) ([]*svc.SessionState, error)
	History(ctx context.Context, limit int) ([]*domain.GameRecord, error)
	Game(ctx context.Context, id int64) (*domain.GameRecord, error)
	Scoreboard(ctx context.Context, ruleset coregame.Ruleset) (*domain.Scoreboard, error)
	BoardImage(ctx context.Context, id string) ([]byte, error)
}

// Server exposes the board service as JSON over fasthttp.
type Server struct {
	backend Backend
	logger  *zap.Logger
	srv     *fasthttp.Server
}

func NewServer(backend Backend, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{backend: backend, logger: logger}
	s.srv = &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               "board-server",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: maxJSONBodyBytes,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("http_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

// Shutdown stops accepting connections and waits for open requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handler routes requests. The move and state paths are the ones the browser
// client calls; history, scoreboard and image endpoints sit beside them.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		applyAPIHeaders(ctx)

		method := string(ctx.Method())
		path := string(ctx.Path())
		if method == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}
		s.route(ctx, method, path)

		s.logger.Debug("http_request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) route(ctx *fasthttp.RequestCtx, method, path string) {
	switch {
	case path == "/health":
		s.requireMethod(ctx, method, fasthttp.MethodGet, s.handleHealth)
	case path == "/new_game":
		s.requireMethod(ctx, method, fasthttp.MethodPost, s.handleNewGame)
	case path == "/possible_moves":
		s.requireMethod(ctx, method, fasthttp.MethodPost, s.handlePossibleMoves)
	case path == "/move/chess":
		s.requireMethod(ctx, method, fasthttp.MethodPost, func(c *fasthttp.RequestCtx) { s.handleMove(c, coregame.Chess) })
	case path == "/move/checkers":
		s.requireMethod(ctx, method, fasthttp.MethodPost, func(c *fasthttp.RequestCtx) { s.handleMove(c, coregame.Checkers) })
	case path == "/resign":
		s.requireMethod(ctx, method, fasthttp.MethodPost, s.handleResign)
	case path == "/restart":
		s.requireMethod(ctx, method, fasthttp.MethodPost, s.handleRestart)
	case path == "/history":
		s.requireMethod(ctx, method, fasthttp.MethodGet, s.handleHistory)
	case strings.HasPrefix(path, "/history/"):
		s.requireMethod(ctx, method, fasthttp.MethodGet, func(c *fasthttp.RequestCtx) { s.handleGame(c, strings.TrimPrefix(path, "/history/")) })
	case strings.HasPrefix(path, "/game_state/"):
		s.requireMethod(ctx, method, fasthttp.MethodGet, func(c *fasthttp.RequestCtx) { s.handleState(c, strings.TrimPrefix(path, "/game_state/")) })
	case strings.HasPrefix(path, "/game/"):
		s.requireMethod(ctx, method, fasthttp.MethodDelete, func(c *fasthttp.RequestCtx) { s.handleDiscard(c, strings.TrimPrefix(path, "/game/")) })
	case strings.HasPrefix(path, "/board/") && strings.HasSuffix(path, ".png"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/board/"), ".png")
		s.requireMethod(ctx, method, fasthttp.MethodGet, func(c *fasthttp.RequestCtx) { s.handleBoardImage(c, id) })
	case strings.HasPrefix(path, "/scoreboard/"):
		s.requireMethod(ctx, method, fasthttp.MethodGet, func(c *fasthttp.RequestCtx) { s.handleScoreboard(c, strings.TrimPrefix(path, "/scoreboard/")) })
	case strings.HasPrefix(path, "/sessions/"):
		s.requireMethod(ctx, method, fasthttp.MethodGet, func(c *fasthttp.RequestCtx) { s.handleSessions(c, strings.TrimPrefix(path, "/sessions/")) })
	default:
		writeError(ctx, fasthttp.StatusNotFound, gamedto.DomainError{Code: gamedto.CodeInvalidRequest, Message: "not found"})
	}
}

func (s *Server) requireMethod(ctx *fasthttp.RequestCtx, got, want string, h fasthttp.RequestHandler) {
	if got != want {
		ctx.Response.Header.Set("Allow", want)
		writeError(ctx, fasthttp.StatusMethodNotAllowed, gamedto.DomainError{Code: gamedto.CodeInvalidRequest, Message: "method not allowed"})
		return
	}
	h(ctx)
}

// ---- handlers ----

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	c, cancel := requestContext()
	defer cancel()
	if err := s.backend.Ping(c); err != nil {
		s.logger.Warn("health_check_failed", zap.Error(err))
		writeJSON(ctx, fasthttp.StatusServiceUnavailable, gamedto.HealthResponse{Status: "unhealthy", Message: err.Error()})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, gamedto.HealthResponse{Status: "healthy", Message: healthMessage})
}

func (s *Server) handleNewGame(ctx *fasthttp.RequestCtx) {
	var req gamedto.NewGameRequest
	if !decodeBody(ctx, &req) {
		return
	}
	params, err := newGameParams(req)
	if err != nil {
		writeBadRequest(ctx, err.Error())
		return
	}
	c, cancel := requestContext()
	defer cancel()
	state, err := s.backend.NewGame(c, params)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, gamepresenter.ToDTOState(state))
}

func (s *Server) handlePossibleMoves(ctx *fasthttp.RequestCtx) {
	var req gamedto.PossibleMovesRequest
	if !decodeBody(ctx, &req) {
		return
	}
	from, ok := squareFrom(req.FromRow, req.FromCol)
	if !ok {
		writeBadRequest(ctx, "from_row and from_col must be between 0 and 7")
		return
	}

	var (
		moves []coregame.Move
		err   error
	)
	if id := strings.TrimSpace(req.GameID); id != "" {
		c, cancel := requestContext()
		defer cancel()
		moves, err = s.backend.LegalMoves(c, id, from)
	} else {
		ruleset, side, board, perr := previewInput(req)
		if perr != nil {
			writeBadRequest(ctx, perr.Error())
			return
		}
		moves, err = s.backend.PreviewMoves(ruleset, board, side, from)
	}
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, gamedto.PossibleMovesResponse{Success: true, Moves: gamepresenter.ToDTOMoves(moves)})
}

func (s *Server) handleMove(ctx *fasthttp.RequestCtx, ruleset coregame.Ruleset) {
	var req gamedto.MoveRequest
	if !decodeBody(ctx, &req) {
		return
	}
	id := strings.TrimSpace(req.GameID)
	from, okFrom := squareFrom(req.FromRow, req.FromCol)
	to, okTo := squareFrom(req.ToRow, req.ToCol)
	if id == "" || !okFrom || !okTo {
		writeBadRequest(ctx, "game_id and board coordinates between 0 and 7 are required")
		return
	}

	c, cancel := requestContext()
	defer cancel()
	state, err := s.backend.State(c, id)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	if state.Ruleset != ruleset {
		writeBadRequest(ctx, fmt.Sprintf("game %s is %s, not %s", id, state.Ruleset, ruleset))
		return
	}

	summary, err := s.backend.Play(c, id, from, to)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, gamepresenter.ToDTOMoveResponse(summary))
}

func (s *Server) handleResign(ctx *fasthttp.RequestCtx) {
	s.sessionAction(ctx, s.backend.Resign)
}

func (s *Server) handleRestart(ctx *fasthttp.RequestCtx) {
	s.sessionAction(ctx, s.backend.Restart)
}

func (s *Server) sessionAction(ctx *fasthttp.RequestCtx, action func(context.Context, string) (*svc.SessionState, error)) {
	var req gamedto.GameRequest
	if !decodeBody(ctx, &req) {
		return
	}
	id := strings.TrimSpace(req.GameID)
	if id == "" {
		writeBadRequest(ctx, "game_id is required")
		return
	}
	c, cancel := requestContext()
	defer cancel()
	state, err := action(c, id)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, gamepresenter.ToDTOState(state))
}

func (s *Server) handleState(ctx *fasthttp.RequestCtx, id string) {
	c, cancel := requestContext()
	defer cancel()
	state, err := s.backend.State(c, id)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, gamepresenter.ToDTOState(state))
}

func (s *Server) handleDiscard(ctx *fasthttp.RequestCtx, id string) {
	c, cancel := requestContext()
	defer cancel()
	if err := s.backend.Discard(c, id); err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleBoardImage(ctx *fasthttp.RequestCtx, id string) {
	c, cancel := requestContext()
	defer cancel()
	data, err := s.backend.BoardImage(c, id)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("image/png")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(data)
}

func (s *Server) handleHistory(ctx *fasthttp.RequestCtx) {
	limit := ctx.QueryArgs().GetUintOrZero("limit")
	c, cancel := requestContext()
	defer cancel()
	games, err := s.backend.History(c, limit)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, gamedto.HistoryResponse{Success: true, Games: gamepresenter.ToDTOGames(games)})
}

func (s *Server) handleGame(ctx *fasthttp.RequestCtx, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(ctx, "game id must be a positive integer")
		return
	}
	c, cancel := requestContext()
	defer cancel()
	game, err := s.backend.Game(c, id)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, gamepresenter.ToDTOGame(game))
}

func (s *Server) handleScoreboard(ctx *fasthttp.RequestCtx, rawRuleset string) {
	ruleset, err := coregame.ParseRuleset(rawRuleset)
	if err != nil {
		writeBadRequest(ctx, err.Error())
		return
	}
	c, cancel := requestContext()
	defer cancel()
	board, err := s.backend.Scoreboard(c, ruleset)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, gamepresenter.ToDTOScoreboard(board))
}

func (s *Server) handleSessions(ctx *fasthttp.RequestCtx, player string) {
	c, cancel := requestContext()
	defer cancel()
	states, err := s.backend.Sessions(c, player)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	out := gamedto.SessionsResponse{Success: true, Sessions: make([]*gamedto.SessionState, 0, len(states))}
	for _, st := range states {
		out.Sessions = append(out.Sessions, gamepresenter.ToDTOState(st))
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

// ---- request parsing ----

func newGameParams(req gamedto.NewGameRequest) (svc.NewGameParams, error) {
	params := svc.NewGameParams{
		Mode:     coregame.ParseMode(req.Mode),
		PlayerID: strings.TrimSpace(req.PlayerID),
		Ruleset:  coregame.Chess,
	}
	if raw := strings.TrimSpace(req.GameType); raw != "" {
		r, err := coregame.ParseRuleset(raw)
		if err != nil {
			return params, err
		}
		params.Ruleset = r
	}
	d, err := parseDifficulty(req.Difficulty)
	if err != nil {
		return params, err
	}
	params.Difficulty = d
	return params, nil
}

// parseDifficulty accepts a JSON number or string; absent means the server
// default. Numbers must be whole and in range, they are never truncated.
func parseDifficulty(raw any) (coregame.Difficulty, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case float64:
		if v != math.Trunc(v) || v < float64(coregame.Easy) || v > float64(coregame.Hard) {
			return 0, fmt.Errorf("difficulty must be 1, 2 or 3, got %v", v)
		}
		return coregame.ParseDifficulty(strconv.Itoa(int(v)))
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		return coregame.ParseDifficulty(v)
	default:
		return 0, fmt.Errorf("difficulty must be a number or a name")
	}
}

func previewInput(req gamedto.PossibleMovesRequest) (coregame.Ruleset, coregame.Side, coregame.Board, error) {
	ruleset := coregame.Chess
	if raw := strings.TrimSpace(req.GameType); raw != "" {
		r, err := coregame.ParseRuleset(raw)
		if err != nil {
			return 0, 0, coregame.Board{}, err
		}
		ruleset = r
	}
	side := coregame.White
	if raw := strings.TrimSpace(req.CurrentPlayer); raw != "" {
		sd, err := coregame.ParseSide(raw)
		if err != nil {
			return 0, 0, coregame.Board{}, err
		}
		side = sd
	}
	board, err := coregame.DecodeBoard(ruleset, req.Board)
	if err != nil {
		return 0, 0, coregame.Board{}, err
	}
	return ruleset, side, board, nil
}

func squareFrom(row, col *int) (coregame.Square, bool) {
	if row == nil || col == nil {
		return coregame.Square{}, false
	}
	sq := coregame.Sq(*row, *col)
	return sq, sq.Valid()
}

// ---- response helpers ----

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func applyAPIHeaders(ctx *fasthttp.RequestCtx) {
	h := &ctx.Response.Header
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("X-Content-Type-Options", "nosniff")
}

func decodeBody(ctx *fasthttp.RequestCtx, out any) bool {
	body := bytes.TrimSpace(ctx.PostBody())
	if len(body) == 0 {
		writeBadRequest(ctx, "request body is required")
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		writeBadRequest(ctx, "invalid json")
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetContentType("application/json; charset=utf-8")
		ctx.SetBodyString(`{"success":false,"error":"encode response","code":"internal"}`)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(data)
}

func writeBadRequest(ctx *fasthttp.RequestCtx, msg string) {
	writeError(ctx, fasthttp.StatusBadRequest, gamedto.DomainError{Code: gamedto.CodeInvalidRequest, Message: msg})
}

func writeError(ctx *fasthttp.RequestCtx, status int, derr gamedto.DomainError) {
	writeJSON(ctx, status, gamedto.ErrorResponse{
		Success:   false,
		Error:     derr.Error(),
		Code:      derr.Code,
		Retryable: derr.Retryable,
	})
}

func (s *Server) writeServiceError(ctx *fasthttp.RequestCtx, err error) {
	status, derr := mapError(err)
	if status >= fasthttp.StatusInternalServerError {
		s.logger.Error("http_request_failed", zap.String("path", string(ctx.Path())), zap.Error(err))
	}
	writeError(ctx, status, derr)
}

// mapError translates service sentinels into a status and a wire error.
func mapError(err error) (int, gamedto.DomainError) {
	switch {
	case errors.Is(err, svc.ErrSessionNotFound):
		return fasthttp.StatusNotFound, gamedto.DomainError{Code: gamedto.CodeSessionNotFound, Message: err.Error()}
	case errors.Is(err, svc.ErrGameNotFound):
		return fasthttp.StatusNotFound, gamedto.DomainError{Code: gamedto.CodeGameNotFound, Message: err.Error()}
	case errors.Is(err, svc.ErrGameFinished):
		return fasthttp.StatusConflict, gamedto.DomainError{Code: gamedto.CodeGameFinished, Message: err.Error()}
	case errors.Is(err, svc.ErrInvalidRequest), errors.Is(err, svc.ErrInvalidMove):
		return fasthttp.StatusBadRequest, gamedto.DomainError{Code: gamedto.CodeInvalidRequest, Message: err.Error()}
	case errors.Is(err, svc.ErrConflict):
		return fasthttp.StatusConflict, gamedto.DomainError{Code: gamedto.CodeConflict, Message: err.Error(), Retryable: true}
	case errors.Is(err, svc.ErrRenderDisabled):
		return fasthttp.StatusServiceUnavailable, gamedto.DomainError{Code: gamedto.CodeUnavailable, Message: err.Error()}
	default:
		return fasthttp.StatusInternalServerError, gamedto.DomainError{Code: gamedto.CodeInternal, Message: "internal error"}
	}
}
