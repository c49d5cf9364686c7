package main

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/park285/chess-checkers-engine/internal/adapter/gamepresenter"
	"github.com/park285/chess-checkers-engine/internal/boardclient"
	coregame "github.com/park285/chess-checkers-engine/internal/game"
	"github.com/park285/chess-checkers-engine/internal/msgcat"
	svcgame "github.com/park285/chess-checkers-engine/internal/service/game"
	"github.com/park285/chess-checkers-engine/pkg/gamedto"
)

// backend is one game as seen by the prompt loop.
type backend interface {
	Start(ctx context.Context) (*gamedto.SessionState, error)
	State(ctx context.Context) (*gamedto.SessionState, error)
	Move(ctx context.Context, from, to coregame.Square) (*gamedto.MoveResponse, error)
	Targets(ctx context.Context, from coregame.Square) ([][]int, error)
	Resign(ctx context.Context) (*gamedto.SessionState, error)
	Restart(ctx context.Context) (*gamedto.SessionState, error)
	Image(ctx context.Context) ([]byte, error)
}

type gameOptions struct {
	Ruleset    coregame.Ruleset
	Mode       coregame.Mode
	Difficulty coregame.Difficulty
}

// ---- local engine ----

type localBackend struct {
	opts     gameOptions
	catalog  *msgcat.Catalog
	renderer svcgame.BoardRenderer
	rng      *rand.Rand

	session  *coregame.Session
	resigned bool
	last     *svcgame.MoveHighlight
}

func newLocalBackend(opts gameOptions, catalog *msgcat.Catalog, renderer svcgame.BoardRenderer, seed int64) *localBackend {
	return &localBackend{
		opts:     opts,
		catalog:  catalog,
		renderer: renderer,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (b *localBackend) Start(context.Context) (*gamedto.SessionState, error) {
	b.session = coregame.NewGame(b.opts.Ruleset, b.opts.Mode, b.opts.Difficulty)
	b.resigned = false
	b.last = nil
	msg := b.catalog.Text("game.started", map[string]any{
		"Ruleset":    b.opts.Ruleset.String(),
		"Mode":       string(b.opts.Mode),
		"Difficulty": b.opts.Difficulty.String(),
	}, "new game")
	return gamepresenter.FromSession(b.session, msg), nil
}

func (b *localBackend) State(context.Context) (*gamedto.SessionState, error) {
	if b.session == nil {
		return nil, errNoGame
	}
	return gamepresenter.FromSession(b.session, b.statusMessage()), nil
}

func (b *localBackend) Move(_ context.Context, from, to coregame.Square) (*gamedto.MoveResponse, error) {
	if b.session == nil {
		return nil, errNoGame
	}
	res := b.session.ApplyMove(from, to)
	if !res.Valid {
		resp := gamepresenter.ToDTOMoveResult(res, b.session.Scores)
		resp.Message = b.rejectMessage(res.Message)
		return resp, nil
	}
	b.last = &svcgame.MoveHighlight{From: res.Move.From, To: res.Move.To, Mover: b.session.Board.At(res.Move.To).Side}
	resp := gamepresenter.ToDTOMoveResult(res, b.session.Scores)

	if b.session.Mode == coregame.ModeAI && !res.State.Terminal() && !res.ChainContinues {
		for {
			move, ok := b.session.OpponentMove(b.rng)
			if !ok {
				resp.Message = b.catalog.Text("move.no_reply", nil, "no reply")
				break
			}
			reply := b.session.ApplyMove(move.From, move.To)
			if !reply.Valid {
				return nil, fmt.Errorf("opponent move %s-%s rejected: %s", move.From, move.To, reply.Message)
			}
			ply := []int{move.From.Row, move.From.Col, move.To.Row, move.To.Col}
			resp.AIMoves = append(resp.AIMoves, gamedto.AIPly{Move: ply, Notation: reply.Notation})
			resp.AIMove = ply
			resp.AIBoard = coregame.EncodeBoard(reply.Board)
			resp.AIGameState = string(reply.State)
			resp.AIMoveNotation = reply.Notation
			resp.CurrentPlayer = reply.Turn.String()
			resp.Winner = reply.Winner.String()
			b.last = &svcgame.MoveHighlight{From: move.From, To: move.To, Mover: b.session.Board.At(move.To).Side}
			if reply.State.Terminal() || !reply.ChainContinues {
				break
			}
		}
	}
	scores := gamedto.Scores{White: b.session.Scores.White, Black: b.session.Scores.Black}
	resp.Scores = &scores
	if b.session.State.Terminal() && resp.Message == "" {
		resp.Message = b.statusMessage()
	}
	return resp, nil
}

func (b *localBackend) Targets(_ context.Context, from coregame.Square) ([][]int, error) {
	if b.session == nil {
		return nil, errNoGame
	}
	return gamepresenter.ToDTOMoves(b.session.LegalMoves(from)), nil
}

func (b *localBackend) Resign(context.Context) (*gamedto.SessionState, error) {
	if b.session == nil {
		return nil, errNoGame
	}
	if b.session.State.Terminal() {
		return nil, svcgame.ErrGameFinished
	}
	b.session.Resign()
	b.resigned = true
	return gamepresenter.FromSession(b.session, b.statusMessage()), nil
}

func (b *localBackend) Restart(context.Context) (*gamedto.SessionState, error) {
	if b.session == nil {
		return nil, errNoGame
	}
	b.session.Reset()
	b.resigned = false
	b.last = nil
	msg := b.catalog.Text("game.restarted", map[string]any{"White": b.session.Scores.White, "Black": b.session.Scores.Black}, "board reset")
	return gamepresenter.FromSession(b.session, msg), nil
}

func (b *localBackend) Image(ctx context.Context) ([]byte, error) {
	if b.session == nil {
		return nil, errNoGame
	}
	if b.renderer == nil {
		return nil, svcgame.ErrRenderDisabled
	}
	return b.renderer.RenderPNG(ctx, &b.session.Board, svcgame.RenderOptions{
		Highlight: b.last,
		Chain:     b.session.Chain,
		Scores:    b.session.Scores,
		HUDHeader: b.opts.Ruleset.String() + " - " + string(b.opts.Mode),
		HUDTurn:   b.statusMessage(),
	})
}

func (b *localBackend) statusMessage() string {
	turn := titleCase(b.session.Turn.String())
	winner := titleCase(b.session.Winner.String())
	data := map[string]any{"Turn": turn, "Winner": winner, "Loser": titleCase(b.session.Winner.Opponent().String())}
	switch b.session.State {
	case coregame.StateCheck:
		return b.catalog.Text("state.check", data, "check")
	case coregame.StateCheckmate:
		return b.catalog.Text("state.checkmate", data, "checkmate")
	case coregame.StateStalemate:
		return b.catalog.Text("state.stalemate", data, "stalemate")
	case coregame.StateWin:
		if b.resigned {
			return b.catalog.Text("game.resigned", data, "resigned")
		}
		return b.catalog.Text("state.win", data, "win")
	case coregame.StateDraw:
		return b.catalog.Text("state.draw", data, "draw")
	default:
		return b.catalog.Text("state.playing", data, "playing")
	}
}

func (b *localBackend) rejectMessage(msg string) string {
	switch msg {
	case coregame.MsgGameOver:
		return b.catalog.Text("move.game_over", nil, msg)
	case coregame.MsgMustCapture:
		return b.catalog.Text("move.must_capture", nil, msg)
	case coregame.MsgChainJump:
		square := ""
		if b.session.Chain != nil {
			square = b.session.Chain.String()
		}
		return b.catalog.Text("move.chain_jump", map[string]any{"Square": square}, msg)
	default:
		return b.catalog.Text("move.invalid", nil, msg)
	}
}

// ---- remote board server ----

type remoteBackend struct {
	client   *boardclient.Client
	opts     gameOptions
	playerID string
	gameID   string
}

func newRemoteBackend(client *boardclient.Client, opts gameOptions, playerID string) *remoteBackend {
	return &remoteBackend{client: client, opts: opts, playerID: playerID}
}

func (b *remoteBackend) Start(ctx context.Context) (*gamedto.SessionState, error) {
	state, err := b.client.NewGame(ctx, gamedto.NewGameRequest{
		GameType:   b.opts.Ruleset.String(),
		Mode:       string(b.opts.Mode),
		Difficulty: b.opts.Difficulty.String(),
		PlayerID:   b.playerID,
	})
	if err != nil {
		return nil, err
	}
	b.gameID = state.GameID
	return state, nil
}

func (b *remoteBackend) State(ctx context.Context) (*gamedto.SessionState, error) {
	if b.gameID == "" {
		return nil, errNoGame
	}
	return b.client.State(ctx, b.gameID)
}

func (b *remoteBackend) Move(ctx context.Context, from, to coregame.Square) (*gamedto.MoveResponse, error) {
	if b.gameID == "" {
		return nil, errNoGame
	}
	fr, fc, tr, tc := from.Row, from.Col, to.Row, to.Col
	return b.client.Move(ctx, b.opts.Ruleset.String(), gamedto.MoveRequest{
		GameID: b.gameID, FromRow: &fr, FromCol: &fc, ToRow: &tr, ToCol: &tc,
	})
}

func (b *remoteBackend) Targets(ctx context.Context, from coregame.Square) ([][]int, error) {
	if b.gameID == "" {
		return nil, errNoGame
	}
	row, col := from.Row, from.Col
	return b.client.PossibleMoves(ctx, gamedto.PossibleMovesRequest{GameID: b.gameID, FromRow: &row, FromCol: &col})
}

func (b *remoteBackend) Resign(ctx context.Context) (*gamedto.SessionState, error) {
	if b.gameID == "" {
		return nil, errNoGame
	}
	return b.client.Resign(ctx, b.gameID)
}

func (b *remoteBackend) Restart(ctx context.Context) (*gamedto.SessionState, error) {
	if b.gameID == "" {
		return nil, errNoGame
	}
	return b.client.Restart(ctx, b.gameID)
}

func (b *remoteBackend) Image(ctx context.Context) ([]byte, error) {
	if b.gameID == "" {
		return nil, errNoGame
	}
	return b.client.BoardImage(ctx, b.gameID)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
