package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/chess-checkers-engine/internal/boardclient"
	coregame "github.com/park285/chess-checkers-engine/internal/game"
	"github.com/park285/chess-checkers-engine/internal/msgcat"
	svc "github.com/park285/chess-checkers-engine/internal/service/game"
	"github.com/park285/chess-checkers-engine/pkg/gamedto"
)

type harness struct {
	client *boardclient.Client
	raw    *fasthttp.Client
	redis  *miniredis.Miniredis
}

func newHarness(t *testing.T, renderer svc.BoardRenderer) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := svc.NewSessionStore("redis://"+mr.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	service, err := svc.NewService(store, svc.NewMemoryRepository(), renderer, msgcat.Default(), svc.Config{HistoryLimit: 5, Seed: 7}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	ln := fasthttputil.NewInmemoryListener()
	server := NewServer(service, nil)
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		_ = ln.Close()
	})

	dial := func(string) (net.Conn, error) { return ln.Dial() }
	return &harness{
		client: boardclient.NewClient("http://board.test", boardclient.WithDial(dial), boardclient.WithRetry(1)),
		raw:    &fasthttp.Client{Dial: dial},
		redis:  mr,
	}
}

func (h *harness) do(t *testing.T, method, path, body string) *fasthttp.Response {
	t.Helper()
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.Header.SetMethod(method)
	req.SetRequestURI("http://board.test" + path)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}
	resp := fasthttp.AcquireResponse()
	t.Cleanup(func() { fasthttp.ReleaseResponse(resp) })
	if err := h.raw.DoTimeout(req, resp, time.Second); err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeError(t *testing.T, resp *fasthttp.Response) gamedto.ErrorResponse {
	t.Helper()
	var out gamedto.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		t.Fatalf("decode error body %q: %v", resp.Body(), err)
	}
	return out
}

func intp(v int) *int { return &v }

func moveRequest(id string, fr, fc, tr, tc int) gamedto.MoveRequest {
	return gamedto.MoveRequest{GameID: id, FromRow: intp(fr), FromCol: intp(fc), ToRow: intp(tr), ToCol: intp(tc)}
}

func apiStatus(err error) int {
	var apiErr *boardclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	got, err := h.client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if diff := cmp.Diff(&gamedto.HealthResponse{Status: "healthy", Message: "Chess & Checkers API is running"}, got); diff != "" {
		t.Fatalf("health (-want +got):\n%s", diff)
	}

	h.redis.Close()
	if _, err := h.client.Health(context.Background()); apiStatus(err) != fasthttp.StatusServiceUnavailable {
		t.Fatalf("health with redis down: %v", err)
	}
}

func TestLocalChessGameFlow(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	state, err := h.client.NewGame(ctx, gamedto.NewGameRequest{GameType: "chess", Mode: "local", Difficulty: "hard", PlayerID: "p1"})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if state.GameID == "" || state.GameType != "chess" || state.Mode != "local" || state.Difficulty != 3 || state.CurrentPlayer != "white" {
		t.Fatalf("unexpected new game: %+v", state)
	}

	moves, err := h.client.PossibleMoves(ctx, gamedto.PossibleMovesRequest{GameID: state.GameID, FromRow: intp(6), FromCol: intp(4)})
	if err != nil {
		t.Fatalf("PossibleMoves: %v", err)
	}
	sortPairs := cmpopts.SortSlices(func(a, b []int) bool { return a[0] < b[0] || (a[0] == b[0] && a[1] < b[1]) })
	if diff := cmp.Diff([][]int{{4, 4}, {5, 4}}, moves, sortPairs); diff != "" {
		t.Fatalf("e2 moves (-want +got):\n%s", diff)
	}

	resp, err := h.client.Move(ctx, "chess", moveRequest(state.GameID, 6, 4, 4, 4))
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !resp.Valid || resp.MoveNotation != "e4" || resp.CurrentPlayer != "black" || resp.AIMove != nil {
		t.Fatalf("unexpected move response: %+v", resp)
	}

	bad, err := h.client.Move(ctx, "chess", moveRequest(state.GameID, 1, 4, 5, 4))
	if err != nil {
		t.Fatalf("illegal Move: %v", err)
	}
	if bad.Valid || bad.Message == "" || bad.CurrentPlayer != "black" {
		t.Fatalf("illegal move should be rejected in-band: %+v", bad)
	}

	if _, err := h.client.Move(ctx, "checkers", moveRequest(state.GameID, 1, 4, 3, 4)); apiStatus(err) != fasthttp.StatusBadRequest {
		t.Fatalf("wrong ruleset endpoint: %v", err)
	}

	resigned, err := h.client.Resign(ctx, state.GameID)
	if err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if resigned.Winner != "white" || resigned.GameState != "win" || resigned.RecordID == 0 {
		t.Fatalf("unexpected resign state: %+v", resigned)
	}
	if _, err := h.client.Resign(ctx, state.GameID); apiStatus(err) != fasthttp.StatusConflict {
		t.Fatalf("second resign: %v", err)
	}

	games, err := h.client.History(ctx, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(games) != 1 || games[0].Method != "resignation" || games[0].Result != "white" {
		t.Fatalf("unexpected history: %+v", games)
	}
	record, err := h.client.Game(ctx, resigned.RecordID)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if record.SessionID != state.GameID || record.PlayerID != "p1" || len(record.Moves) != 1 {
		t.Fatalf("unexpected record: %+v", record)
	}

	board, err := h.client.Scoreboard(ctx, "chess")
	if err != nil {
		t.Fatalf("Scoreboard: %v", err)
	}
	if board.GamesPlayed != 1 || board.WhiteWins != 1 {
		t.Fatalf("unexpected scoreboard: %+v", board)
	}

	restarted, err := h.client.Restart(ctx, state.GameID)
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if restarted.Round != 2 || restarted.GameState != "playing" || restarted.Scores.White != 1 {
		t.Fatalf("unexpected restart: %+v", restarted)
	}

	sessions, err := h.client.Sessions(ctx, "p1")
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].GameID != state.GameID {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	if err := h.client.Discard(ctx, state.GameID); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	_, err = h.client.State(ctx, state.GameID)
	var apiErr *boardclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != fasthttp.StatusNotFound || apiErr.Code != gamedto.CodeSessionNotFound {
		t.Fatalf("state after discard: %v", err)
	}
}

func TestAIGameReplies(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	state, err := h.client.NewGame(ctx, gamedto.NewGameRequest{GameType: "checkers", Difficulty: float64(1)})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if state.Mode != "ai" || state.Difficulty != 1 {
		t.Fatalf("unexpected new game: %+v", state)
	}
	resp, err := h.client.Move(ctx, "checkers", moveRequest(state.GameID, 5, 2, 4, 3))
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !resp.Valid || resp.MoveNotation != "c3-d4" || len(resp.AIMove) != 4 || resp.CurrentPlayer != "white" {
		t.Fatalf("unexpected move response: %+v", resp)
	}
	if len(resp.AIMoves) == 0 || resp.AIMoveNotation != resp.AIMoves[len(resp.AIMoves)-1].Notation {
		t.Fatalf("ai plies inconsistent: %+v", resp.AIMoves)
	}
}

func TestPossibleMovesFromBoard(t *testing.T) {
	h := newHarness(t, nil)
	board := coregame.EncodeBoard(coregame.NewBoard(coregame.Checkers))
	moves, err := h.client.PossibleMoves(context.Background(), gamedto.PossibleMovesRequest{
		GameType: "checkers", Board: board, CurrentPlayer: "white", FromRow: intp(5), FromCol: intp(0),
	})
	if err != nil {
		t.Fatalf("PossibleMoves: %v", err)
	}
	if diff := cmp.Diff([][]int{{4, 1}}, moves); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}

	empty, err := h.client.PossibleMoves(context.Background(), gamedto.PossibleMovesRequest{
		GameType: "checkers", Board: board, CurrentPlayer: "white", FromRow: intp(2), FromCol: intp(1),
	})
	if err != nil {
		t.Fatalf("PossibleMoves: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("opponent piece should have no moves, got %#v", empty)
	}

	_, err = h.client.PossibleMoves(context.Background(), gamedto.PossibleMovesRequest{
		GameType: "checkers", Board: board[:3], FromRow: intp(5), FromCol: intp(0),
	})
	if apiStatus(err) != fasthttp.StatusBadRequest {
		t.Fatalf("short board: %v", err)
	}
}

func TestBoardImage(t *testing.T) {
	h := newHarness(t, svc.NewPNGBoardRenderer())
	state, err := h.client.NewGame(context.Background(), gamedto.NewGameRequest{GameType: "chess", Mode: "local"})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	img, err := h.client.BoardImage(context.Background(), state.GameID)
	if err != nil {
		t.Fatalf("BoardImage: %v", err)
	}
	if !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Fatalf("not a png: % x", img[:8])
	}

	plain := newHarness(t, nil)
	state, err = plain.client.NewGame(context.Background(), gamedto.NewGameRequest{})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	_, err = plain.client.BoardImage(context.Background(), state.GameID)
	var apiErr *boardclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != fasthttp.StatusServiceUnavailable || apiErr.Code != gamedto.CodeUnavailable {
		t.Fatalf("render disabled: %v", err)
	}
}

func TestRequestValidation(t *testing.T) {
	h := newHarness(t, nil)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown route", fasthttp.MethodGet, "/nope", "", fasthttp.StatusNotFound},
		{"wrong method", fasthttp.MethodGet, "/new_game", "", fasthttp.StatusMethodNotAllowed},
		{"empty body", fasthttp.MethodPost, "/new_game", "", fasthttp.StatusBadRequest},
		{"bad json", fasthttp.MethodPost, "/new_game", "{", fasthttp.StatusBadRequest},
		{"bad ruleset", fasthttp.MethodPost, "/new_game", `{"game_type":"go"}`, fasthttp.StatusBadRequest},
		{"bad difficulty", fasthttp.MethodPost, "/new_game", `{"difficulty":"ultra"}`, fasthttp.StatusBadRequest},
		{"difficulty object", fasthttp.MethodPost, "/new_game", `{"difficulty":{}}`, fasthttp.StatusBadRequest},
		{"fractional difficulty", fasthttp.MethodPost, "/new_game", `{"difficulty":2.5}`, fasthttp.StatusBadRequest},
		{"negative difficulty", fasthttp.MethodPost, "/new_game", `{"difficulty":-1}`, fasthttp.StatusBadRequest},
		{"move without coords", fasthttp.MethodPost, "/move/chess", `{"game_id":"x"}`, fasthttp.StatusBadRequest},
		{"move off board", fasthttp.MethodPost, "/move/chess", `{"game_id":"x","from_row":8,"from_col":0,"to_row":0,"to_col":0}`, fasthttp.StatusBadRequest},
		{"move unknown game", fasthttp.MethodPost, "/move/chess", `{"game_id":"x","from_row":6,"from_col":0,"to_row":5,"to_col":0}`, fasthttp.StatusNotFound},
		{"resign without id", fasthttp.MethodPost, "/resign", `{}`, fasthttp.StatusBadRequest},
		{"history id", fasthttp.MethodGet, "/history/abc", "", fasthttp.StatusBadRequest},
		{"history missing", fasthttp.MethodGet, "/history/99", "", fasthttp.StatusNotFound},
		{"scoreboard ruleset", fasthttp.MethodGet, "/scoreboard/go", "", fasthttp.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := h.do(t, tc.method, tc.path, tc.body)
			if resp.StatusCode() != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode(), tc.status, resp.Body())
			}
			if body := decodeError(t, resp); body.Success || body.Error == "" || body.Code == "" {
				t.Fatalf("unexpected error body: %+v", body)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(t, fasthttp.MethodOptions, "/move/chess", "")
	if resp.StatusCode() != fasthttp.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if got := string(resp.Header.Peek("Access-Control-Allow-Origin")); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestParseDifficulty(t *testing.T) {
	cases := []struct {
		in   any
		want coregame.Difficulty
		ok   bool
	}{
		{nil, 0, true},
		{"", 0, true},
		{float64(2), coregame.Medium, true},
		{"hard", coregame.Hard, true},
		{"3", coregame.Hard, true},
		{float64(9), 0, false},
		{2.9, 0, false},
		{1.5, 0, false},
		{float64(-1), 0, false},
		{1e300, 0, false},
		{true, 0, false},
	}
	for _, tc := range cases {
		got, err := parseDifficulty(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("parseDifficulty(%v) = %v, %v", tc.in, got, err)
		}
	}
}

func TestMapError(t *testing.T) {
	status, derr := mapError(errors.New("disk on fire"))
	if status != fasthttp.StatusInternalServerError || derr.Message != "internal error" {
		t.Fatalf("unknown error leaked: %d %+v", status, derr)
	}
	status, derr = mapError(svc.ErrConflict)
	if status != fasthttp.StatusConflict || !derr.Retryable {
		t.Fatalf("conflict: %d %+v", status, derr)
	}
}
