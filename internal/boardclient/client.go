package boardclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/chess-checkers-engine/pkg/gamedto"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// APIError is a non-2xx answer from the board server.
type APIError struct {
	Status int
	gamedto.DomainError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("board api error: status=%d code=%s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Health(ctx context.Context) (*gamedto.HealthResponse, error) {
	var out gamedto.HealthResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/health", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) NewGame(ctx context.Context, req gamedto.NewGameRequest) (*gamedto.SessionState, error) {
	var out gamedto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/new_game", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) State(ctx context.Context, gameID string) (*gamedto.SessionState, error) {
	var out gamedto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/game_state/"+url.PathEscape(gameID), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PossibleMoves(ctx context.Context, req gamedto.PossibleMovesRequest) ([][]int, error) {
	var out gamedto.PossibleMovesResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/possible_moves", req, &out, true); err != nil {
		return nil, err
	}
	return out.Moves, nil
}

// Move posts to the ruleset's move endpoint; gameType is "chess" or "checkers".
func (c *Client) Move(ctx context.Context, gameType string, req gamedto.MoveRequest) (*gamedto.MoveResponse, error) {
	var out gamedto.MoveResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/move/"+url.PathEscape(gameType), req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Resign(ctx context.Context, gameID string) (*gamedto.SessionState, error) {
	var out gamedto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/resign", gamedto.GameRequest{GameID: gameID}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Restart(ctx context.Context, gameID string) (*gamedto.SessionState, error) {
	var out gamedto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/restart", gamedto.GameRequest{GameID: gameID}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Discard(ctx context.Context, gameID string) error {
	return c.doJSON(ctx, fasthttp.MethodDelete, "/game/"+url.PathEscape(gameID), nil, nil, false)
}

func (c *Client) History(ctx context.Context, limit int) ([]*gamedto.GameRecord, error) {
	path := "/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out gamedto.HistoryResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Games, nil
}

func (c *Client) Game(ctx context.Context, id int64) (*gamedto.GameRecord, error) {
	var out gamedto.GameRecord
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/history/"+strconv.FormatInt(id, 10), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Scoreboard(ctx context.Context, gameType string) (*gamedto.Scoreboard, error) {
	var out gamedto.Scoreboard
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/scoreboard/"+url.PathEscape(gameType), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Sessions(ctx context.Context, playerID string) ([]*gamedto.SessionState, error) {
	var out gamedto.SessionsResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/sessions/"+url.PathEscape(playerID), nil, &out, true); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// BoardImage fetches the rendered PNG for a session.
func (c *Client) BoardImage(ctx context.Context, gameID string) ([]byte, error) {
	var body []byte
	err := c.do(ctx, fasthttp.MethodGet, "/board/"+url.PathEscape(gameID)+".png", nil, true, func(resp *fasthttp.Response) error {
		body = append([]byte(nil), resp.Body()...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}
	return c.do(ctx, method, path, payload, retry, func(resp *fasthttp.Response) error {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, retry bool, onOK func(*fasthttp.Response) error) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if payload != nil {
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			apiErr := decodeAPIError(status, resp.Body())
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return apiErr
			}
			lastErr = apiErr
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}
		return onOK(resp)
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func decodeAPIError(status int, body []byte) *APIError {
	out := &APIError{Status: status}
	var wire gamedto.ErrorResponse
	if err := json.Unmarshal(body, &wire); err == nil && (wire.Error != "" || wire.Code != "") {
		out.Code = wire.Code
		out.Message = wire.Error
		out.Retryable = wire.Retryable
		return out
	}
	out.Message = truncate(string(body), 512)
	return out
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway, fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
