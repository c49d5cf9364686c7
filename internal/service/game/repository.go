package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/park285/chess-checkers-engine/internal/domain"
)

var ErrDuplicateGame = errors.New("game record already exists")

// Repository persists finished games and per-ruleset scoreboards.
// Lookups that find nothing return nil, nil.
type Repository interface {
	InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error)
	GetRecentGames(ctx context.Context, limit int) ([]*domain.GameRecord, error)
	GetGame(ctx context.Context, id int64) (*domain.GameRecord, error)
	GetGameBySession(ctx context.Context, sessionID string, round int) (*domain.GameRecord, error)
	GetScoreboard(ctx context.Context, ruleset string) (*domain.Scoreboard, error)
	UpsertScoreboard(ctx context.Context, board *domain.Scoreboard) error
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS board_games (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT        NOT NULL,
	round       INTEGER     NOT NULL,
	player_id   TEXT        NOT NULL DEFAULT '',
	ruleset     TEXT        NOT NULL,
	mode        TEXT        NOT NULL,
	difficulty  INTEGER     NOT NULL,
	result      TEXT        NOT NULL,
	method      TEXT        NOT NULL,
	moves       JSONB       NOT NULL,
	notation    JSONB       NOT NULL,
	pgn         TEXT        NOT NULL DEFAULT '',
	final_fen   TEXT        NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL,
	ended_at    TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT      NOT NULL,
	UNIQUE (session_id, round)
);
CREATE INDEX IF NOT EXISTS board_games_ended_at_idx ON board_games (ended_at DESC);
CREATE TABLE IF NOT EXISTS board_scoreboards (
	ruleset      TEXT PRIMARY KEY,
	games_played INTEGER     NOT NULL,
	white_wins   INTEGER     NOT NULL,
	black_wins   INTEGER     NOT NULL,
	draws        INTEGER     NOT NULL,
	last_result  TEXT        NOT NULL DEFAULT '',
	last_played  TIMESTAMPTZ,
	updated_at   TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);`

const selectGameColumns = `
		SELECT
			id,
			session_id,
			round,
			player_id,
			ruleset,
			mode,
			difficulty,
			result,
			method,
			moves,
			notation,
			pgn,
			final_fen,
			started_at,
			ended_at,
			duration_ms
		FROM board_games`

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate board schema: %w", err)
	}
	return nil
}

func (r *repository) InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil game record")
	}

	moves, err := json.Marshal(nonNil(game.Moves))
	if err != nil {
		return 0, fmt.Errorf("marshal moves: %w", err)
	}
	notation, err := json.Marshal(nonNil(game.Notation))
	if err != nil {
		return 0, fmt.Errorf("marshal notation: %w", err)
	}

	const query = `
		INSERT INTO board_games (
			session_id,
			round,
			player_id,
			ruleset,
			mode,
			difficulty,
			result,
			method,
			moves,
			notation,
			pgn,
			final_fen,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb, $11, $12, $13, $14, $15)
		ON CONFLICT (session_id, round) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		game.SessionID,
		game.Round,
		game.PlayerID,
		game.Ruleset,
		game.Mode,
		game.Difficulty,
		game.Result,
		game.Method,
		string(moves),
		string(notation),
		game.PGN,
		game.FinalFEN,
		game.StartedAt,
		game.EndedAt,
		game.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert game record: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetRecentGames(ctx context.Context, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := selectGameColumns + `
		ORDER BY ended_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select game records: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game records: %w", err)
	}
	return games, nil
}

func (r *repository) GetGame(ctx context.Context, id int64) (*domain.GameRecord, error) {
	query := selectGameColumns + `
		WHERE id = $1`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return game, err
}

func (r *repository) GetGameBySession(ctx context.Context, sessionID string, round int) (*domain.GameRecord, error) {
	query := selectGameColumns + `
		WHERE session_id = $1 AND round = $2`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, sessionID, round))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return game, err
}

func (r *repository) GetScoreboard(ctx context.Context, ruleset string) (*domain.Scoreboard, error) {
	const query = `
		SELECT
			ruleset,
			games_played,
			white_wins,
			black_wins,
			draws,
			last_result,
			last_played,
			updated_at,
			created_at
		FROM board_scoreboards
		WHERE ruleset = $1`

	var (
		board      domain.Scoreboard
		lastPlayed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, ruleset).Scan(
		&board.Ruleset,
		&board.GamesPlayed,
		&board.WhiteWins,
		&board.BlackWins,
		&board.Draws,
		&board.LastResult,
		&lastPlayed,
		&board.UpdatedAt,
		&board.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select scoreboard: %w", err)
	}
	if lastPlayed.Valid {
		board.LastPlayed = lastPlayed.Time
	}
	return &board, nil
}

func (r *repository) UpsertScoreboard(ctx context.Context, board *domain.Scoreboard) error {
	if board == nil {
		return fmt.Errorf("nil scoreboard")
	}
	const query = `
		INSERT INTO board_scoreboards (
			ruleset,
			games_played,
			white_wins,
			black_wins,
			draws,
			last_result,
			last_played,
			updated_at,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ruleset)
		DO UPDATE SET
			games_played = EXCLUDED.games_played,
			white_wins = EXCLUDED.white_wins,
			black_wins = EXCLUDED.black_wins,
			draws = EXCLUDED.draws,
			last_result = EXCLUDED.last_result,
			last_played = EXCLUDED.last_played,
			updated_at = EXCLUDED.updated_at`

	var lastPlayed sql.NullTime
	if !board.LastPlayed.IsZero() {
		lastPlayed = sql.NullTime{Time: board.LastPlayed, Valid: true}
	}
	created := board.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(
		ctx,
		query,
		board.Ruleset,
		board.GamesPlayed,
		board.WhiteWins,
		board.BlackWins,
		board.Draws,
		board.LastResult,
		lastPlayed,
		board.UpdatedAt,
		created,
	)
	if err != nil {
		return fmt.Errorf("upsert scoreboard: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.GameRecord, error) {
	var (
		game         domain.GameRecord
		movesJSON    []byte
		notationJSON []byte
		durationMS   sql.NullInt64
	)
	err := row.Scan(
		&game.ID,
		&game.SessionID,
		&game.Round,
		&game.PlayerID,
		&game.Ruleset,
		&game.Mode,
		&game.Difficulty,
		&game.Result,
		&game.Method,
		&movesJSON,
		&notationJSON,
		&game.PGN,
		&game.FinalFEN,
		&game.StartedAt,
		&game.EndedAt,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan game record: %w", err)
	}
	if durationMS.Valid {
		game.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesJSON, &game.Moves); err != nil {
		return nil, fmt.Errorf("unmarshal moves: %w", err)
	}
	if err := json.Unmarshal(notationJSON, &game.Notation); err != nil {
		return nil, fmt.Errorf("unmarshal notation: %w", err)
	}
	return &game, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
