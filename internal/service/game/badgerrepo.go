package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/park285/chess-checkers-engine/internal/domain"
)

const (
	badgerGamePrefix       = "game:"
	badgerSessionPrefix    = "session:"
	badgerScoreboardPrefix = "scoreboard:"
	badgerSequenceKey      = "seq:game"
	badgerConflictRetries  = 3
)

// BadgerRepository stores history in an embedded Badger database, for
// single-node deployments without PostgreSQL.
type BadgerRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

func NewBadgerRepository(dir string) (*BadgerRepository, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("badger directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create badger dir: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	seq, err := db.GetSequence([]byte(badgerSequenceKey), 64)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("badger sequence: %w", err)
	}
	return &BadgerRepository{db: db, seq: seq}, nil
}

func (r *BadgerRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	if r.seq != nil {
		_ = r.seq.Release()
	}
	return r.db.Close()
}

func (r *BadgerRepository) InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil game record")
	}
	sessionKey := []byte(badgerSessionPrefix + sessionRoundKey(game.SessionID, game.Round))

	var id int64
	err := r.retry(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(sessionKey)
		if err == nil {
			return ErrDuplicateGame
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		next, err := r.seq.Next()
		if err != nil {
			return fmt.Errorf("next game id: %w", err)
		}
		id = int64(next) + 1

		stored := cloneRecord(game)
		stored.ID = id
		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		if err := txn.Set(gameKey(id), data); err != nil {
			return err
		}
		return txn.Set(sessionKey, []byte(strconv.FormatInt(id, 10)))
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateGame) {
			return 0, err
		}
		return 0, fmt.Errorf("insert game record: %w", err)
	}
	return id, nil
}

// GetRecentGames walks game keys newest id first. Ids are assigned when a
// game ends, so id order is end-time order.
func (r *BadgerRepository) GetRecentGames(ctx context.Context, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	games := make([]*domain.GameRecord, 0, limit)
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(badgerGamePrefix)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append(append([]byte(nil), prefix...), 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			if len(games) >= limit {
				break
			}
			var game domain.GameRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &game)
			}); err != nil {
				return err
			}
			games = append(games, &game)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list game records: %w", err)
	}
	return games, nil
}

func (r *BadgerRepository) GetGame(ctx context.Context, id int64) (*domain.GameRecord, error) {
	var game *domain.GameRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gameKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		game = &domain.GameRecord{}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, game)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get game record: %w", err)
	}
	return game, nil
}

func (r *BadgerRepository) GetGameBySession(ctx context.Context, sessionID string, round int) (*domain.GameRecord, error) {
	var id int64
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerSessionPrefix + sessionRoundKey(sessionID, round)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			n, err := strconv.ParseInt(string(val), 10, 64)
			id = n
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get game by session: %w", err)
	}
	if id == 0 {
		return nil, nil
	}
	return r.GetGame(ctx, id)
}

func (r *BadgerRepository) GetScoreboard(ctx context.Context, ruleset string) (*domain.Scoreboard, error) {
	var board *domain.Scoreboard
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerScoreboardPrefix + strings.TrimSpace(ruleset)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		board = &domain.Scoreboard{}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, board)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get scoreboard: %w", err)
	}
	return board, nil
}

func (r *BadgerRepository) UpsertScoreboard(ctx context.Context, board *domain.Scoreboard) error {
	if board == nil {
		return nil
	}
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return r.retry(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerScoreboardPrefix+strings.TrimSpace(board.Ruleset)), data)
	})
}

// retry runs fn in a read-write transaction, repeating on transaction conflicts.
func (r *BadgerRepository) retry(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < badgerConflictRetries; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = r.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// gameKey zero-pads the id so lexical key order matches numeric order.
func gameKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", badgerGamePrefix, id))
}
