package gamebuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/park285/chess-checkers-engine/internal/config"
	coregame "github.com/park285/chess-checkers-engine/internal/game"
	"github.com/park285/chess-checkers-engine/internal/msgcat"
	svcgame "github.com/park285/chess-checkers-engine/internal/service/game"
)

type Deps struct {
	Service *svcgame.Service
	Store   *svcgame.SessionStore
	Repo    svcgame.Repository

	closers []func() error
}

// Close releases the session store and history backend.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := &Deps{}
	ok := false
	defer func() {
		if !ok {
			_ = deps.Close()
		}
	}()

	store, err := svcgame.NewSessionStore(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}
	deps.Store = store
	deps.closers = append(deps.closers, store.Close)

	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.Repo = repo
	if closeRepo != nil {
		deps.closers = append(deps.closers, closeRepo)
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	var renderer svcgame.BoardRenderer
	if cfg.RenderBoard {
		renderer = svcgame.NewPNGBoardRenderer()
	}

	svcCfg := svcgame.Config{
		HistoryLimit:      cfg.HistoryLimit,
		DefaultDifficulty: coregame.Difficulty(cfg.DefaultDifficulty),
	}
	service, err := svcgame.NewService(store, repo, renderer, catalog, svcCfg, logger)
	if err != nil {
		return nil, err
	}
	deps.Service = service

	logger.Info("board_deps_ready",
		zap.String("history_backend", cfg.HistoryBackend),
		zap.Bool("render_board", cfg.RenderBoard),
		zap.Duration("session_ttl", cfg.SessionTTL),
	)
	ok = true
	return deps, nil
}

func openRepository(cfg *config.AppConfig, logger *zap.Logger) (svcgame.Repository, func() error, error) {
	switch cfg.HistoryBackend {
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		// basic pool settings
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := svcgame.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return svcgame.NewRepository(db), db.Close, nil
	case config.BackendBadger:
		repo, err := svcgame.NewBadgerRepository(cfg.BadgerDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger: %w", err)
		}
		return repo, repo.Close, nil
	case config.BackendMemory, "":
		logger.Warn("board_history_in_memory", zap.String("hint", "finished games are lost on restart"))
		return svcgame.NewMemoryRepository(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}
