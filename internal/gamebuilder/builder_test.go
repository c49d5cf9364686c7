package gamebuilder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/park285/chess-checkers-engine/internal/config"
	svcgame "github.com/park285/chess-checkers-engine/internal/service/game"
)

func baseConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	mr := miniredis.RunT(t)
	return &config.AppConfig{
		HTTPAddr:          ":0",
		RedisURL:          "redis://" + mr.Addr() + "/0",
		HistoryBackend:    config.BackendMemory,
		SessionTTL:        time.Hour,
		HistoryLimit:      10,
		DefaultDifficulty: 1,
		RenderBoard:       true,
	}
}

func TestNewMemoryBackend(t *testing.T) {
	deps, err := New(baseConfig(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })

	ctx := context.Background()
	if err := deps.Service.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	state, err := deps.Service.NewGame(ctx, svcgame.NewGameParams{})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if state.Difficulty != 1 {
		t.Fatalf("default difficulty not applied: %v", state.Difficulty)
	}
	if _, err := deps.Service.BoardImage(ctx, state.ID); err != nil {
		t.Fatalf("BoardImage: %v", err)
	}
}

func TestNewBadgerBackend(t *testing.T) {
	cfg := baseConfig(t)
	cfg.HistoryBackend = config.BackendBadger
	cfg.BadgerDir = filepath.Join(t.TempDir(), "history")
	cfg.RenderBoard = false

	deps, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := deps.Repo.(*svcgame.BadgerRepository); !ok {
		t.Fatalf("repo = %T, want badger", deps.Repo)
	}
	if err := deps.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := deps.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}

	cfg := baseConfig(t)
	cfg.RedisURL = "http://nope"
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected error for bad redis url")
	}

	cfg = baseConfig(t)
	cfg.HistoryBackend = "sqlite"
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected error for unknown backend")
	}

	cfg = baseConfig(t)
	cfg.MessagesDir = filepath.Join(t.TempDir(), "missing")
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected error for missing messages dir")
	}
}
