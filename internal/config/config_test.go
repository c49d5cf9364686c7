package config

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &AppConfig{
		HTTPAddr:          ":8080",
		RedisURL:          "redis://localhost:6379/0",
		HistoryBackend:    BackendMemory,
		SessionTTL:        24 * time.Hour,
		HistoryLimit:      10,
		DefaultDifficulty: 2,
		RenderBoard:       true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("HISTORY_BACKEND", " Badger ")
	t.Setenv("BADGER_DIR", "/var/lib/board")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("HISTORY_LIMIT", "500")
	t.Setenv("DEFAULT_DIFFICULTY", "3")
	t.Setenv("RENDER_BOARD", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HistoryBackend != BackendBadger || cfg.BadgerDir != "/var/lib/board" {
		t.Fatalf("backend = %q dir = %q", cfg.HistoryBackend, cfg.BadgerDir)
	}
	if cfg.SessionTTL != 90*time.Minute || cfg.DefaultDifficulty != 3 || cfg.RenderBoard {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.HistoryLimit != 10 {
		t.Fatalf("out-of-range history limit should fall back to 10, got %d", cfg.HistoryLimit)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing redis", map[string]string{}, "REDIS_URL"},
		{"postgres without dsn", map[string]string{"REDIS_URL": "redis://x", "HISTORY_BACKEND": "postgres"}, "DATABASE_URL"},
		{"badger without dir", map[string]string{"REDIS_URL": "redis://x", "HISTORY_BACKEND": "badger"}, "BADGER_DIR"},
		{"unknown backend", map[string]string{"REDIS_URL": "redis://x", "HISTORY_BACKEND": "mongo"}, "HISTORY_BACKEND"},
		{"bad difficulty", map[string]string{"REDIS_URL": "redis://x", "DEFAULT_DIFFICULTY": "7"}, "DEFAULT_DIFFICULTY"},
		{"bad ttl", map[string]string{"REDIS_URL": "redis://x", "SESSION_TTL": "soon"}, "parse env"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("REDIS_URL", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}
