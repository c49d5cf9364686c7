package obslog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitJSONConsole(t *testing.T) {
	restore := Replace(nil)
	t.Cleanup(restore)

	var buf bytes.Buffer
	if err := Init(Options{Level: "debug", Format: "json", ToConsole: true, console: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Info("game_created", zap.String("game_id", "g-1"))
	_ = L().Sync()

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log line is not json: %q: %v", buf.String(), err)
	}
	if entry["msg"] != "game_created" || entry["game_id"] != "g-1" || entry["level"] != "info" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestInitFileSink(t *testing.T) {
	restore := Replace(nil)
	t.Cleanup(restore)

	path := filepath.Join(t.TempDir(), "nested", "board.log")
	if err := Init(Options{Level: "warn", Format: "legacy", ToFile: true, File: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Info("dropped")
	L().Warn("kept")
	_ = L().Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(raw)
	if strings.Contains(text, "dropped") || !strings.Contains(text, "kept") {
		t.Fatalf("level filter not applied: %q", text)
	}
	if !strings.Contains(text, " | WARN | ") {
		t.Fatalf("legacy layout expected, got %q", text)
	}
}

func TestInitFromEnv(t *testing.T) {
	restore := Replace(nil)
	t.Cleanup(restore)

	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("LOG_TO_FILE", "false")
	if err := InitFromEnv(); err != nil {
		t.Fatalf("InitFromEnv: %v", err)
	}
	if L().Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("warn should be disabled at error level")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
