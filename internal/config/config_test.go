package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAMLWithEnvOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
log:
  level: debug
redis:
  addr: localhost:6379
  db: 2
quiz:
  namespace: trivia
telegram:
  token: from-file
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TG_TOKEN", "from-env")
	t.Setenv("VK_TOKEN", "vk-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.Log.Level)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("unexpected redis config %+v", cfg.Redis)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("expected env to override file, got %q", cfg.Telegram.Token)
	}
	if cfg.VK.Token != "vk-secret" {
		t.Fatalf("expected vk token from env, got %q", cfg.VK.Token)
	}
	if cfg.Quiz.Namespace != "trivia" || cfg.Quiz.QuestionsPath != "questions.json" {
		t.Fatalf("unexpected quiz config %+v", cfg.Quiz)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Quiz.Namespace != "quiz" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadAcceptsLegacyEnvNames(t *testing.T) {
	t.Setenv("BOT_TOKEN", "legacy-token")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "legacy-token" {
		t.Fatalf("expected BOT_TOKEN fallback, got %q", cfg.Telegram.Token)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Fatalf("expected addr from host and port, got %q", cfg.Redis.Addr)
	}

	t.Setenv("TG_TOKEN", "primary")
	t.Setenv("REDIS_ADDR", "cache:6379")
	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "primary" || cfg.Redis.Addr != "cache:6379" {
		t.Fatalf("expected primary names to win, got token=%q addr=%q", cfg.Telegram.Token, cfg.Redis.Addr)
	}
}

func TestDuration(t *testing.T) {
	if d := Duration("", time.Second); d != time.Second {
		t.Fatalf("expected fallback, got %v", d)
	}
	if d := Duration("bogus", time.Second); d != time.Second {
		t.Fatalf("expected fallback on invalid, got %v", d)
	}
	if d := Duration("250ms", time.Second); d != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", d)
	}
}
