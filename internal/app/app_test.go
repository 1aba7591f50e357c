package app

import (
	"context"
	"testing"
	"time"

	"landing-bot/internal/bot"
	"landing-bot/internal/config"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
)

func TestNewSessionStoreMemory(t *testing.T) {
	cfg := config.Default()

	store, closeFn, err := newSessionStore(context.Background(), &cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newSessionStore: %v", err)
	}
	defer closeFn()

	if _, ok := store.(*bot.MemorySessionStore); !ok {
		t.Fatalf("store = %T", store)
	}
}

func TestNewSessionStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Session.Backend = "redis"
	cfg.Redis.Addr = mr.Addr()

	store, closeFn, err := newSessionStore(context.Background(), &cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newSessionStore: %v", err)
	}
	defer closeFn()

	if _, ok := store.(*bot.RedisSessionStore); !ok {
		t.Fatalf("store = %T", store)
	}
}

func TestNewSessionStoreRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Session.Backend = "redis"
	cfg.Redis.Addr = addr

	if _, _, err := newSessionStore(context.Background(), &cfg, zap.NewNop()); err == nil {
		t.Fatal("unreachable redis accepted")
	}
}

func TestExportSinksNotConfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Sheets.CredentialsPath = t.TempDir() + "/missing.json"

	if sinks := exportSinks(context.Background(), &cfg, time.UTC, zap.NewNop()); len(sinks) != 0 {
		t.Fatalf("sinks = %d, want 0", len(sinks))
	}
}
