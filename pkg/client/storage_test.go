package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, KeyToken); ok || err != nil {
		t.Fatalf("expected empty storage, got ok=%v err=%v", ok, err)
	}
	if err := s.SetMany(ctx, map[string]string{KeyToken: "t", KeyUser: `{"id":"1"}`}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	if v, ok, _ := s.Get(ctx, KeyUser); !ok || v != `{"id":"1"}` {
		t.Fatalf("unexpected user value %q", v)
	}
	if err := s.Delete(ctx, KeyToken, KeyUser); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, KeyToken); ok {
		t.Fatalf("token survived Delete")
	}
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseStorage(t, NewFileStorage(path))
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed after clearing every key")
	}
}

func TestFileStorage_PermissionsAndCorruption(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStorage(path)

	if err := s.SetMany(ctx, map[string]string{KeyToken: "t"}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}

	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := s.Get(ctx, KeyToken); err == nil {
		t.Fatalf("expected decode error for corrupt file")
	}
	if err := s.SetMany(ctx, map[string]string{KeyToken: "fresh"}); err != nil {
		t.Fatalf("SetMany over corrupt file: %v", err)
	}
	if v, _, _ := s.Get(ctx, KeyToken); v != "fresh" {
		t.Fatalf("unexpected value %q", v)
	}
}

func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("MARKET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MARKET_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	exerciseStorage(t, NewRedisStorage(rdb, "marketctl-test:"+t.Name()))
}
