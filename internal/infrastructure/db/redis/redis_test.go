package redis

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestConnect_RequiresAddr(t *testing.T) {
	if _, err := Connect(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without address")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatalf("expected ping error")
	}
	if !strings.Contains(err.Error(), "redis ping") {
		t.Fatalf("unexpected error: %v", err)
	}
}
