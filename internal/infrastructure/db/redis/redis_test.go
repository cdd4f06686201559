package redis

import (
	"context"
	"testing"
	"time"
)

func TestConnect_Unreachable(t *testing.T) {
	ctx := context.Background()
	if _, err := Connect(ctx, Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond}); err == nil {
		t.Fatalf("expected an error for an unreachable server")
	}
}
