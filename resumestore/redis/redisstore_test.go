package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	changestream "github.com/nextworld-tools/mongo-go-driver-core"
)

// Requires a live Redis reachable at REDIS_URL; skipped in short mode and
// when the variable is unset.
func TestStoreSaveAndLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := New(ctx, Config{URL: url, KeyPrefix: "changestream_test:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	if got, err := store.Load(ctx, "stream-a"); err != nil || got != nil {
		t.Fatalf("Load before Save = (%x, %v), want (nil, nil)", got, err)
	}

	token := changestream.ResumeToken("t1-token-bytes")
	if err := store.Save(ctx, "stream-a", token); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "stream-a")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(token) {
		t.Fatalf("Load = %q, want %q", got, token)
	}
}
