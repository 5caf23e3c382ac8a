package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	changestream "github.com/nextworld-tools/mongo-go-driver-core"
)

// Requires a live server reachable at MONGO_URI; skipped in short mode and
// when the variable is unset.
func TestStoreSaveAndLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Disconnect(ctx)

	collection := client.Database("changestream_test").Collection("resume_tokens")
	t.Cleanup(func() { collection.Drop(ctx) })

	store := New(collection)

	if got, err := store.Load(ctx, "stream-a"); err != nil || got != nil {
		t.Fatalf("Load before Save = (%x, %v), want (nil, nil)", got, err)
	}

	token, err := bson.Marshal(bson.M{"token": "t1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := store.Save(ctx, "stream-a", changestream.ResumeToken(token)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "stream-a")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(token) {
		t.Fatalf("Load = %x, want %x", got, token)
	}

	token2, err := bson.Marshal(bson.M{"token": "t2"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := store.Save(ctx, "stream-a", changestream.ResumeToken(token2)); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err = store.Load(ctx, "stream-a")
	if err != nil {
		t.Fatalf("Load after overwrite: %v", err)
	}
	if string(got) != string(token2) {
		t.Fatalf("Load after overwrite = %x, want %x", got, token2)
	}
}
