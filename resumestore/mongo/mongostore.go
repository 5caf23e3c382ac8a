// Package mongostore is a changestream.ResumeTokenStore backed by a Mongo
// collection: one document per key, holding the last token saved for it.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	changestream "github.com/nextworld-tools/mongo-go-driver-core"
)

type checkpoint struct {
	ID    string                   `bson:"_id"`
	Token changestream.ResumeToken `bson:"token"`
}

// Store is a changestream.ResumeTokenStore that upserts one checkpoint
// document per key into a collection.
type Store struct {
	collection *mongo.Collection
}

// New wraps collection. Callers are responsible for creating the
// collection and any indexes; Store issues plain upserts against _id and
// needs no secondary index.
func New(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

func (s *Store) Save(ctx context.Context, key string, token changestream.ResumeToken) error {
	filter := bson.D{{Key: "_id", Value: key}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "token", Value: bson.Raw(token)}}}}
	_, err := s.collection.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongostore: save %q: %w", key, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) (changestream.ResumeToken, error) {
	var doc checkpoint
	err := s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore: load %q: %w", key, err)
	}
	return doc.Token, nil
}

var _ changestream.ResumeTokenStore = (*Store)(nil)
