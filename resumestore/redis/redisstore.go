// Package redisstore is a changestream.ResumeTokenStore backed by Redis:
// one string key per checkpoint, holding the last token saved for it.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	changestream "github.com/nextworld-tools/mongo-go-driver-core"
)

// Config holds the connection settings for a Store.
type Config struct {
	URL      string
	Password string

	// KeyPrefix namespaces every checkpoint key this Store reads or
	// writes, so one Redis instance can back several independent
	// checkpoint sets. Defaults to "changestream:resume-token:".
	KeyPrefix string
}

// Store is a changestream.ResumeTokenStore backed by a Redis client.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// New parses cfg.URL, connects, and pings to fail fast on a bad
// configuration rather than on the first Save/Load.
func New(ctx context.Context, cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redisstore: connect: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "changestream:resume-token:"
	}

	return &Store{rdb: rdb, prefix: prefix}, nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) key(checkpointKey string) string {
	return s.prefix + checkpointKey
}

func (s *Store) Save(ctx context.Context, key string, token changestream.ResumeToken) error {
	if err := s.rdb.Set(ctx, s.key(key), []byte(token), 0).Err(); err != nil {
		return fmt.Errorf("redisstore: save %q: %w", key, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) (changestream.ResumeToken, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: load %q: %w", key, err)
	}
	return changestream.ResumeToken(val), nil
}

var _ changestream.ResumeTokenStore = (*Store)(nil)
