// Package redis provides a Redis-backed StateStore and a distributed locker
// for multi-replica hosts.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/parleykit/parley/pkg/domain"
)

// Store implements ports.StateStore using Redis. Bags are JSON values keyed
// by prefix+principal; an auxiliary ZSET indexes known principals so List
// avoids SCAN.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for state bags.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for state bags.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "parley:state:",
		ttl:    0, // no expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying Redis client so hosts can share one
// connection between the store and a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(principal domain.Principal) string {
	return s.prefix + string(principal)
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the bag and updates the principal index in one pipeline.
func (s *Store) Save(ctx context.Context, principal domain.Principal, bag domain.StateBag) error {
	data, err := json.Marshal(bag)
	if err != nil {
		return fmt.Errorf("marshal state bag: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(principal), data, s.ttl)

	// Index score is the expiry instant so List can prune lazily. Without a
	// TTL the score is far enough in the future to never expire.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: string(principal),
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save to redis: %w", err)
	}
	return nil
}

// Load retrieves the bag from Redis.
func (s *Store) Load(ctx context.Context, principal domain.Principal) (domain.StateBag, error) {
	val, err := s.client.Get(ctx, s.key(principal)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("get from redis: %w", err)
	}

	var bag domain.StateBag
	if err := json.Unmarshal([]byte(val), &bag); err != nil {
		return nil, fmt.Errorf("unmarshal state bag: %w", err)
	}
	return bag, nil
}

// Delete removes the bag and its index entry.
func (s *Store) Delete(ctx context.Context, principal domain.Principal) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(principal))
	pipe.ZRem(ctx, s.indexKey(), string(principal))
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the indexed principals, pruning entries whose TTL has passed.
func (s *Store) List(ctx context.Context) ([]domain.Principal, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("prune expired principals: %w", err)
	}

	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list principals: %w", err)
	}

	principals := make([]domain.Principal, 0, len(members))
	for _, m := range members {
		principals = append(principals, domain.Principal(m))
	}
	return principals, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
