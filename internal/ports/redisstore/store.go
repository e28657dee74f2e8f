// Package redisstore persists party snapshots in Redis as JSON blobs
// with a sliding TTL, so abandoned parties expire on their own.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
)

const keyPrefix = "bigtwo:party:"

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ ports.PartyStore = (*Store)(nil)

// New wraps an existing client. A zero ttl means keys never expire.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Connect dials Redis and verifies the connection with a ping.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, ttl), nil
}

func (s *Store) Load(ctx context.Context, partyID string) (*domain.TableState, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+partyID).Bytes()
	if err == redis.Nil {
		return nil, ports.ErrPartyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load party %s: %w", partyID, err)
	}
	var t domain.TableState
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode party %s: %w", partyID, err)
	}
	return &t, nil
}

func (s *Store) Save(ctx context.Context, t *domain.TableState) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode party %s: %w", t.PartyID, err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+t.PartyID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save party %s: %w", t.PartyID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, partyID string) error {
	if err := s.rdb.Del(ctx, keyPrefix+partyID).Err(); err != nil {
		return fmt.Errorf("delete party %s: %w", partyID, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.rdb.Close() }
