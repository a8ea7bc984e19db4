package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisVersions shares per-key versions across processes and survives
// restarts. With a TTL, idle version keys expire; readers then observe
// version 0 and older entries self-heal.
type RedisVersions struct {
	rdb redis.UniversalClient
	ns  string        // should match Options.Namespace
	ttl time.Duration // 0 disables expiry
}

var _ VersionStore = (*RedisVersions)(nil)

func NewRedisVersions(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisVersions {
	return &RedisVersions{rdb: client, ns: namespace, ttl: ttl}
}

func (s *RedisVersions) key(k string) string { return "ver:" + s.ns + ":" + k }

func (s *RedisVersions) Snapshot(ctx context.Context, storageKey string) (uint64, error) {
	v, err := s.rdb.Get(ctx, s.key(storageKey)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (s *RedisVersions) SnapshotMany(ctx context.Context, storageKeys []string) (map[string]uint64, error) {
	if len(storageKeys) == 0 {
		return map[string]uint64{}, nil
	}
	keys := make([]string, len(storageKeys))
	for i, k := range storageKeys {
		keys[i] = s.key(k)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]uint64, len(storageKeys))
	for i, v := range vals {
		if v == nil {
			out[storageKeys[i]] = 0
			continue
		}
		u, err := strconv.ParseUint(fmt.Sprint(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis version parse at %s: %w", storageKeys[i], err)
		}
		out[storageKeys[i]] = u
	}
	return out, nil
}

// Bump increments the version. With a TTL, INCR and EXPIRE share one
// pipelined round-trip.
func (s *RedisVersions) Bump(ctx context.Context, storageKey string) (uint64, error) {
	k := s.key(storageKey)
	if s.ttl <= 0 {
		return s.rdb.Incr(ctx, k).Uint64()
	}

	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Uint64()
}

// Close closes the underlying Redis client.
func (s *RedisVersions) Close(context.Context) error { return s.rdb.Close() }
