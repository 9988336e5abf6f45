package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/voyager-portal/internal/domain"
	"github.com/pkordes/voyager-portal/internal/session"
)

// redisKeyPrefix namespaces session keys inside a shared Redis database.
const redisKeyPrefix = "voyager:session:"

// redisSessionStore is the Redis implementation of session.Store.
// Each session is one JSON value whose key TTL matches the session expiry,
// so Redis evicts expired sessions on its own.
type redisSessionStore struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisSessionStore constructs a session.Store backed by client.
func NewRedisSessionStore(client redis.Cmdable) session.Store {
	return &redisSessionStore{client: client, now: time.Now}
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("repo.NewRedisClient: %w", err)
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 2

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("repo.NewRedisClient: ping: %w", err)
	}
	return client, nil
}

func (r *redisSessionStore) Save(ctx context.Context, s session.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("repo.RedisSessionStore.Save: encode: %w", err)
	}
	var ttl time.Duration
	if !s.ExpiresAt.IsZero() {
		ttl = s.ExpiresAt.Sub(r.now())
		if ttl <= 0 {
			// Already expired: make sure no stale copy lingers.
			return r.Delete(ctx, s.ID)
		}
	}
	if err := r.client.Set(ctx, redisKeyPrefix+s.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("repo.RedisSessionStore.Save: %w", err)
	}
	return nil
}

func (r *redisSessionStore) Get(ctx context.Context, id string) (session.Session, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Session{}, fmt.Errorf("repo.RedisSessionStore.Get: %w", domain.ErrNotFound)
		}
		return session.Session{}, fmt.Errorf("repo.RedisSessionStore.Get: %w", err)
	}
	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return session.Session{}, fmt.Errorf("repo.RedisSessionStore.Get: decode: %w", err)
	}
	return s, nil
}

func (r *redisSessionStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("repo.RedisSessionStore.Delete: %w", err)
	}
	return nil
}
