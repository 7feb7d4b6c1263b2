package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in redis with the TTL applied at SET time,
// so expiry is enforced by redis itself.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a store issuing sessions with the given fixed lifetime.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, prefix: "classboard:session:"}
}

// Create issues a new opaque token bound to the username.
func (s *RedisStore) Create(ctx context.Context, username string) (Grant, error) {
	token := uuid.NewString()
	exp := time.Now().Add(s.ttl)
	if err := s.client.Set(ctx, s.prefix+token, username, s.ttl).Err(); err != nil {
		return Grant{}, err
	}
	return Grant{Token: token, Username: username, ExpiresAt: exp}, nil
}

// Get returns the attributes for a live token, nil when unknown or expired.
func (s *RedisStore) Get(ctx context.Context, token string) (*Attrs, error) {
	username, err := s.client.Get(ctx, s.prefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return &Attrs{Username: username}, nil
}

// Rebind swaps the username held by a live session without resetting
// the remaining lifetime. SETXX keeps an expired token gone.
func (s *RedisStore) Rebind(ctx context.Context, token, username string) error {
	return s.client.SetXX(ctx, s.prefix+token, username, redis.KeepTTL).Err()
}

// Destroy forgets the token. Unknown tokens are a no-op.
func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.prefix+token).Err()
}
