package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chat-core/models"

	"github.com/redis/go-redis/v9"
)

// RedisSessionRepo keeps sessions as JSON values whose TTL matches their
// expiry. Revoking deletes the key.
type RedisSessionRepo struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisSessionRepo(client *redis.Client, prefix string) *RedisSessionRepo {
	if prefix == "" {
		prefix = "chat:session:"
	}
	return &RedisSessionRepo{
		client: client,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *RedisSessionRepo) key(id string) string { return r.prefix + id }

func (r *RedisSessionRepo) Create(ctx context.Context, s *models.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session marshal error: %w", err)
	}
	ok, err := r.client.SetNX(ctx, r.key(s.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("session set error: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (r *RedisSessionRepo) FindActive(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session get error: %w", err)
	}
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session unmarshal error: %w", err)
	}
	if !s.Active(r.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Revoke removes the session. Unknown ids are not an error because an expired
// key disappears on its own.
func (r *RedisSessionRepo) Revoke(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("session delete error: %w", err)
	}
	return nil
}
