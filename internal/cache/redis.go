package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"minibar/backend/internal/domain"
)

// Redis stores cart snapshots as JSON values under a namespaced key with a
// TTL, so an abandoned kiosk session expires on its own.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, addr string, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}

func (r *Redis) Get(ctx context.Context, sessionID string) (*domain.CartSnapshot, bool, error) {
	raw, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var snap domain.CartSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt entry is dropped rather than wedging the session.
		_ = r.client.Del(ctx, cartKey(sessionID)).Err()
		return nil, false, nil
	}
	return &snap, true, nil
}

func (r *Redis) Set(ctx context.Context, sessionID string, snap domain.CartSnapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, cartKey(sessionID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
