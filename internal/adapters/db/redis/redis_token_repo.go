package redis

import (
	"context"
	"github.com/redis/go-redis/v9"
	"time"
)

// RedisTokenRepo keeps the jti blocklist. Keys live only as long as the
// token they block could still be presented, so Redis garbage-collects
// the list on its own.
type RedisTokenRepo struct {
	client *redis.Client
}

func NewRedisTokenRepo(client *redis.Client) *RedisTokenRepo {
	return &RedisTokenRepo{
		client: client,
	}
}

func (r *RedisTokenRepo) Revoke(ctx context.Context, jti string, exp time.Time) error {
	return r.client.Set(ctx, "r:"+jti, "1", safeTTL(exp)).Err()
}

// RevokeIfActive is the atomic check-then-revoke for refresh rotation:
// SET NX EX succeeds for exactly one of any number of racing callers.
func (r *RedisTokenRepo) RevokeIfActive(ctx context.Context, jti string, exp time.Time) (bool, error) {
	return r.client.SetNX(ctx, "r:"+jti, "1", safeTTL(exp)).Result()
}

func (r *RedisTokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, "r:"+jti).Result()
	if err != nil {
		// Report revoked alongside the error; the policy decision is
		// the caller's.
		return true, err
	}
	return n > 0, nil
}

func (r *RedisTokenRepo) RevokeAccess(ctx context.Context, jti string, exp time.Time) error {
	return r.client.Set(ctx, "a:"+jti, "1", safeTTL(exp)).Err()
}

func (r *RedisTokenRepo) IsAccessRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, "a:"+jti).Result()
	if err != nil {
		return true, err
	}
	return n > 0, nil
}

func safeTTL(exp time.Time) time.Duration {
	ttl := time.Until(exp)
	if ttl <= 0 {
		// Keep a floor so the key still disappears on its own.
		return time.Hour
	}
	return ttl
}
