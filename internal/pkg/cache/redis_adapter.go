package cache

import (
	"context"
	"errors"
	"time"

	redisrepo "go-authlog/internal/repository/redis"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter 以 redis 作为 L2
type RedisAdapter struct{ c *redisrepo.Client }

func NewRedisAdapter(c *redisrepo.Client) *RedisAdapter { return &RedisAdapter{c: c} }

// Get key 不存在返回空串；连接错误原样返回
func (r *RedisAdapter) Get(ctx context.Context, key string) (string, error) {
	v, err := r.c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (r *RedisAdapter) SetEX(ctx context.Context, key, val string, ttl time.Duration) error {
	return r.c.Client.Set(ctx, key, val, ttl).Err()
}

func (r *RedisAdapter) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.c.Client.Del(ctx, keys...).Err()
}

// RemainingTTL TTL 命令：-2 不存在，-1 无过期
func (r *RedisAdapter) RemainingTTL(ctx context.Context, key string) (time.Duration, bool) {
	d, err := r.c.Client.TTL(ctx, key).Result()
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
