package cache

import (
	"context"
	"time"

	"go-authlog/internal/metrics"
)

// backfillTTL L2 无法给出剩余 TTL 时回填 L1 的兜底时长
const backfillTTL = 30 * time.Second

// Layered 读：L1 -> L2 -> miss；写 / 删：两层都执行。L1 或 L2 均可为 nil
type Layered struct {
	L1   Cache
	L2   Cache
	name string
}

// NewLayered name 作为指标 cache 标签
func NewLayered(name string, l1, l2 Cache) *Layered { return &Layered{L1: l1, L2: l2, name: name} }

func (c *Layered) Get(ctx context.Context, key string) (string, error) {
	if c.L1 != nil {
		if v, _ := c.L1.Get(ctx, key); v != "" {
			metrics.CacheLookups.WithLabelValues(c.name, "l1").Inc()
			return v, nil
		}
	}
	if c.L2 != nil {
		v, err := c.L2.Get(ctx, key)
		if err != nil {
			metrics.CacheLookups.WithLabelValues(c.name, "error").Inc()
			return "", err
		}
		if v != "" {
			metrics.CacheLookups.WithLabelValues(c.name, "l2").Inc()
			if c.L1 != nil {
				ttl := backfillTTL
				if tf, ok := c.L2.(TTLFetcher); ok {
					if d, ok2 := tf.RemainingTTL(ctx, key); ok2 {
						ttl = d
					}
				}
				_ = c.L1.SetEX(ctx, key, v, ttl)
			}
			return v, nil
		}
	}
	metrics.CacheLookups.WithLabelValues(c.name, "miss").Inc()
	return "", nil
}

// SetEX L1 失败不影响结果，返回 L2 的错误
func (c *Layered) SetEX(ctx context.Context, key, val string, ttl time.Duration) error {
	if c.L1 != nil {
		_ = c.L1.SetEX(ctx, key, val, ttl)
	}
	if c.L2 != nil {
		return c.L2.SetEX(ctx, key, val, ttl)
	}
	return nil
}

func (c *Layered) Del(ctx context.Context, keys ...string) error {
	if c.L1 != nil {
		_ = c.L1.Del(ctx, keys...)
	}
	if c.L2 != nil {
		return c.L2.Del(ctx, keys...)
	}
	return nil
}
