// Package cache 两级字符串缓存：进程内 L1 + Redis L2。
//
// value 统一以 string 存储，JSON 编解码在业务侧处理；空串视为未命中。
package cache

import (
	"context"
	"sync"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEX(ctx context.Context, key, val string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// TTLFetcher 可选接口：返回剩余 TTL，供 Layered 回填 L1 时透传
type TTLFetcher interface {
	RemainingTTL(ctx context.Context, key string) (time.Duration, bool)
}

type item struct {
	val string
	exp time.Time
}

// Local 线程安全、带 TTL 的进程级缓存；过期条目在读取时惰性清理
type Local struct {
	mu   sync.RWMutex
	data map[string]item
}

func NewLocal() *Local { return &Local{data: make(map[string]item)} }

func (c *Local) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	it, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return "", nil
	}
	if !it.exp.IsZero() && time.Now().After(it.exp) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return "", nil
	}
	return it.val, nil
}

// SetEX ttl<=0 表示不过期
func (c *Local) SetEX(_ context.Context, key, val string, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.data[key] = item{val: val, exp: exp}
	c.mu.Unlock()
	return nil
}

func (c *Local) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.mu.Unlock()
	return nil
}

// RemainingTTL 无过期时间或已过期返回 false
func (c *Local) RemainingTTL(_ context.Context, key string) (time.Duration, bool) {
	c.mu.RLock()
	it, ok := c.data[key]
	c.mu.RUnlock()
	if !ok || it.exp.IsZero() {
		return 0, false
	}
	d := time.Until(it.exp)
	return d, d > 0
}
