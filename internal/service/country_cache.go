package service

import (
	"context"
	"encoding/json"
	"time"

	"go-authlog/internal/logging"
	"go-authlog/internal/pkg/cache"

	"go.uber.org/zap"
)

// CountryCacheKey 国家筛选项缓存 key
const CountryCacheKey = "authlog:countries"

// CachedLogStore 为 Countries 加一层缓存，List 直通。
// 缓存期内新出现的国家不会出现在筛选项中，选中它也会被当作无效选择忽略
type CachedLogStore struct {
	LogStore
	Cache  cache.Cache
	TTL    time.Duration
	Logger *logging.Logger
}

// NewCachedLogStore ttl<=0 或 c 为 nil 时不加缓存，直接返回 inner
func NewCachedLogStore(inner LogStore, c cache.Cache, ttl time.Duration, l *logging.Logger) LogStore {
	if c == nil || ttl <= 0 {
		return inner
	}
	return &CachedLogStore{LogStore: inner, Cache: c, TTL: ttl, Logger: l}
}

// Countries 缓存读写失败只记日志，回落到数据库
func (s *CachedLogStore) Countries(ctx context.Context) ([]string, error) {
	lg := logging.FromContext(ctx, s.Logger)
	raw, err := s.Cache.Get(ctx, CountryCacheKey)
	if err != nil {
		lg.Warn("country_cache_get_failed", zap.Error(err))
	}
	if raw != "" {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out, nil
		}
		lg.Warn("country_cache_corrupt", zap.String("key", CountryCacheKey))
	}
	out, err := s.LogStore.Countries(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	b, _ := json.Marshal(out)
	if err := s.Cache.SetEX(ctx, CountryCacheKey, string(b), s.TTL); err != nil {
		lg.Warn("country_cache_set_failed", zap.Error(err))
	}
	return out, nil
}
