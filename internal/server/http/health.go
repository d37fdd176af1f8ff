package http

import (
	"context"
	"sync"
	"time"

	"go-authlog/internal/discovery/etcd"
	"go-authlog/internal/metrics"
	"go-authlog/internal/mq/kafka"
	redisrepo "go-authlog/internal/repository/redis"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type probe struct {
	name    string
	timeout time.Duration
	gauge   prometheus.Gauge
	check   func(ctx context.Context) error // nil 表示未配置
}

// HealthChecker 聚合健康检查（liveness / readiness）
type HealthChecker struct {
	probes []probe

	cacheMu     sync.Mutex
	cacheResult map[string]interface{}
	cacheCode   int
	cacheExpiry time.Time
	cacheTTL    time.Duration
}

// NewHealthChecker db 必须可用；redis / kafka / etcd 未配置时记为 disabled，不影响 readiness
func NewHealthChecker(db *gorm.DB, r *redisrepo.Client, p *kafka.Producer, e *etcd.Client) *HealthChecker {
	dbProbe := probe{name: "db", timeout: 300 * time.Millisecond, gauge: metrics.DBUp}
	if db != nil {
		dbProbe.check = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	redisProbe := probe{name: "redis", timeout: 250 * time.Millisecond, gauge: metrics.RedisUp}
	if r != nil {
		redisProbe.check = r.Ping
	}
	kafkaProbe := probe{name: "kafka", timeout: 250 * time.Millisecond, gauge: metrics.KafkaUp}
	if p != nil {
		kafkaProbe.check = p.Ping
	}
	etcdProbe := probe{name: "etcd", timeout: 250 * time.Millisecond, gauge: metrics.EtcdUp}
	if e != nil {
		etcdProbe.check = e.Ping
	}
	return &HealthChecker{probes: []probe{dbProbe, redisProbe, kafkaProbe, etcdProbe}, cacheTTL: 2 * time.Second}
}

// Liveness 仅表示进程活着，不依赖外部组件
func (h *HealthChecker) Liveness() map[string]interface{} {
	return map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}
}

// Invalidate 丢弃缓存，下次 Readiness 重新探测
func (h *HealthChecker) Invalidate() {
	h.cacheMu.Lock()
	h.cacheExpiry = time.Time{}
	h.cacheMu.Unlock()
}

// Readiness 并发探测外部依赖，带缓存与耗时指标
func (h *HealthChecker) Readiness(ctx context.Context) (map[string]interface{}, int) {
	h.cacheMu.Lock()
	if time.Now().Before(h.cacheExpiry) && h.cacheResult != nil {
		res, code := h.cacheResult, h.cacheCode
		h.cacheMu.Unlock()
		return res, code
	}
	h.cacheMu.Unlock()

	type depResult struct {
		name     string
		up       bool
		disabled bool
		err      string
		dur      time.Duration
	}
	results := make([]depResult, len(h.probes))
	var wg sync.WaitGroup
	for i, p := range h.probes {
		if p.check == nil {
			results[i] = depResult{name: p.name, disabled: true}
			if p.name == "db" {
				results[i] = depResult{name: p.name, err: "nil"}
			}
			continue
		}
		wg.Add(1)
		go func(i int, p probe) {
			defer wg.Done()
			start := time.Now()
			ctx2, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()
			out := depResult{name: p.name}
			if err := p.check(ctx2); err != nil {
				out.err = err.Error()
			} else {
				out.up = true
			}
			out.dur = time.Since(start)
			metrics.DependencyCheckDuration.WithLabelValues(p.name).Observe(out.dur.Seconds())
			if out.up {
				p.gauge.Set(1)
			} else {
				p.gauge.Set(0)
			}
			results[i] = out
		}(i, p)
	}
	wg.Wait()

	res := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}
	detail := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		switch {
		case r.disabled:
			res[r.name] = "disabled"
		case r.up:
			res[r.name] = "up"
		default:
			res[r.name] = r.err
			res["status"] = "degraded"
		}
		ms := float64(r.dur.Microseconds()) / 1000.0
		res[r.name+"_duration_ms"] = ms
		detail = append(detail, map[string]interface{}{"dep": r.name, "up": r.up, "disabled": r.disabled, "error": r.err, "duration_ms": ms})
	}
	res["detail"] = detail

	code := 200
	if res["status"] != "ok" {
		code = 503
	}
	h.cacheMu.Lock()
	h.cacheResult, h.cacheCode = res, code
	h.cacheExpiry = time.Now().Add(h.cacheTTL)
	h.cacheMu.Unlock()
	return res, code
}
