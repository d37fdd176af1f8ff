package boot

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"go-authlog/internal/config"
	"go-authlog/internal/discovery/etcd"
	"go-authlog/internal/domain/model"
	"go-authlog/internal/logging"
	"go-authlog/internal/metrics"
	"go-authlog/internal/mq/kafka"
	"go-authlog/internal/repository/postgres"
	redisrepo "go-authlog/internal/repository/redis"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"
	go_otel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

type App struct {
	Config *config.Config
	Logger *logging.Logger
	DB     *gorm.DB
	Redis  *redisrepo.Client
	Kafka  *kafka.Producer
	OpLog  *kafka.AsyncSender
	Etcd   *etcd.Client
	HTTP   *gin.Engine

	regMu      sync.Mutex
	serviceKey string
	leaseID    clientv3.LeaseID
	tracerProv *trace.TracerProvider
	stopCh     chan struct{} // 心跳 / 注册协程关闭
}

func NewApp(c *config.Config, l *logging.Logger, db *gorm.DB, r *redisrepo.Client, k *kafka.Producer, s *kafka.AsyncSender, e *etcd.Client, engine *gin.Engine) *App {
	// 自动迁移（只在配置开启时，开发环境使用）
	if c.Postgres.AutoMigrate {
		if err := postgres.AutoMigrateModels(db, &model.AuthenticationLog{}, &model.AdminUser{}); err != nil {
			l.Error("auto_migrate_failed", zap.Error(err))
		}
	}
	app := &App{Config: c, Logger: l, DB: db, Redis: r, Kafka: k, OpLog: s, Etcd: e, HTTP: engine, stopCh: make(chan struct{})}
	app.initTracing()
	if s != nil {
		s.Start()
	}
	if r != nil {
		app.startRedisHeartbeat()
	}
	if e != nil {
		go app.register()
	}
	return app
}

// initTracing OpenTelemetry 初始化（可选），并为 gorm 挂载 tracing 插件
func (a *App) initTracing() {
	c, l := a.Config, a.Logger
	if !c.OTel.Enable {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.OTel.Endpoint)}
	if c.OTel.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(traceCredentials(false)))
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		l.Error("otel_exporter_init_failed", zap.Error(err))
		return
	}
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(c.AppMeta.Name),
		semconv.ServiceVersionKey.String(c.AppMeta.Version),
		semconv.DeploymentEnvironmentKey.String(c.AppMeta.Env),
	))
	sampler := trace.ParentBased(trace.TraceIDRatioBased(c.OTel.SamplerRatio))
	a.tracerProv = trace.NewTracerProvider(trace.WithBatcher(exp), trace.WithResource(res), trace.WithSampler(sampler))
	go_otel.SetTracerProvider(a.tracerProv)
	go_otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	l.Info("otel_tracer_provider_initialized")
	if a.DB != nil {
		if err := a.DB.Use(tracing.NewPlugin()); err != nil {
			l.Error("gorm_tracing_plugin_failed", zap.Error(err))
		} else {
			l.Info("gorm_tracing_plugin_enabled")
		}
	}
}

// traceCredentials otel.insecure=false 时使用系统根证书的 TLS
func traceCredentials(plaintext bool) credentials.TransportCredentials {
	if plaintext {
		return insecure.NewCredentials()
	}
	return credentials.NewClientTLSFromCert(nil, "")
}

// startRedisHeartbeat 启动时 ping 一次，之后按 heartbeat_sec 周期探测并记录状态切换
func (a *App) startRedisHeartbeat() {
	c, l, r := a.Config, a.Logger, a.Redis
	pingTimeout := time.Duration(c.Redis.PingTimeoutMS) * time.Millisecond
	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		return r.Ping(ctx)
	}
	lastUp := ping() == nil
	if lastUp {
		metrics.RedisUp.Set(1)
		l.Info("redis_ping_ok", zap.String("addr", c.Redis.Addr))
	} else {
		metrics.RedisUp.Set(0)
		l.Error("redis_ping_failed", zap.String("addr", c.Redis.Addr))
	}
	interval := time.Duration(c.Redis.HeartbeatSec) * time.Second
	if interval < 2*time.Second {
		interval = 2 * time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-a.stopCh:
				return
			case <-t.C:
				if err := ping(); err != nil {
					metrics.RedisUp.Set(0)
					if lastUp {
						l.Warn("redis_down", zap.Error(err))
					}
					lastUp = false
				} else {
					metrics.RedisUp.Set(1)
					if !lastUp {
						l.Info("redis_recovered")
					}
					lastUp = true
				}
			}
		}
	}()
}

// register 以 ip:port 为 key 末段注册到 etcd，指数退避重试
func (a *App) register() {
	c, l := a.Config, a.Logger
	port := listenPort(c.HTTP.Addr)
	ip := firstNonLoopbackIPv4()
	if ip == "" {
		ip = "127.0.0.1"
	}
	key := fmt.Sprintf("/services/authlog/%s/%s/%s:%s", c.AppMeta.Env, c.AppMeta.Version, ip, port)
	meta := map[string]interface{}{
		"instance_id":  uuid.NewString(),
		"env":          c.AppMeta.Env,
		"version":      c.AppMeta.Version,
		"ip":           ip,
		"port":         port,
		"addr":         c.HTTP.Addr,
		"panels":       c.Panels,
		"startup_unix": time.Now().Unix(),
	}
	val, _ := json.Marshal(meta)
	const maxAttempts = 5
	for attempt := 1; ; attempt++ {
		leaseID, err := a.Etcd.Register(context.Background(), key, string(val), int64(c.Etcd.TTL))
		if err == nil {
			a.regMu.Lock()
			a.serviceKey, a.leaseID = key, leaseID
			a.regMu.Unlock()
			metrics.EtcdUp.Set(1)
			l.Info("etcd_registered", zap.String("key", key))
			return
		}
		if attempt >= maxAttempts {
			l.Error("etcd_register_failed", zap.Error(err), zap.Int("attempt", attempt))
			return
		}
		backoff := time.Duration(1<<attempt) * 100 * time.Millisecond
		l.Warn("etcd_register_retry", zap.Error(err), zap.Int("attempt", attempt), zap.Duration("backoff", backoff))
		select {
		case <-a.stopCh:
			return
		case <-time.After(backoff):
		}
	}
}

func (a *App) Close() {
	if a.stopCh != nil {
		close(a.stopCh)
	}
	// 优雅下线 etcd
	a.regMu.Lock()
	key, leaseID := a.serviceKey, a.leaseID
	a.regMu.Unlock()
	if a.Etcd != nil && key != "" && leaseID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.Etcd.Deregister(ctx, key, leaseID); err != nil {
			a.Logger.Error("etcd_deregister_failed", zap.Error(err))
		}
		cancel()
		metrics.EtcdUp.Set(0)
	}
	// 先停异步发送器（发完队列），再关 producer
	if a.OpLog != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := a.OpLog.Close(ctx); err != nil {
			a.Logger.Warn("oplog_sender_close_timeout", zap.Error(err))
		}
		cancel()
	}
	if a.Kafka != nil {
		if err := a.Kafka.Close(); err != nil {
			a.Logger.Error("kafka_close_error", zap.Error(err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Logger.Error("db_close_error", zap.Error(err))
			}
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("redis_close_error", zap.Error(err))
		}
	}
	if a.Etcd != nil {
		if err := a.Etcd.Close(); err != nil {
			a.Logger.Error("etcd_close_error", zap.Error(err))
		}
	}
	if a.tracerProv != nil {
		if err := a.tracerProv.Shutdown(context.Background()); err != nil {
			a.Logger.Error("otel_tracer_shutdown_error", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}

// listenPort ":8080" / "0.0.0.0:8080" -> "8080"，解析失败返回 "0"
func listenPort(addr string) string {
	if addr == "" {
		return "8080"
	}
	if _, p, err := net.SplitHostPort(addr); err == nil && p != "" {
		return p
	}
	return "0"
}

// 获取首个非 loopback IPv4
func firstNonLoopbackIPv4() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip4 := ip.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return ""
}
