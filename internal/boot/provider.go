package boot

import (
	"time"

	"go-authlog/internal/config"
	"go-authlog/internal/discovery/etcd"
	"go-authlog/internal/i18n"
	"go-authlog/internal/logging"
	"go-authlog/internal/mq/kafka"
	"go-authlog/internal/panel"
	"go-authlog/internal/pkg/cache"
	"go-authlog/internal/repository/dao"
	"go-authlog/internal/repository/postgres"
	redisrepo "go-authlog/internal/repository/redis"
	"go-authlog/internal/security/jwt"
	httpSrv "go-authlog/internal/server/http"
	"go-authlog/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProvideConfig wraps config.Load for wire with external path param
func ProvideConfig(path string) (*config.Config, error) { return config.Load(path) }

func NewLogger(c *config.Config) (*logging.Logger, error) {
	return logging.New(c.Log.Level, c.Log.Format)
}

func NewPostgres(c *config.Config) (*gorm.DB, error) {
	return postgres.New(postgres.Config{DSN: c.Postgres.DSN, MaxOpen: c.Postgres.MaxOpen, MaxIdle: c.Postgres.MaxIdle,
		AutoMigrate: c.Postgres.AutoMigrate, LogLevel: c.Postgres.LogLevel})
}

func NewRedis(c *config.Config) *redisrepo.Client {
	return redisrepo.New(redisrepo.Config{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB,
		DialTimeout:  time.Duration(c.Redis.DialTimeoutMS) * time.Millisecond,
		ReadTimeout:  time.Duration(c.Redis.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout: time.Duration(c.Redis.WriteTimeoutMS) * time.Millisecond,
		PingTimeout:  time.Duration(c.Redis.PingTimeoutMS) * time.Millisecond,
	})
}

func NewKafkaProducer(c *config.Config) *kafka.Producer {
	return kafka.NewProducer(kafka.Config{Brokers: c.Kafka.Brokers, Topic: c.Kafka.OpLogTopic})
}

// NewOpLogSender 未配置 kafka 时返回 nil；Start 由 NewApp 负责
func NewOpLogSender(p *kafka.Producer, l *logging.Logger, c *config.Config) *kafka.AsyncSender {
	a := c.Kafka.Async
	return kafka.NewAsyncSender(p, l, kafka.AsyncConfig{QueueSize: a.QueueSize, Workers: a.Workers, MaxBatch: a.MaxBatch,
		MaxWait: time.Duration(a.MaxWaitMS) * time.Millisecond})
}

func NewEtcd(c *config.Config) (*etcd.Client, error) {
	return etcd.New(etcd.Config{Endpoints: c.Etcd.Endpoints, TTL: c.Etcd.TTL})
}

func NewJWTManager(c *config.Config) *jwt.Manager {
	return jwt.NewManager(c.JWT.Secret, c.JWT.ExpireSeconds, c.JWT.Issuer)
}

func NewTranslator(c *config.Config) (*i18n.Translator, error) {
	return i18n.New(c.I18n.DefaultLocale, c.I18n.Supported)
}

func NewOwnerRegistry(c *config.Config) (*panel.Registry, error) {
	return panel.NewRegistry(c.Owners)
}

func NewPanels(c *config.Config) []panel.Panel {
	return panel.FromConfig(c.Panels)
}

// NewLogStore 默认直连数据库；country_cache_ttl_sec>0 时国家筛选项走 L1 + Redis L2 缓存，
// 筛选项可能滞后一个 TTL
func NewLogStore(d *dao.AuthenticationLogDAO, r *redisrepo.Client, l *logging.Logger, c *config.Config) service.LogStore {
	var l2 cache.Cache
	if r != nil {
		l2 = cache.NewRedisAdapter(r)
	}
	ttl := time.Duration(c.AuthLog.CountryCacheTTLSec) * time.Second
	return service.NewCachedLogStore(d, cache.NewLayered("authlog_countries", cache.NewLocal(), l2), ttl, l)
}

func NewAuthLogOptions(c *config.Config) (service.AuthLogOptions, error) {
	return service.OptionsFromConfig(c.AuthLog)
}

func ProvideRouter(c *config.Config, l *logging.Logger, j *jwt.Manager, db *gorm.DB, r *redisrepo.Client, p *kafka.Producer,
	s *kafka.AsyncSender, e *etcd.Client, tr *i18n.Translator, panels []panel.Panel, authLog *service.AuthLogService) (*gin.Engine, error) {
	return httpSrv.NewRouter(httpSrv.RouterDeps{
		Config: c, Logger: l, JWT: j, DB: db, Redis: r, Producer: p, OpLog: s, Etcd: e,
		Trans: tr, Panels: panels, AuthLog: authLog,
	})
}

func ProvideApp(c *config.Config, l *logging.Logger, db *gorm.DB, r *redisrepo.Client, k *kafka.Producer, s *kafka.AsyncSender, e *etcd.Client, engine *gin.Engine) *App {
	return NewApp(c, l, db, r, k, s, e, engine)
}
