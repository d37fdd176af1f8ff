package config

import (
	"errors"
	"fmt"
	"strings"

	"go-authlog/internal/domain/model"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`
	Postgres struct {
		DSN         string `mapstructure:"dsn"`
		MaxOpen     int    `mapstructure:"max_open"`
		MaxIdle     int    `mapstructure:"max_idle"`
		AutoMigrate bool   `mapstructure:"auto_migrate"`
		LogLevel    string `mapstructure:"log_level"`
	} `mapstructure:"postgres"`
	Redis struct {
		Addr           string `mapstructure:"addr"`
		Password       string `mapstructure:"password"`
		DB             int    `mapstructure:"db"`
		JTIPrefix      string `mapstructure:"jti_prefix"`
		DialTimeoutMS  int    `mapstructure:"dial_timeout_ms"`
		ReadTimeoutMS  int    `mapstructure:"read_timeout_ms"`
		WriteTimeoutMS int    `mapstructure:"write_timeout_ms"`
		PingTimeoutMS  int    `mapstructure:"ping_timeout_ms"`
		HeartbeatSec   int    `mapstructure:"heartbeat_sec"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers    []string `mapstructure:"brokers"`
		OpLogTopic string   `mapstructure:"op_log_topic"`
		Async      struct {
			QueueSize int `mapstructure:"queue_size"`
			Workers   int `mapstructure:"workers"`
			MaxBatch  int `mapstructure:"max_batch"`
			MaxWaitMS int `mapstructure:"max_wait_ms"`
		} `mapstructure:"async"`
	} `mapstructure:"kafka"`
	Etcd struct {
		Endpoints []string `mapstructure:"endpoints"`
		TTL       int      `mapstructure:"ttl"`
	} `mapstructure:"etcd"`
	JWT struct {
		Secret        string `mapstructure:"secret"`
		Issuer        string `mapstructure:"issuer"`
		ExpireSeconds int    `mapstructure:"expire_seconds"`
	} `mapstructure:"jwt"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	AppMeta struct {
		Name    string `mapstructure:"name"`
		Version string `mapstructure:"version"`
		Env     string `mapstructure:"env"`
	} `mapstructure:"app_meta"`
	OTel struct {
		Endpoint     string  `mapstructure:"endpoint"` // OTLP gRPC endpoint
		Insecure     bool    `mapstructure:"insecure"`
		SamplerRatio float64 `mapstructure:"sampler_ratio"`
		Enable       bool    `mapstructure:"enable"`
	} `mapstructure:"otel"`
	I18n struct {
		DefaultLocale string   `mapstructure:"default_locale"`
		Supported     []string `mapstructure:"supported"`
	} `mapstructure:"i18n"`
	AuthLog AuthLog `mapstructure:"authlog"`
	Panels  []Panel `mapstructure:"panels"`
	Owners  []Owner `mapstructure:"owners"`
}

// AuthLog 认证日志表格的展示参数
type AuthLog struct {
	Sort struct {
		Column    string `mapstructure:"column"`
		Direction string `mapstructure:"direction"`
		UserFirst bool   `mapstructure:"user_first"`
	} `mapstructure:"sort"`
	PerPageOptions     []int  `mapstructure:"per_page_options"`
	PerPage            int    `mapstructure:"per_page"`
	UserAgentLimit     int    `mapstructure:"user_agent_limit"`
	Timezone           string `mapstructure:"timezone"`
	CountryCacheTTLSec int    `mapstructure:"country_cache_ttl_sec"` // 0 关闭国家筛选项缓存
}

// Panel 一个后台面板（路径前缀 + 是否多租户）
type Panel struct {
	ID      string `mapstructure:"id"`
	Path    string `mapstructure:"path"`
	Tenancy bool   `mapstructure:"tenancy"`
}

// Owner 可作为日志归属方的资源登记项
type Owner struct {
	Type        string `mapstructure:"type"`
	Table       string `mapstructure:"table"`
	LabelColumn string `mapstructure:"label_column"`
	Slug        string `mapstructure:"slug"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	// 默认值
	v.SetDefault("app_meta.name", "GOAuthLog")
	v.SetDefault("app_meta.version", "v1")
	v.SetDefault("app_meta.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("postgres.log_level", "warn")
	v.SetDefault("jwt.expire_seconds", 7200)
	v.SetDefault("redis.ping_timeout_ms", 500)
	v.SetDefault("redis.heartbeat_sec", 10)
	v.SetDefault("kafka.op_log_topic", "authlog_op_log")
	v.SetDefault("kafka.async.queue_size", 10000)
	v.SetDefault("kafka.async.workers", 1)
	v.SetDefault("kafka.async.max_batch", 50)
	v.SetDefault("kafka.async.max_wait_ms", 20)
	v.SetDefault("etcd.ttl", 10)
	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.sampler_ratio", 1.0)
	v.SetDefault("otel.insecure", true)
	v.SetDefault("i18n.default_locale", "en")
	v.SetDefault("i18n.supported", []string{"en", "zh"})
	v.SetDefault("authlog.sort.column", "login_at")
	v.SetDefault("authlog.sort.direction", "desc")
	v.SetDefault("authlog.per_page_options", []int{5, 10, 25, 50})
	v.SetDefault("authlog.per_page", 10)
	v.SetDefault("authlog.user_agent_limit", 50)
	v.SetDefault("authlog.timezone", "UTC")
	v.SetDefault("authlog.country_cache_ttl_sec", 0)
	v.SetDefault("panels", []map[string]interface{}{{"id": "admin", "path": "/admin"}})
	v.SetDefault("owners", []map[string]interface{}{{"type": `App\Models\User`, "table": "admin_user", "label_column": "username"}})
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	if len(c.Redis.JTIPrefix) == 0 {
		c.Redis.JTIPrefix = "jwt:jti:"
	}
	return &c, nil
}

// ===== 逻辑校验 =====
func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr required")
	}
	if len(c.JWT.Secret) < 16 {
		return fmt.Errorf("jwt.secret too short (>=16)")
	}
	if c.OTel.Enable {
		if c.OTel.Endpoint == "" {
			return errors.New("otel.endpoint required when otel.enable=true")
		}
		if c.OTel.SamplerRatio < 0 || c.OTel.SamplerRatio > 1 {
			return errors.New("otel.sampler_ratio must be in [0,1]")
		}
	}
	if _, ok := model.AuthLogSortableColumns[c.AuthLog.Sort.Column]; !ok {
		return fmt.Errorf("authlog.sort.column %q is not sortable", c.AuthLog.Sort.Column)
	}
	c.AuthLog.Sort.Direction = strings.ToLower(c.AuthLog.Sort.Direction)
	if c.AuthLog.Sort.Direction != "asc" && c.AuthLog.Sort.Direction != "desc" {
		return fmt.Errorf("authlog.sort.direction must be asc|desc, got %q", c.AuthLog.Sort.Direction)
	}
	if c.AuthLog.UserAgentLimit <= 0 {
		return errors.New("authlog.user_agent_limit must >0")
	}
	if len(c.AuthLog.PerPageOptions) == 0 {
		return errors.New("authlog.per_page_options required")
	}
	found := false
	for _, n := range c.AuthLog.PerPageOptions {
		if n <= 0 {
			return fmt.Errorf("authlog.per_page_options must be positive, got %d", n)
		}
		if n == c.AuthLog.PerPage {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("authlog.per_page %d not in per_page_options", c.AuthLog.PerPage)
	}
	if len(c.Panels) == 0 {
		return errors.New("at least one panel required")
	}
	seen := make(map[string]struct{}, len(c.Panels))
	for i, p := range c.Panels {
		if p.ID == "" {
			return fmt.Errorf("panels[%d].id required", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate panel id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if !strings.HasPrefix(p.Path, "/") {
			c.Panels[i].Path = "/" + p.Path
		}
		c.Panels[i].Path = strings.TrimRight(c.Panels[i].Path, "/")
		if c.Panels[i].Path == "" {
			return fmt.Errorf("panels[%d].path must not be root", i)
		}
	}
	for i, o := range c.Owners {
		if o.Type == "" || o.Table == "" || o.LabelColumn == "" {
			return fmt.Errorf("owners[%d]: type, table and label_column required", i)
		}
	}
	return nil
}
