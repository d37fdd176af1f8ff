package middleware

import (
	"go-authlog/internal/config"

	"github.com/gin-gonic/gin"
)

const ConfigKey = "app_config"

// ConfigInjector 将全局配置对象注入到 gin.Context，供下游中间件/handler 使用
func ConfigInjector(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg != nil {
			c.Set(ConfigKey, cfg)
		}
		c.Next()
	}
}

// AppConfig 读取 ConfigInjector 注入的配置；未注入时返回 nil
func AppConfig(c *gin.Context) *config.Config {
	if v, ok := c.Get(ConfigKey); ok {
		if cfg, ok := v.(*config.Config); ok {
			return cfg
		}
	}
	return nil
}
