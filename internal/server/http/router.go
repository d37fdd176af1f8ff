package http

import (
	"context"
	"net/http"
	"time"

	"go-authlog/internal/config"
	"go-authlog/internal/discovery/etcd"
	"go-authlog/internal/i18n"
	"go-authlog/internal/logging"
	"go-authlog/internal/mq/kafka"
	"go-authlog/internal/panel"
	redisrepo "go-authlog/internal/repository/redis"
	"go-authlog/internal/security/jwt"
	"go-authlog/internal/server/http/handler"
	adm "go-authlog/internal/server/http/handler/admin"
	"go-authlog/internal/server/http/middleware"
	obs "go-authlog/internal/server/http/middleware/observability"
	sec "go-authlog/internal/server/http/middleware/security"
	"go-authlog/internal/service"
	"go-authlog/internal/util/retcode"
	"go-authlog/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// RouterDeps NewRouter 所需组件；Redis / Producer / OpLog / Etcd 可为 nil
type RouterDeps struct {
	Config   *config.Config
	Logger   *logging.Logger
	JWT      *jwt.Manager
	DB       *gorm.DB
	Redis    *redisrepo.Client
	Producer *kafka.Producer
	OpLog    *kafka.AsyncSender
	Etcd     *etcd.Client
	Trans    *i18n.Translator
	Panels   []panel.Panel
	AuthLog  *service.AuthLogService
}

// NewRouter 仅负责分组与中间件装配，具体业务放在 handler 层
func NewRouter(d RouterDeps) (*gin.Engine, error) {
	r := gin.New()
	tmpl, err := adm.Templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)
	// ConfigInjector 放最前确保后续中间件可读取 app_config
	r.Use(middleware.ConfigInjector(d.Config), gin.Recovery(), middleware.CORS(), obs.TraceMiddleware(),
		obs.LoggerContextMiddleware(d.Logger), middleware.Language(d.Trans), obs.Metrics(), obs.AccessLog(d.Logger))

	// 健康检查
	hc := NewHealthChecker(d.DB, d.Redis, d.Producer, d.Etcd)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, hc.Liveness()) })
	r.GET("/readyz", func(c *gin.Context) {
		if c.Query("refresh") == "1" {
			hc.Invalidate()
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()
		res, code := hc.Readiness(ctx)
		c.JSON(code, res)
	})
	// Prometheus
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := handler.NewHandlerSet(adm.Dependencies{AuthLog: d.AuthLog, Logger: d.Logger})
	auth := &sec.AuthMiddleware{JWT: d.JWT, Logger: d.Logger}
	if d.Redis != nil {
		auth.Tokens = d.Redis
		auth.Prefix = d.Config.Redis.JTIPrefix
	}
	var sink obs.OpLogSink
	if d.OpLog != nil {
		sink = d.OpLog
	}

	// 每个面板一组路由；多租户面板多一级 /:tenant
	for _, p := range d.Panels {
		grp := r.Group(p.Path, auth.Auth(), obs.OperationLog(sink, p.ID, d.Logger))
		if p.Tenancy {
			grp = grp.Group("/:tenant")
		}
		registerAuthLogRoutes(grp, h.AuthLog, p)
	}

	// 统一 404
	r.NoRoute(func(c *gin.Context) {
		response.ErrorStatus(c, http.StatusNotFound, retcode.NOT_EXISTS, "not found")
	})
	return r, nil
}

func registerAuthLogRoutes(g *gin.RouterGroup, h *adm.AuthLogHandler, p panel.Panel) {
	global := g.Group("/authentication-logs")
	{
		global.GET("", h.List(p))
		global.POST("", h.Reject(adm.ActionCreate))
		global.PUT("/:log", h.Reject(adm.ActionEdit))
		global.PATCH("/:log", h.Reject(adm.ActionEdit))
		global.DELETE("/:log", h.Reject(adm.ActionDelete))
		global.DELETE("", h.Reject(adm.ActionDelete))
	}
	rel := g.Group("/:resource/:id/authentications")
	{
		rel.GET("", h.Relation(p))
		rel.POST("", h.Reject(adm.ActionCreate))
		rel.PUT("/:log", h.Reject(adm.ActionEdit))
		rel.PATCH("/:log", h.Reject(adm.ActionEdit))
		rel.DELETE("/:log", h.Reject(adm.ActionDelete))
		rel.DELETE("", h.Reject(adm.ActionDelete))
	}
}
