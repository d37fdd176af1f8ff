package observability

import (
	"go-authlog/internal/logging"

	"github.com/gin-gonic/gin"
)

// LoggerContextMiddleware 将带 trace_id / user_id 字段的 logger 放入请求 context，
// handler 与 service 通过 logging.FromContext 取用。
// 认证中间件写入 user_id 后会再次调用 AttachLogger 刷新。
func LoggerContextMiddleware(base *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		AttachLogger(c, base)
		c.Next()
	}
}

func AttachLogger(c *gin.Context, base *logging.Logger) {
	ctx := c.Request.Context()
	c.Request = c.Request.WithContext(logging.NewContext(ctx, base.WithContext(ctx)))
}
