package security

import (
	"context"
	"net/http"
	"strings"

	"go-authlog/internal/logging"
	"go-authlog/internal/security/jwt"
	obs "go-authlog/internal/server/http/middleware/observability"
	"go-authlog/internal/util/retcode"
	"go-authlog/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenStore 判断 JTI 是否仍有效（登出即删除）；redisrepo.Client 实现
type TokenStore interface {
	Exists(ctx context.Context, key string) (bool, error)
}

type AuthMiddleware struct {
	JWT    *jwt.Manager
	Logger *logging.Logger
	Tokens TokenStore // nil 时跳过 JTI 校验
	Prefix string
}

// Auth 校验 Bearer JWT，通过后写入 user_id / roles 并刷新请求级 logger
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
			response.ErrorStatus(c, http.StatusUnauthorized, retcode.AUTH_ERROR, "missing token")
			return
		}
		claims, err := m.JWT.Parse(strings.TrimSpace(auth[7:]))
		if err != nil {
			logging.FromContext(c.Request.Context(), m.Logger).Debug("auth_token_invalid", zap.Error(err))
			response.ErrorStatus(c, http.StatusUnauthorized, retcode.AUTH_ERROR, "invalid token")
			return
		}
		if m.Tokens != nil {
			ok, err := m.Tokens.Exists(c.Request.Context(), m.Prefix+claims.JTI)
			if err != nil {
				logging.FromContext(c.Request.Context(), m.Logger).Error("auth_jti_lookup_failed", zap.Error(err))
				response.ErrorStatus(c, http.StatusServiceUnavailable, retcode.EXCEPTION, "token store unavailable")
				return
			}
			if !ok {
				response.ErrorStatus(c, http.StatusUnauthorized, retcode.ACCESS_TOKEN_TIMEOUT, "token expired")
				return
			}
		}
		c.Set("user_id", claims.UserID)
		c.Set("roles", claims.Roles)
		c.Request = c.Request.WithContext(logging.WithUserID(c.Request.Context(), claims.UserID))
		obs.AttachLogger(c, m.Logger)
		c.Next()
	}
}
