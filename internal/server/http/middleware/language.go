package middleware

import (
	"strings"

	"go-authlog/internal/i18n"

	"github.com/gin-gonic/gin"
)

const LocaleKey = "locale"

// Language 解析请求语言：?lang > lang cookie > Accept-Language > 默认
// 不在 supported 中的取值一律忽略
func Language(tr *i18n.Translator) gin.HandlerFunc {
	supported := make(map[string]struct{})
	for _, s := range tr.Supported() {
		supported[s] = struct{}{}
	}
	return func(c *gin.Context) {
		locale := resolveLocale(c, supported, tr.Default())
		c.Set(LocaleKey, locale)
		c.Request = c.Request.WithContext(i18n.WithLocale(c.Request.Context(), locale))
		c.Next()
	}
}

func resolveLocale(c *gin.Context, supported map[string]struct{}, def string) string {
	pick := func(v string) string {
		v = i18n.Normalize(v)
		if _, ok := supported[v]; ok {
			return v
		}
		return ""
	}
	if v := pick(c.Query("lang")); v != "" {
		return v
	}
	if cv, err := c.Cookie("lang"); err == nil {
		if v := pick(cv); v != "" {
			return v
		}
	}
	for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
		if i := strings.IndexByte(part, ';'); i >= 0 {
			part = part[:i]
		}
		if v := pick(part); v != "" {
			return v
		}
	}
	return def
}
