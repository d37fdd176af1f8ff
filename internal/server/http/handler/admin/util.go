package admin

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func qInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// qBool 1 / true / on / yes 视为开启
func qBool(c *gin.Context, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// qStrings 同时接受 key[]=a&key[]=b 与 key=a&key=b，去空白与空值
func qStrings(c *gin.Context, key string) []string {
	raw := append(c.QueryArray(key+"[]"), c.QueryArray(key)...)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// wantsJSON ?format=json 或 Accept 优先 application/json
func wantsJSON(c *gin.Context) bool {
	if f := c.Query("format"); f != "" {
		return strings.EqualFold(f, "json")
	}
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}
