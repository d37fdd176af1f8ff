package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go-authlog/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxBody  = 4096
	maxQuery = 1024
	maxUA    = 256
)

var sensitiveKeys = map[string]struct{}{
	"password": {}, "passwd": {}, "pwd": {}, "token": {}, "authorization": {}, "secret": {},
}

// OpLogSink 非阻塞发布；kafka.AsyncSender 实现，发送失败由其记录日志与指标
type OpLogSink interface {
	Publish(ctx context.Context, key, value []byte, headers map[string]string)
}

// OperationLogEvent 每个面板请求一条，发往 kafka.op_log_topic
type OperationLogEvent struct {
	Action    string   `json:"action_name"`
	Path      string   `json:"path"`
	Method    string   `json:"method"`
	Status    int      `json:"status"`
	LatencyMS int64    `json:"latency_ms"`
	IP        string   `json:"ip"`
	UserID    int64    `json:"user_id"`
	Panel     string   `json:"panel,omitempty"`
	Time      string   `json:"time"`
	Query     string   `json:"query,omitempty"`
	Body      string   `json:"body,omitempty"`
	UA        string   `json:"ua,omitempty"`
	RespSize  int      `json:"resp_size"`
	Errors    []string `json:"errors,omitempty"`
}

// OperationLog 请求结束后投递操作日志，不影响响应
func OperationLog(sink OpLogSink, panelID string, l *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sink == nil {
			c.Next()
			return
		}
		start := time.Now()
		var body []byte
		if c.Request.Body != nil && c.Request.Method != http.MethodGet {
			b, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
			body = b
			c.Request.Body = io.NopCloser(bytes.NewReader(b))
		}
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		e := OperationLogEvent{
			Action:    ActionName(path, c.Request.Method),
			Path:      path,
			Method:    c.Request.Method,
			Status:    c.Writer.Status(),
			LatencyMS: time.Since(start).Milliseconds(),
			IP:        c.ClientIP(),
			UserID:    c.GetInt64("user_id"),
			Panel:     panelID,
			Time:      start.Format(time.RFC3339),
			Query:     truncate(flattenQuery(c.Request.URL.RawQuery), maxQuery),
			Body:      sanitizeJSON(body),
			UA:        truncate(c.Request.UserAgent(), maxUA),
			RespSize:  c.Writer.Size(),
		}
		for _, er := range c.Errors {
			e.Errors = append(e.Errors, er.Error())
		}
		b, err := json.Marshal(e)
		if err != nil {
			logging.FromContext(c.Request.Context(), l).Warn("oplog_marshal_failed", zap.Error(err))
			return
		}
		headers := map[string]string{}
		if v := c.GetString(TraceIDKey); v != "" {
			headers[TraceIDKey] = v
		}
		key := []byte(strconv.FormatInt(e.UserID, 10))
		sink.Publish(c.Request.Context(), key, b, headers)
	}
}

// flattenQuery 解码并按 key 排序，敏感字段打码
func flattenQuery(raw string) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		v := strings.Join(vals[k], ",")
		if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
			v = "***"
		}
		pairs = append(pairs, k+"="+truncate(v, 100))
	}
	return strings.Join(pairs, "&")
}

func sanitizeJSON(src []byte) string {
	if len(src) == 0 {
		return ""
	}
	var m interface{}
	if json.Unmarshal(src, &m) != nil {
		return string(src)
	}
	m = sanitizeValue(m)
	b, err := json.Marshal(m)
	if err != nil {
		return string(src)
	}
	return string(b)
}

func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, vv := range val {
			if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
				val[k] = "***"
				continue
			}
			val[k] = sanitizeValue(vv)
		}
	case []interface{}:
		for i, elem := range val {
			val[i] = sanitizeValue(elem)
		}
	}
	return v
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// ActionName GET /admin/:resource/:id/authentications -> get_admin_resource_id_authentications
func ActionName(path, method string) string {
	p := strings.Trim(path, "/")
	if p == "" {
		return strings.ToLower(method)
	}
	p = strings.NewReplacer("/", "_", ":", "").Replace(p)
	return strings.ToLower(method + "_" + p)
}
