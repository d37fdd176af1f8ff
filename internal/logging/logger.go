package logging

import (
	"context"

	"go.uber.org/zap"
)

type Logger struct {
	*zap.Logger
}

type ctxKey int

const (
	traceIDKey ctxKey = iota
	userIDKey
	loggerKey
)

func New(level, format string) (*Logger, error) {
	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if level != "" {
		if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}
	lg, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{lg}, nil
}

// Nop 测试及未配置场景使用
func Nop() *Logger { return &Logger{zap.NewNop()} }

// WithTraceID / WithUserID 把请求维度字段放入 context，由 WithContext 读取
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func WithUserID(ctx context.Context, uid int64) context.Context {
	return context.WithValue(ctx, userIDKey, uid)
}

func (l *Logger) WithContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return l.Logger
	}
	fields := make([]zap.Field, 0, 2)
	if s, ok := ctx.Value(traceIDKey).(string); ok && s != "" {
		fields = append(fields, zap.String("trace_id", s))
	}
	if id, ok := ctx.Value(userIDKey).(int64); ok && id > 0 {
		fields = append(fields, zap.Int64("user_id", id))
	}
	if len(fields) == 0 {
		return l.Logger
	}
	return l.Logger.With(fields...)
}

// NewContext 挂载请求级 logger
func NewContext(ctx context.Context, lg *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, lg)
}

// FromContext 取请求级 logger；没有则退回 fallback（可为 nil）
func FromContext(ctx context.Context, fallback *Logger) *zap.Logger {
	if ctx != nil {
		if lg, ok := ctx.Value(loggerKey).(*zap.Logger); ok && lg != nil {
			return lg
		}
	}
	if fallback != nil {
		return fallback.WithContext(ctx)
	}
	return zap.NewNop()
}
