package handler

import (
	adminh "go-authlog/internal/server/http/handler/admin"
)

// HandlerSet 聚合各子包 handler，供 router 使用
// 只暴露业务 handler，不再直接暴露依赖。
type HandlerSet struct {
	AuthLog *adminh.AuthLogHandler
}

// NewHandlerSet 创建聚合。参数为子包依赖（各自最小依赖集）。
func NewHandlerSet(ad adminh.Dependencies) *HandlerSet {
	return &HandlerSet{
		AuthLog: adminh.NewAuthLogHandler(ad),
	}
}
