package admin

import (
	"go-authlog/internal/logging"
	"go-authlog/internal/service"
)

// Dependencies admin 子包最小依赖集合
type Dependencies struct {
	AuthLog *service.AuthLogService
	Logger  *logging.Logger
}
