package boot

import (
	"go-authlog/internal/repository/dao"
	"go-authlog/internal/service"

	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	ProvideConfig,
	NewLogger,
	NewPostgres,
	NewRedis,
	NewKafkaProducer,
	NewOpLogSender,
	NewEtcd,
	NewJWTManager,
	NewTranslator,
	NewOwnerRegistry,
	NewPanels,
	NewAuthLogOptions,
	// DAO
	dao.NewAuthenticationLogDAO,
	dao.NewOwnerDAO,
	NewLogStore,
	wire.Bind(new(service.OwnerStore), new(*dao.OwnerDAO)),
	// Service
	service.NewAuthLogService,
	ProvideRouter,
	ProvideApp,
)
