package ioc

import (
	"otx2crits/internal/app"
	"otx2crits/internal/otx"
	"otx2crits/internal/store"
	"go.uber.org/zap"
)

// InitAppService 构建同步服务。
func InitAppService(cfg app.Config, feed otx.Client, storeCli store.Client, logger *zap.Logger) (*app.Service, error) {
	return app.NewService(cfg, feed, storeCli, logger)
}
