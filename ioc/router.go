package ioc

import (
	"otx2crits/internal/app"
	"otx2crits/internal/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitSyncHandler 构建同步 HTTP 处理器。
func InitSyncHandler(svc *app.Service, cfg app.Config, logger *zap.Logger) *router.SyncHandler {
	return router.NewSyncHandler(svc, cfg.Sync.MaxAgeDays, logger)
}

// InitGinEngine 构建 gin 引擎。
func InitGinEngine(syncHandler *router.SyncHandler) *gin.Engine {
	return router.NewEngine(syncHandler)
}
