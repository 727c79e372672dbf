package ioc

import (
	"context"

	"otx2crits/internal/app"
	"otx2crits/internal/job"
	"go.uber.org/zap"
)

// InitScheduler 构建定时同步调度器。
func InitScheduler(cfg app.Config, svc *app.Service, logger *zap.Logger) *job.Scheduler {
	var syncFn func(context.Context) error
	if svc != nil {
		syncFn = svc.Sync
	}
	return job.NewScheduler(cfg.Sync.JobCron, syncFn, logger)
}
