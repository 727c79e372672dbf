package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otx2crits/internal/domain"
	"otx2crits/internal/ledger"
	"otx2crits/internal/metrics"
	"otx2crits/internal/otx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncFlow 是同步编排器：拉候选 -> 台账过滤 -> 逐个导入 -> 汇总。
// 集合之间严格串行，台账登记发生在单个集合完整导入之后。
type SyncFlow struct {
	Feed     otx.Client
	Ledger   *ledger.Ledger
	Importer *Importer
	Logger   *zap.Logger
}

// Run 执行一次同步。maxAgeDays <= 0 表示不限制候选的修改时间。
// 拉取候选失败是本流程唯一的致命错误；单个集合的失败只计数并继续。
func (f *SyncFlow) Run(ctx context.Context, maxAgeDays int) (domain.SyncSummary, error) {
	if f == nil {
		return domain.SyncSummary{}, errors.New("sync flow 未初始化")
	}
	if f.Feed == nil || f.Ledger == nil || f.Importer == nil {
		return domain.SyncSummary{}, errors.New("sync flow 依赖未注入完整")
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	summary := domain.SyncSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		summary.Duration = time.Since(summary.StartedAt)
		metrics.SyncDuration.Observe(summary.Duration.Seconds())
	}()

	var modifiedSince time.Time
	if maxAgeDays > 0 {
		modifiedSince = time.Now().AddDate(0, 0, -maxAgeDays)
		logger.Info("按修改时间过滤候选",
			zap.String("run_id", summary.RunID),
			zap.Int("max_age_days", maxAgeDays))
	}

	pulses, err := f.Feed.ListSubscribedPulses(ctx, modifiedSince)
	if err != nil {
		metrics.SyncErrors.Inc()
		return summary, fmt.Errorf("拉取订阅 pulse 失败: %w", err)
	}
	summary.Candidates = len(pulses)
	logger.Info("候选集合拉取完成",
		zap.String("run_id", summary.RunID),
		zap.Int("candidates", summary.Candidates))

	for _, pulse := range pulses {
		logger.Info("发现 pulse",
			zap.String("run_id", summary.RunID),
			zap.String("pulse_id", pulse.ID),
			zap.String("title", pulse.Name))

		imported, err := f.Ledger.HasImported(ctx, pulse.ID)
		if err != nil {
			// 台账不可用时宁可跳过，绝不冒重复导入的风险。
			summary.Failed++
			metrics.PulsesFailed.Inc()
			logger.Warn("台账查询失败，跳过该集合",
				zap.String("pulse_id", pulse.ID),
				zap.Error(err))
			continue
		}
		if imported {
			summary.AlreadyImported++
			logger.Info("pulse 已导入过，跳过", zap.String("pulse_id", pulse.ID))
			continue
		}

		result, err := f.Importer.Import(ctx, pulse)
		if err != nil {
			summary.Failed++
			metrics.PulsesFailed.Inc()
			logger.Error("pulse 导入失败",
				zap.String("pulse_id", pulse.ID),
				zap.Error(err))
			continue
		}

		// 所有关系边都已落库，此后台账才可见本集合。
		f.Ledger.RecordImported(pulse.ID)
		summary.Add(result)
		metrics.PulsesImported.Inc()
		metrics.IndicatorsCreated.Add(float64(result.IndicatorsCreated))
		metrics.IndicatorsSkipped.Add(float64(result.IndicatorsSkipped))
	}

	logger.Info("同步完成", zap.String("summary", summary.String()))
	return summary, nil
}
