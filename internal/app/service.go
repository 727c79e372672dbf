package app

import (
	"context"
	"fmt"
	"sync"

	"otx2crits/internal/domain"
	"otx2crits/internal/ledger"
	"otx2crits/internal/otx"
	"otx2crits/internal/store"
	"otx2crits/internal/vocab"
	"go.uber.org/zap"
)

// Service 负责装配各个 Flow 并提供统一入口。
type Service struct {
	cfg      Config
	feed     otx.Client
	storeCli store.Client
	ledger   *ledger.Ledger
	Importer *Importer
	SyncFlow *SyncFlow
	logger   *zap.Logger

	mu   sync.Mutex
	last *domain.SyncSummary
}

// NewService 根据配置构建 Service。词表在这里加载一次，运行期不再变化。
func NewService(cfg Config, feed otx.Client, storeCli store.Client, logger *zap.Logger) (*Service, error) {
	if feed == nil {
		return nil, fmt.Errorf("必须提供 feed client")
	}
	if storeCli == nil {
		return nil, fmt.Errorf("必须提供 store client")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	table := vocab.DefaultTable()
	if cfg.Vocabulary.Path != "" {
		loaded, err := vocab.LoadTable(cfg.Vocabulary.Path)
		if err != nil {
			return nil, err
		}
		table = loaded
	}
	translator, err := vocab.NewTranslator(table)
	if err != nil {
		return nil, err
	}

	ldg := ledger.New(storeCli)
	importer := &Importer{Store: storeCli, Translator: translator, Logger: logger}
	syncFlow := &SyncFlow{Feed: feed, Ledger: ldg, Importer: importer, Logger: logger}

	return &Service{
		cfg:      cfg,
		feed:     feed,
		storeCli: storeCli,
		ledger:   ldg,
		Importer: importer,
		SyncFlow: syncFlow,
		logger:   logger,
	}, nil
}

// Sync 以配置的时间上限执行一次同步。
func (s *Service) Sync(ctx context.Context) error {
	_, err := s.SyncWithMaxAge(ctx, s.cfg.Sync.MaxAgeDays)
	return err
}

// SyncWithMaxAge 以指定的时间上限执行一次同步并返回汇总。
func (s *Service) SyncWithMaxAge(ctx context.Context, maxAgeDays int) (domain.SyncSummary, error) {
	if s.SyncFlow == nil {
		return domain.SyncSummary{}, fmt.Errorf("未初始化 sync flow")
	}
	summary, err := s.SyncFlow.Run(ctx, maxAgeDays)
	s.mu.Lock()
	s.last = &summary
	s.mu.Unlock()
	return summary, err
}

// LastSummary 返回最近一次运行的汇总，尚未运行过时返回 nil。
func (s *Service) LastSummary() *domain.SyncSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	return &cp
}

// Close 释放资源。
func (s *Service) Close(ctx context.Context) error {
	if s.logger != nil {
		_ = s.logger.Sync()
	}
	if closer, ok := s.storeCli.(interface{ Close(context.Context) error }); ok {
		return closer.Close(ctx)
	}
	return nil
}
