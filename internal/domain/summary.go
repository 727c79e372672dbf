package domain

import (
	"fmt"
	"time"
)

// SyncSummary 汇总一次同步运行的全部计数。
type SyncSummary struct {
	RunID             string        `json:"run_id"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
	Candidates        int           `json:"candidates"`
	AlreadyImported   int           `json:"already_imported"`
	Imported          int           `json:"imported"`
	Failed            int           `json:"failed"`
	IndicatorsCreated int           `json:"indicators_created"`
	IndicatorsReused  int           `json:"indicators_reused"`
	IndicatorsSkipped int           `json:"indicators_skipped"`
	EdgesCreated      int           `json:"edges_created"`
}

// Add 将单个 pulse 的导入结果累加进汇总。
func (s *SyncSummary) Add(r ImportResult) {
	s.Imported++
	s.IndicatorsCreated += r.IndicatorsCreated
	s.IndicatorsReused += r.IndicatorsReused
	s.IndicatorsSkipped += r.IndicatorsSkipped
	s.EdgesCreated += r.EdgesCreated
}

// String 生成给命令行输出的可读摘要。
func (s SyncSummary) String() string {
	return fmt.Sprintf(
		"run %s: candidates=%d already_imported=%d imported=%d failed=%d "+
			"indicators_created=%d indicators_reused=%d indicators_skipped=%d edges_created=%d (%.2fs)",
		s.RunID, s.Candidates, s.AlreadyImported, s.Imported, s.Failed,
		s.IndicatorsCreated, s.IndicatorsReused, s.IndicatorsSkipped, s.EdgesCreated,
		s.Duration.Seconds())
}
