package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otx2crits/internal/domain"
	"otx2crits/internal/otx"
	"otx2crits/internal/store"
	"otx2crits/internal/vocab"
	"otx2crits/pkg/util"
	"go.uber.org/zap"
)

// CRITs 要求描述和引用非空，原通道的占位文案原样保留。
const (
	defaultDescription = "No description given."
	defaultReference   = "No reference documented"
)

// Importer 负责单个 pulse 的导入：
// 建 Event（含凭据）-> 翻译去重指标 -> 查建指标 -> 锻造关系边。
type Importer struct {
	Store      store.Client
	Translator *vocab.Translator
	Logger     *zap.Logger
}

// Import 导入一个 pulse。Event 创建失败整体中止且不产生任何指标侧状态；
// 单个指标的失败只计数跳过，不中止集合。
func (im *Importer) Import(ctx context.Context, pulse otx.Pulse) (domain.ImportResult, error) {
	if im == nil || im.Store == nil || im.Translator == nil {
		return domain.ImportResult{}, errors.New("importer 依赖未注入完整")
	}
	logger := im.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	description := pulse.Description
	if description == "" {
		description = defaultDescription
	}
	reference := defaultReference
	if len(pulse.References) > 0 && pulse.References[0] != "" {
		reference = pulse.References[0]
	}

	eventID, err := im.Store.CreateEvent(ctx, store.Event{
		Title:       pulse.Name,
		Description: description,
		Reference:   reference,
		Buckets:     pulse.Tags,
		Ticket:      domain.Ticket{Number: pulse.ID, Date: time.Now().UTC()},
	})
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("创建 event 失败: %w", err)
	}
	logger.Info("event 已创建",
		zap.String("pulse_id", pulse.ID),
		zap.String("event_id", string(eventID)))

	result := domain.ImportResult{EventID: string(eventID)}

	// 原始对先去重，保持首见顺序，保证日志与建边顺序确定。
	rawSeen := make(map[string]bool, len(pulse.Indicators))
	rawPairs := make([]otx.RawIndicator, 0, len(pulse.Indicators))
	for _, raw := range pulse.Indicators {
		key := util.PairKey(raw.Type, raw.Value)
		if rawSeen[key] {
			continue
		}
		rawSeen[key] = true
		rawPairs = append(rawPairs, raw)
	}

	// 不同的原始拼写可能归一成同一个标准对，翻译后需要再去重一次。
	canonSeen := make(map[string]bool, len(rawPairs))
	canonicals := make([]domain.CanonicalIndicator, 0, len(rawPairs))
	for _, raw := range rawPairs {
		canon, err := im.Translator.Translate(raw.Type, raw.Value)
		if err != nil {
			var terr *vocab.TranslationError
			if errors.As(err, &terr) {
				result.IndicatorsSkipped++
				result.SkippedTypes = append(result.SkippedTypes, terr.RawType)
				logger.Info("跳过无法翻译的指标",
					zap.String("pulse_id", pulse.ID),
					zap.String("raw_type", terr.RawType))
				continue
			}
			return result, fmt.Errorf("翻译指标失败: %w", err)
		}
		key := util.PairKey(canon.Type, canon.Value)
		if canonSeen[key] {
			continue
		}
		canonSeen[key] = true
		canonicals = append(canonicals, canon)
	}

	for _, canon := range canonicals {
		indicatorID, created, err := im.Store.FindOrCreateIndicator(ctx, canon.Type, canon.Value)
		if err != nil {
			result.IndicatorsSkipped++
			logger.Warn("指标写入失败，跳过",
				zap.String("pulse_id", pulse.ID),
				zap.String("type", canon.Type),
				zap.Error(err))
			continue
		}
		if created {
			result.IndicatorsCreated++
		} else {
			result.IndicatorsReused++
		}

		if err := im.Store.LinkEventToIndicator(ctx, eventID, indicatorID); err != nil {
			logger.Warn("建边失败，跳过",
				zap.String("pulse_id", pulse.ID),
				zap.String("indicator_id", string(indicatorID)),
				zap.Error(err))
			continue
		}
		result.EdgesCreated++
	}

	logger.Info("pulse 导入完成",
		zap.String("pulse_id", pulse.ID),
		zap.String("event_id", result.EventID),
		zap.Int("created", result.IndicatorsCreated),
		zap.Int("reused", result.IndicatorsReused),
		zap.Int("skipped", result.IndicatorsSkipped),
		zap.Int("edges", result.EdgesCreated))
	return result, nil
}
