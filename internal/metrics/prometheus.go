package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SyncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "otx_sync_duration_seconds",
		Help:    "单次同步耗时",
		Buckets: prometheus.DefBuckets,
	})

	SyncErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "otx_sync_errors_total",
		Help: "同步运行级失败次数",
	})

	PulsesImported = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "otx_pulses_imported_total",
		Help: "成功导入的 pulse 数",
	})

	PulsesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "otx_pulses_failed_total",
		Help: "导入失败的 pulse 数",
	})

	IndicatorsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "otx_indicators_created_total",
		Help: "新建的指标数",
	})

	IndicatorsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "otx_indicators_skipped_total",
		Help: "因无法翻译或写入失败而跳过的指标数",
	})
)

// MustRegister 注册指标，可在 main 中调用。
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(SyncDuration, SyncErrors, PulsesImported, PulsesFailed,
		IndicatorsCreated, IndicatorsSkipped)
}
