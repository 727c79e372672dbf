package ioc

import (
	"time"

	"otx2crits/internal/app"
	"otx2crits/internal/otx"
)

// InitFeedClient 构建 OTX 订阅源客户端。
func InitFeedClient(cfg app.Config) (otx.Client, error) {
	return otx.NewHTTPClient(otx.HTTPConfig{
		BaseURL:      cfg.OTX.BaseURL,
		APIKey:       cfg.OTX.APIKey,
		PageLimit:    cfg.OTX.PageLimit,
		Timeout:      time.Duration(cfg.OTX.TimeoutSecond) * time.Second,
		RetryTimes:   cfg.OTX.RetryTimes,
		RetryBackoff: time.Duration(cfg.OTX.RetryBackoffMS) * time.Millisecond,
	})
}
