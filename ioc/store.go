package ioc

import (
	"context"
	"fmt"
	"time"

	"otx2crits/internal/app"
	"otx2crits/internal/crits"
	"otx2crits/internal/graphstore"
	"otx2crits/internal/store"
)

// InitStoreClient 根据配置构建情报库客户端，服务模式固定使用生产端点。
// 返回的 cleanup 负责释放图库连接。
func InitStoreClient(ctx context.Context, cfg app.Config) (store.Client, func(), error) {
	return BuildStoreClient(ctx, cfg, false)
}

// BuildStoreClient 按 store.backend 构建情报库客户端。
// dev 为 true 时 CRITs 后端切到开发端点和对应的 api key。
func BuildStoreClient(ctx context.Context, cfg app.Config, dev bool) (store.Client, func(), error) {
	switch cfg.Store.Backend {
	case "", "crits":
		baseURL := cfg.Store.CRITs.ProdURL
		apiKey := cfg.Store.CRITs.ProdAPIKey
		if dev {
			baseURL = cfg.Store.CRITs.DevURL
			apiKey = cfg.Store.CRITs.DevAPIKey
		}
		client, err := crits.NewClient(crits.Config{
			BaseURL:  baseURL,
			Username: cfg.Store.CRITs.Username,
			APIKey:   apiKey,
			Source:   cfg.Store.CRITs.Source,
			Verify:   cfg.Store.CRITs.Verify,
			Timeout:  time.Duration(cfg.Store.CRITs.TimeoutSecond) * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	case "neo4j":
		client, err := graphstore.NewClient(ctx, graphstore.Config{
			URI:                  cfg.Store.Neo4j.URI,
			Username:             cfg.Store.Neo4j.Username,
			Password:             cfg.Store.Neo4j.Password,
			Database:             cfg.Store.Neo4j.Database,
			MaxConnectionPool:    cfg.Store.Neo4j.MaxConnectionPool,
			ConnectionTimeoutSec: cfg.Store.Neo4j.ConnectTimeoutSecond,
		})
		if err != nil {
			return nil, nil, err
		}
		st, err := graphstore.NewStore(client)
		if err != nil {
			_ = client.Close(ctx)
			return nil, nil, err
		}
		if err := st.EnsureSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, nil, err
		}
		cleanup := func() { _ = client.Close(context.Background()) }
		return st, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("未知的 store backend %q", cfg.Store.Backend)
	}
}
