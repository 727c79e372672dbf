//go:build wireinject

package main

import (
	"context"

	"otx2crits/ioc"
	"otx2crits/pkg/server"
	"github.com/google/wire"
)

func InitApp(ctx context.Context) (*server.HTTPServer, func(), error) {
	panic(wire.Build(
		ioc.InitConfig,
		ioc.InitLogger,
		ioc.InitFeedClient,
		ioc.InitStoreClient,
		ioc.InitAppService,
		ioc.InitScheduler,
		ioc.InitSyncHandler,
		ioc.InitGinEngine,
		server.NewHTTPServer,
	))
}
