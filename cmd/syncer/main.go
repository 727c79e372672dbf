package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"otx2crits/internal/app"
	"otx2crits/ioc"
	"otx2crits/pkg/logging"
)

func main() {
	var (
		configPath string
		dev        bool
		days       int
	)
	flag.StringVar(&configPath, "config", "configs/config.yaml", "配置文件路径")
	flag.BoolVar(&dev, "dev", false, "使用 CRITs 开发实例")
	flag.IntVar(&days, "days", 0, "pulse 最大修改时间（天），0 表示不限")
	flag.Parse()

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewZapLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	feed, err := ioc.InitFeedClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "构建 feed client 失败: %v\n", err)
		os.Exit(1)
	}

	storeCli, cleanup, err := ioc.BuildStoreClient(ctx, cfg, dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "构建 store client 失败: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	svc, err := app.NewService(cfg, feed, storeCli, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "构建服务失败: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close(ctx)

	maxAgeDays := cfg.Sync.MaxAgeDays
	if days > 0 {
		maxAgeDays = days
	}

	summary, err := svc.SyncWithMaxAge(ctx, maxAgeDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "同步执行失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(summary.String())
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
