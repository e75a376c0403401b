package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/metrico/nebula/config"
	"github.com/metrico/nebula/execution"
	"github.com/metrico/nebula/ingest"
	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/server"
	"github.com/metrico/nebula/storage"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "runtime config file; env vars override")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := config.InitConfig(*configFile); err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}
	cfg := config.Config

	ci, err := meta.LoadClusterInfo(cfg.ClusterFile)
	if err != nil {
		logger.Fatal("cluster config load failed", zap.Error(err))
	}

	fs := storage.MakeFS(storage.Options{
		S3Endpoint: cfg.S3Endpoint,
		S3Key:      cfg.S3Key,
		S3Secret:   cfg.S3Secret,
		S3Region:   cfg.S3Region,
		S3Secure:   cfg.S3Secure,
		TmpPath:    cfg.TmpPath,
		Brokers:    cfg.Brokers,
	})

	blocks := execution.NewBlockManager()
	tables := meta.NewTableService()
	interval := time.Duration(cfg.RefreshS) * time.Second
	repo := ingest.NewSpecRepo(fs, cfg.TestLoader, interval, func(table, specID string) {
		blocks.EvictSpec(table, specID)
	})
	exec := ingest.NewExecutor(blocks, tables, fs, cfg.BlockMaxRows, cfg.TestLoader)
	coord := ingest.NewCoordinator(repo, exec, ci, cfg.Workers, interval)

	router := server.NewRouter(&server.Admin{Tables: tables, Repo: repo, Blocks: blocks})
	go func() {
		logger.Info("admin listening", zap.String("addr", cfg.ListenAddr))
		if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
			logger.Error("admin listener stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("ingestion node started",
		zap.String("version", ci.Version),
		zap.Int("tables", len(ci.Tables)),
		zap.Int("workers", cfg.Workers))
	if err := coord.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("coordinator stopped", zap.Error(err))
	}
	logger.Info("shutting down")
}
