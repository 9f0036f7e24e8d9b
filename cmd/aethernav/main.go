// cmd/aethernav/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FairForge/aethernav/internal/api"
	"github.com/FairForge/aethernav/internal/config"
	"github.com/FairForge/aethernav/internal/metrics"
	"github.com/FairForge/aethernav/internal/nav"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("AETHERNAV_CONFIG"), "path to YAML config file")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	m := metrics.New()

	svc, err := nav.New(context.Background(), cfg, m, logger, nav.Options{})
	if err != nil {
		logger.Fatal("failed to wire navigation service", zap.Error(err))
	}

	server := api.NewServer(cfg, logger, svc, m)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
		os.Exit(0)
	}()

	logger.Info("aethernav started",
		zap.Int("port", cfg.Server.Port),
		zap.Int("catalog_services", len(cfg.Catalog)),
	)

	if err := server.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
