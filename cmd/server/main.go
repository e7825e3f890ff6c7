package main

import (
	"context"
	"log"
	"sync"

	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/cmd/signals"
	"github.com/jwaldner/optionlab/internal/config"
	"github.com/jwaldner/optionlab/internal/logger"
	"github.com/jwaldner/optionlab/internal/server"
	"github.com/jwaldner/optionlab/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := logger.InitWithConfig(cfg.Logging.LogLevel, cfg.Logging.LogFile); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	zap.L().Info("optionlab starting",
		zap.String("port", cfg.Port),
		zap.String("provider", cfg.Provider),
		zap.String("logFile", cfg.Logging.LogFile),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	market, err := services.NewMarket(ctx, cfg)
	if err != nil {
		zap.L().Fatal("market data unavailable", zap.Error(err))
	}
	defer market.Close()

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		signals.NotifySignals(ctx, cancel)
		wg.Done()
	}()

	if err := server.New(cfg, market).Run(ctx); err != nil {
		zap.L().Error("server stopped", zap.Error(err))
	}
	cancel()
	wg.Wait()
	zap.L().Info("program exit")
}
