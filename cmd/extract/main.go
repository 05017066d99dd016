package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/bootstrap"
	"github.com/colegioelo/vagas/internal/config"
	"github.com/colegioelo/vagas/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Format))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	components, err := bootstrap.Build(ctx, *cfg, baseLogger)
	if err != nil {
		baseLogger.Error("failed to wire pipeline", zap.Error(err))
		return 1
	}
	defer func() {
		if err := components.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close connections", zap.Error(err))
		}
	}()

	if _, _, err := components.Job.Run(ctx); err != nil {
		baseLogger.Error("extraction failed", zap.Error(err))
		return 1
	}
	return 0
}
