package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/bootstrap"
	"github.com/colegioelo/vagas/internal/config"
	"github.com/colegioelo/vagas/internal/scheduler"
	"github.com/colegioelo/vagas/internal/server/handlers"
	"github.com/colegioelo/vagas/internal/server/router"
	"github.com/colegioelo/vagas/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Format))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	components, err := bootstrap.Build(context.Background(), *cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to wire pipeline", zap.Error(err))
	}
	defer func() {
		if err := components.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close connections", zap.Error(err))
		}
	}()

	historyHandler := handlers.NewHistoryHandler(components.Snapshot, components.History, baseLogger.Named("handlers.history"))
	engine := router.New(historyHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Schedule, components.Job, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}

	// A scheduled extraction in flight is allowed to finish its current run.
	if !waitForRun(sched.Stop(), cfg.Schedule.RunTimeout) {
		baseLogger.Warn("scheduled extraction still running at shutdown")
	}
}

// waitForRun blocks until running is done. A zero timeout waits without limit,
// matching the scheduler's run timeout semantics.
func waitForRun(running context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		<-running.Done()
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-running.Done():
		return true
	case <-timer.C:
		return false
	}
}
