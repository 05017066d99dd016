// Package bootstrap wires the extraction pipeline from configuration. Both
// entry points share it.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/config"
	"github.com/colegioelo/vagas/internal/extractor"
	"github.com/colegioelo/vagas/internal/repository/files"
	"github.com/colegioelo/vagas/internal/repository/mongodb"
	"github.com/colegioelo/vagas/internal/repository/sheets"
	"github.com/colegioelo/vagas/internal/repository/sqlite"
	"github.com/colegioelo/vagas/internal/service/extraction"
	"github.com/colegioelo/vagas/internal/service/persistence"
	"github.com/colegioelo/vagas/internal/service/pipeline"
	"github.com/colegioelo/vagas/pkg/clients/browser"
	"github.com/colegioelo/vagas/pkg/clients/heartbeat"
	applog "github.com/colegioelo/vagas/pkg/logger"
)

// Components exposes the wired pieces the entry points need.
type Components struct {
	Job      *pipeline.Job
	History  *sqlite.Repository
	Snapshot *files.Store

	closers []func(context.Context) error
}

// Close releases the optional remote connections.
func (c *Components) Close(ctx context.Context) error {
	var firstErr error
	for _, closeFn := range c.closers {
		if err := closeFn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build wires the pipeline. MongoDB and Google Sheets writers are added only
// when configured.
func Build(ctx context.Context, cfg config.Config, base *zap.Logger) (*Components, error) {
	logger := applog.Named(base, "bootstrap")

	history := sqlite.NewRepository(cfg.Storage.DatabasePath, applog.Named(base, "repo.sqlite"))
	snapshots := files.NewStore(cfg.Storage.OutputDir, applog.Named(base, "repo.files"))
	components := &Components{History: history, Snapshot: snapshots}
	logger.Info("history database configured", zap.String("path", history.Path()))

	writers := []persistence.SnapshotWriter{snapshots}

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewSnapshotRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, applog.Named(base, "repo.mongodb"))
		if err != nil {
			return nil, fmt.Errorf("init mongodb repository: %w", err)
		}
		components.closers = append(components.closers, mongoRepo.Close)
		writers = append(writers, mongoRepo)
		logger.Info("mongodb latest mirror enabled", zap.String("db", cfg.MongoDB.DBName))
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, applog.Named(base, "repo.sheets"))
		if err != nil {
			_ = components.Close(ctx)
			return nil, fmt.Errorf("init sheets repository: %w", err)
		}
		writers = append(writers, sheets.NewSummaryPublisher(sheetsRepo, cfg.Sheets, applog.Named(base, "svc.sheets")))
		logger.Info("google sheets publishing enabled")
	}

	launcher := browser.NewRodLauncher(cfg.Browser, applog.Named(base, "browser"))
	ex := extractor.NewFromConfig(cfg, applog.Named(base, "extractor"))
	extractionSvc := extraction.NewService(launcher, ex, cfg, applog.Named(base, "svc.extraction"))
	persistenceSvc := persistence.NewService(history, applog.Named(base, "svc.persistence"), writers...)

	hb := heartbeat.NewClient(cfg.Heartbeat)
	if !hb.Enabled() {
		logger.Debug("heartbeat monitor disabled")
	}

	components.Job = pipeline.NewJob(extractionSvc, persistenceSvc, hb, applog.Named(base, "pipeline"))
	return components, nil
}
