// Package extraction runs one pass over every configured unit of the portal.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/config"
	"github.com/colegioelo/vagas/internal/domain/models"
	"github.com/colegioelo/vagas/internal/extractor"
	"github.com/colegioelo/vagas/internal/portal"
	"github.com/colegioelo/vagas/pkg/clients/browser"
)

// Service drives the browser through login and every unit report.
type Service struct {
	launcher  browser.Launcher
	extractor *extractor.Extractor
	portal    config.PortalConfig
	outputDir string
	now       func() time.Time
	logger    *zap.Logger
}

// NewService wires the extraction service.
func NewService(launcher browser.Launcher, ex *extractor.Extractor, cfg config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		launcher:  launcher,
		extractor: ex,
		portal:    cfg.Portal,
		outputDir: cfg.Storage.OutputDir,
		now:       time.Now,
		logger:    logger,
	}
}

// Run opens a browser session, authenticates and extracts every unit in order.
// Unit failures become placeholder snapshots; authentication failure aborts the
// run and is returned with whatever was collected so far.
func (s *Service) Run(ctx context.Context) (models.ExtractionRun, error) {
	run := models.NewExtractionRun(s.now(), s.portal.Period)
	logger := s.logger.With(zap.String("run_id", run.RunID.String()))

	page, err := s.launcher.Open(ctx)
	if err != nil {
		return run, fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn("close browser", zap.Error(err))
		}
	}()

	session := portal.NewSession(page, s.portal, logger.Named("session"))
	navigator := portal.NewNavigator(page, s.portal, logger.Named("navigator"))

	if err := session.Login(ctx); err != nil {
		logger.Error("login failed", zap.Error(err))
		return run, err
	}

	for i, unit := range s.portal.Units {
		unitLogger := logger.With(zap.String("unit", unit.Code), zap.Int("position", i+1))
		unitLogger.Info("extracting unit")

		records, err := s.extractUnit(ctx, session, navigator, unit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return run, fmt.Errorf("extraction interrupted at %s: %w", unit.Code, ctxErr)
			}
			unitLogger.Error("unit extraction failed", zap.Error(err))
			if errors.Is(err, extractor.ErrExtractionTimeout) {
				s.saveScreenshot(ctx, page, unit, unitLogger)
			}
			run.Units = append(run.Units, models.UnitSnapshot{
				Code:       unit.Code,
				Name:       unit.Name,
				Classrooms: []models.ClassroomRecord{},
				Error:      err.Error(),
			})
			continue
		}

		if mismatches := countMismatches(records); mismatches > 0 {
			unitLogger.Warn("enrolled total differs from new plus returning",
				zap.Int("classrooms", mismatches),
				zap.Int("of", len(records)),
			)
		}
		unitLogger.Info("unit extracted", zap.Int("classrooms", len(records)))

		run.Units = append(run.Units, models.UnitSnapshot{
			Code:       unit.Code,
			Name:       unit.Name,
			Classrooms: records,
		})
	}

	return run, nil
}

func (s *Service) extractUnit(ctx context.Context, session *portal.Session, navigator *portal.Navigator, unit models.UnitDescriptor) ([]models.ClassroomRecord, error) {
	if err := session.SelectUnit(ctx, unit); err != nil {
		return nil, err
	}

	base, err := session.ReportBaseURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", portal.ErrReportUnavailable, err)
	}

	if err := navigator.OpenReport(ctx, base); err != nil {
		return nil, err
	}
	if err := navigator.RunReport(ctx); err != nil {
		return nil, err
	}

	return s.extractor.Extract(ctx, session.Page())
}

func (s *Service) saveScreenshot(ctx context.Context, page browser.Page, unit models.UnitDescriptor, logger *zap.Logger) {
	shot, err := page.Screenshot(ctx)
	if err != nil {
		logger.Warn("capture error screenshot", zap.Error(err))
		return
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		logger.Warn("create screenshot directory", zap.Error(err))
		return
	}

	name := fmt.Sprintf("error_%s_%s.png", unit.Code, s.now().Format("150405"))
	path := filepath.Join(s.outputDir, name)
	if err := os.WriteFile(path, shot, 0o644); err != nil {
		logger.Warn("write error screenshot", zap.Error(err))
		return
	}
	logger.Info("error screenshot saved", zap.String("path", path))
}

func countMismatches(records []models.ClassroomRecord) int {
	n := 0
	for _, r := range records {
		if r.EnrollmentMismatch() {
			n++
		}
	}
	return n
}
