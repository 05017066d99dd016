package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/config"
	"github.com/colegioelo/vagas/internal/domain/models"
	"github.com/colegioelo/vagas/pkg/clients/browser"
	"github.com/colegioelo/vagas/pkg/poll"
)

// ErrExtractionTimeout indicates no frame ever showed the report completion marker.
var ErrExtractionTimeout = errors.New("report content not found in any frame")

// ErrStrategiesFailed indicates every strategy returned an error.
var ErrStrategiesFailed = errors.New("all extraction strategies failed")

// Extractor locates the rendered report in the page frame tree and parses it.
type Extractor struct {
	marker     string
	settings   poll.Settings
	strategies []Strategy
	logger     *zap.Logger
}

// New builds an extractor. The first strategy is primary; the rest are tried in
// order when the previous one fails or finds nothing.
func New(marker string, settings poll.Settings, logger *zap.Logger, strategies ...Strategy) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		marker:     marker,
		settings:   settings,
		strategies: strategies,
		logger:     logger,
	}
}

// NewFromConfig wires the text strategy followed by the HTML strategy.
func NewFromConfig(cfg config.Config, logger *zap.Logger) *Extractor {
	parser := NewParser(cfg.Portal.Period, NewExclusions(cfg.Extractor.ExcludedKeywords))
	settings := poll.Settings{
		Interval:    cfg.Extractor.FramePollInterval,
		MaxAttempts: cfg.Extractor.FramePollAttempts,
	}
	return New(cfg.Extractor.Marker, settings, logger, NewTextStrategy(parser), NewHTMLStrategy(parser))
}

// WaitForReport polls every frame of the page until one contains the marker.
// The frame list is refreshed on every attempt since the report iframe is
// created asynchronously and its position is not stable.
func (e *Extractor) WaitForReport(ctx context.Context, page browser.Page) (browser.Frame, error) {
	attempt := 0
	frame, err := poll.Until(ctx, e.settings, func(ctx context.Context) (browser.Frame, bool) {
		attempt++
		frames, err := page.Frames(ctx)
		if err != nil {
			e.logger.Debug("list frames failed", zap.Int("attempt", attempt), zap.Error(err))
			return nil, false
		}
		for _, frame := range frames {
			text, err := frame.Text(ctx)
			if err != nil {
				continue
			}
			if strings.Contains(text, e.marker) {
				return frame, true
			}
		}
		e.logger.Debug("report not rendered yet", zap.Int("attempt", attempt), zap.Int("frames", len(frames)))
		return nil, false
	})
	if err != nil {
		if errors.Is(err, poll.ErrExhausted) {
			e.logger.Warn("report marker never appeared",
				zap.String("marker", e.marker),
				zap.Int("attempts", attempt),
				zap.Duration("budget", e.settings.Budget()))
			return nil, fmt.Errorf("%w: marker %q: %v", ErrExtractionTimeout, e.marker, err)
		}
		return nil, err
	}
	return frame, nil
}

// Extract waits for the report and returns its classroom records in discovery order.
func (e *Extractor) Extract(ctx context.Context, page browser.Page) ([]models.ClassroomRecord, error) {
	frame, err := e.WaitForReport(ctx, page)
	if err != nil {
		return nil, err
	}
	return e.ExtractFrame(ctx, frame)
}

// ExtractFrame runs the strategies against an already located report frame. A
// report without academic classrooms yields an empty slice.
func (e *Extractor) ExtractFrame(ctx context.Context, frame browser.Frame) ([]models.ClassroomRecord, error) {
	var errs []error
	succeeded := false
	for _, strategy := range e.strategies {
		records, err := strategy.Extract(ctx, frame)
		if err != nil {
			e.logger.Warn("extraction strategy failed", zap.String("strategy", strategy.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", strategy.Name(), err))
			continue
		}
		succeeded = true
		if len(records) == 0 {
			e.logger.Warn("extraction strategy found no classrooms", zap.String("strategy", strategy.Name()))
			continue
		}
		e.logger.Debug("classrooms extracted", zap.String("strategy", strategy.Name()), zap.Int("count", len(records)))
		return records, nil
	}

	if !succeeded && len(errs) > 0 {
		return nil, errors.Join(append([]error{ErrStrategiesFailed}, errs...)...)
	}
	return []models.ClassroomRecord{}, nil
}
