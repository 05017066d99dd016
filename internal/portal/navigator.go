package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/config"
	"github.com/colegioelo/vagas/pkg/clients/browser"
	"github.com/colegioelo/vagas/pkg/poll"
)

// ErrReportUnavailable indicates the report view could not be opened or generated.
var ErrReportUnavailable = errors.New("enrollment report unavailable")

const generateLabel = "CONSULTAR"

// Navigator opens the vacancy report for the active unit and triggers generation.
type Navigator struct {
	page   browser.Page
	cfg    config.PortalConfig
	logger *zap.Logger
}

// NewNavigator binds a navigator to the session page.
func NewNavigator(page browser.Page, cfg config.PortalConfig, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{page: page, cfg: cfg, logger: logger}
}

// ReportURL joins the report path to a base URL.
func (n *Navigator) ReportURL(base string) string {
	path := n.cfg.ReportPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + path
}

// OpenReport navigates to the report view under base.
func (n *Navigator) OpenReport(ctx context.Context, base string) error {
	target := n.ReportURL(base)
	if err := n.page.Navigate(ctx, target); err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrReportUnavailable, target, err)
	}
	n.logger.Debug("report view opened", zap.String("url", target))
	return poll.Sleep(ctx, n.cfg.Settle)
}

// RunReport waits for the generate control and clicks it.
func (n *Navigator) RunReport(ctx context.Context) error {
	settings := poll.Within(n.cfg.ReportTimeout, n.cfg.PollInterval)
	_, err := poll.Until(ctx, settings, func(ctx context.Context) (struct{}, bool) {
		found, err := n.page.FindButton(ctx, generateLabel)
		return struct{}{}, err == nil && found
	})
	if err != nil {
		return fmt.Errorf("%w: %s control: %w", ErrReportUnavailable, generateLabel, err)
	}

	if err := n.page.ClickButton(ctx, generateLabel); err != nil {
		return fmt.Errorf("%w: click %s: %w", ErrReportUnavailable, generateLabel, err)
	}
	n.logger.Debug("report generation requested")
	return poll.Sleep(ctx, n.cfg.Settle)
}
