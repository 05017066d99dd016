// Package portal drives the student-information portal: authentication, unit
// switching and the vacancy report view.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/config"
	"github.com/colegioelo/vagas/internal/domain/models"
	"github.com/colegioelo/vagas/pkg/clients/browser"
	"github.com/colegioelo/vagas/pkg/poll"
)

var (
	// ErrAuthentication aborts the whole run: without a session no unit can be processed.
	ErrAuthentication = errors.New("portal authentication failed")
	// ErrUnitSwitch indicates the unit selection or switch controls were missing.
	ErrUnitSwitch = errors.New("portal unit switch failed")
)

const (
	institutionField = "#codigoInstituicao"
	usernameField    = "#id_login"
	passwordField    = "#id_senha"
	submitLabel      = "ENTRAR"

	unitSelectionPath = "/login/unidade/"

	switchKeyword = "Unidade"
	switchGlyph   = "keyboard_arrow_down"
	entryGlyph    = "swap_vert"
)

// Session owns the authenticated browser page for one run.
type Session struct {
	page   browser.Page
	cfg    config.PortalConfig
	logger *zap.Logger

	// onSelectionScreen is true between a successful login and the first
	// successful unit selection.
	onSelectionScreen bool
}

// NewSession binds a session to an open page.
func NewSession(page browser.Page, cfg config.PortalConfig, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{page: page, cfg: cfg, logger: logger}
}

// Page exposes the underlying page to the report navigator and extractor.
func (s *Session) Page() browser.Page {
	return s.page
}

// Login submits the credentials and waits for the unit-selection redirect.
func (s *Session) Login(ctx context.Context) error {
	if err := s.page.Navigate(ctx, s.cfg.LoginURL); err != nil {
		return fmt.Errorf("%w: open login page: %w", ErrAuthentication, err)
	}

	fields := []struct {
		selector string
		value    string
	}{
		{selector: institutionField, value: s.cfg.InstitutionCode},
		{selector: usernameField, value: s.cfg.Username},
		{selector: passwordField, value: s.cfg.Password},
	}
	for _, field := range fields {
		if err := s.page.Fill(ctx, field.selector, field.value); err != nil {
			return fmt.Errorf("%w: fill %s: %w", ErrAuthentication, field.selector, err)
		}
	}

	if err := s.page.ClickButton(ctx, submitLabel); err != nil {
		return fmt.Errorf("%w: submit login form: %w", ErrAuthentication, err)
	}

	settings := poll.Within(s.cfg.LoginTimeout, s.cfg.PollInterval)
	landed, err := poll.Until(ctx, settings, func(ctx context.Context) (string, bool) {
		current, err := s.page.URL(ctx)
		if err != nil {
			return "", false
		}
		return current, strings.Contains(current, unitSelectionPath)
	})
	if err != nil {
		return fmt.Errorf("%w: waiting for unit selection: %w", ErrAuthentication, err)
	}

	s.onSelectionScreen = true
	s.logger.Info("portal login succeeded", zap.String("url", landed))
	return nil
}

// SelectUnit makes unit the active organizational unit. Right after login the
// unit is picked from the selection screen; afterwards the in-page switcher is used.
func (s *Session) SelectUnit(ctx context.Context, unit models.UnitDescriptor) error {
	if s.onSelectionScreen {
		if err := s.page.ClickText(ctx, unit.Name); err != nil {
			return fmt.Errorf("%w: select %s: %w", ErrUnitSwitch, unit.Code, err)
		}
		s.onSelectionScreen = false
		s.logger.Debug("unit selected from selection screen", zap.String("unit", unit.Code))
		return s.settle(ctx)
	}

	if err := s.page.ClickButton(ctx, switchKeyword, switchGlyph); err != nil {
		return fmt.Errorf("%w: open unit switcher: %w", ErrUnitSwitch, err)
	}
	if err := s.settle(ctx); err != nil {
		return err
	}
	if err := s.page.ClickButton(ctx, unit.Name, entryGlyph); err != nil {
		return fmt.Errorf("%w: switch to %s: %w", ErrUnitSwitch, unit.Code, err)
	}

	s.logger.Debug("unit switched", zap.String("unit", unit.Code))
	return s.settle(ctx)
}

// ReportBaseURL returns scheme://host of the current page. A unit switch may move
// the session to another host, so it is read after every switch.
func (s *Session) ReportBaseURL(ctx context.Context) (string, error) {
	current, err := s.page.URL(ctx)
	if err != nil {
		return "", fmt.Errorf("read current url: %w", err)
	}
	return baseURL(current)
}

func (s *Session) settle(ctx context.Context) error {
	return poll.Sleep(ctx, s.cfg.Settle)
}

func baseURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("url %q has no scheme or host", raw)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}
