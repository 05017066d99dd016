package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/config"
)

const (
	// maxFrameDepth bounds how deep nested iframes are walked.
	maxFrameDepth  = 3
	defaultTimeout = 30 * time.Second
)

// RodLauncher starts a local Chromium through rod for each run.
type RodLauncher struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

// NewRodLauncher builds a launcher using the provided browser options.
func NewRodLauncher(cfg config.BrowserConfig, logger *zap.Logger) *RodLauncher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RodLauncher{cfg: cfg, logger: logger}
}

// Open launches the browser and returns its first page.
func (l *RodLauncher) Open(ctx context.Context) (Page, error) {
	lnch := launcher.New().Context(ctx).Headless(l.cfg.Headless)
	if l.cfg.BinPath != "" {
		lnch = lnch.Bin(l.cfg.BinPath)
	}

	controlURL, err := lnch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		lnch.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		lnch.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	l.logger.Debug("browser launched", zap.Bool("headless", l.cfg.Headless), zap.String("control_url", controlURL))

	return &RodPage{
		browser:           b,
		page:              page,
		launcher:          lnch,
		actionTimeout:     l.cfg.ActionTimeout,
		navigationTimeout: l.cfg.NavigationTimeout,
	}, nil
}

// RodPage implements Page on top of a rod page.
type RodPage struct {
	browser           *rod.Browser
	page              *rod.Page
	launcher          *launcher.Launcher
	actionTimeout     time.Duration
	navigationTimeout time.Duration
}

func (p *RodPage) scoped(ctx context.Context, timeout time.Duration) *rod.Page {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return p.page.Context(ctx).Timeout(timeout)
}

// Navigate loads url and waits for the load event.
func (p *RodPage) Navigate(ctx context.Context, url string) error {
	pg := p.scoped(ctx, p.navigationTimeout)
	defer pg.CancelTimeout()

	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return fmt.Errorf("wait load of %s: %w", url, err)
	}
	return nil
}

// URL returns the address currently loaded in the page.
func (p *RodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("read page info: %w", err)
	}
	return info.URL, nil
}

// Fill replaces the value of the input matched by selector.
func (p *RodPage) Fill(ctx context.Context, selector, value string) error {
	pg := p.scoped(ctx, p.actionTimeout)
	defer pg.CancelTimeout()

	el, err := pg.Element(selector)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotFound, selector, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select text of %s: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input into %s: %w", selector, err)
	}
	return nil
}

// ClickText clicks the first element whose own text contains text.
func (p *RodPage) ClickText(ctx context.Context, text string) error {
	pg := p.scoped(ctx, p.actionTimeout)
	defer pg.CancelTimeout()

	el, err := pg.ElementX(fmt.Sprintf("//*[contains(normalize-space(text()), %s)]", xpathLiteral(text)))
	if err != nil {
		return fmt.Errorf("%w: text %q: %v", ErrNotFound, text, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click text %q: %w", text, err)
	}
	return nil
}

// FindButton reports whether a button containing every fragment is present.
func (p *RodPage) FindButton(ctx context.Context, fragments ...string) (bool, error) {
	el, err := p.findButton(ctx, fragments)
	if err != nil {
		return false, err
	}
	return el != nil, nil
}

// ClickButton clicks the first button containing every fragment.
func (p *RodPage) ClickButton(ctx context.Context, fragments ...string) error {
	el, err := p.findButton(ctx, fragments)
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("%w: button %q", ErrNotFound, strings.Join(fragments, " + "))
	}

	pg := p.scoped(ctx, p.actionTimeout)
	defer pg.CancelTimeout()

	if err := el.Context(pg.GetContext()).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click button %q: %w", strings.Join(fragments, " + "), err)
	}
	return nil
}

func (p *RodPage) findButton(ctx context.Context, fragments []string) (*rod.Element, error) {
	buttons, err := p.page.Context(ctx).Elements("button")
	if err != nil {
		return nil, fmt.Errorf("list buttons: %w", err)
	}

	for _, button := range buttons {
		label, err := button.Text()
		if err != nil {
			continue
		}
		if containsAll(label, fragments) {
			return button, nil
		}
	}
	return nil, nil
}

// Frames returns the top-level document followed by every reachable iframe.
func (p *RodPage) Frames(ctx context.Context) ([]Frame, error) {
	var frames []Frame
	collectFrames(ctx, p.page, p.actionTimeout, maxFrameDepth, &frames)
	return frames, nil
}

func collectFrames(ctx context.Context, page *rod.Page, timeout time.Duration, depth int, out *[]Frame) {
	*out = append(*out, &rodFrame{page: page, timeout: timeout})
	if depth == 0 {
		return
	}

	iframes, err := page.Context(ctx).Elements("iframe")
	if err != nil {
		return
	}
	for _, iframe := range iframes {
		child, err := iframe.Frame()
		if err != nil {
			continue
		}
		collectFrames(ctx, child, timeout, depth-1, out)
	}
}

// Screenshot captures the full page as PNG.
func (p *RodPage) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := p.page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return data, nil
}

// Close shuts the page, the browser and the launched process down.
func (p *RodPage) Close() error {
	var errs []error
	if err := p.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if err := p.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	p.launcher.Cleanup()
	return errors.Join(errs...)
}

type rodFrame struct {
	page    *rod.Page
	timeout time.Duration
}

func (f *rodFrame) body(ctx context.Context) (*rod.Element, func(), error) {
	timeout := f.timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pg := f.page.Context(ctx).Timeout(timeout)
	el, err := pg.Element("body")
	if err != nil {
		pg.CancelTimeout()
		return nil, nil, fmt.Errorf("%w: frame body: %v", ErrNotFound, err)
	}
	return el, func() { pg.CancelTimeout() }, nil
}

func (f *rodFrame) Text(ctx context.Context) (string, error) {
	body, release, err := f.body(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return body.Text()
}

func (f *rodFrame) HTML(ctx context.Context) (string, error) {
	body, release, err := f.body(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return body.HTML()
}

func containsAll(label string, fragments []string) bool {
	for _, fragment := range fragments {
		if !strings.Contains(label, fragment) {
			return false
		}
	}
	return true
}

// xpathLiteral quotes s for use inside an XPath expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	return `concat("` + strings.Join(parts, `", '"', "`) + `")`
}
