// Package browsertest provides scriptable in-memory pages for tests.
package browsertest

import (
	"context"
	"strings"
	"sync"

	"github.com/colegioelo/vagas/pkg/clients/browser"
)

// Frame is a static frame.
type Frame struct {
	Content string
	Markup  string
	Err     error
}

// Text returns the frame content.
func (f *Frame) Text(context.Context) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.Content, nil
}

// HTML returns the frame markup.
func (f *Frame) HTML(context.Context) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.Markup, nil
}

// Page records every interaction and delegates behaviour to optional hooks.
type Page struct {
	mu sync.Mutex

	CurrentURL string

	OnNavigate    func(url string) error
	OnFill        func(selector, value string) error
	OnClickText   func(text string) error
	OnClickButton func(fragments []string) error
	// OnFindButton runs with the 1-based call count before each lookup.
	OnFindButton func(call int)
	// Buttons lists the labels of the buttons currently rendered.
	Buttons []string
	// FrameSets is called with the 1-based call count of Frames.
	FrameSets func(call int) []browser.Frame

	ScreenshotData []byte

	Navigations []string
	Filled      map[string]string
	Clicks      []string
	ButtonCalls int
	FrameCalls  int
	Screenshots int
	Closed      bool
}

// Navigate records the visit and moves the current URL.
func (p *Page) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	p.Navigations = append(p.Navigations, url)
	hook := p.OnNavigate
	p.mu.Unlock()
	if hook != nil {
		if err := hook(url); err != nil {
			return err
		}
	}
	p.SetURL(url)
	return nil
}

// URL returns the current URL.
func (p *Page) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CurrentURL, nil
}

// SetURL moves the page as a redirect would.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CurrentURL = url
}

// Fill records the value typed into selector.
func (p *Page) Fill(_ context.Context, selector, value string) error {
	p.mu.Lock()
	if p.Filled == nil {
		p.Filled = map[string]string{}
	}
	p.Filled[selector] = value
	hook := p.OnFill
	p.mu.Unlock()
	if hook != nil {
		return hook(selector, value)
	}
	return nil
}

// ClickText records the click and runs the hook.
func (p *Page) ClickText(_ context.Context, text string) error {
	p.mu.Lock()
	p.Clicks = append(p.Clicks, "text:"+text)
	hook := p.OnClickText
	p.mu.Unlock()
	if hook != nil {
		return hook(text)
	}
	return nil
}

// FindButton looks the fragments up in Buttons.
func (p *Page) FindButton(_ context.Context, fragments ...string) (bool, error) {
	p.mu.Lock()
	p.ButtonCalls++
	call := p.ButtonCalls
	hook := p.OnFindButton
	p.mu.Unlock()
	if hook != nil {
		hook(call)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasButton(fragments), nil
}

func (p *Page) hasButton(fragments []string) bool {
	for _, label := range p.Buttons {
		matched := true
		for _, fragment := range fragments {
			if !strings.Contains(label, fragment) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// ClickButton clicks a rendered button or fails with browser.ErrNotFound.
func (p *Page) ClickButton(_ context.Context, fragments ...string) error {
	p.mu.Lock()
	if !p.hasButton(fragments) {
		p.mu.Unlock()
		return browser.ErrNotFound
	}
	p.Clicks = append(p.Clicks, "button:"+strings.Join(fragments, "+"))
	hook := p.OnClickButton
	p.mu.Unlock()
	if hook != nil {
		return hook(fragments)
	}
	return nil
}

// SetButtons replaces the rendered buttons.
func (p *Page) SetButtons(labels ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Buttons = labels
}

// Frames returns the frames scripted for the current call.
func (p *Page) Frames(context.Context) ([]browser.Frame, error) {
	p.mu.Lock()
	p.FrameCalls++
	call := p.FrameCalls
	sets := p.FrameSets
	p.mu.Unlock()
	if sets == nil {
		return nil, nil
	}
	return sets(call), nil
}

// Screenshot returns the scripted bytes.
func (p *Page) Screenshot(context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screenshots++
	return p.ScreenshotData, nil
}

// Close marks the page closed.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// Launcher hands out a prepared page.
type Launcher struct {
	Page  *Page
	Err   error
	Opens int
}

// Open returns the prepared page.
func (l *Launcher) Open(context.Context) (browser.Page, error) {
	l.Opens++
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Page, nil
}
