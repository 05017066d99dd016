package browser

import (
	"context"
	"errors"
)

// ErrNotFound indicates no element matched the requested criteria.
var ErrNotFound = errors.New("element not found")

// Frame is one document of the page's frame tree, the top-level document included.
type Frame interface {
	// Text returns the rendered visible text of the frame body.
	Text(ctx context.Context) (string, error)
	// HTML returns the markup of the frame body.
	HTML(ctx context.Context) (string, error)
}

// Page exposes the browser operations the portal flow relies on.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	Fill(ctx context.Context, selector, value string) error
	// ClickText clicks the first element whose own text contains text.
	ClickText(ctx context.Context, text string) error
	// FindButton reports whether a button whose label contains every fragment exists.
	FindButton(ctx context.Context, fragments ...string) (bool, error)
	// ClickButton clicks the first button whose label contains every fragment.
	ClickButton(ctx context.Context, fragments ...string) error
	Frames(ctx context.Context) ([]Frame, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Launcher opens a fresh page in a new browser session.
type Launcher interface {
	Open(ctx context.Context) (Page, error)
}
