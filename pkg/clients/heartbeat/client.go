// Package heartbeat reports run outcomes to an external cron monitor.
package heartbeat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/colegioelo/vagas/internal/config"
)

// Client pings the monitor URL on success and URL/fail on failure.
type Client interface {
	Success(ctx context.Context) error
	Failure(ctx context.Context, message string) error
}

// APIClient is a resty-backed implementation of Client. It is a no-op when no
// URL is configured.
type APIClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a heartbeat client from configuration.
func NewClient(cfg config.HeartbeatConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "text/plain; charset=utf-8").
		SetTimeout(timeout)

	return &APIClient{
		httpClient: restyClient,
		url:        strings.TrimSuffix(cfg.URL, "/"),
	}
}

// Enabled reports whether a monitor URL is configured.
func (c *APIClient) Enabled() bool {
	return c.url != ""
}

// Success signals a completed run.
func (c *APIClient) Success(ctx context.Context) error {
	return c.ping(ctx, c.url, "")
}

// Failure signals a failed run; message is sent as the request body.
func (c *APIClient) Failure(ctx context.Context, message string) error {
	return c.ping(ctx, c.url+"/fail", message)
}

func (c *APIClient) ping(ctx context.Context, target, body string) error {
	if !c.Enabled() {
		return nil
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		Post(target)
	if err != nil {
		return fmt.Errorf("send heartbeat: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("heartbeat monitor error: code=%d, body=%s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}
