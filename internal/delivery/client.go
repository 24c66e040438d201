// Package delivery ships snapshots to the remote collector over HTTP.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/version"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SnapshotPath is the collector endpoint for snapshots.
const SnapshotPath = "/api/v1/system-info"

// ErrRateLimited is returned by Send when the local request budget is
// spent. The snapshot is not sent.
var ErrRateLimited = errors.New("delivery rate limit exceeded")

// StatusError reports a non-2xx response from the collector.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("collector responded %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("collector responded %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// Config holds the collector connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RateLimit is the maximum number of sends per minute. Zero or less
	// disables limiting.
	RateLimit int
	// RetryCount is accepted for configuration compatibility; failed
	// sends are not retried.
	RetryCount int
}

// Client talks to the collector.
type Client struct {
	cfg      Config
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewClient validates cfg and creates a Client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}

	c := &Client{
		cfg:      cfg,
		endpoint: base.String() + SnapshotPath,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimit)), 1)
	}
	if cfg.APIKey == "" {
		logger.Warn("api key not configured; collector may reject snapshots")
	}
	return c, nil
}

// Endpoint returns the full snapshot URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Send POSTs snap as JSON. It never blocks on the rate limiter: when no
// token is available it returns ErrRateLimited at once.
func (c *Client) Send(ctx context.Context, snap *models.Snapshot) error {
	if c.limiter != nil && !c.limiter.Allow() {
		return ErrRateLimited
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post snapshot: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("snapshot posted",
		zap.String("url", c.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)
	return nil
}

// Fetch GETs the snapshot the collector currently holds for this agent.
func (c *Client) Fetch(ctx context.Context) (*models.Snapshot, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var snap models.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (c *Client) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("User-Agent", "staffmon/"+version.Short())
	return req, nil
}

// checkStatus converts a non-2xx response into a *StatusError carrying
// the first part of the response body.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
}
