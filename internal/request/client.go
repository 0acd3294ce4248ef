// Package request provides the shared outbound HTTP helper: a fixed-timeout
// client that retries transient failures with jittered exponential backoff.
// Every site adapter routes its network calls through it.
package request

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Config controls timeout, retry and rate-limit behavior.
type Config struct {
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// RatePerHost caps requests per second to any single host; zero
	// disables limiting. RateBurst is the bucket size.
	RatePerHost float64
	RateBurst   int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 250 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 5 * time.Second
	}
	return c
}

// Options customizes a single call.
type Options struct {
	Headers map[string]string
	Params  url.Values
	// Insecure skips TLS verification. A couple of the job boards serve
	// detail pages with broken certificate chains.
	Insecure bool
}

// Client issues GET requests with bounded retries. Safe for concurrent use.
type Client struct {
	client   *http.Client
	insecure *http.Client
	policy   *RetryPolicy
	limiter  *Limiter
	logger   *zap.Logger
}

// NewClient builds a Client from cfg, applying defaults for zero values.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	insecureTransport := http.DefaultTransport.(*http.Transport).Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
	var limiter *Limiter
	if cfg.RatePerHost > 0 {
		limiter = NewLimiter(cfg.RatePerHost, cfg.RateBurst)
	}
	return &Client{
		client:   &http.Client{Timeout: cfg.Timeout},
		insecure: &http.Client{Timeout: cfg.Timeout, Transport: insecureTransport},
		policy:   NewRetryPolicy(cfg.MaxAttempts, cfg.BaseDelay, cfg.MaxDelay),
		limiter:  limiter,
		logger:   logger,
	}
}

// Get fetches rawURL and returns the response body as text. Transient
// failures (network errors, 5xx, 429) are retried per the policy; exhausting
// retries surfaces the last error.
func (c *Client) Get(ctx context.Context, rawURL string, opts Options) (string, error) {
	target := rawURL
	if len(opts.Params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("parse request url: %w", err)
		}
		q := u.Query()
		for k, vs := range opts.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	httpClient := c.client
	if opts.Insecure {
		httpClient = c.insecure
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, target); err != nil {
				return "", err
			}
		}
		body, err := c.doOnce(ctx, httpClient, target, opts.Headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !c.policy.ShouldRetry(err, attempt) {
			return "", lastErr
		}
		delay := c.policy.Backoff(attempt)
		c.logger.Warn("request failed, retrying",
			zap.String("url", target),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (c *Client) doOnce(ctx context.Context, httpClient *http.Client, target string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get %s: %w", target, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close response body", zap.Error(cerr))
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", &StatusError{Code: resp.StatusCode, URL: target}
	}
	return string(data), nil
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
