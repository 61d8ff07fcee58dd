// Package apiclient provides the shared JSON REST client used by the Aqua
// and SD Elements integrations. It owns the concerns every integration
// needs: a pooled transport, per-client request rate limiting, request
// correlation IDs, typed API errors, page collection for paginated
// endpoints, and 404 fallback chains.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Config holds client configuration options.
type Config struct {
	// BaseURL is prepended to every request path, e.g. "https://aqua.example.com".
	BaseURL string

	// Headers are sent with every request (authorization, content hints).
	Headers map[string]string

	// Timeout is the total per-request timeout (default: 30s).
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification. The scan
	// services sit behind internally-issued certificates, so this
	// defaults to true unless CACertFile is set.
	InsecureSkipVerify bool

	// CACertFile optionally points at a PEM bundle to trust instead of
	// skipping verification.
	CACertFile string

	// RequestsPerSecond caps the request rate. Zero means unlimited.
	// Paginated vulnerability queries can hammer the Aqua API hard
	// enough to get throttled without this.
	RequestsPerSecond float64

	// MaxIdleConns bounds the idle connection pool (default: 10).
	MaxIdleConns int
}

// DefaultConfig returns defaults suited to the scan-service APIs.
func DefaultConfig() Config {
	return Config{
		Timeout:            30 * time.Second,
		InsecureSkipVerify: true,
		RequestsPerSecond:  10,
		MaxIdleConns:       10,
	}
}

// Client is a JSON REST client bound to one base URL. It is safe for
// concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a client from the configuration. Zero values fall back to
// DefaultConfig equivalents.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 10
	}

	tlsCfg := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
	if cfg.CACertFile != "" {
		pem, err := os.ReadFile(cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("apiclient: reading CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("apiclient: no certificates found in %s", cfg.CACertFile)
		}
		tlsCfg = &tls.Config{RootCAs: pool}
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     90 * time.Second,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
		TLSClientConfig:     tlsCfg,
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Transport: transport, Timeout: cfg.Timeout},
		limiter: limiter,
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// GetJSON issues a GET request and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// PostJSON issues a POST request with a JSON body. out may be nil when the
// response body is irrelevant.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// PutJSON issues a PUT request with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// PatchJSON issues a PATCH request with a JSON body.
func (c *Client) PatchJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("apiclient: rate limit wait: %w", err)
		}
	}

	url := c.cfg.BaseURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("apiclient: building %s %s: %w", method, path, err)
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return &APIError{
			URL:        url,
			Method:     method,
			StatusCode: resp.StatusCode,
			Body:       string(text),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decoding %s %s response: %w", method, path, err)
	}
	return nil
}
