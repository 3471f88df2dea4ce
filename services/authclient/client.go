// Package authclient talks to the external auth service that issues and
// verifies one-time login codes.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	sendOTPPath   = "/send-otp"
	verifyOTPPath = "/verify-otp"

	maxResponseBytes = 1 << 16
)

var (
	// ErrTransport covers network failures and timeouts.
	ErrTransport = errors.New("auth service transport error")
	// ErrMalformedResponse means the service answered without a readable success flag.
	ErrMalformedResponse = errors.New("auth service returned a malformed response")
)

type sendOTPRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// result keeps Success as a pointer so a missing field is distinguishable
// from an explicit false.
type result struct {
	Success *bool `json:"success"`
}

// Client implements the two-endpoint auth contract over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("authclient: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("authclient: base url %q must be an absolute http(s) url", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Session returns a copy of c with a cookie jar of its own. The service may
// set session evidence on one login attempt; it is kept for that attempt's
// later calls and never sent on behalf of another. The copy shares c's
// transport.
func (c *Client) Session() *Client {
	hc := *c.httpClient
	hc.Jar = nil
	if jar, err := cookiejar.New(nil); err == nil {
		hc.Jar = jar
	} else {
		c.logger.Warn("auth client session without cookie jar", zap.Error(err))
	}
	return &Client{baseURL: c.baseURL, httpClient: &hc, logger: c.logger}
}

// SendOTP asks the service to issue a code for email.
func (c *Client) SendOTP(ctx context.Context, email string) (bool, error) {
	return c.post(ctx, sendOTPPath, sendOTPRequest{Email: email})
}

// VerifyOTP redeems otp for email.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (bool, error) {
	return c.post(ctx, verifyOTPPath, verifyOTPRequest{Email: email, OTP: otp})
}

func (c *Client) post(ctx context.Context, path string, payload any) (bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("authclient: encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("authclient: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("auth service request failed", zap.String("path", path), zap.Error(err))
		return false, fmt.Errorf("%w: %s: %w", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("%w: %s: read body: %w", ErrTransport, path, err)
	}
	c.logger.Debug("auth service responded",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	var res result
	if err := json.Unmarshal(raw, &res); err != nil || res.Success == nil {
		return false, fmt.Errorf("%w: %s: status %d", ErrMalformedResponse, path, resp.StatusCode)
	}
	// A 5xx carrying success:true is not trusted.
	if resp.StatusCode >= http.StatusInternalServerError {
		return false, fmt.Errorf("%w: %s: status %d", ErrTransport, path, resp.StatusCode)
	}
	return *res.Success, nil
}
