// Package authflow drives the two-step passwordless login: request a one-time
// code for an email address, then redeem it. A Controller owns exactly one
// login attempt and is discarded with the page visit that created it.
package authflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DashboardPath is where a successful login hands control.
	DashboardPath = "/dashboard"
	// LoginPath is where the dashboard returns on logout.
	LoginPath = "/login"

	DefaultTimeout = 15 * time.Second
)

// AuthService is the client side of the external auth service. A false result
// with a nil error means the service answered and refused.
type AuthService interface {
	SendOTP(ctx context.Context, email string) (bool, error)
	VerifyOTP(ctx context.Context, email, otp string) (bool, error)
}

// Navigator receives the navigation command emitted after authentication.
// Navigate runs while the attempt is locked and must not call back into the
// Controller.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Snapshot is a point-in-time copy of an attempt, read by the view layer.
type Snapshot struct {
	Phase     Phase
	Email     string
	Code      string
	LastError error
}

// Message is the inline error text for the snapshot, if any.
func (s Snapshot) Message() string {
	return Message(s.LastError)
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout bounds each call to the auth service.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for transition logs.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller is safe for concurrent use. Its mutex is never held across a
// call to the auth service; the in-flight phases act as the busy guard.
type Controller struct {
	svc     AuthService
	nav     Navigator
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	phase   Phase
	email   string
	code    string
	lastErr error
	closed  bool
	cancel  context.CancelFunc
}

// New returns a Controller in the Idle phase.
func New(svc AuthService, nav Navigator, opts ...Option) *Controller {
	c := &Controller{
		svc:     svc,
		nav:     nav,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		phase:   Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state of the attempt.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Phase:     c.phase,
		Email:     c.email,
		Code:      c.code,
		LastError: c.lastErr,
	}
}

// Closed reports whether the attempt has been discarded.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// RequestCode asks the auth service to issue a code for email. It is accepted
// from Idle and Failed only; a malformed address is rejected without a call.
func (c *Controller) RequestCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.phase == RequestingCode:
		c.mu.Unlock()
		return ErrBusy
	case c.phase != Idle && c.phase != Failed:
		c.mu.Unlock()
		return ErrNotAllowed
	}
	c.lastErr = nil
	c.email = email
	if !ValidEmail(email) {
		c.lastErr = ErrInvalidEmail
		c.mu.Unlock()
		return ErrInvalidEmail
	}
	from := c.phase
	c.phase = RequestingCode
	callCtx, cancel := c.beginLocked(ctx)
	c.mu.Unlock()
	defer cancel()

	c.logger.Debug("requesting login code", zap.Stringer("from", from))
	ok, err := c.svc.SendOTP(callCtx, email)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel = nil
	if c.closed {
		c.logger.Debug("ignoring code request result for closed attempt")
		return ErrClosed
	}
	if err != nil || !ok {
		c.phase = Failed
		c.lastErr = ErrCodeRequestFailed
		c.logger.Info("login code request failed", zap.Bool("refused", err == nil), zap.Error(err))
		if err != nil {
			return fmt.Errorf("%w (%w: %w)", ErrCodeRequestFailed, ErrTransport, err)
		}
		return ErrCodeRequestFailed
	}
	c.phase = AwaitingCode
	return nil
}

// VerifyCode redeems code for the email the code was issued to. It is
// accepted from AwaitingCode only. A rejected code keeps the attempt in
// AwaitingCode with the code intact so the user can correct it.
func (c *Controller) VerifyCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.phase == VerifyingCode:
		c.mu.Unlock()
		return ErrBusy
	case c.phase != AwaitingCode:
		c.mu.Unlock()
		return ErrNotAllowed
	}
	c.lastErr = nil
	c.code = code
	if code == "" {
		c.lastErr = ErrInvalidCode
		c.mu.Unlock()
		return ErrInvalidCode
	}
	email := c.email
	c.phase = VerifyingCode
	callCtx, cancel := c.beginLocked(ctx)
	c.mu.Unlock()
	defer cancel()

	ok, err := c.svc.VerifyOTP(callCtx, email, code)

	c.mu.Lock()
	c.cancel = nil
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("ignoring verification result for closed attempt")
		return ErrClosed
	}
	if err != nil || !ok {
		c.phase = AwaitingCode
		c.lastErr = ErrInvalidCode
		c.mu.Unlock()
		c.logger.Info("login code rejected", zap.Bool("refused", err == nil), zap.Error(err))
		if err != nil {
			return fmt.Errorf("%w (%w: %w)", ErrInvalidCode, ErrTransport, err)
		}
		return ErrInvalidCode
	}
	c.phase = Authenticated
	// Emitted under the lock: a concurrent Close either lands first and
	// suppresses the hand-off, or sees an attempt that already handed off.
	c.nav.Navigate(DashboardPath)
	c.mu.Unlock()

	c.logger.Info("login attempt authenticated")
	return nil
}

// Reset abandons the issued code and returns to Idle ("change email"). The
// email stays as an editable draft.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.phase != AwaitingCode && c.phase != Failed {
		return ErrNotAllowed
	}
	c.phase = Idle
	c.code = ""
	c.lastErr = nil
	return nil
}

// Close discards the attempt. An in-flight call is cancelled and its result
// is ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) beginLocked(ctx context.Context) (context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	c.cancel = cancel
	return callCtx, cancel
}
