package handlers

import (
	"errors"
	"net/http"
	"time"

	"travis/services/attempts"
	"travis/services/authflow"
	"travis/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AttemptCookie addresses the login attempt mounted by the current page visit.
const AttemptCookie = "travis_attempt"

// LoginHandler serves the login view and drives each visit's attempt.
type LoginHandler struct {
	Registry     *attempts.Registry
	Secret       []byte
	SessionTTL   time.Duration
	AttemptTTL   time.Duration
	CookieSecure bool
	RedactionKey []byte
	Logger       *zap.Logger
}

// AttemptViewPath re-renders the current attempt without mounting a new one.
const AttemptViewPath = authflow.LoginPath + "/attempt"

// busyRefreshSeconds is how soon a page rendered mid-request reloads the
// attempt view.
const busyRefreshSeconds = 1

// loginView is the data rendered by login.html.
type loginView struct {
	EmailStep bool
	Busy      bool
	Email     string
	Code      string
	Error     string

	// Set while a request is in flight so the page follows the attempt once
	// the call completes.
	RefreshURL     string
	RefreshSeconds int
}

func newLoginView(s authflow.Snapshot) loginView {
	v := loginView{
		EmailStep: s.Phase.EmailStep(),
		Busy:      s.Phase.InFlight(),
		Email:     s.Email,
		Code:      s.Code,
		Error:     s.Message(),
	}
	if v.Busy {
		v.RefreshURL = AttemptViewPath
		v.RefreshSeconds = busyRefreshSeconds
	}
	return v
}

type sendOTPForm struct {
	Email string `form:"email"`
}

type verifyOTPForm struct {
	OTP string `form:"otp"`
}

// statusFor maps a controller result to the status of the re-rendered view.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, authflow.ErrInvalidEmail):
		return http.StatusUnprocessableEntity
	case errors.Is(err, authflow.ErrCodeRequestFailed):
		return http.StatusBadGateway
	case errors.Is(err, authflow.ErrInvalidCode):
		return http.StatusUnauthorized
	case errors.Is(err, authflow.ErrBusy), errors.Is(err, authflow.ErrNotAllowed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// MountLoginHandler closes the visit's previous attempt and mounts a fresh one.
func (h *LoginHandler) MountLoginHandler(c *gin.Context) {
	if id, err := c.Cookie(AttemptCookie); err == nil {
		h.Registry.Discard(id)
	}
	attempt := h.Registry.Mount()
	h.setCookie(c, AttemptCookie, attempt.ID, int(h.AttemptTTL/time.Second), authflow.LoginPath)
	c.HTML(http.StatusOK, "login.html", newLoginView(attempt.Controller.Snapshot()))
}

// SendOTPHandler asks the auth service to send a code to the posted email.
func (h *LoginHandler) SendOTPHandler(c *gin.Context) {
	attempt, ok := h.attempt(c)
	if !ok {
		return
	}
	var form sendOTPForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Invalid form submission")
		return
	}
	err := attempt.Controller.RequestCode(c.Request.Context(), form.Email)
	h.logResult(c, "send otp", attempt.ID, form.Email, err)
	h.render(c, attempt, err)
}

// VerifyOTPHandler redeems the posted code. On success the attempt hands off
// to the dashboard with a console session.
func (h *LoginHandler) VerifyOTPHandler(c *gin.Context) {
	attempt, ok := h.attempt(c)
	if !ok {
		return
	}
	var form verifyOTPForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Invalid form submission")
		return
	}
	err := attempt.Controller.VerifyCode(c.Request.Context(), form.OTP)
	snap := attempt.Controller.Snapshot()
	h.logResult(c, "verify otp", attempt.ID, snap.Email, err)

	path, navigated := attempt.Handoff.Take()
	if !navigated {
		h.render(c, attempt, err)
		return
	}

	token, err := utils.GenerateToken(h.Secret, attempt.ID, snap.Email, h.SessionTTL)
	if err != nil {
		utils.JSONError(c, getLogger(c, h.Logger), http.StatusInternalServerError, "Failed to start session", err.Error())
		return
	}
	h.Registry.Discard(attempt.ID)
	h.setCookie(c, AttemptCookie, "", -1, authflow.LoginPath)
	h.setCookie(c, utils.ConsoleSessionCookie, token, int(h.SessionTTL/time.Second), "/")
	c.Redirect(http.StatusSeeOther, path)
}

// ShowLoginHandler renders the visit's attempt as it stands. Pages rendered
// while a request was in flight refresh to it.
func (h *LoginHandler) ShowLoginHandler(c *gin.Context) {
	attempt, ok := h.attempt(c)
	if !ok {
		return
	}
	h.render(c, attempt, nil)
}

// ResetLoginHandler returns the attempt to the email step.
func (h *LoginHandler) ResetLoginHandler(c *gin.Context) {
	attempt, ok := h.attempt(c)
	if !ok {
		return
	}
	h.render(c, attempt, attempt.Controller.Reset())
}

// LogoutHandler ends the console session and returns to the login view.
func (h *LoginHandler) LogoutHandler(c *gin.Context) {
	h.setCookie(c, utils.ConsoleSessionCookie, "", -1, "/")
	c.Redirect(http.StatusSeeOther, authflow.LoginPath)
}

// attempt resolves the visit's attempt, redirecting to a fresh login view
// when it is unknown or expired.
func (h *LoginHandler) attempt(c *gin.Context) (*attempts.Attempt, bool) {
	id, _ := c.Cookie(AttemptCookie)
	attempt, ok := h.Registry.Get(id)
	if !ok {
		c.Redirect(http.StatusSeeOther, authflow.LoginPath)
		return nil, false
	}
	return attempt, true
}

func (h *LoginHandler) render(c *gin.Context, attempt *attempts.Attempt, err error) {
	if errors.Is(err, authflow.ErrClosed) {
		c.Redirect(http.StatusSeeOther, authflow.LoginPath)
		return
	}
	c.HTML(statusFor(err), "login.html", newLoginView(attempt.Controller.Snapshot()))
}

func (h *LoginHandler) logResult(c *gin.Context, step, attemptID, email string, err error) {
	logger := getLogger(c, h.Logger).With(
		zap.String("attemptID", attemptID),
		zap.String("email", utils.RedactEmail(h.RedactionKey, email)),
	)
	switch {
	case err == nil:
		logger.Info(step + " succeeded")
	case errors.Is(err, authflow.ErrTransport):
		logger.Error(step+" failed", zap.Error(err))
	default:
		logger.Warn(step+" rejected", zap.Error(err))
	}
}

func (h *LoginHandler) setCookie(c *gin.Context, name, value string, maxAge int, path string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, path, "", h.CookieSecure, true)
}
