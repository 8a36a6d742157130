package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jacana-dev/jacana-api/internal/config"
	"github.com/jacana-dev/jacana-api/internal/middleware"
	"github.com/jacana-dev/jacana-api/internal/model"
	"github.com/jacana-dev/jacana-api/internal/service"
)

// minPasswordLen is the minimum accepted password length, for registration
// and reset alike.
const minPasswordLen = 8

// AuthHandler bundles dependencies for the auth endpoints.  It owns input
// validation and the mapping from service sentinel errors to HTTP status
// codes and error kinds; the orchestration itself lives in the service.
type AuthHandler struct {
	Cfg  config.Config
	Auth *service.AuthService
}

func NewAuthHandler(cfg config.Config, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type requestResetReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// userPart is the public account projection.  Password and reset-ticket
// fields never appear in a response.
type userPart struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func publicUser(u model.User) userPart {
	return userPart{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Register creates an account and returns its public projection.  No
// session is issued here; the caller logs in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "incomplete_input", "invalid body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if strings.TrimSpace(req.Name) == "" || req.Email == "" || req.Password == "" {
		return errJSON(c, http.StatusBadRequest, "incomplete_input", "name, email and password are required")
	}
	if !strings.Contains(req.Email, "@") {
		return errJSON(c, http.StatusBadRequest, "incomplete_input", "malformed email")
	}
	if len(req.Password) < minPasswordLen {
		return errJSON(c, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			return errJSON(c, http.StatusConflict, "duplicate_email", "email already registered")
		}
		return internalErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": publicUser(u)})
}

// Login verifies credentials and sets the session cookie.  The response for
// an unknown email and a wrong password is byte-identical.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "incomplete_input", "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return errJSON(c, http.StatusBadRequest, "incomplete_input", "email and password are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, tok, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return errJSON(c, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		}
		return internalErr(c, err)
	}

	h.setSessionCookie(c, tok.Token, tok.Exp)
	return c.JSON(http.StatusOK, echo.Map{"user": publicUser(u)})
}

// Logout deletes the session matching the cookie and clears it.  Always
// responds 200; logging out without a session, or twice, is not an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := middleware.ReadSessionCookie(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, token); err != nil {
		// The cookie is cleared regardless; a store hiccup here must not
		// strand the client in a half-logged-out state.
		slog.Error("logout", slog.Any("error", err))
	}
	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated account's public projection, or 401 with a
// null user.  Missing cookie, invalid or expired token, deleted session and
// deleted account all look the same to the caller.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"user": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": publicUser(u)})
}

// RequestPasswordReset issues a reset ticket if the email belongs to an
// account.  The response is the same generic 200 whether it does or not.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req requestResetReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "incomplete_input", "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return errJSON(c, http.StatusBadRequest, "incomplete_input", "email is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.RequestPasswordReset(ctx, req.Email); err != nil {
		return internalErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "if that email belongs to an account, a reset link has been sent",
	})
}

// ResetPassword redeems a reset ticket and replaces the password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "incomplete_input", "invalid body")
	}
	if req.Token == "" || strings.TrimSpace(req.Email) == "" || req.NewPassword == "" {
		return errJSON(c, http.StatusBadRequest, "incomplete_input", "token, email and newPassword are required")
	}
	if len(req.NewPassword) < minPasswordLen {
		return errJSON(c, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, req.Email, req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			return errJSON(c, http.StatusBadRequest, "invalid_or_expired_token", "invalid or expired reset token")
		}
		return internalErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// ----- helpers -----

// setSessionCookie attaches the session token as an HttpOnly, SameSite=Lax
// cookie whose lifetime matches the token's.  Secure is set outside dev so
// local HTTP testing still works.
func (h *AuthHandler) setSessionCookie(c echo.Context, token string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cfg.Env != "dev",
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
		MaxAge:   int(time.Until(exp) / time.Second),
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// reqCtx bounds the handler's store and hashing work with a timeout.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

func errJSON(c echo.Context, status int, kind, msg string) error {
	return c.JSON(status, echo.Map{"error": kind, "message": msg})
}

// internalErr logs the underlying failure and returns a generic 500 that
// leaks nothing about the store or hashing internals.
func internalErr(c echo.Context, err error) error {
	slog.Error("request failed",
		slog.String("method", c.Request().Method),
		slog.String("path", c.Path()),
		slog.Any("error", err))
	return errJSON(c, http.StatusInternalServerError, "internal", "internal error")
}
