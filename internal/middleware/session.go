package middleware // reusable HTTP middleware for the auth API

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jacana-dev/jacana-api/internal/model"
	"github.com/jacana-dev/jacana-api/internal/service"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "jacana_session"

// userContextKey is where LoadSession stores the resolved account.
const userContextKey = "current_user"

// LoadSession resolves the session cookie to an account and stores it on
// the Echo context.  An absent or unresolvable session is not an error:
// routes that require a user decide for themselves via CurrentUser(c),
// which lets /auth/me answer 401 with a {user: null} body.  A store
// failure, however, is not "anonymous": it is logged and answered with a
// generic 500 so an outage cannot masquerade as a logged-out client.
func LoadSession(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ReadSessionCookie(c)
			if token != "" {
				u, err := auth.CurrentUser(c.Request().Context(), token)
				switch {
				case err == nil:
					c.Set(userContextKey, u)
				case errors.Is(err, service.ErrNoSession):
					// Anonymous; the route decides whether that matters.
				default:
					slog.Error("resolving session",
						slog.String("method", c.Request().Method),
						slog.String("path", c.Request().URL.Path),
						slog.Any("error", err))
					return c.JSON(http.StatusInternalServerError,
						echo.Map{"error": "internal", "message": "internal error"})
				}
			}
			return next(c)
		}
	}
}

// CurrentUser returns the account resolved by LoadSession, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userContextKey).(model.User)
	return u, ok
}

// ReadSessionCookie returns the raw session token from the request cookie,
// or "" when the cookie is missing or empty.
func ReadSessionCookie(c echo.Context) string {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}
