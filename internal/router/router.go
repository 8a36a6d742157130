package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jacana-dev/jacana-api/internal/config"
	"github.com/jacana-dev/jacana-api/internal/handler"
	"github.com/jacana-dev/jacana-api/internal/middleware"
	"github.com/jacana-dev/jacana-api/internal/service"
)

// RegisterRoutes registers routes that do not belong to the auth surface.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints under /auth.  The
// credential-bearing operations (register, login, reset request) sit behind
// the Redis token-bucket limiter; /auth/me resolves the session cookie via
// the LoadSession middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth *service.AuthService, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/auth")

	limited := g.Group("")
	limited.Use(middleware.NewTokenBucket(rlCfg, rdb))
	limited.POST("/register", a.Register)
	limited.POST("/login", a.Login)
	limited.POST("/request-password-reset", a.RequestPasswordReset)
	limited.POST("/reset-password", a.ResetPassword)

	// Logout reads the cookie directly; it needs no resolved user.
	g.POST("/logout", a.Logout)

	session := g.Group("")
	session.Use(middleware.LoadSession(auth))
	session.GET("/me", a.Me)
}
