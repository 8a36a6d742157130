// Package service contains the auth use cases.  Each use case is a short,
// stateless orchestration of the credential store, the session store, the
// hashing helpers and the reset notifier; all dependencies are injected as
// interfaces so tests can fake them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jacana-dev/jacana-api/internal/config"
	"github.com/jacana-dev/jacana-api/internal/model"
	"github.com/jacana-dev/jacana-api/internal/repository"
	"github.com/jacana-dev/jacana-api/internal/utils"
)

// Sentinel errors returned by the use cases.  Handlers map these to HTTP
// status codes and error kinds; anything else is a store or hashing failure
// and surfaces as a generic internal error.
var (
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned both for an unknown email and for a
	// wrong password so callers cannot discover which emails have accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	// ErrNoSession means the caller has no valid session: missing cookie,
	// bad or expired token, deleted session row, or deleted account.
	ErrNoSession = errors.New("no authenticated session")
)

// UserStore is the credential-store contract consumed by the use cases.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetResetTicket(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error
	UpdatePasswordAndClearTicket(ctx context.Context, userID uint64, passwordHash string) error
}

// SessionStore is the session-store contract consumed by the use cases.
type SessionStore interface {
	Create(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error
	GetByTokenHash(ctx context.Context, tokenHash string) (model.Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
}

// ResetNotifier delivers the reset link to the account holder.  The
// production implementation publishes to the reset-email queue; tests
// supply a fake.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, email, name, resetURL string) error
}

// AuthService bundles the auth use cases with their dependencies.
type AuthService struct {
	Cfg      config.Config
	Users    UserStore
	Sessions SessionStore
	Notifier ResetNotifier
}

func NewAuthService(cfg config.Config, users UserStore, sessions SessionStore, notifier ResetNotifier) *AuthService {
	return &AuthService{Cfg: cfg, Users: users, Sessions: sessions, Notifier: notifier}
}

// Register creates an account with a bcrypt-hashed password.  The caller
// validates input shape (presence, minimum password length); this method
// only enforces email uniqueness via the store.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (model.User, error) {
	email = normalizeEmail(email)
	hash, err := utils.HashPassword(password, s.Cfg.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}
	id, err := s.Users.Create(ctx, strings.TrimSpace(name), email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}
	slog.Info("user registered", slog.Uint64("user_id", id), slog.String("email", email))
	return model.User{ID: id, Name: strings.TrimSpace(name), Email: email}, nil
}

// Login verifies the credentials and, on success, issues a session token
// and persists the companion session row under the token's hash.  Unknown
// email and wrong password produce the identical ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, utils.SessionToken, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, utils.SessionToken{}, ErrInvalidCredentials
		}
		return model.User{}, utils.SessionToken{}, fmt.Errorf("loading user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, utils.SessionToken{}, ErrInvalidCredentials
	}

	tok, err := utils.NewSessionToken(s.Cfg.JWTSecret, u.ID, s.Cfg.SessionTTLDays)
	if err != nil {
		return model.User{}, utils.SessionToken{}, fmt.Errorf("issuing session token: %w", err)
	}
	if err := s.Sessions.Create(ctx, u.ID, utils.HashToken(tok.Token), tok.Exp); err != nil {
		return model.User{}, utils.SessionToken{}, fmt.Errorf("storing session: %w", err)
	}

	slog.Info("user logged in", slog.Uint64("user_id", u.ID))
	return u, tok, nil
}

// Logout deletes the session row matching the presented token.  A missing,
// unknown or already-deleted token is not an error; logging out twice is a
// no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.Sessions.DeleteByTokenHash(ctx, utils.HashToken(token)); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CurrentUser resolves the presented session token to its account.  The
// token must verify cryptographically, the session row must still exist and
// be unexpired, and the account must still exist; any other state is
// ErrNoSession.  The session row check is what makes logout effective
// before the token's own expiry.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrNoSession
	}
	userID, err := utils.VerifySessionToken(s.Cfg.JWTSecret, token)
	if err != nil {
		slog.Debug("session token rejected", slog.Any("reason", err))
		return model.User{}, ErrNoSession
	}
	sess, err := s.Sessions.GetByTokenHash(ctx, utils.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrNoSession
		}
		return model.User{}, fmt.Errorf("loading session: %w", err)
	}
	if sess.UserID != userID {
		return model.User{}, ErrNoSession
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrNoSession
		}
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}
	return u, nil
}

// RequestPasswordReset issues a reset ticket for the account behind the
// email, if one exists.  The plaintext secret goes out through the notifier
// embedded in a link; only its bcrypt hash and expiry are stored.  An
// unknown email returns nil without side effects, and still burns the same
// secret-generation and hashing cost as the known-email path, so neither
// the response shape nor its latency reveals whether an account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.burnResetCost()
		}
		return fmt.Errorf("loading user: %w", err)
	}

	secret, err := utils.NewResetSecret()
	if err != nil {
		return fmt.Errorf("generating reset secret: %w", err)
	}
	hash, err := utils.HashPassword(secret, s.Cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hashing reset secret: %w", err)
	}
	expiresAt := time.Now().UTC().Add(time.Duration(s.Cfg.ResetTTLMin) * time.Minute)
	if err := s.Users.SetResetTicket(ctx, u.ID, hash, expiresAt); err != nil {
		return fmt.Errorf("storing reset ticket: %w", err)
	}

	link := s.resetLink(secret, email)
	if err := s.Notifier.NotifyPasswordReset(ctx, email, u.Name, link); err != nil {
		// Dispatch is best effort: the ticket is stored, and failing the
		// request here would distinguish known from unknown emails.
		slog.Warn("reset notification failed", slog.Uint64("user_id", u.ID), slog.Any("error", err))
	}
	slog.Info("password reset requested", slog.Uint64("user_id", u.ID))
	return nil
}

// burnResetCost generates and hashes a secret that is thrown away.  It is
// the unknown-email half of RequestPasswordReset, doing the same expensive
// work as the real path so the two are indistinguishable by timing.
func (s *AuthService) burnResetCost() error {
	secret, err := utils.NewResetSecret()
	if err != nil {
		return fmt.Errorf("generating reset secret: %w", err)
	}
	if _, err := utils.HashPassword(secret, s.Cfg.BcryptCost); err != nil {
		return fmt.Errorf("hashing reset secret: %w", err)
	}
	return nil
}

// ResetPassword redeems a reset ticket.  It fails closed: no stored ticket,
// an expired ticket or a secret that does not match the stored hash all
// yield ErrInvalidResetToken.  On success the password hash is replaced and
// the ticket cleared in one statement, so the same secret cannot be
// redeemed twice.
func (s *AuthService) ResetPassword(ctx context.Context, email, secret, newPassword string) error {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("loading user: %w", err)
	}
	if u.ResetTokenHash == nil || u.ResetTokenExpiresAt == nil {
		return ErrInvalidResetToken
	}
	if time.Now().UTC().After(*u.ResetTokenExpiresAt) {
		return ErrInvalidResetToken
	}
	if !utils.VerifyPassword(*u.ResetTokenHash, secret) {
		return ErrInvalidResetToken
	}

	hash, err := utils.HashPassword(newPassword, s.Cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.Users.UpdatePasswordAndClearTicket(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	slog.Info("password reset completed", slog.Uint64("user_id", u.ID))
	return nil
}

// resetLink builds the URL embedded in the notification email.  The
// presentation layer serves the page behind it and posts the token back to
// POST /auth/reset-password.
func (s *AuthService) resetLink(secret, email string) string {
	return fmt.Sprintf("%s/reset-password?token=%s&email=%s",
		strings.TrimRight(s.Cfg.BaseURL, "/"), secret, url.QueryEscape(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
