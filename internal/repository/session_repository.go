package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jacana-dev/jacana-api/internal/model"
)

// SessionRepo persists issued sessions (single 'token_hash' lookup column).
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row for the given account.  The expiry is fixed
// here at creation and never extended in place.
func (r *SessionRepo) Create(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, expiresAt)
	return err
}

// GetByTokenHash returns the session matching the hash.  Rows past their
// expiry are reported as ErrNotFound even though they still exist.
func (r *SessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	var s model.Session
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,token_hash,expires_at,created_at FROM sessions WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		return model.Session{}, ErrNotFound
	}
	return s, nil
}

// DeleteByTokenHash removes the session matching the hash.  Deleting a
// session that does not exist is not an error, which keeps logout
// idempotent.
func (r *SessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE token_hash=?", tokenHash)
	return err
}
