package model

import "time"

// Session models a row in the `sessions` table.  The issued token itself is
// not stored; only its SHA-256 hash, which doubles as the lookup key.  The
// expiry is fixed at creation and never extended, and rows past it are
// treated as absent even before anything deletes them.
type Session struct {
	ID        uint64    // sessions.id
	UserID    uint64    // sessions.user_id
	TokenHash string    // sessions.token_hash (SHA-256 hex of the session token)
	ExpiresAt time.Time // sessions.expires_at
	CreatedAt time.Time // sessions.created_at
}
