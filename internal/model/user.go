package model

import "time"

// User represents an account record as stored in the `users` table.  The
// password hash and the optional reset-ticket fields never leave the server;
// handlers expose a separate public projection with only id, name and email.
//
// ResetTokenHash and ResetTokenExpiresAt are set together when a password
// reset is requested and cleared together when the ticket is redeemed.  A
// row with only one of the two populated is treated as having no ticket.
type User struct {
	ID                  uint64     // users.id
	Name                string     // users.name
	Email               string     // users.email (stored lowercased)
	PasswordHash        string     // users.password_hash (bcrypt)
	ResetTokenHash      *string    // users.reset_token_hash (bcrypt of the reset secret, nullable)
	ResetTokenExpiresAt *time.Time // users.reset_token_expires_at (nullable)
	CreatedAt           time.Time  // users.created_at
	UpdatedAt           time.Time  // users.updated_at
}
