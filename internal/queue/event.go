// Package queue defines the reset-email message payload, the publisher that
// enqueues it and the background consumer that turns it into an outgoing
// email.
package queue

// PasswordResetRequested is published when a reset ticket has been issued
// for an existing account.  It carries everything the consumer needs to
// compose the notification without querying the primary database.  The
// ResetURL embeds the plaintext secret; it exists only in flight and in the
// recipient's inbox, never in a table.
type PasswordResetRequested struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	ResetURL    string `json:"reset_url"`
	RequestedAt string `json:"requested_at"`
}
