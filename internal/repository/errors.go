// Package repository implements the persistence layer over the MySQL pool.
// Sentinel errors defined here let the service layer distinguish expected
// outcomes (duplicate email, missing row) from genuine store failures
// without inspecting driver error strings.
package repository

import "errors"

// ErrEmailExists is returned when an insert would violate the unique email
// constraint.  The service layer maps it to the duplicate-email outcome.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a lookup matches no row.  Expired session
// rows are also reported as ErrNotFound, which gives sessions lazy expiry
// without a background reaper.
var ErrNotFound = errors.New("not found")
