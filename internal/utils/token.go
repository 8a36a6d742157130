package utils // token creation, verification and hashing helpers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired reports a session token whose signature is fine but whose
// lifetime has elapsed.  ErrTokenInvalid covers everything else: malformed
// input, wrong signature, unexpected algorithm.  At the HTTP boundary both
// collapse into a single unauthenticated outcome; the distinction exists
// for logging only.
var (
	ErrTokenExpired = errors.New("session token expired")
	ErrTokenInvalid = errors.New("session token invalid")
)

// SessionToken is a signed HS256 JWT asserting an account identity, along
// with its expiry.  The token itself is stateless; revocability comes from
// the companion sessions row keyed by HashToken(Token).
type SessionToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT for a user.  The claims are
// subject (sub), expiration (exp) and issued at (iat); the assertion is
// valid for ttlDays from now.
func NewSessionToken(secret string, userID uint64, ttlDays int) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// VerifySessionToken validates the signature and expiry of a session token
// and returns the user ID from the subject claim.  Expiry is reported as
// ErrTokenExpired; any other failure as ErrTokenInvalid.
func VerifySessionToken(secret, raw string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}
	if !tok.Valid {
		return 0, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrTokenInvalid
	}
	// JWT numeric values decode as float64.
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, ErrTokenInvalid
	}
	return uint64(sub), nil
}

// NewResetSecret returns a cryptographically random reset secret: 32 bytes
// (256 bits of entropy) encoded as 64 hex characters.  The secret is sent
// to the account holder by email; only its bcrypt hash is ever persisted.
func NewResetSecret() (string, error) {
	return randomHex(32)
}

// HashToken returns the SHA-256 hash of a session token as a hex string.
// Sessions are stored under this hash so a leaked database copy cannot be
// replayed as live cookies.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
