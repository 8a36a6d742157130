package utils // password and reset-secret hashing

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of plain at the given cost.  The
// cost comes from configuration so it can be raised over time without code
// changes; the same hasher covers account passwords and reset secrets, so
// both carry the same work factor.  Each call salts independently: hashing
// the same input twice yields different strings.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// The comparison is constant time for a given hash; a malformed hash
// simply verifies as false.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
