// Package password provides the one-way hashing capability used for stored
// credentials. The interface exists so tests can substitute a fast
// deterministic implementation.
package password

import "golang.org/x/crypto/bcrypt"

// Hasher hashes plaintext credentials and verifies presented plaintext
// against a stored digest.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// Bcrypt is the production Hasher. Cost 0 means bcrypt.DefaultCost.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify is constant-time with respect to the presented password.
func (b Bcrypt) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
