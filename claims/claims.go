// Package claims issues and verifies the signed identity claims that gate
// every protected operation. Signing is asymmetric: the private key stays
// with the issuer, other services verify with the public key alone.
package claims

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/verdant-labs/verdant/errors"
	"github.com/verdant-labs/verdant/models"
	"github.com/verdant-labs/verdant/password"
)

// DefaultValidity is the identity-claims lifetime. Expiry is the only
// termination mechanism; there is no revocation store.
const DefaultValidity = time.Hour

// AuthClaims is the closed identity-claims payload. The subject is the
// user's stable subject identifier, never a storage key.
type AuthClaims struct {
	jwt.RegisteredClaims
}

// UserFinder is the slice of the credential store the issuer needs.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Issuer verifies presented credentials and mints signed identity claims.
type Issuer struct {
	users    UserFinder
	hasher   password.Hasher
	keys     *KeyPair
	issuer   string
	audience string
	validity time.Duration
}

// NewIssuer constructs an Issuer. validity 0 means DefaultValidity.
func NewIssuer(users UserFinder, hasher password.Hasher, keys *KeyPair, issuerURL, audience string, validity time.Duration) *Issuer {
	if validity == 0 {
		validity = DefaultValidity
	}
	return &Issuer{
		users:    users,
		hasher:   hasher,
		keys:     keys,
		issuer:   issuerURL,
		audience: audience,
		validity: validity,
	}
}

// Issue authenticates (username, password) and returns a signed identity
// token. Unknown usernames and wrong passwords both return
// ErrInvalidCredentials so callers cannot enumerate accounts. Store
// connectivity failures pass through as transient errors.
func (i *Issuer) Issue(ctx context.Context, username, presented string) (string, error) {
	u, err := i.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return "", errors.ErrInvalidCredentials
		}
		return "", err
	}
	if !i.hasher.Verify(presented, u.PasswordHash) {
		return "", errors.ErrInvalidCredentials
	}

	now := time.Now()
	c := &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Subject,
			Audience:  jwt.ClaimStrings{i.audience},
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	token.Header["kid"] = i.keys.KID
	signed, err := token.SignedString(i.keys.Private)
	if err != nil {
		return "", err
	}
	return signed, nil
}
