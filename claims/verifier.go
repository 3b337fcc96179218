package claims

import (
	"crypto/rsa"

	"github.com/golang-jwt/jwt/v5"

	"github.com/verdant-labs/verdant/errors"
)

// Verifier validates identity tokens against the issuer's public key. It
// holds no signing capability.
type Verifier struct {
	public   *rsa.PublicKey
	issuer   string
	audience string
}

func NewVerifier(public *rsa.PublicKey, issuerURL, audience string) *Verifier {
	return &Verifier{public: public, issuer: issuerURL, audience: audience}
}

// Verify checks signature, expiry, audience and issuer, in that severity
// order, and recovers the claims. Failures map onto the error taxonomy:
// ErrExpired, ErrAudienceMismatch, ErrIssuerMismatch, ErrInvalidToken.
func (v *Verifier) Verify(tokenString string) (*AuthClaims, error) {
	var c AuthClaims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.ErrInvalidToken
		}
		return v.public, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, errors.ErrExpired
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, errors.ErrAudienceMismatch
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, errors.ErrIssuerMismatch
		default:
			return nil, errors.ErrInvalidToken
		}
	}
	return &c, nil
}
