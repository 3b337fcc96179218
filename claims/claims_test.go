package claims

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/verdant-labs/verdant/errors"
	"github.com/verdant-labs/verdant/models"
)

const (
	testIssuerURL = "https://auth.example.com"
	testAudience  = "verdant"
)

var testKeys *KeyPair

func TestMain(m *testing.M) {
	var err error
	testKeys, err = GenerateKeyPair()
	if err != nil {
		panic(err)
	}
	m.Run()
}

// plainHasher stores and compares plaintext. Test use only.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return plain, nil }
func (plainHasher) Verify(plain, digest string) bool { return plain == digest }

type stubUsers struct {
	users map[string]*models.User
	err   error
}

func (s *stubUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[username]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return u, nil
}

func newTestIssuer(users *stubUsers) *Issuer {
	return NewIssuer(users, plainHasher{}, testKeys, testIssuerURL, testAudience, 0)
}

func aliceStore() *stubUsers {
	return &stubUsers{users: map[string]*models.User{
		"alice": {ID: "row-1", Username: "alice", Subject: "subj-alice", PasswordHash: "hunter2"},
	}}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := newTestIssuer(aliceStore())
	verifier := NewVerifier(testKeys.Public, testIssuerURL, testAudience)

	token, err := issuer.Issue(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if c.Subject != "subj-alice" {
		t.Errorf("expected subject subj-alice, got %q", c.Subject)
	}
	if c.Subject == "row-1" {
		t.Error("claims subject must never be the storage key")
	}
}

func TestIssueEnumerationResistance(t *testing.T) {
	issuer := newTestIssuer(aliceStore())

	_, errUnknown := issuer.Issue(context.Background(), "nobody", "hunter2")
	_, errBadPass := issuer.Issue(context.Background(), "alice", "wrong")

	if errUnknown != errors.ErrInvalidCredentials {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", errUnknown)
	}
	if errBadPass != errors.ErrInvalidCredentials {
		t.Fatalf("bad password: expected ErrInvalidCredentials, got %v", errBadPass)
	}
	if errUnknown != errBadPass {
		t.Error("unknown user and wrong password must be indistinguishable")
	}
}

func TestIssueTransientStoreError(t *testing.T) {
	issuer := newTestIssuer(&stubUsers{err: errors.Transient(context.DeadlineExceeded)})
	_, err := issuer.Issue(context.Background(), "alice", "hunter2")
	if !errors.Is(err, errors.ErrTransientStore) {
		t.Fatalf("expected transient error to pass through, got %v", err)
	}
	if errors.Is(err, errors.ErrInvalidCredentials) {
		t.Error("store failure must not masquerade as a credential failure")
	}
}

func signTestToken(t *testing.T, c *AuthClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	signed, err := token.SignedString(testKeys.Private)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestVerifyExpired(t *testing.T) {
	verifier := NewVerifier(testKeys.Public, testIssuerURL, testAudience)
	now := time.Now()
	token := signTestToken(t, &AuthClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "subj-alice",
		Audience:  jwt.ClaimStrings{testAudience},
		Issuer:    testIssuerURL,
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Second)),
	}})

	// Signature is valid; expiry alone must reject it.
	if _, err := verifier.Verify(token); err != errors.ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyAudienceMismatch(t *testing.T) {
	verifier := NewVerifier(testKeys.Public, testIssuerURL, testAudience)
	now := time.Now()
	token := signTestToken(t, &AuthClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "subj-alice",
		Audience:  jwt.ClaimStrings{"someone-else"},
		Issuer:    testIssuerURL,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}})

	if _, err := verifier.Verify(token); err != errors.ErrAudienceMismatch {
		t.Fatalf("expected ErrAudienceMismatch, got %v", err)
	}
}

func TestVerifyIssuerMismatch(t *testing.T) {
	verifier := NewVerifier(testKeys.Public, testIssuerURL, testAudience)
	now := time.Now()
	token := signTestToken(t, &AuthClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "subj-alice",
		Audience:  jwt.ClaimStrings{testAudience},
		Issuer:    "https://rogue.example.com",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}})

	if _, err := verifier.Verify(token); err != errors.ErrIssuerMismatch {
		t.Fatalf("expected ErrIssuerMismatch, got %v", err)
	}
}

func TestVerifyForeignKey(t *testing.T) {
	otherKeys, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, &AuthClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "subj-alice",
		Audience:  jwt.ClaimStrings{testAudience},
		Issuer:    testIssuerURL,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}})
	signed, err := token.SignedString(otherKeys.Private)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	verifier := NewVerifier(testKeys.Public, testIssuerURL, testAudience)
	if _, err := verifier.Verify(signed); err != errors.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	verifier := NewVerifier(testKeys.Public, testIssuerURL, testAudience)
	if _, err := verifier.Verify("not.a.token"); err != errors.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
