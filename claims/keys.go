package claims

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
)

// KeyPair holds the identity-claims signing material, loaded once at startup
// and immutable for the process lifetime.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
	KID     string
}

// LoadKeyPair reads an RSA private key from a PEM file (PKCS#1 or PKCS#8).
func LoadKeyPair(path string) (*KeyPair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}
	var key *rsa.PrivateKey
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		key = k
	} else if k, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key in %s is not RSA", path)
		}
		key = rk
	} else {
		return nil, fmt.Errorf("parse key file %s: %w", path, err)
	}
	return newKeyPair(key), nil
}

// GenerateKeyPair creates a fresh 2048-bit pair. Used when no key file is
// configured; tokens do not survive a restart in that mode.
func GenerateKeyPair() (*KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return newKeyPair(key), nil
}

func newKeyPair(key *rsa.PrivateKey) *KeyPair {
	pub := &key.PublicKey
	sum := sha256.Sum256(pub.N.Bytes())
	return &KeyPair{
		Private: key,
		Public:  pub,
		KID:     hex.EncodeToString(sum[:8]),
	}
}
