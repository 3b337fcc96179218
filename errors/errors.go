package errors

import (
	"errors"
	"fmt"
)

// Credential and token failures. Unknown username and wrong password are
// never distinguishable: both are ErrInvalidCredentials.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrExpired            = errors.New("token expired")
	ErrAudienceMismatch   = errors.New("token audience mismatch")
	ErrIssuerMismatch     = errors.New("token issuer mismatch")
	ErrInvalidToken       = errors.New("invalid token")
)

// Resolution and data-integrity failures.
var (
	ErrUnknownSubject      = errors.New("unknown subject")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateUser       = errors.New("username or subject already exists")
	ErrDuplicateRoom       = errors.New("room already exists")
	ErrDuplicatePermission = errors.New("multiple permission rows for user and room")
)

// ErrMediaToken covers signing or encoding failures while minting the media
// access token. It is never downgraded to an unscoped token.
var ErrMediaToken = errors.New("media token error")

// ErrTransientStore marks store connectivity and timeout failures. Callers
// may retry with a bound; the detail is for operator logs, not clients.
var ErrTransientStore = errors.New("transient store error")

// Transient wraps a store failure so errors.Is(err, ErrTransientStore) holds
// while the cause stays available for logging.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTransientStore, err)
}

// Is re-exports errors.Is so callers of this package do not need to import
// the standard library package under an alias.
func Is(err, target error) bool { return errors.Is(err, target) }
