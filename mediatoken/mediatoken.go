// Package mediatoken mints the access tokens the external media
// infrastructure accepts for room admission. Signing is symmetric with the
// media API secret, a trust domain deliberately separate from the identity
// claims keys: leaking one must not compromise the other.
package mediatoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/verdant-labs/verdant/errors"
	"github.com/verdant-labs/verdant/grants"
	"github.com/verdant-labs/verdant/models"
)

// DefaultValidity is the media-token lifetime, independent of the identity
// claims expiry. Tokens are minted per join request, so short is fine.
const DefaultValidity = 10 * time.Minute

// VideoGrant is the room capability claim in the shape the media server
// expects.
type VideoGrant struct {
	RoomJoin          bool     `json:"roomJoin"`
	Room              string   `json:"room"`
	CanPublish        bool     `json:"canPublish"`
	CanSubscribe      bool     `json:"canSubscribe"`
	CanPublishSources []string `json:"canPublishSources,omitempty"`
}

// MediaClaims is the full signed payload: participant identity as subject,
// the API key as issuer, and the video grant.
type MediaClaims struct {
	jwt.RegisteredClaims
	Name  string      `json:"name,omitempty"`
	Video *VideoGrant `json:"video,omitempty"`
}

// sourceNames maps media sources to the wire names the media server uses for
// publish-source restrictions.
var sourceNames = map[models.MediaSource]string{
	models.SourceMicrophone: "microphone",
	models.SourceCamera:     "camera",
	models.SourceScreen:     "screen_share",
}

// Minter produces signed media access tokens from resolved grants.
type Minter struct {
	apiKey    string
	apiSecret string
	validity  time.Duration
}

// NewMinter constructs a Minter. validity 0 means DefaultValidity.
func NewMinter(apiKey, apiSecret string, validity time.Duration) *Minter {
	if validity == 0 {
		validity = DefaultValidity
	}
	return &Minter{apiKey: apiKey, apiSecret: apiSecret, validity: validity}
}

// Validity returns the configured token lifetime.
func (m *Minter) Validity() time.Duration { return m.validity }

// Mint encodes identity, room and the resolved grant set into a signed
// token. The grant set is authoritative: nothing here can raise access above
// the entries the resolver produced. Signing failures surface as
// ErrMediaToken, never as a downgraded token.
func (m *Minter) Mint(identity, roomName string, grant *grants.RoomGrant) (string, error) {
	if m.apiKey == "" || m.apiSecret == "" {
		return "", errors.ErrMediaToken
	}

	var sources []string
	for _, src := range models.PublishSources {
		if models.CanSend(grant.Entries, src) {
			sources = append(sources, sourceNames[src])
		}
	}

	now := time.Now()
	c := &MediaClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.apiKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.validity)),
		},
		Name: identity,
		Video: &VideoGrant{
			RoomJoin:          true,
			Room:              roomName,
			CanPublish:        grant.CanPublish(),
			CanSubscribe:      grant.CanSubscribe(),
			CanPublishSources: sources,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString([]byte(m.apiSecret))
	if err != nil {
		return "", errors.ErrMediaToken
	}
	return signed, nil
}

// Decode validates a media token against the shared secret and recovers its
// claims. The media server does the same on its side; here it backs the
// round-trip property and the journal.
func Decode(tokenString, apiKey, apiSecret string) (*MediaClaims, error) {
	var c MediaClaims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.ErrInvalidToken
		}
		return []byte(apiSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(apiKey),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, errors.ErrExpired
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, errors.ErrIssuerMismatch
		default:
			return nil, errors.ErrInvalidToken
		}
	}
	return &c, nil
}
