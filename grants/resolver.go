// Package grants maps an authenticated subject and a target room to the
// effective per-media-source access modes.
package grants

import (
	"context"

	"github.com/verdant-labs/verdant/errors"
	"github.com/verdant-labs/verdant/models"
)

// RoomGrant is the resolver output: the resolved entry set plus the
// room-admin capability. RoomAdmin governs management of other users'
// permission rows; it is deliberately not folded into the entries.
type RoomGrant struct {
	Identity  string                   `json:"identity"`
	RoomID    string                   `json:"room_id"`
	RoomAdmin bool                     `json:"room_admin"`
	Entries   []models.PermissionEntry `json:"entries"`
}

// CanPublish reports whether any publish-class source resolved to a sending
// mode.
func (g *RoomGrant) CanPublish() bool {
	for _, src := range models.PublishSources {
		if models.CanSend(g.Entries, src) {
			return true
		}
	}
	return false
}

// CanSubscribe reports whether any subscribe-class source resolved to a
// receiving mode.
func (g *RoomGrant) CanSubscribe() bool {
	for _, src := range models.SubscribeSources {
		if models.CanReceive(g.Entries, src) {
			return true
		}
	}
	return false
}

// SubjectResolver is the slice of the credential store the resolver needs.
type SubjectResolver interface {
	FindBySubject(ctx context.Context, subject string) (*models.User, error)
}

// PermissionGetter fetches the single permission row for (user, room).
// nil with a nil error means the user was never granted access.
type PermissionGetter interface {
	Get(ctx context.Context, userID, roomID string) (*models.Permission, error)
}

// Resolver computes room grants for authenticated subjects.
type Resolver struct {
	users       SubjectResolver
	permissions PermissionGetter
}

func NewResolver(users SubjectResolver, permissions PermissionGetter) *Resolver {
	return &Resolver{users: users, permissions: permissions}
}

// Resolve maps (subject, room) to a RoomGrant. A subject with no matching
// user returns ErrUnknownSubject: the token outlived the identity, which is
// an anomaly worth logging but not a crash. A missing permission row is not
// an error; every source resolves to DISABLE and RoomAdmin is false.
func (r *Resolver) Resolve(ctx context.Context, subject, roomID string) (*RoomGrant, error) {
	u, err := r.users.FindBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.ErrUnknownSubject
		}
		return nil, err
	}

	p, err := r.permissions.Get(ctx, u.ID, roomID)
	if err != nil {
		return nil, err
	}

	return &RoomGrant{
		Identity:  subject,
		RoomID:    roomID,
		RoomAdmin: p != nil && p.RoomAdmin,
		Entries:   models.EntriesFor(p),
	}, nil
}
