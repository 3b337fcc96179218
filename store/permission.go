package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/verdant-labs/verdant/errors"
	"github.com/verdant-labs/verdant/models"
)

// PermissionStore provides operations for user-room join rows.
type PermissionStore struct {
	DB *gorm.DB
}

func NewPermissionStore(db *gorm.DB) *PermissionStore { return &PermissionStore{DB: db} }

// Get returns the permission row for (user, room), or nil when the user has
// never been granted access. More than one row for the pair is a
// data-integrity error: the store refuses to pick a winner and returns
// ErrDuplicatePermission.
func (s *PermissionStore) Get(ctx context.Context, userID, roomID string) (*models.Permission, error) {
	rows, err := s.DB.WithContext(ctx).Raw(
		`SELECT id, user_id, room_id, room_admin, can_publish, can_subscribe FROM permissions WHERE user_id=$1 AND room_id=$2`,
		userID, roomID,
	).Rows()
	if err != nil {
		return nil, errors.Transient(err)
	}
	defer rows.Close()

	var found []models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.UserID, &p.RoomID, &p.RoomAdmin, &p.CanPublish, &p.CanSubscribe); err != nil {
			return nil, errors.Transient(err)
		}
		found = append(found, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Transient(err)
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		p := found[0]
		return &p, nil
	default:
		return nil, errors.ErrDuplicatePermission
	}
}

// Upsert creates or replaces the permission row for (user, room).
func (s *PermissionStore) Upsert(ctx context.Context, p *models.Permission) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM permissions WHERE user_id=$1 AND room_id=$2`, p.UserID, p.RoomID).Error; err != nil {
			return err
		}
		return tx.Exec(
			`INSERT INTO permissions (id, user_id, room_id, room_admin, can_publish, can_subscribe) VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.UserID, p.RoomID, p.RoomAdmin, p.CanPublish, p.CanSubscribe,
		).Error
	})
	if err != nil {
		return errors.Transient(err)
	}
	return nil
}

// Delete revokes a user's access to a room. Deleting an absent row is not an
// error: no row already means no access.
func (s *PermissionStore) Delete(ctx context.Context, userID, roomID string) error {
	if err := s.DB.WithContext(ctx).Exec(`DELETE FROM permissions WHERE user_id=$1 AND room_id=$2`, userID, roomID).Error; err != nil {
		return errors.Transient(err)
	}
	return nil
}

// ListForRoom returns all permission rows in a room, for the admin surface.
func (s *PermissionStore) ListForRoom(ctx context.Context, roomID string) ([]models.Permission, error) {
	rows, err := s.DB.WithContext(ctx).Raw(
		`SELECT id, user_id, room_id, room_admin, can_publish, can_subscribe FROM permissions WHERE room_id=$1`,
		roomID,
	).Rows()
	if err != nil {
		return nil, errors.Transient(err)
	}
	defer rows.Close()

	var out []models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.UserID, &p.RoomID, &p.RoomAdmin, &p.CanPublish, &p.CanSubscribe); err != nil {
			return nil, errors.Transient(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Transient(err)
	}
	return out, nil
}
