package store

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/verdant-labs/verdant/errors"
	"github.com/verdant-labs/verdant/models"
)

// RoomStore provides operations for rooms.
type RoomStore struct {
	DB *gorm.DB
}

func NewRoomStore(db *gorm.DB) *RoomStore { return &RoomStore{DB: db} }

// FindByName returns the room with the given name, or ErrNotFound.
func (s *RoomStore) FindByName(ctx context.Context, name string) (*models.Room, error) {
	return s.findOne(ctx, `SELECT id, name, created_at FROM rooms WHERE name=$1`, name)
}

// FindByID returns the room with the given id, or ErrNotFound.
func (s *RoomStore) FindByID(ctx context.Context, id string) (*models.Room, error) {
	return s.findOne(ctx, `SELECT id, name, created_at FROM rooms WHERE id=$1`, id)
}

func (s *RoomStore) findOne(ctx context.Context, query, arg string) (*models.Room, error) {
	var r models.Room
	row := s.DB.WithContext(ctx).Raw(query, arg).Row()
	err := row.Scan(&r.ID, &r.Name, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Transient(err)
	}
	return &r, nil
}

// Insert persists a new room. A name collision returns ErrDuplicateRoom.
func (s *RoomStore) Insert(ctx context.Context, r *models.Room) error {
	err := s.DB.WithContext(ctx).Exec(
		`INSERT INTO rooms (id, name, created_at) VALUES ($1, $2, $3)`,
		r.ID, r.Name, r.CreatedAt,
	).Error
	if err != nil {
		if isUniqueViolation(err) {
			return errors.ErrDuplicateRoom
		}
		return errors.Transient(err)
	}
	return nil
}

// List returns all rooms ordered by creation time.
func (s *RoomStore) List(ctx context.Context) ([]models.Room, error) {
	rows, err := s.DB.WithContext(ctx).Raw(`SELECT id, name, created_at FROM rooms ORDER BY created_at ASC`).Rows()
	if err != nil {
		return nil, errors.Transient(err)
	}
	defer rows.Close()

	var out []models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
			return nil, errors.Transient(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Transient(err)
	}
	return out, nil
}
