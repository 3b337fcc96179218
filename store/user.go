package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/verdant-labs/verdant/errors"
	"github.com/verdant-labs/verdant/models"
)

// UserStore provides operations for identity records.
type UserStore struct {
	DB *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{DB: db} }

// FindByUsername returns the user with the given username, or ErrNotFound.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, `SELECT id, username, email, subject, password_hash, created_at FROM users WHERE username=$1`, username)
}

// FindBySubject returns the user whose claims subject matches, or ErrNotFound.
func (s *UserStore) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	return s.findOne(ctx, `SELECT id, username, email, subject, password_hash, created_at FROM users WHERE subject=$1`, subject)
}

func (s *UserStore) findOne(ctx context.Context, query, arg string) (*models.User, error) {
	var u models.User
	row := s.DB.WithContext(ctx).Raw(query, arg).Row()
	var createdAt time.Time
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Subject, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Transient(err)
	}
	u.CreatedAt = createdAt
	return &u, nil
}

// Insert persists a new user. A username or subject collision returns
// ErrDuplicateUser, distinguishable from connectivity failures.
func (s *UserStore) Insert(ctx context.Context, u *models.User) error {
	var exists int
	if err := s.DB.WithContext(ctx).Raw(`SELECT 1 FROM users WHERE username=$1 LIMIT 1`, u.Username).Row().Scan(&exists); err == nil {
		return errors.ErrDuplicateUser
	}
	err := s.DB.WithContext(ctx).Exec(
		`INSERT INTO users (id, username, email, subject, password_hash, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.Email, u.Subject, u.PasswordHash, u.CreatedAt,
	).Error
	if err != nil {
		if isUniqueViolation(err) {
			return errors.ErrDuplicateUser
		}
		return errors.Transient(err)
	}
	return nil
}

// Count returns the number of users. Used by the install flow to decide
// whether to seed the default admin.
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Raw(`SELECT COUNT(*) FROM users`).Scan(&n).Error; err != nil {
		return 0, errors.Transient(err)
	}
	return n, nil
}

// isUniqueViolation recognizes unique-constraint failures from the drivers
// the migration runner supports (postgres 23505, sqlite "UNIQUE constraint").
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
