package models

import "time"

// User is an identity record. Subject is the stable identifier embedded in
// signed claims; it is distinct from ID so tokens never carry internal row
// keys, and it never changes once assigned.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	Subject      string    `json:"subject" db:"subject"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
