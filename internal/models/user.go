package models

import (
	"time"
)

// User represents an account in the system.
type User struct {
	Base         `bson:",inline"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password" json:"-"` // store hash, not plaintext
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
