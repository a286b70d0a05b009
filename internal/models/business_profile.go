package models

import (
	"time"

	"tradebill/api/internal/utils"
)

// BusinessProfile holds the trade business details printed on invoices.
// One per user; a completed profile is a precondition for sending invoices.
type BusinessProfile struct {
	Base          `bson:",inline"`
	UserID        utils.SixID `bson:"user_id" json:"user_id"`
	BusinessName  string      `bson:"business_name" json:"business_name"`
	Phone         string      `bson:"phone,omitempty" json:"phone,omitempty"`
	Email         string      `bson:"email,omitempty" json:"email,omitempty"`
	LicenseNumber string      `bson:"license_number,omitempty" json:"license_number,omitempty"`
	CreatedAt     time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `bson:"updated_at" json:"updated_at"`
}
