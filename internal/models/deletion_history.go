package models

import (
	"time"

	"github.com/google/uuid"
)

// DeletionHistory is an append-only record written before any destructive
// step of account deletion. Keyed by email so it survives the deletion it
// describes; the signup path checks it to deny repeat free trials.
type DeletionHistory struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email          string    `gorm:"size:255;not null;index" json:"email"`
	HasUsedTrial   bool      `gorm:"not null" json:"has_used_trial"`
	EverSubscribed bool      `gorm:"not null" json:"ever_subscribed"`
	DeletionReason string    `gorm:"size:255" json:"deletion_reason"`
	DeletedAt      time.Time `gorm:"not null" json:"deleted_at"`
	CreatedAt      time.Time `json:"created_at"`
}
