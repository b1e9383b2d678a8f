package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkspaceAccount caches the link to the externally hosted workspace
// product account. Lifecycle state lives in the external system; Active
// only tracks whether this side last left the account usable.
type WorkspaceAccount struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Email      string    `gorm:"size:255;not null;index" json:"email"`
	ExternalID string    `gorm:"size:255" json:"external_id"`
	Active     bool      `gorm:"default:true" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
