package models

import (
	"time"

	"github.com/google/uuid"
)

// Trial lifecycle states.
const (
	TrialActive               = "active"
	TrialExpired              = "expired"
	TrialConvertedToPaid      = "converted_to_paid"
	TrialScheduledForDeletion = "scheduled_for_deletion"
	TrialCanceled             = "canceled"
	TrialDeleted              = "deleted"
)

// TrialDuration is the free trial window granted at signup.
const TrialDuration = 7 * 24 * time.Hour

// TrialRecord tracks the per-user free trial window and deletion scheduling.
// Written by the webhook synchronizer (billing events), the deletion
// orchestrator and the periodic sweep.
//
// DeletionScheduledAt is non-nil iff TrialStatus is scheduled_for_deletion
// or canceled.
type TrialRecord struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID              uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	TrialStart          time.Time  `gorm:"not null" json:"trial_start"`
	TrialEnd            time.Time  `gorm:"not null" json:"trial_end"`
	TrialStatus         string     `gorm:"size:50;not null;default:'active';index" json:"trial_status"`
	DeletionScheduledAt *time.Time `json:"deletion_scheduled_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	User                User       `gorm:"foreignKey:UserID" json:"-"`
}
