package store

import (
	"errors"
	"time"

	"github.com/axiestudio/axie-access/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Trials struct {
	db *gorm.DB
}

func NewTrials(db *gorm.DB) *Trials {
	return &Trials{db: db}
}

// Create opens a trial window for a new user. Upsert on user_id so a
// replayed signup does not duplicate rows.
func (t *Trials) Create(record *models.TrialRecord) error {
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(record).Error
}

func (t *Trials) FindByUserID(userID uuid.UUID) (*models.TrialRecord, error) {
	var record models.TrialRecord
	err := t.db.Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SetStatus writes the trial state and deletion schedule together so the
// pairing invariant (schedule set iff canceled/scheduled_for_deletion)
// cannot be violated by a partial update.
func (t *Trials) SetStatus(userID uuid.UUID, status string, deletionAt *time.Time) error {
	return t.db.Model(&models.TrialRecord{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"trial_status":          status,
			"deletion_scheduled_at": deletionAt,
		}).Error
}

// ListExpired returns active trials whose window has lapsed.
func (t *Trials) ListExpired(now time.Time) ([]models.TrialRecord, error) {
	var records []models.TrialRecord
	err := t.db.Where("trial_status = ? AND trial_end < ?", models.TrialActive, now).
		Find(&records).Error
	return records, err
}

// ListDueForDeletion returns trials whose scheduled teardown time passed.
func (t *Trials) ListDueForDeletion(now time.Time) ([]models.TrialRecord, error) {
	var records []models.TrialRecord
	err := t.db.Where("trial_status IN ? AND deletion_scheduled_at IS NOT NULL AND deletion_scheduled_at < ?",
		[]string{models.TrialCanceled, models.TrialScheduledForDeletion}, now).
		Find(&records).Error
	return records, err
}

func (t *Trials) HardDeleteByUserID(userID uuid.UUID) error {
	return t.db.Where("user_id = ?", userID).Delete(&models.TrialRecord{}).Error
}
