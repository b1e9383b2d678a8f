package store

import (
	"errors"
	"time"

	"github.com/axiestudio/axie-access/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Subscriptions is the billing mirror store. Upsert semantics keyed by the
// Stripe subscription ID keep webhook redelivery idempotent.
type Subscriptions struct {
	db *gorm.DB
}

func NewSubscriptions(db *gorm.DB) *Subscriptions {
	return &Subscriptions{db: db}
}

func (s *Subscriptions) Upsert(sub *models.Subscription) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "stripe_customer_id", "status", "price_id",
			"current_period_start", "current_period_end",
			"cancel_at_period_end", "deleted_at", "updated_at",
		}),
	}).Create(sub).Error
}

func (s *Subscriptions) FindBySubscriptionID(stripeSubID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Where("stripe_subscription_id = ?", stripeSubID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ExistsByUserID reports whether any mirror row was ever written for the
// user, regardless of status. Churned subscribers keep their canceled rows
// until account teardown, so this is the durable ever-paid signal.
func (s *Subscriptions) ExistsByUserID(userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

func (s *Subscriptions) FindByCustomerID(customerID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Where("stripe_customer_id = ? AND deleted_at IS NULL", customerID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CurrentByUserID returns the user's live mirror row, preferring the most
// recently updated one should stale rows ever coexist.
func (s *Subscriptions) CurrentByUserID(userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("updated_at DESC").First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Subscriptions) ListActiveByUserID(userID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.Where("user_id = ? AND deleted_at IS NULL AND status IN ?",
		userID, []string{models.SubscriptionActive, models.SubscriptionTrialing}).
		Find(&subs).Error
	return subs, err
}

// MarkCanceledByUserID flips every live mirror row for the user to
// canceled with a deletion timestamp.
func (s *Subscriptions) MarkCanceledByUserID(userID uuid.UUID, at time.Time) error {
	return s.db.Model(&models.Subscription{}).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Updates(map[string]interface{}{
			"status":     models.SubscriptionCanceled,
			"deleted_at": at,
		}).Error
}

func (s *Subscriptions) HardDeleteByUserID(userID uuid.UUID) error {
	return s.db.Where("user_id = ?", userID).Delete(&models.Subscription{}).Error
}
