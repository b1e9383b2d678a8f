package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription mirrors the Stripe subscription object for one customer.
// It is written exclusively by the webhook synchronizer (plus the deletion
// orchestrator's teardown) and read everywhere else. Period bounds are
// epoch seconds as reported by Stripe.
type Subscription struct {
	ID                   uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID               uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	StripeCustomerID     string     `gorm:"size:255;index" json:"stripe_customer_id"`
	StripeSubscriptionID string     `gorm:"size:255;uniqueIndex;not null" json:"stripe_subscription_id"`
	Status               string     `gorm:"size:50;not null;default:'inactive'" json:"status"`
	PriceID              string     `gorm:"size:255" json:"price_id"`
	CurrentPeriodStart   int64      `json:"current_period_start"`
	CurrentPeriodEnd     int64      `json:"current_period_end"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	DeletedAt            *time.Time `json:"deleted_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Stripe subscription statuses this system acts on. Anything else is
// carried through verbatim and treated as no-access by the resolver.
const (
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionCanceled = "canceled"
)
