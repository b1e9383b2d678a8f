package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/axiestudio/axie-access/internal/billing"
	"github.com/axiestudio/axie-access/internal/models"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
)

// cancellationGrace is the window after a cancelled subscription's period
// end before account teardown becomes due.
const cancellationGrace = 24 * time.Hour

type mirrorStore interface {
	Upsert(sub *models.Subscription) error
	FindBySubscriptionID(stripeSubID string) (*models.Subscription, error)
	FindByCustomerID(customerID string) (*models.Subscription, error)
}

type trialWriter interface {
	SetStatus(userID uuid.UUID, status string, deletionAt *time.Time) error
}

type userReader interface {
	FindByEmail(email string) (*models.User, error)
}

// BillingSyncService applies Stripe webhook events to the billing mirror
// and the trial record. Every write is a full-state upsert keyed by a
// stable Stripe ID, so events can be redelivered and arrive out of order
// without corrupting state.
type BillingSyncService struct {
	api    billing.API
	subs   mirrorStore
	trials trialWriter
	users  userReader
}

func NewBillingSyncService(api billing.API, subs mirrorStore, trials trialWriter, users userReader) *BillingSyncService {
	return &BillingSyncService{api: api, subs: subs, trials: trials, users: users}
}

// ProcessEvent dispatches one verified Stripe event. Unknown event types
// are logged and ignored.
func (s *BillingSyncService) ProcessEvent(event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session billing.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("decode checkout.session: %w", err)
		}
		return s.handleCheckoutCompleted(&session)

	case "customer.subscription.updated":
		var sub billing.SubscriptionEvent
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return s.handleSubscriptionUpdated(&sub)

	case "customer.subscription.deleted":
		var sub billing.SubscriptionEvent
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return s.handleSubscriptionDeleted(&sub)

	default:
		slog.Info("webhook event ignored", "type", string(event.Type), "event_id", event.ID)
		return nil
	}
}

func (s *BillingSyncService) handleCheckoutCompleted(session *billing.CheckoutSession) error {
	if session.Mode == billing.ModePayment {
		return s.handleOneTimePayment(session)
	}

	if session.Subscription == "" {
		return fmt.Errorf("checkout session %s has no subscription", session.ID)
	}

	// Full refresh from the authoritative object rather than trusting the
	// session payload's snapshot.
	summary, err := s.api.GetSubscription(session.Subscription)
	if err != nil {
		return err
	}

	customerID := summary.CustomerID
	if customerID == "" {
		customerID = session.Customer
	}
	if customerID == "" {
		// Guest checkout: resolve or create the customer by email so the
		// mirror row has a stable customer key.
		customerID, err = s.api.EnsureCustomer(session.Email())
		if err != nil {
			return err
		}
	}

	userID, err := s.userIDForEmail(session.Email())
	if err != nil {
		return err
	}

	if err := s.subs.Upsert(&models.Subscription{
		ID:                   uuid.New(),
		UserID:               userID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: summary.SubscriptionID,
		Status:               summary.Status,
		PriceID:              summary.PriceID,
		CurrentPeriodStart:   summary.CurrentPeriodStart,
		CurrentPeriodEnd:     summary.CurrentPeriodEnd,
		CancelAtPeriodEnd:    summary.CancelAtPeriodEnd,
	}); err != nil {
		return fmt.Errorf("upsert billing mirror: %w", err)
	}

	if userID != uuid.Nil {
		if err := s.trials.SetStatus(userID, models.TrialConvertedToPaid, nil); err != nil {
			return fmt.Errorf("mark trial converted: %w", err)
		}
	}
	return nil
}

// handleOneTimePayment records a synthetic paid row so a one-off purchase
// grants access like a subscription would, keyed by the session ID.
func (s *BillingSyncService) handleOneTimePayment(session *billing.CheckoutSession) error {
	userID, err := s.userIDForEmail(session.Email())
	if err != nil {
		return err
	}

	if err := s.subs.Upsert(&models.Subscription{
		ID:                   uuid.New(),
		UserID:               userID,
		StripeCustomerID:     session.Customer,
		StripeSubscriptionID: session.ID,
		Status:               models.SubscriptionActive,
		PriceID:              session.Metadata["price_id"],
	}); err != nil {
		return fmt.Errorf("upsert one-time payment: %w", err)
	}

	if userID != uuid.Nil {
		if err := s.trials.SetStatus(userID, models.TrialConvertedToPaid, nil); err != nil {
			return fmt.Errorf("mark trial converted: %w", err)
		}
	}
	return nil
}

func (s *BillingSyncService) handleSubscriptionUpdated(sub *billing.SubscriptionEvent) error {
	if !billing.IsSafeStripeID(sub.ID) {
		return fmt.Errorf("unsafe subscription id %q", sub.ID)
	}

	userID, err := s.userIDForSubscription(sub)
	if err != nil {
		return err
	}

	start, end := sub.PeriodBounds()
	if err := s.subs.Upsert(&models.Subscription{
		ID:                   uuid.New(),
		UserID:               userID,
		StripeCustomerID:     sub.Customer,
		StripeSubscriptionID: sub.ID,
		Status:               sub.Status,
		PriceID:              sub.FirstPriceID(),
		CurrentPeriodStart:   start,
		CurrentPeriodEnd:     end,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}); err != nil {
		return fmt.Errorf("upsert billing mirror: %w", err)
	}

	if userID == uuid.Nil {
		return nil
	}

	switch {
	case sub.CancelAtPeriodEnd:
		if end <= 0 {
			// Without a period end the grace window cannot be anchored;
			// scheduling from the zero time would make teardown due
			// immediately. A later event with bounds will schedule it.
			slog.Warn("cancellation event missing period end, not scheduling deletion",
				"subscription_id", sub.ID, "user_id", userID)
			return nil
		}
		deletionAt := time.Unix(end, 0).UTC().Add(cancellationGrace)
		if err := s.trials.SetStatus(userID, models.TrialCanceled, &deletionAt); err != nil {
			return fmt.Errorf("schedule deletion: %w", err)
		}
	case sub.Status == models.SubscriptionActive:
		// Reactivation clears any pending teardown.
		if err := s.trials.SetStatus(userID, models.TrialConvertedToPaid, nil); err != nil {
			return fmt.Errorf("clear deletion schedule: %w", err)
		}
	}
	return nil
}

// handleSubscriptionDeleted marks the mirror row canceled. Teardown is not
// triggered here; the scheduled-deletion sweep owns that.
func (s *BillingSyncService) handleSubscriptionDeleted(sub *billing.SubscriptionEvent) error {
	if !billing.IsSafeStripeID(sub.ID) {
		return fmt.Errorf("unsafe subscription id %q", sub.ID)
	}

	userID, err := s.userIDForSubscription(sub)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	start, end := sub.PeriodBounds()
	if err := s.subs.Upsert(&models.Subscription{
		ID:                   uuid.New(),
		UserID:               userID,
		StripeCustomerID:     sub.Customer,
		StripeSubscriptionID: sub.ID,
		Status:               models.SubscriptionCanceled,
		PriceID:              sub.FirstPriceID(),
		CurrentPeriodStart:   start,
		CurrentPeriodEnd:     end,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		DeletedAt:            &now,
	}); err != nil {
		return fmt.Errorf("mark mirror canceled: %w", err)
	}
	return nil
}

// userIDForSubscription recovers the owning user from existing mirror rows,
// falling back to event metadata. Events can arrive before any local row
// exists; an unresolved user leaves the mirror row unowned until the next
// full refresh.
func (s *BillingSyncService) userIDForSubscription(sub *billing.SubscriptionEvent) (uuid.UUID, error) {
	if existing, err := s.subs.FindBySubscriptionID(sub.ID); err != nil {
		return uuid.Nil, fmt.Errorf("lookup mirror by subscription: %w", err)
	} else if existing != nil && existing.UserID != uuid.Nil {
		return existing.UserID, nil
	}

	if sub.Customer != "" {
		if existing, err := s.subs.FindByCustomerID(sub.Customer); err != nil {
			return uuid.Nil, fmt.Errorf("lookup mirror by customer: %w", err)
		} else if existing != nil && existing.UserID != uuid.Nil {
			return existing.UserID, nil
		}
	}

	if raw, ok := sub.Metadata["user_id"]; ok {
		if id, err := uuid.Parse(raw); err == nil {
			return id, nil
		}
	}
	return uuid.Nil, nil
}

func (s *BillingSyncService) userIDForEmail(email string) (uuid.UUID, error) {
	if email == "" {
		return uuid.Nil, nil
	}
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if user == nil {
		return uuid.Nil, nil
	}
	return user.ID, nil
}
