package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/axiestudio/axie-access/internal/billing"
	"github.com/axiestudio/axie-access/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotAccountOwner rejects deletion requests made on behalf of
	// someone else.
	ErrNotAccountOwner = errors.New("account can only be deleted by its owner")

	// ErrProtectedAccount rejects deletion of the protected admin identity.
	ErrProtectedAccount = errors.New("protected account cannot be deleted")
)

type deletionUserStore interface {
	FindByID(id uuid.UUID) (*models.User, error)
	HardDelete(id uuid.UUID) error
}

type deletionTrialStore interface {
	FindByUserID(userID uuid.UUID) (*models.TrialRecord, error)
	SetStatus(userID uuid.UUID, status string, deletionAt *time.Time) error
	HardDeleteByUserID(userID uuid.UUID) error
}

type deletionMirrorStore interface {
	ListActiveByUserID(userID uuid.UUID) ([]models.Subscription, error)
	ExistsByUserID(userID uuid.UUID) (bool, error)
	MarkCanceledByUserID(userID uuid.UUID, at time.Time) error
	HardDeleteByUserID(userID uuid.UUID) error
}

type deletionHistoryWriter interface {
	Append(entry *models.DeletionHistory) error
}

type deletionWorkspaceStore interface {
	FindByUserID(userID uuid.UUID) (*models.WorkspaceAccount, error)
	HardDeleteByUserID(userID uuid.UUID) error
}

type refreshTokenStore interface {
	HardDeleteByUserID(userID uuid.UUID) error
}

type teamMembershipStore interface {
	RemoveMemberships(userID uuid.UUID) error
}

type workspaceDeactivator interface {
	DeactivateAccount(ctx context.Context, email string) error
}

// DeletionService tears an account down across billing, the workspace
// product, local records and the auth identity. Every step is logged
// independently; only the history write (step 1) and the identity delete
// (step 5) abort the flow on failure.
type DeletionService struct {
	users     deletionUserStore
	trials    deletionTrialStore
	subs      deletionMirrorStore
	history   deletionHistoryWriter
	wsStore   deletionWorkspaceStore
	tokens    refreshTokenStore
	teams     teamMembershipStore
	bridge    workspaceDeactivator
	api       billing.API
	protected string
}

func NewDeletionService(
	users deletionUserStore,
	trials deletionTrialStore,
	subs deletionMirrorStore,
	history deletionHistoryWriter,
	wsStore deletionWorkspaceStore,
	tokens refreshTokenStore,
	teams teamMembershipStore,
	bridge workspaceDeactivator,
	api billing.API,
	protectedEmail string,
) *DeletionService {
	return &DeletionService{
		users:     users,
		trials:    trials,
		subs:      subs,
		history:   history,
		wsStore:   wsStore,
		tokens:    tokens,
		teams:     teams,
		bridge:    bridge,
		api:       api,
		protected: strings.ToLower(strings.TrimSpace(protectedEmail)),
	}
}

// DeleteAccount is the user-initiated entry point. Callers may only delete
// themselves, never the protected admin identity.
func (s *DeletionService) DeleteAccount(ctx context.Context, callerID, targetID uuid.UUID, reason string) error {
	if callerID != targetID {
		return ErrNotAccountOwner
	}
	user, err := s.users.FindByID(targetID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.teardown(ctx, user, reason)
}

// TeardownUser is the system-initiated entry point used by the scheduled
// deletion sweep. The owner check does not apply; the protected identity
// check still does.
func (s *DeletionService) TeardownUser(ctx context.Context, userID uuid.UUID, reason string) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.teardown(ctx, user, reason)
}

func (s *DeletionService) teardown(ctx context.Context, user *models.User, reason string) error {
	if s.protected != "" && strings.EqualFold(user.Email, s.protected) {
		return ErrProtectedAccount
	}

	// Step 1: the abuse-prevention record. If this write fails nothing
	// below may run, otherwise a delete-and-resignup earns a fresh trial.
	trial, err := s.trials.FindByUserID(user.ID)
	if err != nil {
		return fmt.Errorf("load trial for history: %w", err)
	}
	activeSubs, err := s.subs.ListActiveByUserID(user.ID)
	if err != nil {
		return fmt.Errorf("load subscriptions for history: %w", err)
	}
	// Ever-subscribed must survive churn: a canceled mirror row from months
	// ago still counts, so the check ignores status entirely.
	everMirrored, err := s.subs.ExistsByUserID(user.ID)
	if err != nil {
		return fmt.Errorf("check mirror history: %w", err)
	}
	entry := &models.DeletionHistory{
		ID:             uuid.New(),
		Email:          user.Email,
		HasUsedTrial:   trial != nil,
		EverSubscribed: everMirrored || (trial != nil && trial.TrialStatus == models.TrialConvertedToPaid),
		DeletionReason: reason,
		DeletedAt:      time.Now().UTC(),
	}
	if err := s.history.Append(entry); err != nil {
		return fmt.Errorf("record deletion history: %w", err)
	}
	slog.Info("deletion history recorded", "user_id", user.ID, "action", "account_deletion")

	// Step 2: billing cleanup. Failures are logged only; Stripe's own
	// webhooks reconcile whatever is missed here.
	for _, sub := range activeSubs {
		if err := s.api.CancelSubscription(sub.StripeSubscriptionID); err != nil {
			slog.Error("failed to cancel subscription during deletion",
				"user_id", user.ID, "subscription_id", sub.StripeSubscriptionID, "error", err)
		}
		if sub.StripeCustomerID != "" {
			if err := s.api.DeleteCustomer(sub.StripeCustomerID); err != nil {
				slog.Error("failed to delete billing customer during deletion",
					"user_id", user.ID, "customer_id", sub.StripeCustomerID, "error", err)
			}
		}
	}
	if err := s.subs.MarkCanceledByUserID(user.ID, time.Now().UTC()); err != nil {
		slog.Error("failed to mark mirror rows canceled", "user_id", user.ID, "error", err)
	}

	// Step 3: revoke access immediately, ahead of physical deletion, so
	// in-flight access checks fail closed.
	if err := s.trials.SetStatus(user.ID, models.TrialDeleted, nil); err != nil {
		slog.Error("failed to revoke trial access", "user_id", user.ID, "error", err)
	}
	wsEmail := user.Email
	if acct, err := s.wsStore.FindByUserID(user.ID); err != nil {
		slog.Error("failed to load workspace account link", "user_id", user.ID, "error", err)
	} else if acct != nil && acct.Email != "" {
		wsEmail = acct.Email
	}
	if err := s.bridge.DeactivateAccount(ctx, wsEmail); err != nil {
		slog.Error("failed to deactivate workspace account", "user_id", user.ID, "error", err)
	}

	// Step 4: delete dependent rows in dependency order. Per-table
	// failures are logged, not fatal.
	deletions := []struct {
		what string
		fn   func() error
	}{
		{"subscriptions", func() error { return s.subs.HardDeleteByUserID(user.ID) }},
		{"workspace account link", func() error { return s.wsStore.HardDeleteByUserID(user.ID) }},
		{"refresh tokens", func() error { return s.tokens.HardDeleteByUserID(user.ID) }},
		{"trial record", func() error { return s.trials.HardDeleteByUserID(user.ID) }},
		{"team memberships", func() error { return s.teams.RemoveMemberships(user.ID) }},
	}
	for _, d := range deletions {
		if err := d.fn(); err != nil {
			slog.Error("failed to delete "+d.what, "user_id", user.ID, "error", err)
		}
	}

	// Step 5: the auth identity. An identity that survives with no data
	// behind it is a dangling state, so this failure is surfaced.
	if err := s.users.HardDelete(user.ID); err != nil {
		return fmt.Errorf("delete auth identity: %w", err)
	}

	slog.Info("account deleted", "user_id", user.ID, "action", "account_deletion", "reason", reason)
	return nil
}
