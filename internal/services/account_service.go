package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/axiestudio/axie-access/internal/access"
	"github.com/axiestudio/axie-access/internal/models"
	"github.com/axiestudio/axie-access/internal/workspace"
	"github.com/google/uuid"
)

type workspaceBridge interface {
	CreateAccount(ctx context.Context, email, password string) (workspace.CreateResult, error)
	DeactivateAccount(ctx context.Context, email string) error
	ReactivateAccount(ctx context.Context, email string) error
}

type workspaceAccountStore interface {
	Upsert(acct *models.WorkspaceAccount) error
	FindByUserID(userID uuid.UUID) (*models.WorkspaceAccount, error)
	SetActive(userID uuid.UUID, active bool) error
}

type accessResolver interface {
	Resolve(userID uuid.UUID, email string) (access.Status, error)
}

// AccountService gates workspace account provisioning on the access
// resolver. The UI hides the button when access is missing; this service
// is the enforcement point that actually holds.
type AccountService struct {
	resolver accessResolver
	bridge   workspaceBridge
	accounts workspaceAccountStore
}

func NewAccountService(resolver accessResolver, bridge workspaceBridge, accounts workspaceAccountStore) *AccountService {
	return &AccountService{resolver: resolver, bridge: bridge, accounts: accounts}
}

// Create provisions a workspace account after re-resolving access. Access
// status from an earlier read is advisory only.
func (s *AccountService) Create(ctx context.Context, userID uuid.UUID, email, password string) (workspace.CreateResult, error) {
	status, err := s.resolver.Resolve(userID, email)
	if err != nil {
		return workspace.CreateResult{}, fmt.Errorf("resolve access: %w", err)
	}
	if !status.CanCreateWorkspaceAccount {
		return workspace.CreateResult{}, workspace.ErrAccessRequired
	}

	result, err := s.bridge.CreateAccount(ctx, email, password)
	if err != nil {
		return workspace.CreateResult{}, err
	}

	if err := s.accounts.Upsert(&models.WorkspaceAccount{
		ID:         uuid.New(),
		UserID:     userID,
		Email:      email,
		ExternalID: result.ExternalID,
		Active:     true,
	}); err != nil {
		// The external account exists; a broken local link is recoverable
		// on the next create call thanks to the existence check.
		slog.Error("failed to record workspace account link", "user_id", userID, "error", err)
	}
	return result, nil
}

// Deactivate flips the workspace account inactive. A missing external
// account is tolerated.
func (s *AccountService) Deactivate(ctx context.Context, userID uuid.UUID, email string) error {
	if err := s.bridge.DeactivateAccount(ctx, email); err != nil {
		return err
	}
	if err := s.accounts.SetActive(userID, false); err != nil {
		slog.Error("failed to record workspace deactivation", "user_id", userID, "error", err)
	}
	return nil
}

// Reactivate restores a deactivated workspace account, re-checking access
// first. Workspace data survived deactivation so no setup is redone.
func (s *AccountService) Reactivate(ctx context.Context, userID uuid.UUID, email string) error {
	status, err := s.resolver.Resolve(userID, email)
	if err != nil {
		return fmt.Errorf("resolve access: %w", err)
	}
	if !status.HasAccess {
		return workspace.ErrAccessRequired
	}

	if err := s.bridge.ReactivateAccount(ctx, email); err != nil {
		return err
	}
	if err := s.accounts.SetActive(userID, true); err != nil {
		slog.Error("failed to record workspace reactivation", "user_id", userID, "error", err)
	}
	return nil
}
