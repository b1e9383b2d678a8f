package dto

// Workspace account management actions.
const (
	AccountActionCreate     = "create"
	AccountActionDelete     = "delete"
	AccountActionReactivate = "reactivate"
)

type WorkspaceAccountRequest struct {
	Action   string `json:"action"`
	Password string `json:"password,omitempty"`
}

type WorkspaceAccountResponse struct {
	Success       bool   `json:"success"`
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	AlreadyExists bool   `json:"already_exists,omitempty"`
}

type DeleteUserAccountRequest struct {
	UserID string `json:"user_id"`
}

type DeleteUserAccountResponse struct {
	Success bool `json:"success"`
}

type SweepResponse struct {
	ExpiredTrials     int `json:"expired_trials"`
	DeletionsExecuted int `json:"deletions_executed"`
}
