package ports

import (
	"context"

	"github.com/usersmanager/account-service/internal/core/domain"
)

// CreateAccountInput is the DTO passed from the transport layer to AccountService.
type CreateAccountInput struct {
	Login    string
	Password string
	Role     domain.Role
}

// CreateOutcome tags the expected results of a creation attempt.
type CreateOutcome int

const (
	OutcomeCreated CreateOutcome = iota
	OutcomeDuplicateLogin
	OutcomeAdminAlreadyExists
)

func (o CreateOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeDuplicateLogin:
		return "duplicate_login"
	case OutcomeAdminAlreadyExists:
		return "admin_already_exists"
	default:
		return "unknown"
	}
}

// CreateResult carries the outcome of CreateAccount. Account is set only when
// Outcome is OutcomeCreated.
type CreateResult struct {
	Outcome CreateOutcome
	Account *domain.Account
}

// Err maps a rejected outcome onto its domain sentinel, or nil on success.
func (r CreateResult) Err() error {
	switch r.Outcome {
	case OutcomeDuplicateLogin:
		return domain.ErrDuplicateLogin
	case OutcomeAdminAlreadyExists:
		return domain.ErrAdminAlreadyExists
	default:
		return nil
	}
}

// ListAccountsInput selects an optional page of active accounts.
// A nil PageSize returns everything; a nil PageIndex defaults to 0.
type ListAccountsInput struct {
	PageSize  *int
	PageIndex *int
}

// AccountService defines the account lifecycle use cases.
type AccountService interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (CreateResult, error)
	DeleteAccount(ctx context.Context, login string) (bool, error)
	GetAccount(ctx context.Context, login string) (domain.Account, bool, error)
	ListAccounts(ctx context.Context, input ListAccountsInput) ([]domain.Account, error)
	Authenticate(ctx context.Context, login, password string) (bool, error)
}
