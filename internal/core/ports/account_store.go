package ports

import (
	"context"

	"github.com/usersmanager/account-service/internal/core/domain"
)

// UserStore defines persistence operations for accounts.
//
// Implementations must enforce login uniqueness among live (created or active)
// accounts and the single live admin on Insert, reporting violations as
// domain.ErrDuplicateLogin and domain.ErrAdminAlreadyExists.
type UserStore interface {
	// FindByLogin returns the account holding login: the live record when one
	// exists, otherwise the most recently created blocked one.
	// Returns domain.ErrAccountNotFound when the login was never used.
	FindByLogin(ctx context.Context, login string) (*domain.Account, error)
	// FindActiveAdmin returns the admin that is active or pending activation.
	// Returns domain.ErrAccountNotFound when there is none.
	FindActiveAdmin(ctx context.Context) (*domain.Account, error)
	Insert(ctx context.Context, account *domain.Account) error
	// UpdateStatus moves the account from one status to the next. It returns
	// domain.ErrAccountNotFound when no account with that id is in status from.
	UpdateStatus(ctx context.Context, id string, from, to domain.AccountStatus) error
	// ListActive returns active accounts ordered by creation time then id.
	// A negative take means no upper bound.
	ListActive(ctx context.Context, skip, take int) ([]*domain.Account, error)
}

// Pinger is implemented by stores that can report their connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
