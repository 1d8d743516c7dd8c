// Package memory provides process-local implementations of the account store
// and locker. They back development runs and tests; a single process is the
// only writer, so a mutex gives the same guarantees the database indexes do.
package memory

import (
	"context"
	"sync"

	"github.com/usersmanager/account-service/internal/core/domain"
	"github.com/usersmanager/account-service/internal/core/ports"
)

// AccountStore keeps accounts in insertion order.
type AccountStore struct {
	mu       sync.RWMutex
	accounts []*domain.Account
	byID     map[string]*domain.Account
}

var (
	_ ports.UserStore = (*AccountStore)(nil)
	_ ports.Pinger    = (*AccountStore)(nil)
)

func NewAccountStore() *AccountStore {
	return &AccountStore{byID: make(map[string]*domain.Account)}
}

func clone(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func (s *AccountStore) FindByLogin(ctx context.Context, login string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Account
	for _, a := range s.accounts {
		if a.Login != login {
			continue
		}
		if a.Status.Live() {
			return clone(a), nil
		}
		latest = a
	}
	if latest == nil {
		return nil, domain.ErrAccountNotFound
	}
	return clone(latest), nil
}

func (s *AccountStore) FindActiveAdmin(ctx context.Context) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.Role == domain.RoleAdmin && a.Status.Live() {
			return clone(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *AccountStore) Insert(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if !a.Status.Live() {
			continue
		}
		if a.Login == account.Login {
			return domain.ErrDuplicateLogin
		}
		if account.Role == domain.RoleAdmin && a.Role == domain.RoleAdmin {
			return domain.ErrAdminAlreadyExists
		}
	}

	stored := clone(account)
	s.accounts = append(s.accounts, stored)
	s.byID[stored.ID] = stored
	return nil
}

func (s *AccountStore) UpdateStatus(ctx context.Context, id string, from, to domain.AccountStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok || a.Status != from {
		return domain.ErrAccountNotFound
	}
	a.Status = to
	return nil
}

func (s *AccountStore) ListActive(ctx context.Context, skip, take int) ([]*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Account{}
	seen := 0
	for _, a := range s.accounts {
		if !a.IsActive() {
			continue
		}
		seen++
		if seen <= skip {
			continue
		}
		if take >= 0 && len(out) == take {
			break
		}
		out = append(out, clone(a))
	}
	return out, nil
}

func (s *AccountStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
