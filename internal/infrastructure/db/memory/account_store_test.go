package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/usersmanager/account-service/internal/core/domain"
)

func account(id, login string, role domain.Role, status domain.AccountStatus) *domain.Account {
	return &domain.Account{
		ID:        id,
		Login:     login,
		Role:      role,
		Status:    status,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAccountStore_InsertRejectsLiveLogin(t *testing.T) {
	s := NewAccountStore()
	ctx := context.Background()

	if err := s.Insert(ctx, account("1", "alice", domain.RoleUser, domain.StatusCreated)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Insert(ctx, account("2", "alice", domain.RoleUser, domain.StatusCreated)); !errors.Is(err, domain.ErrDuplicateLogin) {
		t.Fatalf("expected ErrDuplicateLogin, got %v", err)
	}
}

func TestAccountStore_InsertAllowsReuseOfBlockedLogin(t *testing.T) {
	s := NewAccountStore()
	ctx := context.Background()

	_ = s.Insert(ctx, account("1", "alice", domain.RoleUser, domain.StatusActive))
	if err := s.UpdateStatus(ctx, "1", domain.StatusActive, domain.StatusBlocked); err != nil {
		t.Fatalf("block: %v", err)
	}
	if err := s.Insert(ctx, account("2", "alice", domain.RoleUser, domain.StatusCreated)); err != nil {
		t.Fatalf("expected reuse of blocked login, got %v", err)
	}

	got, err := s.FindByLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != "2" {
		t.Errorf("expected live record 2, got %s", got.ID)
	}
}

func TestAccountStore_FindByLogin_ReturnsLatestBlocked(t *testing.T) {
	s := NewAccountStore()
	ctx := context.Background()

	_ = s.Insert(ctx, account("1", "bob", domain.RoleUser, domain.StatusBlocked))
	_ = s.Insert(ctx, account("2", "bob", domain.RoleUser, domain.StatusBlocked))

	got, err := s.FindByLogin(ctx, "bob")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != "2" {
		t.Errorf("expected most recent blocked record, got %s", got.ID)
	}

	if _, err := s.FindByLogin(ctx, "ghost"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountStore_SingleLiveAdmin(t *testing.T) {
	s := NewAccountStore()
	ctx := context.Background()

	_ = s.Insert(ctx, account("1", "root", domain.RoleAdmin, domain.StatusCreated))
	if err := s.Insert(ctx, account("2", "root2", domain.RoleAdmin, domain.StatusCreated)); !errors.Is(err, domain.ErrAdminAlreadyExists) {
		t.Fatalf("expected ErrAdminAlreadyExists, got %v", err)
	}

	admin, err := s.FindActiveAdmin(ctx)
	if err != nil || admin.ID != "1" {
		t.Fatalf("expected pending admin 1, got %+v (%v)", admin, err)
	}
}

func TestAccountStore_UpdateStatus_RequiresFromStatus(t *testing.T) {
	s := NewAccountStore()
	ctx := context.Background()
	_ = s.Insert(ctx, account("1", "carol", domain.RoleUser, domain.StatusCreated))

	if err := s.UpdateStatus(ctx, "1", domain.StatusActive, domain.StatusBlocked); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound for stale status, got %v", err)
	}
	if err := s.UpdateStatus(ctx, "missing", domain.StatusCreated, domain.StatusActive); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound for unknown id, got %v", err)
	}
}

func TestAccountStore_ListActive_Window(t *testing.T) {
	s := NewAccountStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = s.Insert(ctx, account(fmt.Sprint(i), fmt.Sprintf("user%d", i), domain.RoleUser, domain.StatusActive))
	}
	_ = s.Insert(ctx, account("pending", "pending", domain.RoleUser, domain.StatusCreated))

	all, _ := s.ListActive(ctx, 0, -1)
	if len(all) != 5 {
		t.Fatalf("expected 5 active accounts, got %d", len(all))
	}

	page, _ := s.ListActive(ctx, 2, 2)
	if len(page) != 2 || page[0].ID != "2" || page[1].ID != "3" {
		t.Fatalf("unexpected page: %+v", page)
	}

	empty, _ := s.ListActive(ctx, 10, 2)
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}
}

func TestAccountStore_ReturnsCopies(t *testing.T) {
	s := NewAccountStore()
	ctx := context.Background()
	_ = s.Insert(ctx, account("1", "dave", domain.RoleUser, domain.StatusActive))

	got, _ := s.FindByLogin(ctx, "dave")
	got.Status = domain.StatusBlocked

	again, _ := s.FindByLogin(ctx, "dave")
	if again.Status != domain.StatusActive {
		t.Fatal("mutating a returned account must not change the store")
	}
}
