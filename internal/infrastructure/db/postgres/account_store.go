package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/usersmanager/account-service/internal/core/domain"
	"github.com/usersmanager/account-service/internal/core/ports"
)

const (
	uniqueViolation = "23505"

	loginLiveIndex   = "accounts_login_live_idx"
	singleAdminIndex = "accounts_single_admin_idx"
)

// Schema creates the accounts table. The partial unique indexes only cover
// accounts that are not blocked, so blocking frees the login and the admin seat.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	login         TEXT        NOT NULL,
	password_hash TEXT        NOT NULL,
	role          TEXT        NOT NULL,
	status        TEXT        NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_login_live_idx
	ON accounts (login) WHERE status <> 'blocked';
CREATE UNIQUE INDEX IF NOT EXISTS accounts_single_admin_idx
	ON accounts ((role)) WHERE role = 'admin' AND status <> 'blocked';
CREATE INDEX IF NOT EXISTS accounts_status_created_idx
	ON accounts (status, created_at, id);
`

const accountColumns = `id, login, password_hash, role, status, created_at`

// AccountStore implements ports.UserStore on PostgreSQL through lib/pq.
type AccountStore struct {
	db      *sql.DB
	timeout time.Duration
}

var (
	_ ports.UserStore = (*AccountStore)(nil)
	_ ports.Pinger    = (*AccountStore)(nil)
)

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db, timeout: defaultTimeout}
}

func (s *AccountStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure accounts schema: %w", err)
	}
	return nil
}

// FindByLogin returns the live account for login, falling back to the most
// recently created blocked one.
func (s *AccountStore) FindByLogin(ctx context.Context, login string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE login = $1
		ORDER BY (status <> 'blocked') DESC, created_at DESC
		LIMIT 1`
	return s.queryOne(ctx, query, login)
}

// FindActiveAdmin returns the admin that is active or still pending activation.
func (s *AccountStore) FindActiveAdmin(ctx context.Context) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE role = 'admin' AND status <> 'blocked'
		LIMIT 1`
	return s.queryOne(ctx, query)
}

func (s *AccountStore) queryOne(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := scanAccount(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a      domain.Account
		role   string
		status string
	)
	if err := row.Scan(&a.ID, &a.Login, &a.PasswordHash, &role, &status, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	a.Status = domain.AccountStatus(status)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// Insert stores a new account. Violations of the partial unique indexes are
// reported as the matching domain error.
func (s *AccountStore) Insert(ctx context.Context, a *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `INSERT INTO accounts (` + accountColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.Login, a.PasswordHash, string(a.Role), string(a.Status), a.CreatedAt.UTC(),
	)
	if err != nil {
		return classifyInsertError(err)
	}
	return nil
}

func classifyInsertError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return fmt.Errorf("insert account: %w", err)
	}
	if pqErr.Constraint == singleAdminIndex {
		return domain.ErrAdminAlreadyExists
	}
	return domain.ErrDuplicateLogin
}

// UpdateStatus performs a compare-and-set on the status column.
func (s *AccountStore) UpdateStatus(ctx context.Context, id string, from, to domain.AccountStatus) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ListActive returns active accounts ordered by created_at then id.
func (s *AccountStore) ListActive(ctx context.Context, skip, take int) ([]*domain.Account, error) {
	if take == 0 {
		return []*domain.Account{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE status = 'active'
		ORDER BY created_at, id
		OFFSET $1`
	args := []any{skip}
	if take > 0 {
		query += ` LIMIT $2`
		args = append(args, take)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []*domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func (s *AccountStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
