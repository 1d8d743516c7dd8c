package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/usersmanager/account-service/internal/core/domain"
	"github.com/usersmanager/account-service/internal/core/ports"
)

const adminLockKey = "admin"

// Dependencies groups the collaborators of AccountService.
// Clock, Hasher and Metrics fall back to SystemClock, SHA256Hasher and
// ports.NopMetrics when nil.
type Dependencies struct {
	Store   ports.UserStore
	Locker  ports.Locker
	Runner  ports.BackgroundRunner
	Clock   ports.Clock
	Hasher  ports.PasswordHasher
	Metrics ports.AccountMetrics

	// ActivationDelay is how long a new account stays in created status.
	ActivationDelay time.Duration
}

// AccountService owns every account invariant: login uniqueness, the admin
// singleton, password hashing and the created -> active -> blocked lifecycle.
type AccountService struct {
	store   ports.UserStore
	locker  ports.Locker
	runner  ports.BackgroundRunner
	clock   ports.Clock
	hasher  ports.PasswordHasher
	metrics ports.AccountMetrics
	delay   time.Duration
	log     zerolog.Logger

	// dummyHash is verified against when the login is unknown so that both
	// failure paths of Authenticate do the same work.
	dummyHash string
}

var _ ports.AccountService = (*AccountService)(nil)

func NewAccountService(deps Dependencies, log zerolog.Logger) (*AccountService, error) {
	if deps.Store == nil || deps.Locker == nil || deps.Runner == nil {
		return nil, errors.New("account service: store, locker and runner are required")
	}
	if deps.ActivationDelay < 0 {
		return nil, fmt.Errorf("account service: negative activation delay %s", deps.ActivationDelay)
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Hasher == nil {
		deps.Hasher = SHA256Hasher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = ports.NopMetrics{}
	}

	dummy, err := deps.Hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("account service: prepare dummy hash: %w", err)
	}

	return &AccountService{
		store:     deps.Store,
		locker:    deps.Locker,
		runner:    deps.Runner,
		clock:     deps.Clock,
		hasher:    deps.Hasher,
		metrics:   deps.Metrics,
		delay:     deps.ActivationDelay,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// CreateAccount registers a new account, waits for the activation delay and
// returns it in active status. Duplicate logins and a second admin are
// reported through the result outcome; the error is reserved for input and
// infrastructure failures.
//
// Once the account is persisted, its activation runs to completion even if
// ctx is cancelled; the caller just stops waiting for it.
func (s *AccountService) CreateAccount(ctx context.Context, in ports.CreateAccountInput) (ports.CreateResult, error) {
	if in.Login == "" || in.Password == "" {
		return ports.CreateResult{}, domain.ErrInvalidInput
	}
	if !in.Role.Valid() {
		return ports.CreateResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidRole, in.Role)
	}

	account, outcome, err := s.register(ctx, in)
	if err != nil {
		return ports.CreateResult{}, err
	}
	if outcome != ports.OutcomeCreated {
		s.metrics.CreateRejected(outcome.String())
		s.log.Info().Str("login", in.Login).Str("role", string(in.Role)).Str("outcome", outcome.String()).Msg("account creation rejected")
		return ports.CreateResult{Outcome: outcome}, nil
	}

	done := s.runner.Go(func(bg context.Context) error {
		return s.activate(bg, account.ID)
	})

	select {
	case err := <-done:
		if err != nil {
			s.log.Error().Err(err).Str("account_id", account.ID).Msg("account activation failed")
			return ports.CreateResult{}, err
		}
	case <-ctx.Done():
		s.log.Warn().Str("account_id", account.ID).Msg("caller left before activation, activation continues")
		return ports.CreateResult{}, ctx.Err()
	}

	account.Status = domain.StatusActive
	s.metrics.AccountCreated(string(account.Role))
	s.log.Info().Str("account_id", account.ID).Str("login", account.Login).Str("role", string(account.Role)).Msg("account created")

	return ports.CreateResult{Outcome: ports.OutcomeCreated, Account: account}, nil
}

// register runs the uniqueness checks and inserts the account in created
// status while holding the login (and admin) locks.
func (s *AccountService) register(ctx context.Context, in ports.CreateAccountInput) (*domain.Account, ports.CreateOutcome, error) {
	keys := []string{"login:" + in.Login}
	if in.Role == domain.RoleAdmin {
		keys = append(keys, adminLockKey)
	}

	unlock, err := s.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, 0, fmt.Errorf("create account: acquire lock: %w", err)
	}
	defer unlock()

	existing, err := s.store.FindByLogin(ctx, in.Login)
	switch {
	case err == nil && existing.Status != domain.StatusBlocked:
		return nil, ports.OutcomeDuplicateLogin, nil
	case err != nil && !errors.Is(err, domain.ErrAccountNotFound):
		return nil, 0, fmt.Errorf("create account: find by login: %w", err)
	}

	if in.Role == domain.RoleAdmin {
		_, err := s.store.FindActiveAdmin(ctx)
		switch {
		case err == nil:
			return nil, ports.OutcomeAdminAlreadyExists, nil
		case !errors.Is(err, domain.ErrAccountNotFound):
			return nil, 0, fmt.Errorf("create account: find admin: %w", err)
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, 0, fmt.Errorf("create account: hash password: %w", err)
	}

	account := &domain.Account{
		ID:           uuid.NewString(),
		Login:        in.Login,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       domain.StatusCreated,
		CreatedAt:    s.clock.Now().UTC(),
	}

	// The store's own constraints catch writers that bypassed the locker.
	if err := s.store.Insert(ctx, account); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateLogin):
			return nil, ports.OutcomeDuplicateLogin, nil
		case errors.Is(err, domain.ErrAdminAlreadyExists):
			return nil, ports.OutcomeAdminAlreadyExists, nil
		}
		return nil, 0, fmt.Errorf("create account: insert: %w", err)
	}

	return account, ports.OutcomeCreated, nil
}

func (s *AccountService) activate(ctx context.Context, id string) error {
	start := s.clock.Now()

	err := s.clock.Sleep(ctx, s.delay)
	if err == nil {
		err = s.store.UpdateStatus(ctx, id, domain.StatusCreated, domain.StatusActive)
	}
	if err != nil {
		err = fmt.Errorf("activate account %s: %w", id, err)
	}

	s.metrics.ActivationCompleted(s.clock.Now().Sub(start), err)
	return err
}

// DeleteAccount blocks the active account holding login. It reports false
// when there is no such account, including when it is already blocked.
func (s *AccountService) DeleteAccount(ctx context.Context, login string) (bool, error) {
	account, found, err := s.findActive(ctx, login)
	if err != nil || !found {
		return false, err
	}

	if !account.Status.CanTransitionTo(domain.StatusBlocked) {
		return false, domain.ErrInvalidTransition
	}

	err = s.store.UpdateStatus(ctx, account.ID, domain.StatusActive, domain.StatusBlocked)
	if errors.Is(err, domain.ErrAccountNotFound) {
		// Blocked by a concurrent delete between the read and the write.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete account: %w", err)
	}

	s.metrics.AccountBlocked()
	s.log.Info().Str("account_id", account.ID).Str("login", login).Msg("account blocked")
	return true, nil
}

// GetAccount returns the active account holding login.
func (s *AccountService) GetAccount(ctx context.Context, login string) (domain.Account, bool, error) {
	account, found, err := s.findActive(ctx, login)
	if err != nil || !found {
		return domain.Account{}, false, err
	}
	return *account, true, nil
}

// ListAccounts returns active accounts, optionally windowed to
// [size*index, size*(index+1)).
func (s *AccountService) ListAccounts(ctx context.Context, in ports.ListAccountsInput) ([]domain.Account, error) {
	skip, take := 0, -1
	if in.PageSize != nil {
		index := 0
		if in.PageIndex != nil {
			index = *in.PageIndex
		}
		if *in.PageSize < 0 || index < 0 {
			return nil, domain.ErrInvalidPage
		}
		// A window starting past math.MaxInt cannot hold any account.
		if index > 0 && *in.PageSize > math.MaxInt/index {
			return []domain.Account{}, nil
		}
		skip, take = *in.PageSize*index, *in.PageSize
	}

	if take == 0 {
		return []domain.Account{}, nil
	}

	accounts, err := s.store.ListActive(ctx, skip, take)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	out := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, *a)
	}
	return out, nil
}

// Authenticate reports whether login names an active account whose password
// matches. Unknown logins and wrong passwords are indistinguishable.
func (s *AccountService) Authenticate(ctx context.Context, login, password string) (bool, error) {
	account, found, err := s.findActive(ctx, login)
	if err != nil {
		return false, err
	}

	if !found {
		s.hasher.Verify(s.dummyHash, password)
		s.metrics.AuthenticationResult(false)
		return false, nil
	}

	ok := s.hasher.Verify(account.PasswordHash, password)
	s.metrics.AuthenticationResult(ok)
	if !ok {
		s.log.Debug().Str("login", login).Msg("authentication failed")
	}
	return ok, nil
}

func (s *AccountService) findActive(ctx context.Context, login string) (*domain.Account, bool, error) {
	account, err := s.store.FindByLogin(ctx, login)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find account %q: %w", login, err)
	}
	if !account.IsActive() {
		return nil, false, nil
	}
	return account, true, nil
}
