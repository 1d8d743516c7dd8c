package domain

import (
	"errors"
	"time"
)

// Role distinguishes regular accounts from the single administrator.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// AccountStatus represents the lifecycle state of an account.
type AccountStatus string

const (
	StatusCreated AccountStatus = "created"
	StatusActive  AccountStatus = "active"
	StatusBlocked AccountStatus = "blocked"
)

// validTransitions defines the allowed state machine transitions.
// Blocked is terminal.
var validTransitions = map[AccountStatus]AccountStatus{
	StatusCreated: StatusActive,
	StatusActive:  StatusBlocked,
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	allowed, ok := validTransitions[s]
	return ok && allowed == next
}

// Live reports whether an account in this status still holds its login.
func (s AccountStatus) Live() bool {
	return s == StatusCreated || s == StatusActive
}

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrDuplicateLogin     = errors.New("login already in use")
	ErrAdminAlreadyExists = errors.New("an administrator already exists")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidInput       = errors.New("login and password are required")
	ErrInvalidPage        = errors.New("page size and index must not be negative")
)

// Account is the aggregate root. Every field except Status is immutable once
// the account has been inserted.
type Account struct {
	ID           string        `json:"id"`
	Login        string        `json:"login"`
	PasswordHash string        `json:"-"`
	Role         Role          `json:"role"`
	Status       AccountStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// IsActive reports whether the account is visible to read operations.
func (a Account) IsActive() bool {
	return a.Status == StatusActive
}
