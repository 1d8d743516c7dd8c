package handler

import (
	"strconv"

	"github.com/usersmanager/account-service/internal/core/domain"
	"github.com/usersmanager/account-service/internal/core/ports"
)

func toCreateInput(req createAccountRequest) ports.CreateAccountInput {
	return ports.CreateAccountInput{
		Login:    req.Login,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	}
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Login:     a.Login,
		Role:      string(a.Role),
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt.UTC(),
	}
}

func toAccountList(accounts []domain.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return out
}

// parseOptionalInt returns nil for an absent query value.
func parseOptionalInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
