package handler

import "time"

// errorResponse mirrors the envelope rendered by api.NewHTTPErrorHandler.
// It exists only so the swag annotations in this package can name it; the
// handlers never build it themselves.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type createAccountRequest struct {
	Login    string `json:"login"    validate:"required,min=5,max=30"`
	Password string `json:"password" validate:"required,min=5,max=60"`
	Role     string `json:"role"     validate:"required,oneof=user admin"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
