package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/usersmanager/account-service/internal/core/domain"
)

// Context keys set by BasicAuth for downstream handlers.
const (
	ContextKeyLogin = "login"
	ContextKeyRole  = "role"
)

const realm = "accounts"

// Authenticator is the part of the account service BasicAuth depends on.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (bool, error)
	GetAccount(ctx context.Context, login string) (domain.Account, bool, error)
}

// BasicAuth checks HTTP Basic credentials against active accounts and
// injects the caller's login and role into the context. Failed attempts get
// a 401 with a WWW-Authenticate challenge.
func BasicAuth(auth Authenticator) echo.MiddlewareFunc {
	return echomiddleware.BasicAuthWithConfig(echomiddleware.BasicAuthConfig{
		Realm: realm,
		Validator: func(login, password string, c echo.Context) (bool, error) {
			ctx := c.Request().Context()

			ok, err := auth.Authenticate(ctx, login, password)
			if err != nil || !ok {
				return false, err
			}

			// Blocked between the two calls.
			account, found, err := auth.GetAccount(ctx, login)
			if err != nil || !found {
				return false, err
			}

			c.Set(ContextKeyLogin, account.Login)
			c.Set(ContextKeyRole, string(account.Role))
			return true, nil
		},
	})
}
