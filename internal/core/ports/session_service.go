package ports

import (
	"context"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
)

// PasswordHasher is the credential primitive: hash on write, constant-time
// verify on login and on password diffing.
type PasswordHasher interface {
	patch.Credentials
}

// SessionService exchanges credentials for a bearer token.
type SessionService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
