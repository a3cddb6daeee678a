package ports

import (
	"context"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
)

// RegisterInput carries the fields of a self-registration.
// An empty Role defaults to employee.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UserList is a page of users.
type UserList struct {
	Items        []*domain.User
	TotalRecords int64
	Page         domain.Page
	TotalPages   int
}

// UserUpdateResult reports what an update did.
type UserUpdateResult struct {
	User    *domain.User
	Outcome patch.Outcome
}

// UserService defines use-case operations for users.
type UserService interface {
	// Register runs without an owner check; actor is nil for anonymous callers.
	Register(ctx context.Context, actor *domain.AuthUser, in RegisterInput) (*domain.User, error)
	List(ctx context.Context, actor domain.AuthUser, in ListInput) (*UserList, error)
	Show(ctx context.Context, actor domain.AuthUser, id string) (*domain.User, error)
	Update(ctx context.Context, actor domain.AuthUser, id string, in patch.UserInput) (*UserUpdateResult, error)
	Remove(ctx context.Context, actor domain.AuthUser, id string) error
}
