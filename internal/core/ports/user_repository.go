package ports

import (
	"context"
	"time"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
)

// UserFilter carries the query parameters for listing users.
// ID is enforced by the service layer: empty for managers, the actor's own id otherwise.
type UserFilter struct {
	ID   string // empty = all users; non-empty = that user only
	Name string // optional: case-insensitive substring on name
	Page domain.Page
}

// UserRepository defines persistence operations for users.
// Emails are stored normalized; implementations back them with a unique index.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail returns domain.ErrUserNotFound when no user has the address.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns a page of users matching filter and the total count, newest first.
	List(ctx context.Context, filter UserFilter) ([]*domain.User, int64, error)
	// Update writes only the fields present in p and returns the stored user.
	Update(ctx context.Context, id string, p patch.UserPatch, updatedAt time.Time) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
