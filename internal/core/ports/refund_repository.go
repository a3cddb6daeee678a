package ports

import (
	"context"
	"time"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
)

// RefundFilter carries the query parameters for listing refunds.
// UserID is always enforced by the service layer (ownership scope).
type RefundFilter struct {
	UserID string // empty = no filter (manager); non-empty = scoped to owner
	Name   string // optional: case-insensitive substring on refund name
	Page   domain.Page
}

// RefundRepository defines persistence operations for refunds.
type RefundRepository interface {
	Create(ctx context.Context, r *domain.Refund) error
	FindByID(ctx context.Context, id string) (*domain.Refund, error)
	// List returns a page of refunds matching filter and the total count, newest first.
	List(ctx context.Context, filter RefundFilter) ([]*domain.Refund, int64, error)
	Update(ctx context.Context, id string, p patch.RefundPatch, updatedAt time.Time) (*domain.Refund, error)
	Delete(ctx context.Context, id string) error
	// CountByUser backs the "no delete while owning refunds" guard.
	CountByUser(ctx context.Context, userID string) (int64, error)
	// CountByFilename tells whether a receipt is still attached to any refund.
	CountByFilename(ctx context.Context, filename string) (int64, error)
}

// IdempotencyStore remembers which refund a (user, key) pair produced.
//
// Reserve atomically claims the key. When it is already taken, refundID is
// the refund recorded for it, or empty while the first request is still
// running. The holder of a reservation finishes with Complete on success or
// Release on failure.
type IdempotencyStore interface {
	Reserve(ctx context.Context, userID, key string) (reserved bool, refundID string, err error)
	Complete(ctx context.Context, userID, key, refundID string) error
	Release(ctx context.Context, userID, key string) error
}
