package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
)

// CreateRefundInput carries all data needed to create a refund. The owner
// is always the acting employee and is not part of the input.
type CreateRefundInput struct {
	Name           string
	Amount         decimal.Decimal
	Category       domain.Category
	Filename       string
	IdempotencyKey string
}

// CreateRefundResult is returned after creating a refund.
type CreateRefundResult struct {
	Refund *domain.Refund
	// Replayed is true when the Idempotency-Key matched an earlier creation.
	Replayed bool
}

// ListInput carries the parameters shared by both list endpoints.
type ListInput struct {
	Name string
	Page domain.Page
}

// RefundList is a page of refunds.
type RefundList struct {
	Items        []*domain.Refund
	TotalRecords int64
	Page         domain.Page
	TotalPages   int
}

// RefundUpdateResult reports what an update did.
type RefundUpdateResult struct {
	Refund  *domain.Refund
	Outcome patch.Outcome
}

// RefundService defines use-case operations for refunds.
type RefundService interface {
	Create(ctx context.Context, actor domain.AuthUser, in CreateRefundInput) (*CreateRefundResult, error)
	List(ctx context.Context, actor domain.AuthUser, in ListInput) (*RefundList, error)
	Show(ctx context.Context, actor domain.AuthUser, id string) (*domain.Refund, error)
	Update(ctx context.Context, actor domain.AuthUser, id string, in patch.RefundInput) (*RefundUpdateResult, error)
	Remove(ctx context.Context, actor domain.AuthUser, id string) error
}
