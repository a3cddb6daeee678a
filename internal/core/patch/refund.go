package patch

import (
	"github.com/shopspring/decimal"

	"github.com/expensehub/refund-api/internal/core/domain"
)

// RefundInput is a partial refund update; nil means "not submitted".
type RefundInput struct {
	Name     *string
	Amount   *decimal.Decimal
	Category *domain.Category
	Filename *string
}

// Empty reports whether no field was submitted.
func (in RefundInput) Empty() bool {
	return in.Name == nil && in.Amount == nil && in.Category == nil && in.Filename == nil
}

// RefundPatch holds only the refund fields that must be written.
type RefundPatch struct {
	Name     *string
	Amount   *decimal.Decimal
	Category *domain.Category
	Filename *string
}

// Empty reports whether the patch has nothing to write.
func (p RefundPatch) Empty() bool {
	return p.Name == nil && p.Amount == nil && p.Category == nil && p.Filename == nil
}

// Apply copies patched fields onto r.
func (p RefundPatch) Apply(r *domain.Refund) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Filename != nil {
		r.Filename = *p.Filename
	}
}

// ResolveRefund diffs in against current. Amounts compare numerically, so
// "50" and "50.00" are equal.
func ResolveRefund(current *domain.Refund, in RefundInput) (RefundPatch, Outcome) {
	var p RefundPatch

	if in.Name != nil && *in.Name != current.Name {
		name := *in.Name
		p.Name = &name
	}
	if in.Amount != nil && !in.Amount.Equal(current.Amount) {
		amount := *in.Amount
		p.Amount = &amount
	}
	if in.Category != nil && *in.Category != current.Category {
		category := *in.Category
		p.Category = &category
	}
	if in.Filename != nil && *in.Filename != current.Filename {
		filename := *in.Filename
		p.Filename = &filename
	}

	return p, classify(!in.Empty(), !p.Empty())
}
