package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies what a refund was spent on.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryOthers        Category = "others"
	CategoryServices      Category = "services"
	CategoryTransport     Category = "transport"
	CategoryAccommodation Category = "accommodation"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryFood,
	CategoryOthers,
	CategoryServices,
	CategoryTransport,
	CategoryAccommodation,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Amounts are positive, carry at most AmountDecimals fractional digits and
// stay below 10^maxAmountDigits, the range of a numeric(12,2) column.
const (
	AmountDecimals  = 2
	maxAmountDigits = 10
)

// ValidateAmount checks d without rendering it, so absurd exponents such as
// 1e200000000 are rejected in constant time. The returned message is meant
// for the "amount" field of a ValidationError.
func ValidateAmount(d decimal.Decimal) (string, bool) {
	if !d.IsPositive() {
		return "amount must be greater than 0", false
	}
	// Integer digits of a non-zero decimal are NumDigits + Exponent.
	if d.NumDigits()+int(d.Exponent()) > maxAmountDigits {
		return fmt.Sprintf("amount must be less than 1e%d", maxAmountDigits), false
	}
	if !fitsScale(d) {
		return fmt.Sprintf("amount must have at most %d decimal places", AmountDecimals), false
	}
	return "", true
}

// fitsScale reports whether the digits past AmountDecimals are all zero,
// so "50.100" passes and "50.005" does not.
func fitsScale(d decimal.Decimal) bool {
	extra := -int(d.Exponent()) - AmountDecimals
	if extra <= 0 {
		return true
	}
	if extra >= d.NumDigits() {
		// The coefficient has fewer digits than must be zero.
		return false
	}
	return d.Equal(d.Truncate(AmountDecimals))
}

// Refund is an expense reimbursement request owned by exactly one user.
type Refund struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Category  Category        `json:"category"`
	Filename  string          `json:"filename"`
	UserID    string          `json:"userId"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
