package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
)

// --- Shared envelopes ---

type messageResponse struct {
	Message string `json:"message"`
}

type paginationResponse struct {
	Page         int   `json:"page"`
	PerPage      int   `json:"perPage"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int   `json:"totalPages"`
}

type listResponse[T any] struct {
	Data       []T                `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

func newPagination(p domain.Page, total int64, pages int) paginationResponse {
	return paginationResponse{Page: p.Page, PerPage: p.PerPage, TotalRecords: total, TotalPages: pages}
}

// --- Users ---

type createUserRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,role"`
}

type updateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,role"`
}

func (r updateUserRequest) toInput() patch.UserInput {
	in := patch.UserInput{Name: r.Name, Email: r.Email, Password: r.Password}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		in.Role = &role
	}
	return in
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// --- Sessions ---

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// --- Refunds ---

type createRefundRequest struct {
	Name     string          `json:"name" validate:"required,min=3"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"50.00" validate:"amount"`
	Category string          `json:"category" validate:"required,category"`
	Filename string          `json:"filename" validate:"required"`
}

type updateRefundRequest struct {
	Name     *string          `json:"name" validate:"omitempty,min=3"`
	Amount   *decimal.Decimal `json:"amount" swaggertype:"string" example:"50.00" validate:"omitempty,amount"`
	Category *string          `json:"category" validate:"omitempty,category"`
	Filename *string          `json:"filename" validate:"omitempty,min=1"`
}

func (r updateRefundRequest) toInput() patch.RefundInput {
	in := patch.RefundInput{Name: r.Name, Amount: r.Amount, Filename: r.Filename}
	if r.Category != nil {
		cat := domain.Category(*r.Category)
		in.Category = &cat
	}
	return in
}

type refundResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Amount    string    `json:"amount" example:"50.00"`
	Category  string    `json:"category"`
	Filename  string    `json:"filename"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toRefundResponse(r *domain.Refund) refundResponse {
	return refundResponse{
		ID:        r.ID,
		Name:      r.Name,
		Amount:    r.Amount.StringFixed(2),
		Category:  string(r.Category),
		Filename:  r.Filename,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// --- Uploads ---

type uploadResponse struct {
	Filename string `json:"filename"`
}
