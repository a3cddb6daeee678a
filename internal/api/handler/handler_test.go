package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/expensehub/refund-api/internal/api/middleware"
	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
	"github.com/expensehub/refund-api/internal/core/ports"
)

// newContext builds an echo context with the validator installed and,
// when user is non-nil, an authenticated caller.
func newContext(method, target, body string, user *domain.AuthUser) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		middleware.SetUser(c, *user)
	}
	return c, rec
}

var (
	employee = &domain.AuthUser{ID: "emp-1", Role: domain.RoleEmployee}
	manager  = &domain.AuthUser{ID: "mgr-1", Role: domain.RoleManager}
)

func sampleRefund(owner string) *domain.Refund {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Refund{
		ID:        "rf-1",
		Name:      "Taxi",
		Amount:    decimal.RequireFromString("50"),
		Category:  domain.CategoryFood,
		Filename:  "f.png",
		UserID:    owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type stubSessionService struct {
	loginFn func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubSessionService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

type stubRefundService struct {
	createFn func(ctx context.Context, actor domain.AuthUser, in ports.CreateRefundInput) (*ports.CreateRefundResult, error)
	listFn   func(ctx context.Context, actor domain.AuthUser, in ports.ListInput) (*ports.RefundList, error)
	updateFn func(ctx context.Context, actor domain.AuthUser, id string, in patch.RefundInput) (*ports.RefundUpdateResult, error)
}

func (s *stubRefundService) Create(ctx context.Context, actor domain.AuthUser, in ports.CreateRefundInput) (*ports.CreateRefundResult, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubRefundService) List(ctx context.Context, actor domain.AuthUser, in ports.ListInput) (*ports.RefundList, error) {
	return s.listFn(ctx, actor, in)
}

func (s *stubRefundService) Show(_ context.Context, _ domain.AuthUser, _ string) (*domain.Refund, error) {
	return nil, domain.ErrRefundNotFound
}

func (s *stubRefundService) Update(ctx context.Context, actor domain.AuthUser, id string, in patch.RefundInput) (*ports.RefundUpdateResult, error) {
	return s.updateFn(ctx, actor, id, in)
}

func (s *stubRefundService) Remove(_ context.Context, _ domain.AuthUser, _ string) error {
	return nil
}

type stubUploadService struct {
	got ports.UploadInput
	err error
}

func (s *stubUploadService) Upload(_ context.Context, in ports.UploadInput) (string, error) {
	s.got = in
	if s.err != nil {
		return "", s.err
	}
	return "stored-" + in.OriginalName, nil
}
