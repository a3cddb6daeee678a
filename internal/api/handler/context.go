package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/expensehub/refund-api/internal/api/middleware"
	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/policy"
)

// actor returns the authenticated user injected by middleware.Auth, or
// ErrUnauthenticated when the route was reached without one.
func actor(c echo.Context) (domain.AuthUser, error) {
	return policy.RequireAuthenticated(middleware.CurrentUser(c))
}

// bindAndValidate decodes the body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

// listQuery reads name/page/perPage, keeping defaults for absent params.
func listQuery(c echo.Context) (string, domain.Page, error) {
	var name string
	p := domain.Page{Page: domain.DefaultPage, PerPage: domain.DefaultPerPage}

	err := echo.QueryParamsBinder(c).
		String("name", &name).
		Int("page", &p.Page).
		Int("perPage", &p.PerPage).
		BindError()
	if err != nil {
		return "", domain.Page{}, err
	}
	return name, p, nil
}
