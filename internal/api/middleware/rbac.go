package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/policy"
)

// ErrRoleNotAllowed marks a rejection by the route-level gate. It wraps
// domain.ErrForbidden so it renders as 403.
var ErrRoleNotAllowed = fmt.Errorf("%w: role not allowed", domain.ErrForbidden)

// RBAC is the coarse role gate. It runs after Auth and before any lookup;
// per-resource ownership is checked later by the services.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return domain.ErrUnauthenticated
			}
			if !policy.RoleAllowed(user.Role, allowedRoles...) {
				return ErrRoleNotAllowed
			}
			return next(c)
		}
	}
}
