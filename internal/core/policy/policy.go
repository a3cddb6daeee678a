// Package policy decides whether an authenticated actor may act on a target
// resource. Every function is pure: no I/O, no logging.
//
// Two layers exist. RoleAllowed backs the route-level role gate that runs
// before any lookup. The Require* checks run inside services once the target
// record (and therefore its owner) is known.
package policy

import "github.com/expensehub/refund-api/internal/core/domain"

// RequireAuthenticated returns the actor or ErrUnauthenticated when absent.
func RequireAuthenticated(actor *domain.AuthUser) (domain.AuthUser, error) {
	if actor == nil || actor.ID == "" {
		return domain.AuthUser{}, domain.ErrUnauthenticated
	}
	return *actor, nil
}

// RequireSelfOrManager allows managers and the user acting on their own account.
func RequireSelfOrManager(actor domain.AuthUser, targetUserID string) error {
	if actor.IsManager() || actor.ID == targetUserID {
		return nil
	}
	return domain.ErrForbidden
}

// RequireOwnerOrManager allows managers and the owner of the resource.
func RequireOwnerOrManager(actor domain.AuthUser, ownerID string) error {
	if actor.IsManager() || actor.ID == ownerID {
		return nil
	}
	return domain.ErrForbidden
}

// RequireManager allows managers only.
func RequireManager(actor domain.AuthUser) error {
	if actor.IsManager() {
		return nil
	}
	return domain.ErrForbidden
}

// RoleAllowed reports whether role appears in allowed.
func RoleAllowed(role domain.Role, allowed ...domain.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// ListScope returns the owner filter a list query must apply: empty for
// managers (everything), the actor's own id otherwise.
func ListScope(actor domain.AuthUser) string {
	if actor.IsManager() {
		return ""
	}
	return actor.ID
}
