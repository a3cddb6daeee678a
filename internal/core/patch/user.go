package patch

import (
	"fmt"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/policy"
)

// Credentials is the hashing primitive the resolver needs for password fields.
type Credentials interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

// UserInput is a partial user update; nil means "not submitted".
type UserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// Empty reports whether no field was submitted.
func (in UserInput) Empty() bool {
	return in.Name == nil && in.Email == nil && in.Password == nil && in.Role == nil
}

// UserPatch holds only the user fields that must be written.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *domain.Role
}

// Empty reports whether the patch has nothing to write.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil && p.Role == nil
}

// EmailChanged reports whether the patch moves the user to a new address,
// which requires a uniqueness check against other users.
func (p UserPatch) EmailChanged() bool {
	return p.Email != nil
}

// Apply copies patched fields onto u.
func (p UserPatch) Apply(u *domain.User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
}

// ResolveUser diffs in against current on behalf of actor.
//
// Submitting a role at all requires a manager, even when it equals the
// stored role. Emails are normalized before comparison. Passwords are
// compared through creds and re-hashed when they differ.
func ResolveUser(actor domain.AuthUser, current *domain.User, in UserInput, creds Credentials) (UserPatch, Outcome, error) {
	var p UserPatch

	if in.Role != nil {
		if err := policy.RequireManager(actor); err != nil {
			return UserPatch{}, 0, err
		}
		if *in.Role != current.Role {
			role := *in.Role
			p.Role = &role
		}
	}

	if in.Name != nil && *in.Name != current.Name {
		name := *in.Name
		p.Name = &name
	}

	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if email != domain.NormalizeEmail(current.Email) {
			p.Email = &email
		}
	}

	if in.Password != nil {
		same, err := creds.Verify(*in.Password, current.PasswordHash)
		if err != nil {
			return UserPatch{}, 0, fmt.Errorf("verify password: %w", err)
		}
		if !same {
			hash, err := creds.Hash(*in.Password)
			if err != nil {
				return UserPatch{}, 0, fmt.Errorf("hash password: %w", err)
			}
			p.PasswordHash = &hash
		}
	}

	return p, classify(!in.Empty(), !p.Empty()), nil
}
