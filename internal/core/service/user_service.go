package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
	"github.com/expensehub/refund-api/internal/core/policy"
	"github.com/expensehub/refund-api/internal/core/ports"
)

type UserService struct {
	users   ports.UserRepository
	refunds ports.RefundRepository
	hasher  ports.PasswordHasher
	logger  zerolog.Logger
}

func NewUserService(users ports.UserRepository, refunds ports.RefundRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *UserService {
	return &UserService{users: users, refunds: refunds, hasher: hasher, logger: logger}
}

// Register creates an account. Anyone may register as an employee; only an
// authenticated manager may create another manager.
func (s *UserService) Register(ctx context.Context, actor *domain.AuthUser, in ports.RegisterInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleEmployee
	}
	if !role.Valid() {
		return nil, domain.NewValidationError("role", "role must be one of: employee manager")
	}
	if role == domain.RoleManager {
		if actor == nil {
			return nil, domain.ErrForbidden
		}
		if err := policy.RequireManager(*actor); err != nil {
			return nil, err
		}
	}

	email := domain.NormalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user registered")
	return user, nil
}

// List returns every user to managers and only the actor's own account otherwise.
func (s *UserService) List(ctx context.Context, actor domain.AuthUser, in ports.ListInput) (*ports.UserList, error) {
	if err := in.Page.Validate(); err != nil {
		return nil, err
	}

	items, total, err := s.users.List(ctx, ports.UserFilter{
		ID:   policy.ListScope(actor),
		Name: in.Name,
		Page: in.Page,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &ports.UserList{
		Items:        items,
		TotalRecords: total,
		Page:         in.Page,
		TotalPages:   in.Page.TotalPages(total),
	}, nil
}

func (s *UserService) Show(ctx context.Context, actor domain.AuthUser, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireSelfOrManager(actor, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// Update writes only the fields that actually changed.
func (s *UserService) Update(ctx context.Context, actor domain.AuthUser, id string, in patch.UserInput) (*ports.UserUpdateResult, error) {
	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireSelfOrManager(actor, current.ID); err != nil {
		return nil, err
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, domain.NewValidationError("role", "role must be one of: employee manager")
	}

	p, outcome, err := patch.ResolveUser(actor, current, in, s.hasher)
	if err != nil {
		return nil, err
	}
	if outcome != patch.Changed {
		s.logger.Debug().Str("user_id", id).Str("outcome", outcome.String()).Msg("user update skipped")
		return &ports.UserUpdateResult{User: current, Outcome: outcome}, nil
	}

	if p.EmailChanged() {
		if err := s.ensureEmailFree(ctx, *p.Email, current.ID); err != nil {
			return nil, err
		}
	}

	updated, err := s.users.Update(ctx, id, p, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", id).Str("actor_id", actor.ID).Msg("user updated")
	return &ports.UserUpdateResult{User: updated, Outcome: patch.Changed}, nil
}

// Remove deletes a user that owns no refunds.
func (s *UserService) Remove(ctx context.Context, actor domain.AuthUser, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.RequireSelfOrManager(actor, user.ID); err != nil {
		return err
	}

	owned, err := s.refunds.CountByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("count refunds: %w", err)
	}
	if owned > 0 {
		return domain.ErrUserHasRefunds
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", id).Str("actor_id", actor.ID).Msg("user deleted")
	return nil
}

// ensureEmailFree fails with ErrEmailTaken when another user holds email.
func (s *UserService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	other, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check email: %w", err)
	case other.ID != selfID:
		return domain.ErrEmailTaken
	default:
		return nil
	}
}

// SeedManager creates the bootstrap manager account unless the email is
// already registered. It reports whether a user was created.
func (s *UserService) SeedManager(ctx context.Context, name, email, password string) (bool, error) {
	_, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}

	system := &domain.AuthUser{ID: "system", Role: domain.RoleManager}
	if _, err := s.Register(ctx, system, ports.RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     domain.RoleManager,
	}); err != nil {
		return false, fmt.Errorf("seed manager: %w", err)
	}
	return true, nil
}
