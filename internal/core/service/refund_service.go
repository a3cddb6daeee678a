package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
	"github.com/expensehub/refund-api/internal/core/policy"
	"github.com/expensehub/refund-api/internal/core/ports"
)

const minRefundNameLen = 3

type RefundService struct {
	repo    ports.RefundRepository
	users   ports.UserRepository
	idem    ports.IdempotencyStore // optional
	cleaner ports.FileCleaner      // optional
	logger  zerolog.Logger
}

func NewRefundService(repo ports.RefundRepository, users ports.UserRepository, idem ports.IdempotencyStore, cleaner ports.FileCleaner, logger zerolog.Logger) *RefundService {
	return &RefundService{repo: repo, users: users, idem: idem, cleaner: cleaner, logger: logger}
}

// Create stores a refund owned by the acting user. If an idempotency key is
// provided and already seen for this user, the earlier refund is returned
// without side effects.
func (s *RefundService) Create(ctx context.Context, actor domain.AuthUser, in ports.CreateRefundInput) (*ports.CreateRefundResult, error) {
	if err := validateRefundFields(&in.Name, &in.Amount, &in.Category, &in.Filename); err != nil {
		return nil, err
	}

	// Tokens outlive accounts; a deleted user must not own new refunds.
	if _, err := s.users.FindByID(ctx, actor.ID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("load refund owner: %w", err)
	}

	claimed, replay, err := s.claimKey(ctx, actor, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return &ports.CreateRefundResult{Refund: replay, Replayed: true}, nil
	}

	now := time.Now().UTC()
	refund := &domain.Refund{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Amount:    in.Amount,
		Category:  in.Category,
		Filename:  in.Filename,
		UserID:    actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, refund); err != nil {
		s.logger.Error().Err(err).Msg("failed to create refund")
		if claimed {
			if relErr := s.idem.Release(ctx, actor.ID, in.IdempotencyKey); relErr != nil {
				s.logger.Warn().Err(relErr).Str("idempotency_key", in.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if claimed {
		if err := s.idem.Complete(ctx, actor.ID, in.IdempotencyKey, refund.ID); err != nil {
			s.logger.Warn().Err(err).Str("refund_id", refund.ID).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().Str("refund_id", refund.ID).Str("user_id", actor.ID).Str("category", string(refund.Category)).Msg("refund created")
	return &ports.CreateRefundResult{Refund: refund}, nil
}

// claimKey reserves key before the refund is written, so concurrent
// retries cannot both create one. It reports whether the caller now holds
// the key, or the refund an earlier request already created for it.
// Cache failures degrade to a normal create.
func (s *RefundService) claimKey(ctx context.Context, actor domain.AuthUser, key string) (bool, *domain.Refund, error) {
	if key == "" || s.idem == nil {
		return false, nil, nil
	}

	reserved, id, err := s.idem.Reserve(ctx, actor.ID, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency reserve failed, creating anyway")
		return false, nil, nil
	}
	if reserved {
		return true, nil, nil
	}
	if id == "" {
		return false, nil, domain.ErrIdempotencyInFlight
	}

	existing, err := s.repo.FindByID(ctx, id)
	switch {
	case errors.Is(err, domain.ErrRefundNotFound):
		// The earlier refund was deleted; the key is re-bound on completion.
		return true, nil, nil
	case err != nil:
		s.logger.Warn().Err(err).Str("refund_id", id).Msg("idempotent refund lookup failed")
		return false, nil, fmt.Errorf("load idempotent refund: %w", err)
	}

	s.logger.Info().Str("idempotency_key", key).Str("refund_id", existing.ID).Msg("idempotent replay")
	return false, existing, nil
}

// List returns every refund to managers and only owned refunds otherwise.
func (s *RefundService) List(ctx context.Context, actor domain.AuthUser, in ports.ListInput) (*ports.RefundList, error) {
	if err := in.Page.Validate(); err != nil {
		return nil, err
	}

	items, total, err := s.repo.List(ctx, ports.RefundFilter{
		UserID: policy.ListScope(actor),
		Name:   in.Name,
		Page:   in.Page,
	})
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}

	return &ports.RefundList{
		Items:        items,
		TotalRecords: total,
		Page:         in.Page,
		TotalPages:   in.Page.TotalPages(total),
	}, nil
}

func (s *RefundService) Show(ctx context.Context, actor domain.AuthUser, id string) (*domain.Refund, error) {
	refund, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireOwnerOrManager(actor, refund.UserID); err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *RefundService) Update(ctx context.Context, actor domain.AuthUser, id string, in patch.RefundInput) (*ports.RefundUpdateResult, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireOwnerOrManager(actor, current.UserID); err != nil {
		return nil, err
	}
	if err := validateRefundFields(in.Name, in.Amount, in.Category, in.Filename); err != nil {
		return nil, err
	}

	p, outcome := patch.ResolveRefund(current, in)
	if outcome != patch.Changed {
		return &ports.RefundUpdateResult{Refund: current, Outcome: outcome}, nil
	}

	updated, err := s.repo.Update(ctx, id, p, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if p.Filename != nil {
		s.discard(ctx, current.Filename)
	}

	s.logger.Info().Str("refund_id", id).Str("actor_id", actor.ID).Msg("refund updated")
	return &ports.RefundUpdateResult{Refund: updated, Outcome: patch.Changed}, nil
}

func (s *RefundService) Remove(ctx context.Context, actor domain.AuthUser, id string) error {
	refund, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.RequireOwnerOrManager(actor, refund.UserID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.discard(ctx, refund.Filename)
	s.logger.Info().Str("refund_id", id).Str("actor_id", actor.ID).Msg("refund deleted")
	return nil
}

// discard queues filename for removal once no refund references it. Call it
// after the refund that dropped the file has been written. On lookup errors
// the file is kept.
func (s *RefundService) discard(ctx context.Context, filename string) {
	if s.cleaner == nil || filename == "" {
		return
	}
	n, err := s.repo.CountByFilename(ctx, filename)
	if err != nil {
		s.logger.Warn().Err(err).Str("filename", filename).Msg("file reference count failed, keeping file")
		return
	}
	if n > 0 {
		s.logger.Debug().Str("filename", filename).Int64("references", n).Msg("file still referenced, keeping it")
		return
	}
	s.cleaner.Enqueue(filename)
}

// validateRefundFields checks the invariants of every non-nil field.
func validateRefundFields(name *string, amount *decimal.Decimal, category *domain.Category, filename *string) error {
	v := &domain.ValidationError{Fields: map[string]string{}}
	if name != nil && utf8.RuneCountInString(*name) < minRefundNameLen {
		v.Fields["name"] = "name must be at least 3 characters"
	}
	if amount != nil {
		if msg, ok := domain.ValidateAmount(*amount); !ok {
			v.Fields["amount"] = msg
		}
	}
	if category != nil && !category.Valid() {
		v.Fields["category"] = "category must be one of: food others services transport accommodation"
	}
	if filename != nil && *filename == "" {
		v.Fields["filename"] = "filename is required"
	}
	if len(v.Fields) > 0 {
		return v
	}
	return nil
}
