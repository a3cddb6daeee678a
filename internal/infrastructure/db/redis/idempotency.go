package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/expensehub/refund-api/internal/core/ports"
)

const (
	idempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can block its key.
	pendingTTL = time.Minute
	pending    = "pending"
)

// IdempotencyStore maps (user, Idempotency-Key) to the refund it created.
// Key format: idem:<user_id>:<key>. A reserved key holds "pending" until
// the refund id replaces it.
type IdempotencyStore struct {
	client     *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL, pendingTTL: pendingTTL}
}

// Reserve claims the key with SETNX. A key that expires between the SETNX
// and the GET is claimed again once.
func (s *IdempotencyStore) Reserve(ctx context.Context, userID, key string) (bool, string, error) {
	k := idempotencyKey(userID, key)
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pending, s.pendingTTL).Result()
		if err != nil {
			return false, "", fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return true, "", nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return false, "", fmt.Errorf("idempotency lookup: %w", err)
		}
		if val == pending {
			return false, "", nil
		}
		return false, val, nil
	}
	return false, "", nil
}

// Complete binds the key to the created refund for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, userID, key, refundID string) error {
	if err := s.client.Set(ctx, idempotencyKey(userID, key), refundID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release frees a reservation whose creation failed so a retry can proceed.
func (s *IdempotencyStore) Release(ctx context.Context, userID, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func idempotencyKey(userID, key string) string {
	return fmt.Sprintf("idem:%s:%s", userID, key)
}
