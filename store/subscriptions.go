package store

import (
	"context"
	"fmt"

	"studytraka/types"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const subscriptionCols = `id, user_id, endpoint, p256dh, auth, created_at`

// Subscriptions persists push subscriptions keyed by (user, endpoint).
type Subscriptions struct {
	Pool *pgxpool.Pool
}

func (s *Subscriptions) ForUser(ctx context.Context, userID string) ([]types.PushSubscription, error) {
	rows, err := s.Pool.Query(ctx, "SELECT "+subscriptionCols+" FROM push_subscriptions WHERE user_id = $1", userID)

	if err != nil {
		return nil, fmt.Errorf("error finding push subscriptions: %w", err)
	}

	var subs []types.PushSubscription

	err = pgxscan.ScanAll(&subs, rows)

	if err != nil {
		return nil, fmt.Errorf("error decoding push subscriptions: %w", err)
	}

	return subs, nil
}

// Upsert refreshes the keys when a browser re-subscribes to an endpoint it
// already registered.
func (s *Subscriptions) Upsert(ctx context.Context, userID string, sub types.UserSubscription) error {
	_, err := s.Pool.Exec(
		ctx,
		"INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (user_id, endpoint) DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth",
		uuid.NewString(),
		userID,
		sub.Endpoint,
		sub.P256dh,
		sub.Auth,
	)

	if err != nil {
		return fmt.Errorf("error upserting push subscription: %w", err)
	}

	return nil
}

// Delete removes one of the user's subscriptions (user-initiated
// unsubscribe).
func (s *Subscriptions) Delete(ctx context.Context, userID, endpoint string) error {
	_, err := s.Pool.Exec(ctx, "DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2", userID, endpoint)

	if err != nil {
		return fmt.Errorf("error deleting push subscription: %w", err)
	}

	return nil
}

// DeleteEndpoint retires an endpoint the push service reported gone,
// whichever user it belonged to.
func (s *Subscriptions) DeleteEndpoint(ctx context.Context, endpoint string) error {
	_, err := s.Pool.Exec(ctx, "DELETE FROM push_subscriptions WHERE endpoint = $1", endpoint)

	if err != nil {
		return fmt.Errorf("error deleting expired push subscription: %w", err)
	}

	return nil
}
