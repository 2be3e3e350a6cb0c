package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Users resolves account emails for reminder delivery.
type Users struct {
	Pool *pgxpool.Pool
}

// Email returns "" when the user has no address on file; the email channel
// then skips without writing a ledger row.
func (s *Users) Email(ctx context.Context, userID string) (string, error) {
	var email *string

	err := s.Pool.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", userID).Scan(&email)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("error finding user email: %w", err)
	}

	if email == nil {
		return "", nil
	}

	return *email, nil
}
