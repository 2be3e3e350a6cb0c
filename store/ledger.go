package store

import (
	"context"
	"errors"
	"fmt"

	"studytraka/reminders"
	"studytraka/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Matches the partial unique index on (event_id, channel) WHERE status = 'sent'
const uniqueViolation = "23505"

// Ledger is the delivery dedup store. The partial unique index in the schema
// is what actually enforces at-most-one success; the code only interprets it.
type Ledger struct {
	Pool *pgxpool.Pool
}

func (s *Ledger) AlreadySent(ctx context.Context, eventID string, channel types.Channel) (bool, error) {
	var count int64

	err := s.Pool.QueryRow(
		ctx,
		"SELECT COUNT(*) FROM reminder_notifications_log WHERE event_id = $1 AND channel = $2 AND status = 'sent'",
		eventID,
		string(channel),
	).Scan(&count)

	if err != nil {
		return false, fmt.Errorf("error checking delivery ledger: %w", err)
	}

	return count > 0, nil
}

func (s *Ledger) Record(ctx context.Context, entry reminders.LedgerEntry) error {
	var errMsg *string

	if entry.ErrorMsg != "" {
		errMsg = &entry.ErrorMsg
	}

	_, err := s.Pool.Exec(
		ctx,
		"INSERT INTO reminder_notifications_log (id, user_id, event_id, channel, status, error_msg) VALUES ($1, $2, $3, $4, $5, $6)",
		uuid.NewString(),
		entry.UserID,
		entry.EventID,
		string(entry.Channel),
		string(entry.Status),
		errMsg,
	)

	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return reminders.ErrDuplicateSend
	}

	if err != nil {
		return fmt.Errorf("error recording delivery attempt: %w", err)
	}

	return nil
}
