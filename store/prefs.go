package store

import (
	"context"
	"fmt"

	"studytraka/types"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const prefCols = `id, user_id, email_enabled, web_push_enabled, email_override, default_minutes_before, created_at, updated_at`

const overrideCols = `id, user_id, event_id, minutes_before, email_enabled, web_push_enabled`

// Prefs is the preference-storage collaborator.
type Prefs struct {
	Pool *pgxpool.Pool
}

// GetOrCreate lazily creates the defaults row (email on, push off, 30 minute
// lead) on first read. The ON CONFLICT guard makes a concurrent first read
// converge on a single row.
func (s *Prefs) GetOrCreate(ctx context.Context, userID string) (*types.ReminderPreferences, error) {
	var prefs types.ReminderPreferences

	err := pgxscan.Get(ctx, s.Pool, &prefs, "SELECT "+prefCols+" FROM reminder_preferences WHERE user_id = $1", userID)

	if err == nil {
		return &prefs, nil
	}

	if !pgxscan.NotFound(err) {
		return nil, fmt.Errorf("error finding reminder preferences: %w", err)
	}

	_, err = s.Pool.Exec(
		ctx,
		"INSERT INTO reminder_preferences (id, user_id, email_enabled, web_push_enabled, default_minutes_before) VALUES ($1, $2, TRUE, FALSE, 30) ON CONFLICT (user_id) DO NOTHING",
		uuid.NewString(),
		userID,
	)

	if err != nil {
		return nil, fmt.Errorf("error creating default reminder preferences: %w", err)
	}

	err = pgxscan.Get(ctx, s.Pool, &prefs, "SELECT "+prefCols+" FROM reminder_preferences WHERE user_id = $1", userID)

	if err != nil {
		return nil, fmt.Errorf("error re-reading reminder preferences: %w", err)
	}

	return &prefs, nil
}

// Override returns (nil, nil) when the user has no override for the event.
func (s *Prefs) Override(ctx context.Context, userID, eventID string) (*types.EventReminderOverride, error) {
	var override types.EventReminderOverride

	err := pgxscan.Get(ctx, s.Pool, &override, "SELECT "+overrideCols+" FROM event_reminder_overrides WHERE user_id = $1 AND event_id = $2", userID, eventID)

	if pgxscan.NotFound(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("error finding event reminder override: %w", err)
	}

	return &override, nil
}
