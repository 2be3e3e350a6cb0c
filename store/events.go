// Package store implements the reminder engine's collaborator interfaces on
// Postgres. SQL stays close to the code that needs it; rows are scanned with
// scany.
package store

import (
	"context"
	"fmt"
	"time"

	"studytraka/types"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventCols = `e.id, e.user_id, e.title, e.start_time, e.end_time, c.code AS course_code, c.title AS course_title, e.location, e.created_at`

// Events reads schedule events. This core never writes them; editing is the
// CRUD layer's job.
type Events struct {
	Pool *pgxpool.Pool
}

func (s *Events) Upcoming(ctx context.Context, from, to time.Time) ([]types.ScheduleEvent, error) {
	rows, err := s.Pool.Query(
		ctx,
		"SELECT "+eventCols+" FROM schedule_events e LEFT JOIN courses c ON c.id = e.course_id WHERE e.start_time >= $1 AND e.start_time <= $2 ORDER BY e.start_time",
		from,
		to,
	)

	if err != nil {
		return nil, fmt.Errorf("error finding upcoming events: %w", err)
	}

	var events []types.ScheduleEvent

	err = pgxscan.ScanAll(&events, rows)

	if err != nil {
		return nil, fmt.Errorf("error decoding events: %w", err)
	}

	return events, nil
}
