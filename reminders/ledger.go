package reminders

import (
	"context"
	"errors"

	"studytraka/types"
)

// ErrDuplicateSend is returned by Ledger.Record when a 'sent' row already
// exists for the (event, channel) pair. The datastore's uniqueness guarantee
// turns the check-then-act race between overlapping invocations into
// "someone else already sent it".
var ErrDuplicateSend = errors.New("a sent reminder is already recorded for this event and channel")

// LedgerEntry is one delivery attempt, success or failure.
type LedgerEntry struct {
	UserID   string
	EventID  string
	Channel  types.Channel
	Status   types.DeliveryStatus
	ErrorMsg string
}

// Ledger is the dedup store for reminder deliveries. One row is written per
// (event, channel) attempt; a 'sent' row is the at-most-once anchor.
type Ledger interface {
	// AlreadySent is the cheap guard consulted before attempting a send.
	AlreadySent(ctx context.Context, eventID string, channel types.Channel) (bool, error)

	// Record appends one attempt row. Must return ErrDuplicateSend when the
	// entry is 'sent' and a 'sent' row already exists for the pair.
	Record(ctx context.Context, entry LedgerEntry) error
}
