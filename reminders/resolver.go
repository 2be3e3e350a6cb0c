package reminders

import (
	"context"
	"fmt"

	"studytraka/types"
)

// Effective is the merged reminder configuration for one (user, event) pair.
type Effective struct {
	MinutesBefore  int
	EmailEnabled   bool
	WebPushEnabled bool

	// EmailOverride is the preference-level recipient override. It is not
	// overridable per event.
	EmailOverride *string
}

// Enabled reports whether any channel is on. When false the event is skipped
// entirely and no ledger row is written.
func (e Effective) Enabled() bool {
	return e.EmailEnabled || e.WebPushEnabled
}

// Merge applies the per-event override on top of the user defaults. The
// override lead time always wins; a channel flag wins only when non-nil
// ("inherit" is expressed as nil, never as false).
func Merge(prefs *types.ReminderPreferences, override *types.EventReminderOverride) Effective {
	eff := Effective{
		MinutesBefore:  prefs.DefaultMinutesBefore,
		EmailEnabled:   prefs.EmailEnabled,
		WebPushEnabled: prefs.WebPushEnabled,
		EmailOverride:  prefs.EmailOverride,
	}

	if override == nil {
		return eff
	}

	eff.MinutesBefore = override.MinutesBefore

	if override.EmailEnabled != nil {
		eff.EmailEnabled = *override.EmailEnabled
	}

	if override.WebPushEnabled != nil {
		eff.WebPushEnabled = *override.WebPushEnabled
	}

	return eff
}

// PreferenceStore is the preference-storage collaborator. GetOrCreate must
// lazily create the defaults row (email on, push off, 30 minute lead) on
// first read; Override returns (nil, nil) when no override exists.
type PreferenceStore interface {
	GetOrCreate(ctx context.Context, userID string) (*types.ReminderPreferences, error)
	Override(ctx context.Context, userID, eventID string) (*types.EventReminderOverride, error)
}

// Resolver produces the effective (lead time, channel set) for one event.
// Pure function of current stored state, no side effects beyond the lazy
// defaults row.
type Resolver struct {
	Prefs PreferenceStore
}

func (r *Resolver) Resolve(ctx context.Context, userID, eventID string) (Effective, error) {
	prefs, err := r.Prefs.GetOrCreate(ctx, userID)

	if err != nil {
		return Effective{}, fmt.Errorf("error loading reminder preferences: %w", err)
	}

	override, err := r.Prefs.Override(ctx, userID, eventID)

	if err != nil {
		return Effective{}, fmt.Errorf("error loading event reminder override: %w", err)
	}

	return Merge(prefs, override), nil
}
