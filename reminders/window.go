package reminders

import "time"

// ReminderInstant is the moment a reminder for the event should go out.
func ReminderInstant(start time.Time, minutesBefore int) time.Time {
	return start.Add(-time.Duration(minutesBefore) * time.Minute)
}

// Due reports whether now falls inside the firing window centred on the
// reminder instant: |now - (start - lead)| <= window/2. The tolerance absorbs
// trigger jitter without the matcher having to know the previous invocation's
// timestamp. A window that has already elapsed never matches again; there is
// no catch-up delivery.
func Due(now, start time.Time, minutesBefore int, window time.Duration) bool {
	diff := now.Sub(ReminderInstant(start, minutesBefore))

	if diff < 0 {
		diff = -diff
	}

	return diff <= window/2
}
