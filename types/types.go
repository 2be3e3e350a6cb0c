package types

// This represents a error on any API endpoint
type ApiError struct {
	Context map[string]string `json:"context,omitempty" description:"Any extra context for the error if applicable"`
	Message string            `json:"message" description:"The error message"`
}

// ReminderStats is the aggregate result of one scheduler invocation.
type ReminderStats struct {
	Sent    int `json:"sent" description:"Number of deliveries recorded as sent"`
	Failed  int `json:"failed" description:"Number of deliveries recorded as failed"`
	Skipped int `json:"skipped" description:"Number of (event, channel) pairs skipped (not due, disabled or already sent)"`
}
