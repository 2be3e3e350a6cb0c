package types

import "time"

// Channel is a reminder delivery channel.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelWebPush Channel = "web_push"
)

// DeliveryStatus is the recorded outcome of a delivery attempt.
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// A schedule event as read by the reminder engine. Owned by the CRUD layer,
// read-only here.
type ScheduleEvent struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	CourseCode  *string   `db:"course_code" json:"course_code"`
	CourseTitle *string   `db:"course_title" json:"course_title"`
	Location    *string   `db:"location" json:"location"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Per-user reminder defaults. Created lazily on first read with safe
// defaults (email on, push off, 30 minute lead).
type ReminderPreferences struct {
	ID                   string    `db:"id" json:"id"`
	UserID               string    `db:"user_id" json:"user_id"`
	EmailEnabled         bool      `db:"email_enabled" json:"email_enabled"`
	WebPushEnabled       bool      `db:"web_push_enabled" json:"web_push_enabled"`
	EmailOverride        *string   `db:"email_override" json:"email_override"`
	DefaultMinutesBefore int       `db:"default_minutes_before" json:"default_minutes_before"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// At most one per (user, event). A nil channel flag means "inherit the user
// default"; MinutesBefore always supersedes it.
type EventReminderOverride struct {
	ID             string `db:"id" json:"id"`
	UserID         string `db:"user_id" json:"user_id"`
	EventID        string `db:"event_id" json:"event_id"`
	MinutesBefore  int    `db:"minutes_before" json:"minutes_before"`
	EmailEnabled   *bool  `db:"email_enabled" json:"email_enabled"`
	WebPushEnabled *bool  `db:"web_push_enabled" json:"web_push_enabled"`
}

// A push subscription for one (user, browser endpoint) pair as returned by
// PushSubscription.getKey in the browser.
type PushSubscription struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"p256dh"`
	Auth      string    `db:"auth" json:"auth"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// One row per (event, channel) delivery attempt. The idempotency anchor: a
// 'sent' row for a given (event, channel) means that reminder already went out.
type ReminderNotificationLog struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	EventID   string         `db:"event_id" json:"event_id"`
	Channel   Channel        `db:"channel" json:"channel"`
	Status    DeliveryStatus `db:"status" json:"status"`
	ErrorMsg  *string        `db:"error_msg" json:"error_msg"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// NotificationInfo is what a browser needs to create a push subscription.
type NotificationInfo struct {
	PublicKey string `json:"public_key"`
}

// A user subscription for push notifications
type UserSubscription struct {
	Auth     string `json:"auth" description:"The auth key for the subscription returned by PushSubscription"`
	P256dh   string `json:"p256dh" description:"The p256dh key for the subscription returned by PushSubscription"`
	Endpoint string `json:"endpoint" description:"The endpoint for the subscription returned by PushSubscription"`
}
