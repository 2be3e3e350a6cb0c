// Package subscription models the browser-side push subscription lifecycle as
// an explicit state machine. Platform capability and permission state are
// polled through the Platform interface, never read as ambient globals, so
// the transitions stay testable.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Status is the registry's user-visible state.
type Status string

const (
	// The platform lacks service workers or a push manager. Terminal for the
	// session.
	StatusUnsupported Status = "unsupported"

	// The user blocked notifications at the platform level
	StatusDenied Status = "denied"

	// Undecided: subscribing is possible
	StatusDefault Status = "default"

	// A subscribe call is in flight
	StatusLoading Status = "loading"

	// An active subscription exists
	StatusGranted Status = "granted"
)

// Message is the actionable explanation surfaced to settings screens for the
// two states the user can do something about.
func (s Status) Message() string {
	switch s {
	case StatusDenied:
		return "Notifications are blocked. Allow them for this site in your browser settings, then try again."
	case StatusUnsupported:
		return "This browser does not support push notifications."
	default:
		return ""
	}
}

// Permission is the platform's notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// PlatformSubscription is the endpoint plus the two keys the platform's push
// service issued for this browser.
type PlatformSubscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Platform is the browser capability surface.
type Platform interface {
	// Supported reports whether service workers and a push manager exist
	Supported() bool

	// Permission polls the current notification permission
	Permission() Permission

	// Current returns the existing platform subscription, nil when there is
	// none
	Current() (*PlatformSubscription, error)

	// Subscribe prompts for permission if needed and creates a subscription
	// against the application server key
	Subscribe(applicationServerKey string) (*PlatformSubscription, error)

	// Unsubscribe drops the platform-level subscription object
	Unsubscribe() error
}

// Store persists subscriptions through the preference-storage contract.
type Store interface {
	Save(ctx context.Context, sub PlatformSubscription) error
	Delete(ctx context.Context, endpoint string) error
}

var (
	ErrUnsupported      = errors.New("push notifications are not supported on this platform")
	ErrPermissionDenied = errors.New("notification permission was denied")
	ErrNotConfigured    = errors.New("push notifications are not configured (missing public key)")
)

type Registry struct {
	platform  Platform
	store     Store
	publicKey string

	mu      sync.Mutex
	status  Status
	current *PlatformSubscription
}

// NewRegistry inspects the platform once and settles the initial state: a
// prior subscription means granted, otherwise the platform's permission state
// is reflected as default or denied.
func NewRegistry(platform Platform, store Store, publicKey string) *Registry {
	r := &Registry{
		platform:  platform,
		store:     store,
		publicKey: publicKey,
		status:    StatusDefault,
	}

	if !platform.Supported() {
		r.status = StatusUnsupported
		return r
	}

	existing, err := platform.Current()

	if err != nil {
		// Mirror a failed service worker registration: the session cannot
		// subscribe
		r.status = StatusUnsupported
		return r
	}

	if existing != nil {
		r.status = StatusGranted
		r.current = existing
		return r
	}

	if platform.Permission() == PermissionDenied {
		r.status = StatusDenied
	}

	return r
}

func (r *Registry) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Subscribe is only valid from the default state; calling it while granted is
// a no-op, so double-clicks cost nothing. On failure the state falls back to
// denied when the platform now reports denial, or default when a retry could
// succeed, and the root cause is surfaced.
func (r *Registry) Subscribe(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.status {
	case StatusGranted, StatusLoading:
		return nil
	case StatusUnsupported:
		return ErrUnsupported
	case StatusDenied:
		return ErrPermissionDenied
	}

	if r.publicKey == "" {
		return ErrNotConfigured
	}

	r.status = StatusLoading

	sub, err := r.platform.Subscribe(r.publicKey)

	if err != nil {
		return r.settleFailure(fmt.Errorf("error creating push subscription: %w", err))
	}

	if sub.P256dh == "" || sub.Auth == "" {
		r.platform.Unsubscribe()
		return r.settleFailure(errors.New("push subscription keys are missing"))
	}

	if err := r.store.Save(ctx, *sub); err != nil {
		// The platform object exists but the backend never saw it; drop it so
		// a retry starts clean
		r.platform.Unsubscribe()
		return r.settleFailure(fmt.Errorf("error saving push subscription: %w", err))
	}

	r.status = StatusGranted
	r.current = sub

	return nil
}

// settleFailure resolves the post-failure state under the held lock.
func (r *Registry) settleFailure(cause error) error {
	if r.platform.Permission() == PermissionDenied {
		r.status = StatusDenied
		return fmt.Errorf("%w: %w", ErrPermissionDenied, cause)
	}

	r.status = StatusDefault

	return cause
}

// Unsubscribe deletes the persisted row and the platform subscription, in
// that order, then returns to the default state. A second call is a no-op.
func (r *Registry) Unsubscribe(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusGranted || r.current == nil {
		return nil
	}

	if err := r.store.Delete(ctx, r.current.Endpoint); err != nil {
		return fmt.Errorf("error deleting push subscription: %w", err)
	}

	if err := r.platform.Unsubscribe(); err != nil {
		return fmt.Errorf("error removing platform subscription: %w", err)
	}

	r.current = nil
	r.status = StatusDefault

	return nil
}
