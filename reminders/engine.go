// Package reminders decides, for every scheduled event a user owns, whether a
// reminder is due right now, through which channels it must be sent, and how
// to deliver it exactly once per channel even though the scheduler fires
// repeatedly, channels fail independently and push endpoints expire without
// warning.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"studytraka/mailer"
	"studytraka/types"
	"studytraka/webpush"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// errSkipDelivery marks a channel that had nothing to deliver to (no
// recipient address, no stored subscriptions). Not an attempt, so no ledger
// row is written.
var errSkipDelivery = errors.New("nothing to deliver to")

// How many events are processed concurrently per invocation. Events are
// independent of each other, the cap only bounds connection pressure.
const eventConcurrency = 8

// EventSource is read access to events whose start time falls inside the
// lookahead window, with the course label joined in for message rendering.
type EventSource interface {
	Upcoming(ctx context.Context, from, to time.Time) ([]types.ScheduleEvent, error)
}

// SubscriptionStore is the subscription-persistence collaborator.
type SubscriptionStore interface {
	ForUser(ctx context.Context, userID string) ([]types.PushSubscription, error)

	// DeleteEndpoint retires a subscription the push service reported gone
	DeleteEndpoint(ctx context.Context, endpoint string) error
}

// UserDirectory resolves a user's account email. Returns "" when the user has
// no address on file.
type UserDirectory interface {
	Email(ctx context.Context, userID string) (string, error)
}

// PushSender is the push transport. Implemented by *webpush.Client.
type PushSender interface {
	Send(ctx context.Context, sub webpush.Subscription, payload []byte) error
}

// Config is the engine's slice of the process configuration, fixed at
// construction time.
type Config struct {
	// Lookahead bounds how far ahead events are pulled per invocation
	Lookahead time.Duration

	// Window is the firing window width, intended to match the trigger period
	Window time.Duration

	// AppURL is the public frontend URL used for links in messages
	AppURL string
}

// Engine is the scheduler entry point's core: one Run per trigger invocation.
type Engine struct {
	Events EventSource
	Prefs  PreferenceStore
	Users  UserDirectory
	Subs   SubscriptionStore
	Ledger Ledger
	Mailer mailer.Mailer
	Push   PushSender
	Logger *zap.SugaredLogger
	Config Config
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
	outcomeFailed
)

// Run processes every event due in the current invocation and reports
// aggregate counts. A failure on one event never aborts the others; the error
// return is reserved for not being able to read the event source at all.
func (e *Engine) Run(ctx context.Context, now time.Time) (types.ReminderStats, error) {
	var stats types.ReminderStats

	events, err := e.Events.Upcoming(ctx, now, now.Add(e.Config.Lookahead))

	if err != nil {
		return stats, fmt.Errorf("error finding upcoming events: %w", err)
	}

	var mu sync.Mutex

	g := errgroup.Group{}
	g.SetLimit(eventConcurrency)

	for i := range events {
		ev := events[i]

		g.Go(func() error {
			s := e.processEvent(ctx, now, ev)

			mu.Lock()
			stats.Sent += s.Sent
			stats.Failed += s.Failed
			stats.Skipped += s.Skipped
			mu.Unlock()

			return nil
		})
	}

	g.Wait()

	return stats, nil
}

func (e *Engine) processEvent(ctx context.Context, now time.Time, ev types.ScheduleEvent) types.ReminderStats {
	var stats types.ReminderStats

	resolver := Resolver{Prefs: e.Prefs}
	eff, err := resolver.Resolve(ctx, ev.UserID, ev.ID)

	if err != nil {
		e.Logger.Errorw("Error resolving reminder preferences", zap.Error(err), "eventId", ev.ID, "userId", ev.UserID)
		stats.Skipped++
		return stats
	}

	if !eff.Enabled() {
		stats.Skipped++
		return stats
	}

	if !Due(now, ev.StartTime, eff.MinutesBefore, e.Config.Window) {
		stats.Skipped++
		return stats
	}

	msg, err := RenderMessage(ev, eff.MinutesBefore, e.Config.AppURL)

	if err != nil {
		e.Logger.Errorw("Error rendering reminder message", zap.Error(err), "eventId", ev.ID)
		stats.Skipped++
		return stats
	}

	// The two channels are independent: run both, a failure in one must not
	// abort the other.
	type channelResult struct {
		channel types.Channel
		result  outcome
	}

	results := make(chan channelResult, 2)

	var wg sync.WaitGroup

	if eff.EmailEnabled {
		wg.Add(1)

		go func() {
			defer wg.Done()
			results <- channelResult{types.ChannelEmail, e.deliver(ctx, ev, types.ChannelEmail, func(ctx context.Context) error {
				return e.sendEmail(ctx, ev, eff, msg)
			})}
		}()
	}

	if eff.WebPushEnabled {
		wg.Add(1)

		go func() {
			defer wg.Done()
			results <- channelResult{types.ChannelWebPush, e.deliver(ctx, ev, types.ChannelWebPush, func(ctx context.Context) error {
				return e.sendPush(ctx, ev, msg)
			})}
		}()
	}

	wg.Wait()
	close(results)

	for r := range results {
		switch r.result {
		case outcomeSent:
			stats.Sent++
		case outcomeFailed:
			stats.Failed++
		default:
			stats.Skipped++
		}
	}

	return stats
}

// deliver runs one channel send behind the ledger gate and records the
// attempt. The datastore's unique 'sent' constraint makes overlapping
// invocations converge on a single recorded success.
func (e *Engine) deliver(ctx context.Context, ev types.ScheduleEvent, channel types.Channel, send func(context.Context) error) outcome {
	alreadySent, err := e.Ledger.AlreadySent(ctx, ev.ID, channel)

	if err != nil {
		// If the gate cannot be read, do not send: a duplicate reminder is
		// worse than a late one, and the next invocation will retry.
		e.Logger.Errorw("Error checking delivery ledger", zap.Error(err), "eventId", ev.ID, "channel", channel)
		return outcomeSkipped
	}

	if alreadySent {
		return outcomeSkipped
	}

	sendErr := send(ctx)

	if errors.Is(sendErr, errSkipDelivery) {
		return outcomeSkipped
	}

	entry := LedgerEntry{
		UserID:  ev.UserID,
		EventID: ev.ID,
		Channel: channel,
		Status:  types.DeliveryStatusSent,
	}

	if sendErr != nil {
		entry.Status = types.DeliveryStatusFailed
		entry.ErrorMsg = sendErr.Error()
		e.Logger.Errorw("Reminder delivery failed", zap.Error(sendErr), "eventId", ev.ID, "channel", channel)
	}

	err = e.Ledger.Record(ctx, entry)

	if errors.Is(err, ErrDuplicateSend) {
		// An overlapping invocation beat us to it
		return outcomeSkipped
	}

	if err != nil {
		e.Logger.Errorw("Error recording delivery attempt", zap.Error(err), "eventId", ev.ID, "channel", channel)
	}

	if sendErr != nil {
		return outcomeFailed
	}

	return outcomeSent
}

func (e *Engine) sendEmail(ctx context.Context, ev types.ScheduleEvent, eff Effective, msg Message) error {
	var to string

	if eff.EmailOverride != nil && *eff.EmailOverride != "" {
		to = *eff.EmailOverride
	} else {
		addr, err := e.Users.Email(ctx, ev.UserID)

		if err != nil {
			return fmt.Errorf("error resolving recipient address: %w", err)
		}

		to = addr
	}

	if to == "" {
		return errSkipDelivery
	}

	return e.Mailer.Send(ctx, mailer.Email{
		To:      to,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
}

// sendPush fans the payload out to every subscribed browser. Delivery is one
// logical attempt per event: endpoints fail independently, gone endpoints are
// retired on the spot, and the attempt only fails if a live endpoint rejected
// the message.
func (e *Engine) sendPush(ctx context.Context, ev types.ScheduleEvent, msg Message) error {
	subs, err := e.Subs.ForUser(ctx, ev.UserID)

	if err != nil {
		return fmt.Errorf("error finding push subscriptions: %w", err)
	}

	if len(subs) == 0 {
		return errSkipDelivery
	}

	var (
		mu   sync.Mutex
		merr error
		wg   sync.WaitGroup
	)

	for i := range subs {
		sub := subs[i]

		wg.Add(1)

		go func() {
			defer wg.Done()

			err := e.Push.Send(ctx, webpush.Subscription{
				Endpoint: sub.Endpoint,
				Keys: webpush.Keys{
					Auth:   sub.Auth,
					P256dh: sub.P256dh,
				},
			}, msg.Push)

			if errors.Is(err, webpush.ErrSubscriptionGone) {
				e.Logger.Infow("Retiring expired push subscription", "userId", ev.UserID, "endpoint", sub.Endpoint)

				if derr := e.Subs.DeleteEndpoint(ctx, sub.Endpoint); derr != nil {
					e.Logger.Errorw("Error deleting expired push subscription", zap.Error(derr), "endpoint", sub.Endpoint)
				}

				return
			}

			if err != nil {
				mu.Lock()
				merr = multierr.Append(merr, err)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	return merr
}
