// Package trigger is the scheduler entry point: an HTTP endpoint an external
// cron invokes on a fixed period, authenticated by a shared bearer secret.
package trigger

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"studytraka/constants"
	"studytraka/types"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Runner is the reminder engine surface the trigger needs.
type Runner interface {
	Run(ctx context.Context, now time.Time) (types.ReminderStats, error)
}

type Router struct {
	Secret string
	Engine Runner
	Logger *zap.SugaredLogger
}

func (router Router) Tag() (string, string) {
	return "Trigger", "The scheduler entry point for reminder delivery"
}

func (router Router) Routes(r chi.Router) {
	r.Post("/reminders/send", router.sendDueReminders)
}

// authorized compares the bearer token in constant time; any other caller is
// rejected before any processing begins.
func (router Router) authorized(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	expected := "Bearer " + router.Secret

	return subtle.ConstantTimeCompare([]byte(auth), []byte(expected)) == 1
}

func (router Router) sendDueReminders(w http.ResponseWriter, r *http.Request) {
	if !router.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(constants.Unauthorized))
		return
	}

	stats, err := router.Engine.Run(r.Context(), time.Now())

	if err != nil {
		router.Logger.Errorw("Reminder run failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(constants.InternalError))
		return
	}

	router.Logger.Infow("Reminder run finished", "sent", stats.Sent, "failed", stats.Failed, "skipped", stats.Skipped)

	body, err := json.Marshal(stats)

	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(constants.InternalError))
		return
	}

	w.Write(body)
}
