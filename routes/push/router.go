// Package push exposes the subscription-persistence contract to browsers:
// the VAPID public key they subscribe against, and upsert/delete of the
// resulting subscription rows.
package push

import (
	"context"
	"net/http"

	"studytraka/constants"
	"studytraka/types"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SubscriptionStore is the persistence surface, keyed by (user, endpoint).
type SubscriptionStore interface {
	Upsert(ctx context.Context, userID string, sub types.UserSubscription) error
	Delete(ctx context.Context, userID, endpoint string) error
}

type Router struct {
	PublicKey string
	Subs      SubscriptionStore
	Logger    *zap.SugaredLogger
}

func (router Router) Tag() (string, string) {
	return "Push", "Push subscription persistence for browsers"
}

func (router Router) Routes(r chi.Router) {
	r.Get("/push/info", router.getNotificationInfo)
	r.Post("/users/{id}/push/subscriptions", router.createPushSubscription)
	r.Delete("/users/{id}/push/subscriptions", router.deletePushSubscription)
}

// getNotificationInfo returns what a browser needs to create a push
// subscription (the VAPID public key).
func (router Router) getNotificationInfo(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(types.NotificationInfo{PublicKey: router.PublicKey})

	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(constants.InternalError))
		return
	}

	w.Write(body)
}

// createPushSubscription upserts a subscription row. Returns 204 on success.
func (router Router) createPushSubscription(w http.ResponseWriter, r *http.Request) {
	var sub types.UserSubscription

	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(constants.BadRequest))
		return
	}

	if sub.Auth == "" || sub.P256dh == "" || sub.Endpoint == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(constants.BadRequest))
		return
	}

	id := chi.URLParam(r, "id")

	if err := router.Subs.Upsert(r.Context(), id, sub); err != nil {
		router.Logger.Errorw("Error upserting push subscription", zap.Error(err), "userId", id)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(constants.InternalError))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deletePushSubscription removes the row for the endpoint given in the
// `endpoint` query parameter. Returns 204 whether or not a row existed, so
// unsubscribing twice stays a no-op.
func (router Router) deletePushSubscription(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")

	if endpoint == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(constants.BadRequest))
		return
	}

	id := chi.URLParam(r, "id")

	if err := router.Subs.Delete(r.Context(), id, endpoint); err != nil {
		router.Logger.Errorw("Error deleting push subscription", zap.Error(err), "userId", id)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(constants.InternalError))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
