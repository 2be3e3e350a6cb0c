package push

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studytraka/types"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStore struct {
	upserted map[string]types.UserSubscription
	deleted  map[string]string
	err      error
}

func newStubStore() *stubStore {
	return &stubStore{
		upserted: map[string]types.UserSubscription{},
		deleted:  map[string]string{},
	}
}

func (s *stubStore) Upsert(ctx context.Context, userID string, sub types.UserSubscription) error {
	if s.err != nil {
		return s.err
	}

	s.upserted[userID] = sub

	return nil
}

func (s *stubStore) Delete(ctx context.Context, userID, endpoint string) error {
	if s.err != nil {
		return s.err
	}

	s.deleted[userID] = endpoint

	return nil
}

func newTestRouter(store *stubStore) *chi.Mux {
	r := chi.NewRouter()

	Router{
		PublicKey: "BPublicKey",
		Subs:      store,
		Logger:    zap.NewNop().Sugar(),
	}.Routes(r)

	return r
}

func TestGetNotificationInfo(t *testing.T) {
	r := newTestRouter(newStubStore())

	req := httptest.NewRequest(http.MethodGet, "/push/info", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"BPublicKey"}`, w.Body.String())
}

func TestCreatePushSubscription(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	body := `{"endpoint":"https://push.example/a","p256dh":"p-key","auth":"a-key"}`
	req := httptest.NewRequest(http.MethodPost, "/users/u1/push/subscriptions", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)

	sub, ok := store.upserted["u1"]
	require.True(t, ok)
	assert.Equal(t, "https://push.example/a", sub.Endpoint)
	assert.Equal(t, "p-key", sub.P256dh)
	assert.Equal(t, "a-key", sub.Auth)
}

func TestCreatePushSubscriptionRejectsIncompletePayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "hello"},
		{"missing endpoint", `{"p256dh":"p","auth":"a"}`},
		{"missing keys", `{"endpoint":"https://push.example/a"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStubStore()
			r := newTestRouter(store)

			req := httptest.NewRequest(http.MethodPost, "/users/u1/push/subscriptions", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, store.upserted)
		})
	}
}

func TestCreatePushSubscriptionStoreFailure(t *testing.T) {
	store := newStubStore()
	store.err = errors.New("connection refused")
	r := newTestRouter(store)

	body := `{"endpoint":"https://push.example/a","p256dh":"p","auth":"a"}`
	req := httptest.NewRequest(http.MethodPost, "/users/u1/push/subscriptions", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDeletePushSubscription(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/users/u1/push/subscriptions?endpoint=https%3A%2F%2Fpush.example%2Fa", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://push.example/a", store.deleted["u1"])
}

func TestDeletePushSubscriptionRequiresEndpoint(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/users/u1/push/subscriptions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.deleted)
}
