package trigger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studytraka/types"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRunner struct {
	stats types.ReminderStats
	err   error
	calls int
}

func (s *stubRunner) Run(ctx context.Context, now time.Time) (types.ReminderStats, error) {
	s.calls++
	return s.stats, s.err
}

func newTestRouter(runner *stubRunner) *chi.Mux {
	r := chi.NewRouter()

	Router{
		Secret: "cron-secret",
		Engine: runner,
		Logger: zap.NewNop().Sugar(),
	}.Routes(r)

	return r
}

func TestSendDueRemindersRejectsBadAuth(t *testing.T) {
	tests := []struct {
		name string
		auth string
	}{
		{"missing header", ""},
		{"wrong secret", "Bearer wrong"},
		{"wrong scheme", "Basic cron-secret"},
		{"bare secret", "cron-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{}
			r := newTestRouter(runner)

			req := httptest.NewRequest(http.MethodPost, "/reminders/send", nil)

			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			// rejected before the engine runs
			assert.Equal(t, 0, runner.calls)
		})
	}
}

func TestSendDueRemindersReturnsStats(t *testing.T) {
	runner := &stubRunner{stats: types.ReminderStats{Sent: 3, Failed: 1, Skipped: 7}}
	r := newTestRouter(runner)

	req := httptest.NewRequest(http.MethodPost, "/reminders/send", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sent":3,"failed":1,"skipped":7}`, w.Body.String())
	assert.Equal(t, 1, runner.calls)
}

func TestSendDueRemindersEngineFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("connection refused")}
	r := newTestRouter(runner)

	req := httptest.NewRequest(http.MethodPost, "/reminders/send", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSendDueRemindersMethodNotAllowed(t *testing.T) {
	r := newTestRouter(&stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/reminders/send", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
