package main

import (
	"net/http"
	"time"

	"studytraka/constants"
	"studytraka/mailer"
	"studytraka/ratelimit"
	"studytraka/reminders"
	"studytraka/routes/push"
	"studytraka/routes/trigger"
	"studytraka/state"
	"studytraka/store"
	"studytraka/webpush"
	"studytraka/zapchi"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// limit body to 1mb, subscription payloads are tiny
		r.Body = http.MaxBytesReader(w, r.Body, 1*1024*1024)

		w.Header().Set("Content-Type", "application/json")

		next.ServeHTTP(w, r)
	})
}

func main() {
	state.Setup("config.yaml")

	cfg := state.Config
	timeout := time.Duration(cfg.Scheduler.TimeoutSeconds) * time.Second

	pushClient, err := webpush.NewClient(
		cfg.Push.VapidPublicKey,
		cfg.Push.VapidPrivateKey,
		cfg.Push.Subscriber,
		cfg.Push.TTLSeconds,
		timeout,
	)

	if err != nil {
		state.Logger.Fatalw("Error loading VAPID keys", zap.Error(err))
	}

	engine := &reminders.Engine{
		Events: &store.Events{Pool: state.Pool},
		Prefs:  &store.Prefs{Pool: state.Pool},
		Users:  &store.Users{Pool: state.Pool},
		Subs:   &store.Subscriptions{Pool: state.Pool},
		Ledger: &store.Ledger{Pool: state.Pool},
		Mailer: mailer.NewSendGridMailer(cfg.Mail.APIKey, cfg.Mail.FromName, cfg.Mail.FromEmail, timeout),
		Push:   pushClient,
		Logger: state.Logger,
		Config: reminders.Config{
			Lookahead: time.Duration(cfg.Scheduler.LookaheadMinutes) * time.Minute,
			Window:    time.Duration(cfg.Scheduler.WindowSeconds) * time.Second,
			AppURL:    cfg.Meta.AppURL,
		},
	}

	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer,
		middleware.RealIP,
		middleware.CleanPath,
		jsonContentType,
		zapchi.Logger(state.Logger, "api"),
		middleware.Timeout(55*time.Second),
	)

	trigger.Router{
		Secret: cfg.Scheduler.Secret,
		Engine: engine,
		Logger: state.Logger,
	}.Routes(r)

	limiter := &ratelimit.Limiter{
		Redis:  state.Redis,
		Logger: state.Logger,
	}

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware(ratelimit.DefaultSubscriptionBucket))

		push.Router{
			PublicKey: cfg.Push.VapidPublicKey,
			Subs:      &store.Subscriptions{Pool: state.Pool},
			Logger:    state.Logger,
		}.Routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(constants.NotFoundPage))
	})

	state.Logger.Info("Listening on ", cfg.Meta.Port)

	err = http.ListenAndServe(cfg.Meta.Port, r)

	if err != nil {
		state.Logger.Fatal(err)
	}
}
