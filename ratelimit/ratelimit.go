package ratelimit

import (
	"crypto/sha512"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bucket is a fixed-window ratelimit applied to one group of endpoints.
type Bucket struct {
	BucketName string
	Requests   int
	Time       time.Duration
}

// Default bucket for the browser-facing subscription API
var DefaultSubscriptionBucket = Bucket{BucketName: "push_subscriptions", Requests: 30, Time: 2 * time.Minute}

type Limiter struct {
	Redis  *redis.Client
	Logger *zap.SugaredLogger
}

func (l *Limiter) bucketHandle(bucket Bucket, id string, w http.ResponseWriter, r *http.Request) bool {
	rlKey := "rl:" + id + "-" + bucket.BucketName

	v := l.Redis.Get(r.Context(), rlKey).Val()

	if v == "" {
		v = "0"

		err := l.Redis.Set(r.Context(), rlKey, "0", bucket.Time).Err()

		if err != nil {
			l.Logger.Error("Error setting ratelimit key", zap.Error(err))
			return false
		}
	}

	err := l.Redis.Incr(r.Context(), rlKey).Err()

	if err != nil {
		l.Logger.Error("Error incrementing ratelimit key", zap.Error(err))
		return false
	}

	vInt, err := strconv.Atoi(v)

	if err != nil {
		l.Logger.Error("Error parsing ratelimit count", zap.Error(err))
		return false
	}

	if vInt < 0 {
		l.Redis.Expire(r.Context(), rlKey, 1*time.Second)
		vInt = 0
	}

	if vInt > bucket.Requests {
		retryAfter := l.Redis.TTL(r.Context(), rlKey).Val()

		w.Header().Set("Retry-After", strconv.FormatFloat(retryAfter.Seconds(), 'g', -1, 64))
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("{\"message\":\"You're being rate limited!\",\"error\":true}"))

		return false
	}

	w.Header().Set("X-Ratelimit-Req-Made", strconv.Itoa(vInt))
	return true
}

// Ratelimit buckets anonymous callers by a hash of their remote IP. Returns
// false when the response has already been written with a 429.
func (l *Limiter) Ratelimit(bucket Bucket, w http.ResponseWriter, r *http.Request) bool {
	remoteIp := strings.Split(strings.ReplaceAll(r.Header.Get("X-Forwarded-For"), " ", ""), ",")

	ip := remoteIp[0]

	if ip == "" {
		ip = r.RemoteAddr
	}

	// For user privacy, hash the remote ip
	hasher := sha512.New()
	hasher.Write([]byte(ip))
	id := fmt.Sprintf("%x", hasher.Sum(nil))

	return l.bucketHandle(bucket, id, w, r)
}

// Middleware applies the bucket to every request on a router subtree.
func (l *Limiter) Middleware(bucket Bucket) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok := l.Ratelimit(bucket, w, r); !ok {
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
