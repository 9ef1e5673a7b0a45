package server

import (
	"context"
	"crypto/subtle"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/raine/wardrobe-editorial/internal/metrics"
	"github.com/rs/zerolog/log"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDFromContext returns the id assigned by the request logger.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestLogger attaches a request-scoped logger carrying a request id,
// logs the finished request and counts it.
func requestLogger(reg *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)

			logger := log.With().
				Str("request_id", rid).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_ip", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Logger()

			ctx := logger.WithContext(r.Context())
			ctx = context.WithValue(ctx, requestIDKey, rid)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			reg.Inc(ctx, metrics.HTTPRequestsTotal, map[string]string{
				"method": r.Method,
				"status": statusClass(status),
			}, 1)

			if status >= 500 {
				logger.Error().
					Int("status", status).
					Dur("duration", time.Since(start)).
					Msg("http request failed")
				return
			}
			logger.Info().
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request served")
		})
	}
}

func statusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "0"
	}
}

// apiKeyAuth accepts "Authorization: Bearer <key>" or "X-API-Key: <key>".
// No configured keys disables the check.
func apiKeyAuth(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validKey(keys, callerKey(r)) {
				writeFailure(w, r, editorial.NewError(editorial.KindUnauthorized, "missing or invalid api key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validKey(keys []string, got string) bool {
	if got == "" {
		return false
	}
	ok := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(got)) == 1 {
			ok = true
		}
	}
	return ok
}

func callerKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// rateLimit throttles callers. A presented key only names the bucket when
// keys are enforced, since apiKeyAuth has vetted it by then; otherwise the
// client address does, so an anonymous caller cannot mint fresh buckets.
func rateLimit(l *keyedLimiter, keyed bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r)
			if keyed {
				if k := callerKey(r); k != "" {
					key = "key:" + k
				}
			}
			if ok, wait := l.Allow(key); !ok {
				writeFailure(w, r, &editorial.Error{
					Kind:       editorial.KindRateLimited,
					Message:    "too many requests",
					RetryAfter: wait,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func setRetryAfter(w http.ResponseWriter, d time.Duration) int {
	secs := retryAfterSeconds(d)
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	return secs
}
