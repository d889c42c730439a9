package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/kasirhub/backend-pos/internal/common"
)

// Handler enforces a per-client rate limit before delegating to the next
// handler. A failing limiter store lets requests through so an unhealthy
// Redis never takes the register offline.
type Handler struct {
	Limiter *limiter.Limiter
	Key     func(*http.Request) string
	Logger  zerolog.Logger
}

// New builds a Redis-backed limiter from a formatted rate, e.g. "120-M"
// for 120 requests per minute.
func New(client *redis.Client, formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   "pos:ratelimit",
		MaxRetry: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("create limiter store: %w", err)
	}
	return limiter.New(store, rate), nil
}

// Middleware implements the http.Handler middleware interface.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := common.ClientIP(r)
		if h.Key != nil {
			key = h.Key(r)
		}
		limitCtx, err := h.Limiter.Get(r.Context(), key)
		if err != nil {
			h.Logger.Warn().Err(err).Msg("rate limiter unavailable, letting request through")
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(limitCtx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(limitCtx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(limitCtx.Reset, 10))

		if limitCtx.Reached {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
