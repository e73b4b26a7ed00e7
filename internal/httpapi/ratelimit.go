package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/craftedcrochet/storefront/pkg/logger"
)

// RateLimiter caps requests per client ip using a fixed redis window.
// On limiter errors the request is allowed through; a broken redis
// must not take checkout down with it.
type RateLimiter struct {
	redis       *redis.Client
	maxRequests int
	window      time.Duration
}

func NewRateLimiter(redisClient *redis.Client, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{redis: redisClient, maxRequests: maxRequests, window: window}
}

// Middleware wraps a handler with the limit.
func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	if rl == nil || rl.redis == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		identifier := r.RemoteAddr

		allowed, remaining, err := rl.checkLimit(r.Context(), identifier)
		if err != nil {
			logger.Logger.Error().Err(err).Str("identifier", identifier).Msg("rate limiter error")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.maxRequests))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			logger.Logger.Warn().
				Str("identifier", identifier).
				Int("limit", rl.maxRequests).
				Msg("rate limit exceeded")
			respondError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func (rl *RateLimiter) checkLimit(ctx context.Context, identifier string) (bool, int, error) {
	key := fmt.Sprintf("storefront:ratelimit:%s", identifier)

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.window).Err(); err != nil {
			return false, 0, err
		}
	}

	remaining := rl.maxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(rl.maxRequests), remaining, nil
}
