package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/lokapasar/lokapasar-backend/api/responses"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
)

const (
	apiRateLimitWindow = time.Minute
	apiRateLimitMax    = 300
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit applies a coarse per-user fixed window across the authenticated
// API surface. Auth endpoints carry their own tighter policies.
func RateLimit(store fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := UserIDFromContext(r.Context())
			if scope == "" {
				scope = clientIP(r)
			}

			allowed, count, err := store.FixedWindowAllow(r.Context(), "api:"+scope, apiRateLimitMax, apiRateLimitWindow)
			if err != nil {
				// Rate limiting is best effort; never block traffic on a
				// limiter store outage.
				if logg != nil {
					logg.Warn(logg.WithFields(r.Context(), map[string]any{"error": err.Error()}), "rate_limit.store_unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{"attempts": count, "limit": apiRateLimitMax})
					logg.Warn(ctx, "rate_limit.blocked")
				}
				responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
