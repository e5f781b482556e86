package middleware

import (
	"net/http"
	"time"

	"yamdb/pkg/utils"

	"github.com/go-chi/httprate"
)

// RateLimitByIP limits requests per client IP. A non-positive limit disables it.
func RateLimitByIP(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			rateLimitHits.WithLabelValues(routePattern(r)).Inc()
			utils.ResponseTooManyRequests(w)
		}),
	)
}
