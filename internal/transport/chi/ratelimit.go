package chi

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/encounterhq/discovery/internal/domain"
	"github.com/encounterhq/discovery/internal/metrics"
	"github.com/encounterhq/discovery/internal/ratelimit"
)

// RateLimitMiddleware enforces the endpoint class's quota before the handler
// runs. Quotas key on the caller's API key, falling back to the remote IP for
// unauthenticated deployments. Governor failures fail open: a datastore outage
// must not take search down with it.
func RateLimitMiddleware(gov ratelimit.Governor, class string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := apiKeyFromContext(r.Context())
			if key == "" {
				key = remoteIP(r)
			}

			decision, err := gov.Check(r.Context(), class+":"+key)
			if err != nil {
				logger.Warn("rate limit check failed, allowing request",
					zap.String("class", class), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, decision.Limit, decision.Remaining, decision.ResetAt)

			if !decision.Allowed {
				metrics.RateLimitDenialsTotal.WithLabelValues(class).Inc()
				err := domain.NewRateLimit(decision.Limit, decision.Remaining, decision.ResetAt)
				rateLimitHandler(w, err, "rate limited")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, limit, remaining int, resetAt time.Time) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
