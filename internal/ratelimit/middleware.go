package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/minishop/backend-minishop/internal/common"
)

// Handler guards a route with the sliding-window limiter. KeyFunc derives the
// window key from the request, typically the authenticated Telegram user id
// with a client-IP fallback.
type Handler struct {
	Limiter Limiter
	KeyFunc func(*http.Request) string
	OnError func(error)
}

// Middleware enforces the limit before delegating to next. Limiter errors
// fail open so a Redis outage never blocks checkout.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.KeyFunc == nil {
			next.ServeHTTP(w, r)
			return
		}
		d, err := h.Limiter.Allow(r.Context(), h.KeyFunc(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("X-RateLimit-Limit", strconv.Itoa(h.Limiter.Max))
		hdr.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		hdr.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retryAfter := int(time.Until(d.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			hdr.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts, try again later", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
