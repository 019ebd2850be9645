package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"patvault/internal/pkg/errors"
)

// RateLimiter admits requests per client IP over a trailing window. State is
// in-process only; a restart resets it. This is abuse mitigation, not a
// security boundary.
type RateLimiter struct {
	quota  int
	window time.Duration
	clock  clockwork.Clock

	mu      sync.Mutex
	buckets map[string][]time.Time
}

func NewRateLimiter(quota int, window time.Duration, clock clockwork.Clock) *RateLimiter {
	return &RateLimiter{
		quota:   quota,
		window:  window,
		clock:   clock,
		buckets: make(map[string][]time.Time),
	}
}

// Allow prunes timestamps older than the window, then either records the
// request or rejects it with the number of seconds until the oldest retained
// timestamp leaves the window (minimum 1).
func (rl *RateLimiter) Allow(key string) (bool, int) {
	now := rl.clock.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.buckets[key]
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= rl.quota {
		rl.buckets[key] = kept
		retryAfter := int(kept[0].Add(rl.window).Sub(now).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter
	}

	rl.buckets[key] = append(kept, now)
	return true, 0
}

// Handle applies the limiter before anything else in the chain runs.
func (rl *RateLimiter) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, retryAfter := rl.Allow(ClientIP(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Too many requests", map[string]int{
				"retry_after": retryAfter,
			})
			return
		}

		next(w, r)
	}
}

// ClientIP strips the port from the remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
