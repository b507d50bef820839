package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rezkam/hearth/internal/application/auth"
	"github.com/rezkam/hearth/internal/infrastructure/http/response"
	"golang.org/x/time/rate"
)

// Default rate limit values.
const (
	DefaultRequestsPerSecond = 10
	DefaultBurst             = 20
	DefaultLimiterIdleTTL    = 10 * time.Minute
)

// RateLimitConfig configures per-household request limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int

	// IdleTTL is how long an unused limiter is kept.
	IdleTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per household. Requests without an
// authenticated principal are keyed by client IP.
type RateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastSweep time.Time
}

// NewRateLimiter creates a RateLimiter, applying defaults for zero values.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultLimiterIdleTTL
	}
	return &RateLimiter{
		cfg:      cfg,
		now:      time.Now,
		limiters: make(map[string]*limiterEntry),
	}
}

// Limit is a Chi middleware that answers 429 once a caller's bucket is empty.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		now := l.now()

		reservation := l.get(key, now).ReserveN(now, 1)
		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			slog.WarnContext(r.Context(), "rate limit exceeded",
				"client", key,
				"path", r.URL.Path,
				"retry_after", delay)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			response.TooManyRequests(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.cfg.IdleTTL {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > l.cfg.IdleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// size reports the number of tracked callers.
func (l *RateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func clientKey(r *http.Request) string {
	if p, ok := auth.FromContext(r.Context()); ok {
		return "household:" + p.HouseholdID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
