package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"

	"golang.org/x/time/rate"
)

const (
	tierGeneral = "general"
	tierStrict  = "strict"

	visitorIdle = 3 * time.Minute
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per client and tier. Paths under
// strictPrefix share the tighter strict tier.
type RateLimiter struct {
	general      rate.Limit
	generalBurst int
	strict       rate.Limit
	strictBurst  int
	strictPrefix string

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter creates a limiter. Call Run to evict idle clients.
func NewRateLimiter(generalRPS float64, generalBurst int, strictRPS float64, strictBurst int, strictPrefix string) *RateLimiter {
	return &RateLimiter{
		general:      rate.Limit(generalRPS),
		generalBurst: generalBurst,
		strict:       rate.Limit(strictRPS),
		strictBurst:  strictBurst,
		strictPrefix: strictPrefix,
		visitors:     make(map[string]*visitor),
		now:          time.Now,
	}
}

// Run removes idle visitors every minute until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict()
		}
	}
}

func (l *RateLimiter) evict() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > visitorIdle {
			delete(l.visitors, key)
		}
	}
}

func (l *RateLimiter) limiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(limit, burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// Middleware rejects requests over the caller's budget with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := l.general, l.generalBurst, tierGeneral
		if l.strictPrefix != "" && strings.HasPrefix(r.URL.Path, l.strictPrefix) {
			limit, burst, tier = l.strict, l.strictBurst, tierStrict
		}

		// Prefer the authenticated user so clients behind one NAT don't share a bucket.
		identity := "ip:" + clientIP(r)
		if p, ok := auth.PrincipalFrom(r.Context()); ok {
			identity = "user:" + p.UserID.String()
		}

		if !l.limiter(identity+":"+tier, limit, burst).Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, model.ErrCodeRateLimited, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
