package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SignInLimiter throttles login and register submissions per client IP.
// A bucket left alone long enough to refill is indistinguishable from a new
// one, so such buckets are swept out and the table only holds recent clients.
type SignInLimiter struct {
	mu        sync.Mutex
	clients   map[string]*signInBucket
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type signInBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewSignInLimiter allows perMinute attempts per IP, with bursts of up to 5.
func NewSignInLimiter(perMinute int) *SignInLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	burst := min(5, perMinute)
	refill := time.Duration(float64(burst) / float64(perMinute) * float64(time.Minute))
	return &SignInLimiter{
		clients: make(map[string]*signInBucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idle:    max(refill, time.Minute),
		now:     time.Now,
	}
}

func (l *SignInLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		for k, b := range l.clients {
			if now.Sub(b.seen) >= l.idle {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}
	b, ok := l.clients[ip]
	if !ok {
		b = &signInBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// tracked reports how many client IPs currently hold a bucket.
func (l *SignInLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// clientIP is the remote host without its port. chi's RealIP runs earlier and
// has already applied any forwarding headers.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Middleware answers 429 once the client IP has used up its attempts.
func (l *SignInLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Too many sign-in attempts, please wait a minute."))
			return
		}
		next.ServeHTTP(w, r)
	})
}
