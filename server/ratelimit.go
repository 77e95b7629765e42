package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const maxLimiterEntries = 1000

// IPRateLimiter hands out one token bucket per client address. RemoteAddr has already been
// rewritten by the RealIP middleware when the kiosk sits behind a proxy.
type IPRateLimiter struct {
	clock   clockwork.Clock
	rate    rate.Limit
	burst   int
	idle    time.Duration
	mu      sync.Mutex
	entries map[string]*limiterEntry
	done    chan struct{}
	once    sync.Once
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewIPRateLimiter allows r requests per second with bursts of b per address. Entries idle
// for longer than idle are swept.
func NewIPRateLimiter(r rate.Limit, b int, idle time.Duration, clock clockwork.Clock) *IPRateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := &IPRateLimiter{
		clock:   clock,
		rate:    r,
		burst:   b,
		idle:    idle,
		entries: make(map[string]*limiterEntry),
		done:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	entry, ok := l.entries[ip]
	if !ok {
		if len(l.entries) >= maxLimiterEntries {
			l.evictOldest()
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastAccess = now
	return entry.limiter.AllowN(now, 1)
}

func (l *IPRateLimiter) evictOldest() {
	var oldest string
	var oldestTime time.Time
	for ip, entry := range l.entries {
		if oldest == "" || entry.lastAccess.Before(oldestTime) {
			oldest = ip
			oldestTime = entry.lastAccess
		}
	}
	delete(l.entries, oldest)
}

func (l *IPRateLimiter) sweep() {
	ticker := l.clock.NewTicker(l.idle)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.Chan():
			l.mu.Lock()
			cutoff := l.clock.Now().Add(-l.idle)
			for ip, entry := range l.entries {
				if entry.lastAccess.Before(cutoff) {
					delete(l.entries, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Close stops the sweeper
func (l *IPRateLimiter) Close() {
	l.once.Do(func() { close(l.done) })
}

func (l *IPRateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			writeJSONError(w, "rate_limited", "Too many attempts. Wait a moment and try again.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return host
}
