// Package ratelimit provides a per-client-IP token-bucket rate limiter
// as HTTP middleware. Each route group carries its own limiter with its
// own rate and burst.
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor tracks the limiter and last activity for one client IP.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages per-IP rate limiters sharing one rate/burst setting.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	message  string
}

// New creates a limiter allowing r events per second with the given burst
// and starts its background cleanup. The message is returned to throttled
// clients.
func New(r rate.Limit, burst int, message string) *Limiter {
	l := &Limiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    burst,
		message:  message,
	}
	go l.cleanupVisitors()
	return l
}

func (l *Limiter) getVisitor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		limiter := rate.NewLimiter(l.rate, l.burst)
		l.visitors[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupVisitors drops entries idle for more than 3 minutes so the
// visitor map does not grow without bound.
func (l *Limiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)
		l.mu.Lock()
		for ip, v := range l.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}

// Allow reports whether a request from ip may proceed right now.
func (l *Limiter) Allow(ip string) bool {
	return l.getVisitor(ip).Allow()
}

// Middleware enforces the limit, answering 429 with a JSON body when a
// client exceeds it.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": l.message,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client address from a request. chi's RealIP
// middleware has already rewritten RemoteAddr when the server sits
// behind a trusted proxy.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = strings.TrimSuffix(strings.TrimPrefix(r.RemoteAddr, "["), "]")
	}
	return ip
}
