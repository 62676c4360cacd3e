package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"go-trash-bin/internal/model"
)

type clientLimiter struct {
	read     *rate.Limiter
	mutate   *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware throttles the admin API per client IP, with a tighter
// budget for mutating verbs (retry, empty, trash creation).
type RateLimitMiddleware struct {
	readRPM   int
	mutateRPM int
	mu        sync.Mutex
	clients   map[string]*clientLimiter
}

func NewRateLimitMiddleware(readRPM int, mutateRPM int) *RateLimitMiddleware {
	if readRPM <= 0 {
		readRPM = 120
	}
	if mutateRPM <= 0 {
		mutateRPM = 30
	}

	return &RateLimitMiddleware{
		readRPM:   readRPM,
		mutateRPM: mutateRPM,
		clients:   map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := m.getLimiter(ClientIP(r))

		target := limiter.read
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			target = limiter.mutate
		}

		if !target.Allow() {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = jsonEncode(w, model.APIResponse{
				Success: false,
				Error: &model.APIError{
					Code:    "RATE_LIMITED",
					Message: "Too many requests",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = time.Now()
		m.gcLocked()
		return limiter
	}

	read := rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.readRPM)), m.readRPM)
	mutate := rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.mutateRPM)), m.mutateRPM)
	created := &clientLimiter{read: read, mutate: mutate, lastSeen: time.Now()}
	m.clients[clientIP] = created
	m.gcLocked()

	return created
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

// ClientIP resolves the originating address, honouring proxy headers.
func ClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
			return strings.TrimSpace(parts[0])
		}
	}

	realIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
