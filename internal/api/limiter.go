package api

import (
	"net/http"
	"sync"

	"github.com/Shin107/Anisotropic-SNANA/internal/httputil"
)

// ipLimiter tracks concurrent batch requests and streams per IP and globally.
type ipLimiter struct {
	mu       sync.Mutex
	active   map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

func newIPLimiter(maxPerIP int) *ipLimiter {
	if maxPerIP < 1 {
		maxPerIP = 1
	}
	return &ipLimiter{
		active:   make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: 64, // global cap on concurrent batches
	}
}

// acquire attempts to register a request for the given IP.
// Returns false if the IP or global limit has been reached.
func (l *ipLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal || l.active[ip] >= l.maxPerIP {
		return false
	}
	l.active[ip]++
	l.total++
	return true
}

// release decrements the count for the given IP.
func (l *ipLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.active[ip]--
	l.total--
	if l.active[ip] <= 0 {
		delete(l.active, ip)
	}
}

// count returns the number of active requests for the given IP.
func (l *ipLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[ip]
}

// limited rejects a request with 429 while its client already holds the
// maximum number of concurrent batches and streams.
func (h *handlers) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := httputil.ClientIP(r, h.trustProxy)
		if !h.limiter.acquire(ip) {
			h.logger.Warn("request rejected by concurrency limit", "client_ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "30")
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorBody{Error: "too many concurrent requests"})
			return
		}
		defer h.limiter.release(ip)
		next(w, r)
	}
}
