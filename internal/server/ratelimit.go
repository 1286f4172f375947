package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/remix/internal/handlers"
)

// clientLimiter keys a token bucket per client address so one noisy
// client cannot starve the rest.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newClientLimiter(r rate.Limit, burst int) *clientLimiter {
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

func (c *clientLimiter) allow(client string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[client]
	if !ok {
		limiter = rate.NewLimiter(c.rate, c.burst)
		c.limiters[client] = limiter
	}
	return limiter.Allow()
}

// rateLimits throttles the endpoints that create pipeline work. Reads
// are never limited.
type rateLimits struct {
	create *clientLimiter
	upload *clientLimiter
	regen  *clientLimiter
}

func newRateLimits() *rateLimits {
	return &rateLimits{
		create: newClientLimiter(rate.Every(2*time.Second), 10),
		upload: newClientLimiter(rate.Every(6*time.Second), 5),
		regen:  newClientLimiter(rate.Every(12*time.Second), 3),
	}
}

// limited rejects the request with 429 when the client's bucket has no
// burst capacity left.
func (s *Server) limited(limiter *clientLimiter, next RouteHandler) RouteHandler {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.allow(clientAddr(r)) {
			handlers.WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, slow down")
			return
		}
		next(w, r)
	}
}

// clientAddr extracts the client IP from the remote address
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
