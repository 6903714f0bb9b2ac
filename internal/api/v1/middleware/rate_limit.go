package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"siteauditor/internal/util"
)

const (
	requestsPerSecond = 1
	burstSize         = 3
	staleAfter        = 5 * time.Minute
	sweepInterval     = time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	mu      sync.Mutex
	clients = make(map[string]*client)
)

func init() {
	go func() {
		for {
			time.Sleep(sweepInterval)
			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) > staleAfter {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()
}

// RateLimit throttles callers per client IP.
func RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := util.GetClientIPAddress(r)

		mu.Lock()
		c, ok := clients[ip]
		if !ok {
			c = &client{limiter: rate.NewLimiter(requestsPerSecond, burstSize)}
			clients[ip] = c
		}
		c.lastSeen = time.Now()
		allowed := c.limiter.Allow()
		mu.Unlock()

		if !allowed {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
