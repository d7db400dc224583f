package rag_http

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"news-rag-chat/internal/infra/metrics"
)

const (
	clientSweepInterval = 3 * time.Minute
	clientIdleTTL       = 5 * time.Minute
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles session creation and chat per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	rate    rate.Limit
	burst   int

	stop chan struct{}
	once sync.Once
}

// NewRateLimiter starts a limiter and its idle-client sweeper; call Close to stop it.
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientBucket),
		rate:    r,
		burst:   max(burst, 1),
		stop:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// reserve takes a token for ip, or reports how long the client must wait.
func (rl *RateLimiter) reserve(ip string, now time.Time) (time.Duration, bool) {
	rl.mu.Lock()
	bucket, ok := rl.clients[ip]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[ip] = bucket
	}
	bucket.lastSeen = now
	rl.mu.Unlock()

	r := bucket.limiter.ReserveN(now, 1)
	if !r.OK() {
		return time.Second, false
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return delay, false
	}
	return 0, true
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(clientSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, bucket := range rl.clients {
				if now.Sub(bucket.lastSeen) > clientIdleTTL {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Close stops the sweeper.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// Middleware rejects over-limit clients with 429 and a Retry-After in whole seconds.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			wait, ok := rl.reserve(c.RealIP(), time.Now())
			if ok {
				return next(c)
			}
			metrics.RecordRateLimited(c.Path())
			retryAfter := max(int(math.Ceil(wait.Seconds())), 1)
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		}
	}
}
