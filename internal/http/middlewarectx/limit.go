package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/magabrotheeeer/subbers/internal/http/response"
	"golang.org/x/time/rate"
)

// ClientIP возвращает хост из RemoteAddr, который уже переписан middleware.RealIP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов отдельно для каждого адреса.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	swept    time.Time
}

// NewRateLimiter создаёт RateLimiter на perSecond запросов в секунду с запасом burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

// Allow сообщает, можно ли обработать запрос от key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	if now.Sub(rl.swept) > time.Minute {
		rl.cleanup(now)
		rl.swept = now
	}
	return v.limiter.Allow()
}

// cleanup удаляет адреса, не встречавшиеся дольше idle.
func (rl *RateLimiter) cleanup(now time.Time) {
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, key)
		}
	}
}

// RateLimitMiddleware отвечает 429, если адрес клиента превысил лимит.
func RateLimitMiddleware(limiter *RateLimiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !limiter.Allow(ip) {
				log.Warn("too many requests", slog.String("ip", ip))
				response.WriteError(w, r, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
