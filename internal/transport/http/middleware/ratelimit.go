package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"lawdesk/internal/apperr"
)

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		abort(c, apperr.Transient("too many requests", nil))
	}
}

// 空闲超过该时长的 IP 令牌桶被回收
const ipIdleTTL = 10 * time.Minute

// ipBuckets 每 IP 一个令牌桶，访问即续期，空闲过期后由 go-cache 清理
type ipBuckets struct {
	mu    sync.Mutex
	items *gocache.Cache
	rps   rate.Limit
	burst int
}

func newIPBuckets(rps rate.Limit, burst int, idle time.Duration) *ipBuckets {
	return &ipBuckets{items: gocache.New(idle, idle), rps: rps, burst: burst}
}

func (b *ipBuckets) get(ip string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	var lim *rate.Limiter
	if v, ok := b.items.Get(ip); ok {
		lim = v.(*rate.Limiter)
	} else {
		lim = rate.NewLimiter(b.rps, b.burst)
	}
	b.items.SetDefault(ip, lim)
	return lim
}

// RateLimitPerIP 每 IP 限速
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	b := newIPBuckets(rps, burst, ipIdleTTL)
	return func(c *gin.Context) {
		if b.get(c.ClientIP()).Allow() {
			c.Next()
			return
		}
		abort(c, apperr.Transient("too many requests", nil))
	}
}
