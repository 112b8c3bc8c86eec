package middleware

import (
	"sync"
	"time"

	"github.com/kataras/iris/v12"
)

// TokenBucket 令牌桶限流器，保护解锁这类带行锁竞争的写接口
type TokenBucket struct {
	mu         sync.Mutex
	capacity   int64
	tokens     int64
	refillRate int64 // 每秒补充
	lastRefill time.Time
}

// NewTokenBucket 创建满桶的限流器
func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow 取一个令牌，桶空时拒绝
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	if add := int64(now.Sub(tb.lastRefill).Seconds()) * tb.refillRate; add > 0 {
		tb.tokens += add
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}

	if tb.tokens <= 0 {
		return false
	}
	tb.tokens--
	return true
}

// RateLimitMiddleware 超限时直接 429，不进入后续处理
func RateLimitMiddleware(bucket *TokenBucket) iris.Handler {
	return func(ctx iris.Context) {
		if !bucket.Allow() {
			ctx.StopWithJSON(429, iris.Map{
				"code": 429,
				"msg":  "解锁请求过于频繁，请稍后再试",
			})
			return
		}
		ctx.Next()
	}
}

var unlockRateLimiter = NewTokenBucket(20, 10)

// UnlockRateLimit 解锁接口限流
func UnlockRateLimit() iris.Handler {
	return RateLimitMiddleware(unlockRateLimiter)
}
