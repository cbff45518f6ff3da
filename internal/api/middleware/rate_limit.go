package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"recipio/internal/pkg/common"

	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Limiter decides whether one more request for key fits the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucket 令牌桶限流器，每個 key 一個桶
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	rate     float64
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewTokenBucket 創建令牌桶：每個 window 允許 requests 個請求，持續補充
func NewTokenBucket(requests int, window time.Duration) *TokenBucket {
	return &TokenBucket{
		buckets:  make(map[string]*bucket),
		capacity: requests,
		rate:     float64(requests) / window.Seconds(),
	}
}

func (tb *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(tb.capacity), lastTime: now}
		tb.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastTime).Seconds() * tb.rate
	if b.tokens > float64(tb.capacity) {
		b.tokens = float64(tb.capacity)
	}
	b.lastTime = now

	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

// RedisWindow is a fixed-window counter shared by every instance using the
// same redis.
type RedisWindow struct {
	client    *goredis.Client
	requests  int
	window    time.Duration
	keyPrefix string
}

// NewRedisWindow creates a redis-backed limiter.
func NewRedisWindow(client *goredis.Client, requests int, window time.Duration) *RedisWindow {
	return &RedisWindow{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: "recipio:rate_limit",
	}
}

func (rw *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	windowStart := time.Now().Truncate(rw.window)
	redisKey := fmt.Sprintf("%s:%s:%d", rw.keyPrefix, key, windowStart.Unix())

	pipe := rw.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rw.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= int64(rw.requests), nil
}

// RateLimit 限流中間件，超出額度回 429；限流器出錯時放行請求
func RateLimit(limiter Limiter, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			common.LogWarn("Rate limit check failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		if !allowed {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: "too many requests",
			})
			return
		}

		c.Next()
	}
}
