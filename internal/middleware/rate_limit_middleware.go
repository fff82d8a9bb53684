package middleware

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// RateLimitConfig лимит запросов в фиксированном окне
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	// KeyPrefix пространство ключей Redis для этого лимита
	KeyPrefix string
}

// StatsRateLimit лимит на публичное чтение статистики с одного IP
func StatsRateLimit() RateLimitConfig {
	return RateLimitConfig{MaxRequests: 120, Window: time.Minute, KeyPrefix: "rl:stats"}
}

// AdminAuthRateLimit лимит на вход и заявки администратора (подбор пароля и кода приглашения)
func AdminAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{MaxRequests: 5, Window: time.Minute, KeyPrefix: "rl:admin:auth"}
}

// windowBucket номер окна, в которое попадает now, и время до его конца
func windowBucket(now time.Time, window time.Duration) (int64, time.Duration) {
	if window < time.Second {
		window = time.Second
	}
	size := int64(window / time.Second)
	bucket := now.Unix() / size
	end := time.Unix((bucket+1)*size, 0)
	return bucket, end.Sub(now)
}

// RateLimiter считает запросы в Redis. При недоступном Redis запросы пропускаются.
type RateLimiter struct {
	redisClient redis.UniversalClient
	now         func() time.Time
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(redisClient redis.UniversalClient) *RateLimiter {
	return &RateLimiter{redisClient: redisClient, now: time.Now}
}

// Limit ограничивает запросы с одного IP к конкретному маршруту
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return rl.limit(cfg, func(c *gin.Context) string {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		return c.ClientIP() + ":" + route
	})
}

// LimitByIP ограничивает запросы с одного IP ко всей группе маршрутов
func (rl *RateLimiter) LimitByIP(cfg RateLimitConfig) gin.HandlerFunc {
	return rl.limit(cfg, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// hit увеличивает счетчик окна. INCR и EXPIRE уходят одной транзакцией.
func (rl *RateLimiter) hit(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := rl.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (rl *RateLimiter) limit(cfg RateLimitConfig, subject func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		bucket, reset := windowBucket(rl.now(), cfg.Window)
		key := fmt.Sprintf("%s:%s:%d", cfg.KeyPrefix, subject(c), bucket)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := rl.hit(ctx, key, reset+time.Second)
		if err != nil {
			log.Printf("[RateLimiter] Redis error for key %s: %v. Allowing request (fail-open).", key, err)
			c.Next()
			return
		}

		retryAfter := int(math.Ceil(reset.Seconds()))
		remaining := cfg.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(retryAfter))

		if int(count) > cfg.MaxRequests {
			log.Printf("[RateLimiter] Rate limit exceeded for key %s. Count=%d, Limit=%d", key, count, cfg.MaxRequests)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"error_type":  "rate_limited",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
