package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is the shared-state variant of RateLimiter: a fixed
// window kept in redis so the limit holds across processes. INCR creates
// the key at 1; the first increment in a window attaches the expiry.
type RedisRateLimiter struct {
	rdb    *redis.Client
	window time.Duration
	limit  int
	prefix string
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:    rdb,
		window: window,
		limit:  limit,
		prefix: "ratelimit:",
	}
}

func (rl *RedisRateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		rkey := rl.prefix + key

		ctx := c.Request.Context()

		count, err := rl.rdb.Incr(ctx, rkey).Result()

		if err != nil {
			// redis outage must not take logins down with it
			c.Next()
			return
		}

		if count == 1 {
			_ = rl.rdb.Expire(ctx, rkey, rl.window).Err()
		}

		if count > int64(rl.limit) {
			ttl, err := rl.rdb.TTL(ctx, rkey).Result()

			retryAfter := 0

			if err == nil && ttl > 0 {
				retryAfter = int(ttl.Seconds())
			}

			c.Header("Retry-After", itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}
