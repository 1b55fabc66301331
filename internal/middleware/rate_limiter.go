package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/response"
)

// RateLimiter is a fixed-window counter in redis, keyed by client IP and
// route scope. Used on the auth-code endpoint, where unthrottled requests
// would turn into unthrottled SMS/email dispatch.
func RateLimiter(rdb *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		key := "rate_limit:" + scope + ":" + c.ClientIP()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// redis unavailable: let the request through rather than
			// blocking all traffic
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			response.Fail(c, apperrors.Validation("too many requests, slow down"))
			c.Abort()
			return
		}

		c.Next()
	}
}
