package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fetscr/fetscr-backend/internal/conf"
	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter applies a redis-backed sliding-window limit. The window
// lives in redis so the limit spans the whole worker pool, not a single
// process.
func RateLimiter(redisClient *redis.Client, cfg conf.RateLimitConfig, log *logger.Logger) gin.HandlerFunc {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = 60
	}
	if cfg.Strategy == "" {
		cfg.Strategy = "ip"
	}

	return func(c *gin.Context) {
		key := buildRateLimitKey(c, cfg.Strategy)

		ctx := c.Request.Context()
		allowed, remaining, resetTime, err := checkRateLimit(ctx, redisClient, key, cfg)
		if err != nil {
			// Fail open when the limiter backend is down.
			log.Error("rate limiter error", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime))

		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", cfg.WindowSeconds))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   fmt.Sprintf("too many requests, please try again in %d seconds", cfg.WindowSeconds),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func buildRateLimitKey(c *gin.Context, strategy string) string {
	const prefix = "rate_limit"

	switch strategy {
	case "user":
		if userID, exists := c.Get("user_id"); exists {
			return fmt.Sprintf("%s:user:%v", prefix, userID)
		}
		// Unauthenticated requests fall back to IP.
		return fmt.Sprintf("%s:ip:%s", prefix, c.ClientIP())
	default:
		return fmt.Sprintf("%s:ip:%s", prefix, c.ClientIP())
	}
}

// slidingWindowScript trims the window, counts it, and either records the
// request or reports the earliest reset time, atomically.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]
	local window_start = now - window

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

	local current = redis.call('ZCARD', key)

	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('EXPIRE', key, window)
		return {1, limit - current - 1, now + window}
	else
		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')[2]
		local reset_time = tonumber(oldest) + window
		return {0, 0, reset_time}
	end
`)

func checkRateLimit(ctx context.Context, redisClient *redis.Client, key string, cfg conf.RateLimitConfig) (allowed bool, remaining int, resetTime int64, err error) {
	now := time.Now()

	result, err := slidingWindowScript.Run(ctx, redisClient, []string{key},
		now.Unix(), cfg.WindowSeconds, cfg.MaxRequests, now.UnixNano()).Result()
	if err != nil {
		return false, 0, 0, err
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) != 3 {
		return false, 0, 0, fmt.Errorf("invalid rate limit result")
	}

	allowedInt, _ := resultSlice[0].(int64)
	remainingInt, _ := resultSlice[1].(int64)
	resetTimeInt, _ := resultSlice[2].(int64)

	return allowedInt == 1, int(remainingInt), resetTimeInt, nil
}
