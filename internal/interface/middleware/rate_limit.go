package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-service/pkg/response"
)

// ipFromCtx extracts the client IP from Gin context, falling back to "unknown"
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request.
type KeyFunc func(c *gin.Context) string

// AllowFunc returns true to bypass the limit.
type AllowFunc func(*gin.Context) bool

func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath limits each route separately per client IP.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

// KeyByUserID limits per authenticated user, per IP for anonymous callers.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		uid := c.GetString(CtxUserIDKey)
		if uid == "" {
			return "rl:user:anon:ip:" + ipFromCtx(c)
		}
		return "rl:user:" + uid
	}
}

// INCR, set the window on the first hit, report the remaining window in ms.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RateLimiter is a fixed-window limiter backed by Redis. It fails open:
// when Redis is unavailable, requests pass and the error is logged.
type RateLimiter struct {
	rdb    redis.Scripter
	logger *logrus.Logger
}

// NewRateLimiter returns a limiter; a nil client yields a pass-through limiter.
func NewRateLimiter(rdb *redis.Client, logger *logrus.Logger) *RateLimiter {
	l := &RateLimiter{logger: logger}
	if rdb != nil {
		l.rdb = rdb
	}
	return l
}

// Limit allows max requests per window for each key.
func (l *RateLimiter) Limit(max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if l == nil || l.rdb == nil || max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if allow != nil && allow(c) {
			c.Next()
			return
		}
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		key := keyFn(c)
		res, err := fixedWindowScript.Run(c.Request.Context(), l.rdb, []string{key}, window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			if l.logger != nil {
				l.logger.WithError(err).WithField("key", key).Warn("rate limit check failed, allowing request")
			}
			c.Next()
			return
		}
		count, pttl := int(res[0]), res[1]
		resetSec := 0
		if pttl > 0 {
			resetSec = int((time.Duration(pttl) * time.Millisecond).Seconds() + 0.5)
		}
		remaining := max - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			response.Error(c, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		c.Next()
	}
}
