package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/filesort/pkg/configs"
)

const (
	limiterIdleTTL      = 10 * time.Minute
	limiterSweepEvery   = time.Minute
	rateLimitedResponse = "Too many requests, please try again later"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware 返回一个基于配置的限流中间件.
// Key 支持 global、ip 与 header:Header-Name，闲置超过 limiterIdleTTL 的 limiter 会被回收.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))

	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": rateLimitedResponse})
				return
			}

			c.Next()
		}
	}

	var (
		mu       sync.Mutex
		visitors = map[string]*visitor{}
		lastGC   = time.Now()
	)

	getLimiter := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()

		// 惰性回收，不额外起 goroutine
		if now.Sub(lastGC) > limiterSweepEvery {
			for k, v := range visitors {
				if now.Sub(v.lastSeen) > limiterIdleTTL {
					delete(visitors, k)
				}
			}

			lastGC = now
		}

		v, ok := visitors[key]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)}
			visitors[key] = v
		}

		v.lastSeen = now

		return v.limiter
	}

	header := ""
	if strings.HasPrefix(keyMode, "header:") {
		// 使用原始大小写的请求头名称
		header = strings.TrimSpace(cfg.Key[len("header:"):])
	}

	return func(c *gin.Context) {
		key := ""
		if header != "" {
			key = c.GetHeader(header)
		}

		if key == "" {
			key = clientIP(c)
		}

		if key == "" {
			key = "unknown"
		}

		if !getLimiter(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": rateLimitedResponse})
			return
		}

		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = c.Request.RemoteAddr
		}
	}

	return ip
}
