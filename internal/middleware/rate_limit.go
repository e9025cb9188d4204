package middleware

import (
	"fmt"
	"sync"

	"github.com/dungji/dungji-market-backend/internal/errors"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

const defaultLimiterCacheSize = 10000

// KeyFunc 요청별 제한 키 (IP, 사용자 등)
type KeyFunc func(c *gin.Context) string

// ClientIPKey 클라이언트 IP 기준
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// UserOrIPKey 로그인 사용자는 사용자 ID, 아니면 IP 기준
func UserOrIPKey(c *gin.Context) string {
	if userID, ok := GetUserID(c); ok {
		return fmt.Sprintf("user:%d", userID)
	}
	return "ip:" + c.ClientIP()
}

// RateLimiter 키별 토큰 버킷. 오래 안 쓰인 키는 LRU로 밀려난다.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache
	limit    rate.Limit
	burst    int
	keyFunc  KeyFunc
}

func NewRateLimiter(limit rate.Limit, burst int, keyFunc KeyFunc) *RateLimiter {
	cache, _ := lru.New(defaultLimiterCacheSize)
	if keyFunc == nil {
		keyFunc = ClientIPKey
	}
	return &RateLimiter{
		limiters: cache,
		limit:    limit,
		burst:    burst,
		keyFunc:  keyFunc,
	}
}

func (r *RateLimiter) limiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.limiters.Get(key); ok {
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(r.limit, r.burst)
	r.limiters.Add(key, l)
	return l
}

// Allow reports whether a request for key may proceed now
func (r *RateLimiter) Allow(key string) bool {
	return r.limiter(key).Allow()
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := r.keyFunc(c)
		if !r.Allow(key) {
			GetLoggerFromContext(c).Warn("Rate limit exceeded", map[string]interface{}{
				"key":  key,
				"path": c.Request.URL.Path,
			})
			errors.TooManyRequests(c, "요청이 너무 많습니다. 잠시 후 다시 시도해주세요")
			c.Abort()
			return
		}
		c.Next()
	}
}
