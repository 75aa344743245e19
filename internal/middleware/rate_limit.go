package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pageza/foodgram/backend/internal/logging"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// Usage is the state of one key after a check.
type Usage struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter counts requests per key.
type Limiter interface {
	// Allow records one request for key.
	Allow(ctx context.Context, key string) (Usage, error)
	// Peek reports the current usage without recording a request.
	Peek(ctx context.Context, key string) (Usage, error)
	Config() RateLimitConfig
}

// RateLimiter is a fixed-window counter in Redis, shared by all instances.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

func (rl *RateLimiter) Config() RateLimitConfig {
	return rl.config
}

func (rl *RateLimiter) window(key string) (string, time.Time) {
	windowStart := time.Now().Truncate(rl.config.Window)
	return fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix()), windowStart.Add(rl.config.Window)
}

func (rl *RateLimiter) usage(count int, reset time.Time, allowed bool) Usage {
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Usage{Allowed: allowed, Limit: rl.config.Limit, Remaining: remaining, Reset: reset}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string) (Usage, error) {
	redisKey, reset := rl.window(key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Usage{}, err
	}

	count := int(incr.Val())
	return rl.usage(count, reset, count <= rl.config.Limit), nil
}

func (rl *RateLimiter) Peek(ctx context.Context, key string) (Usage, error) {
	redisKey, reset := rl.window(key)

	count, err := rl.redis.Get(ctx, redisKey).Int()
	if err == redis.Nil {
		return rl.usage(0, reset, true), nil
	}
	if err != nil {
		return Usage{}, err
	}
	return rl.usage(count, reset, count < rl.config.Limit), nil
}

// LocalLimiter is an in-process token bucket per key, refilled at
// Limit/Window. It backs up the Redis limiter when Redis is unreachable.
type LocalLimiter struct {
	config   RateLimitConfig
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLocalLimiter(config RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{config: config, limiters: make(map[string]*rate.Limiter)}
}

func (l *LocalLimiter) Config() RateLimitConfig {
	return l.config
}

func (l *LocalLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		every := rate.Every(l.config.Window / time.Duration(l.config.Limit))
		lim = rate.NewLimiter(every, l.config.Limit)
		l.limiters[key] = lim
	}
	return lim
}

func (l *LocalLimiter) usage(lim *rate.Limiter, allowed bool) Usage {
	now := time.Now()
	tokens := lim.TokensAt(now)
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}
	missing := float64(l.config.Limit) - tokens
	reset := now
	if missing > 0 && lim.Limit() > 0 {
		reset = now.Add(time.Duration(missing / float64(lim.Limit()) * float64(time.Second)))
	}
	return Usage{Allowed: allowed, Limit: l.config.Limit, Remaining: remaining, Reset: reset}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (Usage, error) {
	lim := l.limiter(key)
	allowed := lim.Allow()
	return l.usage(lim, allowed), nil
}

func (l *LocalLimiter) Peek(_ context.Context, key string) (Usage, error) {
	lim := l.limiter(key)
	return l.usage(lim, lim.Tokens() >= 1), nil
}

// FallbackLimiter uses primary and switches to fallback for a request when
// primary fails.
type FallbackLimiter struct {
	primary  Limiter
	fallback Limiter
	log      logrus.FieldLogger
}

func NewFallbackLimiter(primary, fallback Limiter, log logrus.FieldLogger) *FallbackLimiter {
	return &FallbackLimiter{primary: primary, fallback: fallback, log: log}
}

func (f *FallbackLimiter) Config() RateLimitConfig {
	return f.primary.Config()
}

func (f *FallbackLimiter) Allow(ctx context.Context, key string) (Usage, error) {
	u, err := f.primary.Allow(ctx, key)
	if err == nil {
		return u, nil
	}
	logging.FromContext(ctx, f.log).WithError(err).Warn("rate limit check failed, using local limiter")
	return f.fallback.Allow(ctx, key)
}

func (f *FallbackLimiter) Peek(ctx context.Context, key string) (Usage, error) {
	u, err := f.primary.Peek(ctx, key)
	if err == nil {
		return u, nil
	}
	return f.fallback.Peek(ctx, key)
}

// RecipeCreationConfig limits recipe creation to 30 per user per hour.
func RecipeCreationConfig() RateLimitConfig {
	return RateLimitConfig{
		Window:    time.Hour,
		Limit:     30,
		KeyPrefix: "rate_limit:recipe_creation",
	}
}

// RecipeModificationConfig limits changes to 60 per user per recipe per hour.
func RecipeModificationConfig() RateLimitConfig {
	return RateLimitConfig{
		Window:    time.Hour,
		Limit:     60,
		KeyPrefix: "rate_limit:recipe_modification",
	}
}

// NewLimiter builds the Redis limiter with a local fallback, or only the
// local limiter when no Redis client is configured.
func NewLimiter(client *redis.Client, config RateLimitConfig, log logrus.FieldLogger) Limiter {
	local := NewLocalLimiter(config)
	if client == nil {
		return local
	}
	return NewFallbackLimiter(NewRateLimiter(client, config), local, log)
}

func setRateLimitHeaders(c *gin.Context, u Usage) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(u.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(u.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(u.Reset.Unix(), 10))
}

// RateLimit enforces limiter per authenticated user. With perRecipe the key
// also includes the "id" path parameter.
func RateLimit(limiter Limiter, perRecipe bool) gin.HandlerFunc {
	cfg := limiter.Config()
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "authentication credentials were not provided")
			return
		}

		key := userID.String()
		if perRecipe {
			key += ":" + c.Param("id")
		}

		u, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// Counting failed on every backend; the request goes through.
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}
		setRateLimitHeaders(c, u)

		if !u.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":                "rate_limited",
				"message":              fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", cfg.Limit, cfg.Window),
				"rate_limit_remaining": u.Remaining,
				"rate_limit_reset":     u.Reset.Unix(),
				"retry_after":          int(time.Until(u.Reset).Seconds()),
			})
			return
		}
		c.Next()
	}
}
