package services

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"bus-pricing/internal/config"
	"bus-pricing/internal/logger"
	"bus-pricing/internal/redis"

	"golang.org/x/time/rate"
)

// Бэкенды rate limiting
const (
	RateLimitBackendRedis  = "redis"
	RateLimitBackendMemory = "memory"
)

// RateLimiter ограничивает количество запросов на ключ (IP).
// Бэкенд redis считает запросы в фиксированном окне, memory использует token bucket в процессе.
type RateLimiter struct {
	redis   rateRedis
	local   *localBuckets
	log     *logger.Logger
	enabled bool
	limit   int64
	window  time.Duration
	prefix  string
}

type rateRedis interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

// NewRateLimiter создаёт rate limiter. redisClient нужен только для бэкенда redis.
func NewRateLimiter(redisClient *redis.Client, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	if cfg == nil || !cfg.Enabled || cfg.Requests <= 0 || cfg.WindowSeconds <= 0 {
		return &RateLimiter{enabled: false}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit"
	}
	window := time.Duration(cfg.WindowSeconds) * time.Second

	limiter := &RateLimiter{
		log:     log,
		enabled: true,
		limit:   int64(cfg.Requests),
		window:  window,
		prefix:  prefix,
	}

	switch cfg.Backend {
	case RateLimitBackendMemory:
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.Requests
		}
		limiter.limit = int64(burst)
		limiter.local = newLocalBuckets(rate.Limit(float64(cfg.Requests)/window.Seconds()), burst)
	default:
		if redisClient == nil {
			return &RateLimiter{enabled: false}
		}
		limiter.redis = redisClient
	}
	return limiter
}

// Allow возвращает признак разрешения, оставшийся лимит и время сброса окна.
func (r *RateLimiter) Allow(ctx context.Context, key string) (allowed bool, remaining int64, resetAt time.Time, err error) {
	if !r.enabled {
		return true, r.limit, time.Now().Add(r.window), nil
	}
	if r.local != nil {
		allowed, remaining, resetAt = r.local.allow(key, time.Now())
		return allowed, remaining, resetAt, nil
	}

	now := time.Now()
	redisKey := r.makeKey(key)

	count, err := r.redis.Incr(ctx, redisKey)
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limiter incr failed: %w", err)
	}

	if count == 1 {
		if err := r.redis.Expire(ctx, redisKey, r.window); err != nil {
			r.log.WithError(err).WithField("key", redisKey).Warn("failed to set rate limit ttl")
		}
	}

	ttl, ttlErr := r.redis.TTL(ctx, redisKey)
	if ttlErr != nil {
		r.log.WithError(ttlErr).WithField("key", redisKey).Warn("failed to get rate limit ttl")
		ttl = r.window
	}

	remaining = r.limit - count
	if remaining < 0 {
		remaining = 0
	}
	resetAt = now.Add(ttl)

	return count <= r.limit, remaining, resetAt, nil
}

// Usage возвращает текущее значение окна и время сброса.
func (r *RateLimiter) Usage(ctx context.Context, key string) (used int64, remaining int64, resetAt *time.Time, err error) {
	if !r.enabled {
		return 0, r.limit, nil, nil
	}
	if r.local != nil {
		used, remaining, resetAt = r.local.usage(key, time.Now())
		return used, remaining, resetAt, nil
	}

	redisKey := r.makeKey(key)
	count, err := r.redis.GetInt(ctx, redisKey)
	if err != nil {
		// отсутствующий ключ считается нулём
		return 0, r.limit, nil, nil
	}

	ttl, ttlErr := r.redis.TTL(ctx, redisKey)
	if ttlErr != nil {
		r.log.WithError(ttlErr).WithField("key", redisKey).Warn("failed to get rate limit ttl")
	} else {
		tmp := time.Now().Add(ttl)
		resetAt = &tmp
	}

	remaining = r.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count, remaining, resetAt, nil
}

func (r *RateLimiter) makeKey(key string) string {
	safeKey := strings.ReplaceAll(key, ":", "_")
	return fmt.Sprintf("%s:%s", r.prefix, safeKey)
}

// Limit возвращает лимит окна (для memory это размер bucket).
func (r *RateLimiter) Limit() int64 {
	return r.limit
}

// Enabled сообщает, включён ли rate limiting.
func (r *RateLimiter) Enabled() bool {
	return r.enabled
}

// localBuckets token bucket на каждый ключ
type localBuckets struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newLocalBuckets(rps rate.Limit, burst int) *localBuckets {
	return &localBuckets{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (b *localBuckets) get(key string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	lim, ok := b.limiters[key]
	if !ok {
		lim = rate.NewLimiter(b.rps, b.burst)
		b.limiters[key] = lim
	}
	return lim
}

func (b *localBuckets) allow(key string, now time.Time) (bool, int64, time.Time) {
	lim := b.get(key)
	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)
	return allowed, b.remaining(tokens), b.resetAt(tokens, now)
}

func (b *localBuckets) usage(key string, now time.Time) (int64, int64, *time.Time) {
	b.mu.Lock()
	lim, ok := b.limiters[key]
	b.mu.Unlock()
	if !ok {
		return 0, int64(b.burst), nil
	}
	tokens := lim.TokensAt(now)
	remaining := b.remaining(tokens)
	resetAt := b.resetAt(tokens, now)
	return int64(b.burst) - remaining, remaining, &resetAt
}

func (b *localBuckets) remaining(tokens float64) int64 {
	if tokens <= 0 {
		return 0
	}
	return int64(math.Floor(tokens))
}

// resetAt момент, когда bucket снова будет полным
func (b *localBuckets) resetAt(tokens float64, now time.Time) time.Time {
	missing := float64(b.burst) - tokens
	if missing <= 0 || b.rps <= 0 {
		return now
	}
	return now.Add(time.Duration(missing / float64(b.rps) * float64(time.Second)))
}

// ExtractClientIP получает IP из заголовков/RemoteAddr.
func ExtractClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		parts := strings.Split(ip, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
