package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"bus-pricing/internal/config"
	"bus-pricing/internal/logger"
	"bus-pricing/internal/services"
)

// MiddlewareLimiter лимитер запросов по ключу
type MiddlewareLimiter interface {
	Allow(ctx context.Context, key string) (bool, int64, time.Time, error)
	Enabled() bool
	Limit() int64
}

// RateLimitStatusProvider лимитер, умеющий отдавать текущий расход без списания
type RateLimitStatusProvider interface {
	MiddlewareLimiter
	Usage(ctx context.Context, key string) (int64, int64, *time.Time, error)
}

// RouteUsage расход лимита клиента на одном маршруте
type RouteUsage struct {
	Route     string `json:"route"`
	Used      int64  `json:"used"`
	Remaining int64  `json:"remaining"`
	ResetAt   string `json:"resetAt,omitempty"`
}

// RateLimitStatus ответ GET /api/rate-limit/status
type RateLimitStatus struct {
	Enabled       bool         `json:"enabled"`
	Backend       string       `json:"backend,omitempty"`
	Limit         int64        `json:"limit,omitempty"`
	WindowSeconds int          `json:"windowSeconds,omitempty"`
	Client        string       `json:"client,omitempty"`
	Routes        []RouteUsage `json:"routes,omitempty"`
}

// RateLimitHandler отдаёт расход лимита клиента по каждому лимитируемому маршруту.
type RateLimitHandler struct {
	limiter RateLimitStatusProvider
	log     *logger.Logger
	cfg     *config.RateLimitConfig
	routes  []string
}

// NewRateLimitHandler создаёт обработчик; routes те же имена, что передаются в RateLimitMiddleware.
func NewRateLimitHandler(limiter RateLimitStatusProvider, log *logger.Logger, cfg *config.RateLimitConfig, routes ...string) *RateLimitHandler {
	return &RateLimitHandler{
		limiter: limiter,
		log:     log,
		cfg:     cfg,
		routes:  routes,
	}
}

// Status GET /api/rate-limit/status
func (h *RateLimitHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, r, http.StatusMethodNotAllowed, errMethodNotAllowed, nil)
		return
	}

	if h.limiter == nil || h.cfg == nil || !h.cfg.Enabled {
		writeJSONResponse(w, http.StatusOK, RateLimitStatus{Enabled: false})
		return
	}

	client := services.ExtractClientIP(r)
	status := RateLimitStatus{
		Enabled:       true,
		Backend:       h.cfg.Backend,
		Limit:         h.limiter.Limit(),
		WindowSeconds: h.cfg.WindowSeconds,
		Client:        client,
		Routes:        make([]RouteUsage, 0, len(h.routes)),
	}
	for _, route := range h.routes {
		used, remaining, resetAt, err := h.limiter.Usage(r.Context(), rateLimitKey(route, client))
		if err != nil {
			h.log.WithError(err).WithField("limited_route", route).Error("Failed to fetch rate limit usage")
			writeErrorResponse(w, r, http.StatusInternalServerError, errUnexpected, nil)
			return
		}
		usage := RouteUsage{Route: route, Used: used, Remaining: remaining}
		if resetAt != nil {
			usage.ResetAt = resetAt.UTC().Format(time.RFC3339)
		}
		status.Routes = append(status.Routes, usage)
	}

	writeJSONResponse(w, http.StatusOK, status)
}

// rateLimitKey у каждого маршрута свой бюджет на клиента
func rateLimitKey(route, client string) string {
	return route + "|" + client
}

// RateLimitMiddleware списывает запрос из бюджета клиента на маршруте route.
func RateLimitMiddleware(limiter MiddlewareLimiter, log *logger.Logger, route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil || !limiter.Enabled() {
			next(w, r)
			return
		}

		client := services.ExtractClientIP(r)
		allowed, remaining, resetAt, err := limiter.Allow(r.Context(), rateLimitKey(route, client))
		if err != nil {
			log.WithError(err).WithField("client", client).WithField("limited_route", route).Error("Rate limiter failed")
			writeErrorResponse(w, r, http.StatusInternalServerError, errUnexpected, nil)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Limit(), 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !resetAt.IsZero() {
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		}

		if !allowed {
			if wait := time.Until(resetAt); wait > 0 {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(math.Ceil(wait.Seconds())), 10))
			}
			log.WithField("client", client).WithField("limited_route", route).Warn("Rate limit exceeded")
			writeErrorResponse(w, r, http.StatusTooManyRequests, errRateLimited, nil)
			return
		}

		next(w, r)
	}
}
