package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/observability"
	"github.com/copper-mobile/app-api/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	healthCacheKey     = "health:status"
	healthyCacheTTL    = 5 * time.Second
	unhealthyCacheTTL  = 1 * time.Second
	healthCheckTimeout = 3 * time.Second
	statusHealthy      = "healthy"
	statusUnhealthy    = "unhealthy"
)

// HealthCache is the subset of the Redis client used to cache health results
type HealthCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// WorkerStats reports the state of a background worker
type WorkerStats interface {
	Stats() map[string]interface{}
}

// HealthHandlers serves liveness and dependency health
type HealthHandlers struct {
	checks  map[string]HealthCheck
	workers map[string]WorkerStats
	cache   HealthCache
	now     func() time.Time
}

// NewHealthHandlers creates the health handlers. cache may be nil, in which
// case every request runs the checks.
func NewHealthHandlers(checks map[string]HealthCheck, cache HealthCache) *HealthHandlers {
	return &HealthHandlers{checks: checks, workers: map[string]WorkerStats{}, cache: cache, now: time.Now}
}

// ReportWorker adds a worker's stats to every health response. Stats are
// read per request and never cached.
func (h *HealthHandlers) ReportWorker(name string, worker WorkerStats) *HealthHandlers {
	h.workers[name] = worker
	return h
}

// Ping godoc
// @Summary Ping
// @Description Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Router /ping [get]
func (h *HealthHandlers) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, models.MessageResponse{Message: "pong"})
}

// Health godoc
// @Summary Health check
// @Description Reports the status of MongoDB and Redis
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandlers) Health(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "HealthCheck")
	defer span.End()

	if health, ok := h.cached(ctx); ok {
		observability.CacheHits.WithLabelValues("health_check").Inc()
		span.SetAttributes(attribute.Bool("health.cache_hit", true))
		h.respond(c, health)
		return
	}

	health := h.run(ctx)
	h.store(ctx, health)

	span.SetAttributes(attribute.String("health.status", health.Status))
	h.respond(c, health)
}

func (h *HealthHandlers) respond(c *gin.Context, health models.HealthResponse) {
	if len(h.workers) > 0 {
		health.Workers = make(map[string]map[string]interface{}, len(h.workers))
		for name, worker := range h.workers {
			health.Workers[name] = worker.Stats()
		}
	}

	if health.Status == statusHealthy {
		c.JSON(http.StatusOK, health)
		return
	}
	c.JSON(http.StatusServiceUnavailable, health)
}

func (h *HealthHandlers) run(ctx context.Context) models.HealthResponse {
	health := models.HealthResponse{
		Status:    statusHealthy,
		Timestamp: h.now().UTC(),
		Services:  make(map[string]string, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		checkCtx, span := utils.TraceExternalService(ctx, name, "ping")
		checkCtx, cancel := context.WithTimeout(checkCtx, healthCheckTimeout)
		err := h.checks[name](checkCtx)
		cancel()

		if err != nil {
			utils.RecordErrorInSpan(span, err, map[string]interface{}{
				"service.name":      name,
				"service.operation": "ping",
			})
			observability.Logger().Warn("dependency unhealthy", zap.String("service", name), zap.Error(err))
			health.Status = statusUnhealthy
			health.Services[name] = statusUnhealthy
		} else {
			utils.AddSpanAttribute(span, "service.status", statusHealthy)
			health.Services[name] = statusHealthy
		}
		span.End()
	}
	return health
}

func (h *HealthHandlers) cached(ctx context.Context) (models.HealthResponse, bool) {
	var health models.HealthResponse
	if h.cache == nil {
		return health, false
	}

	ctx, span := utils.TraceCacheGet(ctx, healthCacheKey)
	defer span.End()

	data, err := h.cache.Get(ctx, healthCacheKey).Result()
	if err != nil {
		return health, false
	}
	if err := json.Unmarshal([]byte(data), &health); err != nil {
		observability.Logger().Warn("failed to unmarshal cached health data", zap.Error(err))
		return health, false
	}
	return health, true
}

func (h *HealthHandlers) store(ctx context.Context, health models.HealthResponse) {
	if h.cache == nil {
		return
	}

	ttl := healthyCacheTTL
	if health.Status == statusUnhealthy {
		ttl = unhealthyCacheTTL
	}

	ctx, span := utils.TraceCacheSet(ctx, healthCacheKey, ttl)
	defer span.End()

	data, err := json.Marshal(health)
	if err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"cache.operation": "marshal"})
		return
	}
	if err := h.cache.Set(ctx, healthCacheKey, data, ttl).Err(); err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"cache.operation": "set"})
		observability.Logger().Warn("failed to cache health status", zap.Error(err))
	}
}
