package handler

import (
	"context"
	"net/http"
	"time"

	"pdv/catalog-service/internal/app/catalog/service"
	"pdv/pkg/metrics"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthTimeout = 5 * time.Second

// Pinger - зависимость, доступность которой проверяет health check (Redis)
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthCheckHandler struct {
	db         *gorm.DB
	cache      Pinger
	cleanupSvc service.ImageCleanupServiceInterface
}

func NewHealthCheckHandler(
	db *gorm.DB,
	cache Pinger,
	cleanupSvc service.ImageCleanupServiceInterface,
) *HealthCheckHandler {
	return &HealthCheckHandler{
		db:         db,
		cache:      cache,
		cleanupSvc: cleanupSvc,
	}
}

type HealthResponse struct {
	Status               string            `json:"status"`
	Service              string            `json:"service"`
	Checks               map[string]string `json:"checks"`
	PendingImageDeletion int64             `json:"pending_image_deletions"`
	Timestamp            time.Time         `json:"timestamp"`
}

// HealthCheck - GET /health. Redis не критичен: сервис работает и без кеша.
func (h *HealthCheckHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := make(map[string]string)
	overallStatus := "healthy"

	if err := h.checkDatabase(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
	} else {
		checks["database"] = "healthy"
	}

	if err := h.cache.Ping(ctx); err != nil {
		checks["redis"] = "degraded: " + err.Error()
	} else {
		checks["redis"] = "healthy"
	}

	pending, err := h.cleanupSvc.PendingCount(ctx)
	if err != nil {
		checks["image_cleanup"] = "warning: " + err.Error()
	} else {
		checks["image_cleanup"] = "healthy"
	}

	response := HealthResponse{
		Status:               overallStatus,
		Service:              "catalog-service",
		Checks:               checks,
		PendingImageDeletion: pending,
		Timestamp:            time.Now(),
	}

	if overallStatus != "healthy" {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *HealthCheckHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.checkDatabase(ctx); err != nil {
		c.String(http.StatusServiceUnavailable, "database not ready")
		return
	}

	c.String(http.StatusOK, "ready")
}

func (h *HealthCheckHandler) Liveness(c *gin.Context) {
	c.String(http.StatusOK, "alive")
}

func (h *HealthCheckHandler) checkDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}

	stats := sqlDB.Stats()
	metrics.RecordDbPoolStats("catalog-service", stats.Idle, stats.InUse)

	return sqlDB.PingContext(ctx)
}

func (h *HealthCheckHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.HealthCheck)
	router.GET("/health/readiness", h.Readiness)
	router.GET("/health/liveness", h.Liveness)
}
