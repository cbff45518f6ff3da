package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipio/internal/infrastructure/config"
	"recipio/internal/pkg/common"

	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const probeTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Model     string                 `json:"model"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// Handler serves health, readiness and liveness probes.
type Handler struct {
	cfg   *config.Config
	db    *gorm.DB
	redis *goredis.Client
}

// NewHandler creates a Handler. redis may be nil when it is disabled.
func NewHandler(cfg *config.Config, db *gorm.DB, redis *goredis.Client) *Handler {
	return &Handler{cfg: cfg, db: db, redis: redis}
}

// HealthCheck reports version and runtime stats.
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Model:     h.cfg.Groq.Model,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	})
}

// ReadinessCheck pings the database and, when enabled, redis.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	checks := gin.H{}
	ready := true

	if err := h.pingDatabase(ctx); err != nil {
		common.LogWarn("Database not ready", zap.Error(err))
		checks["database"] = err.Error()
		ready = false
	} else {
		checks["database"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			common.LogWarn("Redis not ready", zap.Error(err))
			checks["redis"] = err.Error()
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"checks": checks,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}

// LivenessCheck always answers while the process serves requests.
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (h *Handler) pingDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
