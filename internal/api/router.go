package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"recipio/internal/api/handlers"
	"recipio/internal/api/handlers/health"
	recipeHandler "recipio/internal/api/handlers/recipe"
	"recipio/internal/api/middleware"
	"recipio/internal/core/ai/provider"
	aiservice "recipio/internal/core/ai/service"
	recipeService "recipio/internal/core/recipe"
	"recipio/internal/infrastructure/config"
	"recipio/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the process-wide handles the router wires into handlers.
// Redis is optional.
type Dependencies struct {
	DB       *gorm.DB
	Redis    *goredis.Client
	Provider provider.Provider
}

// SetupRouter builds the gin engine.
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, errors.New("database is required")
	}
	if deps.Provider == nil {
		return nil, errors.New("completion provider is required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.UserIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Upload.MaxBodyBytes))
	router.Use(requestTimeout(cfg.Server.RequestTimeout))

	store := recipeService.NewGormStore(deps.DB)
	assembler := recipeService.NewAssembler(store)
	ai := aiservice.NewService(deps.Provider)
	substitutionSvc := recipeService.NewSubstitutionService(ai)
	generationSvc := recipeService.NewGenerationService(ai)

	recipes := recipeHandler.NewHandler(assembler, store)
	aiHandler := handlers.NewAIHandler(substitutionSvc, generationSvc)
	healthHandler := health.NewHandler(cfg, deps.DB, deps.Redis)

	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	aiLimits := aiMiddleware(cfg, deps.Redis)
	withAILimits := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, aiLimits...), h)
	}

	api := router.Group("/api/v1")
	{
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("", recipes.List)
			recipeGroup.GET("/:id", recipes.Get)
			recipeGroup.POST("", middleware.RequireUser(), recipes.Create)
			recipeGroup.PUT("/:id", middleware.RequireUser(), recipes.Replace)
			recipeGroup.PATCH("/:id", middleware.RequireUser(), recipes.Patch)
			recipeGroup.DELETE("/:id", middleware.RequireUser(), recipes.Delete)

			recipeGroup.POST("/substitute", withAILimits(aiHandler.Substitute)...)
		}

		api.POST("/generate-recipe", withAILimits(aiHandler.GenerateRecipe)...)
	}

	common.LogInfo("Router setup completed",
		zap.String("model", deps.Provider.GetModel()),
		zap.Bool("redis_enabled", deps.Redis != nil),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Upload.MaxBodyBytes),
	)

	return router, nil
}

// aiMiddleware guards the completion endpoints: a rate limit (shared via
// redis when available) and duplicate-submission rejection.
func aiMiddleware(cfg *config.Config, redis *goredis.Client) []gin.HandlerFunc {
	var chain []gin.HandlerFunc

	if cfg.RateLimit.Enabled {
		var limiter middleware.Limiter
		if redis != nil {
			limiter = middleware.NewRedisWindow(redis, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		} else {
			limiter = middleware.NewTokenBucket(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
		chain = append(chain, middleware.RateLimit(limiter, cfg.RateLimit.Window))
	}

	chain = append(chain, middleware.NewDeduplicator(cfg.DedupWindow).Middleware())
	return chain
}

// requestTimeout bounds each request's context and answers 504 when a
// handler ran out of time without writing a response.
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
					Code:    common.ErrCodeGatewayTimeout,
					Message: "request timed out",
				})
			}
		}
	}
}
