package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipio/internal/api"
	"recipio/internal/core/ai/groq"
	"recipio/internal/infrastructure/config"
	"recipio/internal/infrastructure/database"
	"recipio/internal/infrastructure/redis"
	"recipio/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("Configuration loaded",
		zap.String("groq_api_key", config.MaskAPIKey(cfg.Groq.APIKey)),
		zap.String("groq_model", cfg.Groq.Model),
		zap.String("database_driver", cfg.Database.Driver),
	)

	db, err := database.Open(cfg)
	if err != nil {
		common.LogFatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			common.LogWarn("Failed to close database", zap.Error(err))
		}
	}()

	redisClient, err := redis.NewClient(context.Background(), cfg)
	if err != nil {
		common.LogFatal("Failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	completions := groq.Shared(cfg)
	defer completions.Close()

	router, err := api.SetupRouter(cfg, api.Dependencies{
		DB:       db,
		Redis:    redisClient,
		Provider: completions,
	})
	if err != nil {
		common.LogFatal("Failed to setup router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("Starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}
