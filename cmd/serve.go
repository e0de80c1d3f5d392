package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/meddetect/internal/auth"
	"github.com/example/meddetect/internal/config"
	"github.com/example/meddetect/internal/handlers"
	"github.com/example/meddetect/internal/repository"
	"github.com/example/meddetect/internal/server"
	"github.com/example/meddetect/internal/usecase"
)

func serveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the classification and persistence API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), rt.cfg.Server, rt.logger)
		},
	}
}

func runServer(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen health %s: %w", cfg.GRPCAddr, err)
	}
	started := false
	defer func() {
		if !started {
			grpcListener.Close()
		}
	}()
	health := server.NewHealth(grpcListener)

	db, err := initDatabase(startCtx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	repo := repository.New(db, logger)
	if err := repo.AutoMigrate(startCtx); err != nil {
		return err
	}

	cache, err := initCache(startCtx, cfg.RedisAddr, logger)
	if err != nil {
		return err
	}
	defer closeCache(cache, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := usecase.NewMetrics(registry)
	if err != nil {
		return err
	}

	detections := usecase.NewDetectionUseCase(repo, cache, metrics, logger)
	contacts := usecase.NewContactUseCase(repo, metrics, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	handlers.RegisterRoutes(router, handlers.Dependencies{
		Classifier: detections,
		Detections: detections,
		Contacts:   contacts,
		Gatherer:   registry,
		Logger:     logger,
	}, auth.CallerMiddleware())

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	started = true
	health.MarkServing()
	logger.Info("MedDetect API listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("health_addr", grpcListener.Addr().String()),
		zap.Bool("redis_cache", cfg.RedisAddr != ""),
	)

	return server.Serve(httpServer, server.Options{
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          logger,
		Health:          health,
	})
}

func initDatabase(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access db handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping: %w", err)
	}
	return db, nil
}

func initCache(ctx context.Context, addr string, logger *zap.Logger) (usecase.Cache, error) {
	if addr == "" {
		logger.Info("REDIS_ADDR not set, using in-process result cache")
		return usecase.NewMemoryCache(time.Minute), nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return usecase.NewRedisCache(client), nil
}

// closeCache releases cache connections once the server has stopped.
func closeCache(cache usecase.Cache, logger *zap.Logger) {
	closer, ok := cache.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("failed to close result cache", zap.Error(err))
	}
}
