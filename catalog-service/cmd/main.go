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

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pdv/catalog-service/internal/app/catalog/config"
	"pdv/catalog-service/internal/app/catalog/handler"
	"pdv/catalog-service/internal/app/catalog/processor"
	"pdv/catalog-service/internal/app/catalog/repository"
	"pdv/catalog-service/internal/app/catalog/service"
	"pdv/catalog-service/internal/app/catalog/util"
	"pdv/pkg/logger"
)

const (
	serviceName       = "catalog-service"
	connectAttempts   = 10
	connectRetryDelay = 3 * time.Second
)

func main() {
	// === ИНИЦИАЛИЗАЦИЯ КОНФИГУРАЦИИ ===
	cfg, err := config.Load()
	if err != nil {
		logger.Init(serviceName, "info")
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	// === ЛОГИРОВАНИЕ (stdout + Logstash) ===
	logger.Init(serviceName, cfg.LogLevel)
	if cfg.LogstashAddr != "" {
		closer, err := logger.InitLogstash(cfg.LogstashAddr, serviceName, cfg.LogLevel)
		if err != nil {
			logger.Warn().Err(err).Msg("Logstash unavailable, logging to stdout only")
		} else {
			defer closer.Close()
		}
	}

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	// pgxpool - для точечных запросов (категории, заказы), gorm - для товаров и outbox
	pool, err := connectPool(context.Background(), cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Миграции только после успешного ping: пул уже дождался готовности PostgreSQL
	if cfg.Database.Migrate {
		if err := repository.RunMigrations(cfg.Database.MigrationURL()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		logger.Info().Msg("Database migrations applied")
	}

	db, err := connectGorm(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open gorm connection")
	}
	logger.Info().Msg("Successfully connected to PostgreSQL")

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	redisClient, err := util.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("Successfully connected to Redis")

	// === KAFKA PRODUCER ===
	kafkaProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()

	// === ХРАНИЛИЩЕ ИЗОБРАЖЕНИЙ (S3-совместимое) ===
	storage := util.NewS3Storage(
		cfg.Storage.Endpoint,
		cfg.Storage.Region,
		cfg.Storage.Bucket,
		cfg.Storage.AccessKeyID,
		cfg.Storage.SecretAccessKey,
	)

	// === РЕПОЗИТОРИИ ===
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	deletionRepo := repository.NewImageDeletionRepository(db)

	// === СЕРВИСЫ ===
	cleanupService := service.NewImageCleanupService(
		deletionRepo,
		storage,
		cfg.Cleanup.BatchSize,
		cfg.Cleanup.MaxAttempts,
	)
	productService := service.NewProductService(
		productRepo,
		categoryRepo,
		orderRepo,
		redisClient,
		storage,
		kafkaProducer,
		cleanupService,
		cfg.Redis.CategoryTTL,
	)

	// === ФОНОВАЯ ОЧИСТКА ИЗОБРАЖЕНИЙ ===
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := processor.NewCronScheduler(cleanupService)
	if err := scheduler.Start(ctx, cfg.Cleanup.Schedule); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Cleanup.Schedule).Msg("Failed to start cleanup scheduler")
	}

	// === HTTP ===
	var authMiddleware *handler.AuthMiddleware
	if cfg.JWT.Secret != "" {
		authMiddleware = handler.NewAuthMiddleware(cfg.JWT.Secret)
	} else {
		logger.Warn().Msg("JWT_SECRET is empty, /products is served without authentication")
	}

	router := handler.SetupRoutes(
		handler.NewProductHandler(productService),
		handler.NewHealthCheckHandler(db, redisClient, cleanupService),
		authMiddleware,
	)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Address()).Msg("Starting Catalog Service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Catalog Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancel()
	scheduler.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info().Msg("Catalog Service stopped gracefully")
}

// connectPool устанавливает соединение с PostgreSQL используя pgx connection pool.
// Повторяет попытки: в Docker PostgreSQL может быть еще не готов.
func connectPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	var pool *pgxpool.Pool
	for i := 0; i < connectAttempts; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().Err(err).Int("attempt", i+1).Int("max_attempts", connectAttempts).Msg("Failed to connect to database")
		time.Sleep(connectRetryDelay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", connectAttempts, err)
}

// connectGorm открывает gorm поверх драйвера pgx с той же логикой повторов
func connectGorm(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var db *gorm.DB
	var err error

	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				err = pingErr
			} else {
				sqlDB.SetMaxOpenConns(15)
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				sqlDB.SetConnMaxIdleTime(1 * time.Minute)
				return db, nil
			}
		}
		logger.Warn().Err(err).Int("attempt", i+1).Int("max_attempts", connectAttempts).Msg("Failed to open gorm connection")
		time.Sleep(connectRetryDelay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", connectAttempts, err)
}
