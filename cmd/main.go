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

	httpAdapter "github.com/campusmarket/marketplace-service/internal/adapter/http"
	natsAdapter "github.com/campusmarket/marketplace-service/internal/adapter/messaging/nats"
	"github.com/campusmarket/marketplace-service/internal/adapter/repository/cache"
	mongoRepo "github.com/campusmarket/marketplace-service/internal/adapter/repository/mongodb"

	"github.com/campusmarket/marketplace-service/internal/config"
	"github.com/campusmarket/marketplace-service/internal/mailer"
	"github.com/campusmarket/marketplace-service/internal/usecase"

	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"github.com/campusmarket/marketplace-service/internal/platform/metrics"
	"github.com/campusmarket/marketplace-service/internal/platform/tracer"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Application starting...")

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Configuration loaded successfully",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort))

	var tp *sdktrace.TracerProvider
	if cfg.OTELExporterEndpoint != "" {
		tp = tracer.InitTracer(cfg.ServiceName, cfg.OTELExporterEndpoint, appLogger)
		defer func() {
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := tp.Shutdown(ctxShutdown); err != nil {
				appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
		appLogger.Info("OpenTelemetry Tracer initialized.")
	} else {
		appLogger.Info("OpenTelemetry Tracer not initialized (OTEL_EXPORTER_OTLP_ENDPOINT not set).")
	}

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()

	ctxPingMongo, cancelPingMongo := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPingMongo()
	if err = mongoClient.Ping(ctxPingMongo, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	appLogger.Info("Successfully connected and pinged MongoDB.")
	db := mongoClient.Database(cfg.MongoDatabase)

	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, cfg.ServiceName)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()
	appLogger.Info("NATS Publisher initialized.")

	adRepo, err := mongoRepo.NewAdRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize AdRepository", zap.Error(err))
	}
	reportRepo, err := mongoRepo.NewReportRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize ReportRepository", zap.Error(err))
	}
	userRepo := mongoRepo.NewUserRepository(db, appLogger)
	appLogger.Info("Repositories initialized.")

	var adCache usecase.AdCache
	if cfg.RedisAddr != "" {
		ctxRedis, cancelRedis := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := cache.NewAdCache(ctxRedis, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, appLogger)
		cancelRedis()
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisCache.Close()
		adCache = redisCache
		appLogger.Info("Redis ad cache initialized.")
	} else {
		appLogger.Info("Redis ad cache not initialized (REDIS_ADDR not set).")
	}

	var reportMailer usecase.Mailer
	if cfg.SMTPHost != "" {
		reportMailer = mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword, appLogger)
		appLogger.Info("SMTP mailer initialized.")
	} else {
		reportMailer = mailer.NoopSender{}
		appLogger.Info("SMTP mailer not configured, report notifications disabled.")
	}

	adUsecase := usecase.NewAdUsecase(adRepo, adCache, natsPublisher, appLogger)
	ratingUsecase := usecase.NewRatingUsecase(adRepo, adCache, natsPublisher, appLogger)
	reportUsecase := usecase.NewReportUsecase(reportRepo, adRepo, userRepo, natsPublisher, reportMailer, appLogger)
	promotionUsecase := usecase.NewPromotionUsecase(adRepo, adCache, natsPublisher, appLogger)
	favoriteUsecase := usecase.NewFavoriteUsecase(userRepo, adRepo, natsPublisher, appLogger)
	userUsecase := usecase.NewUserUsecase(userRepo, natsPublisher, appLogger)
	appLogger.Info("Usecases initialized.")

	metricsManager := metrics.NewManager("marketplace")
	if cfg.PrometheusMetricsPort != "" {
		go func() {
			if err := metrics.StartServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	} else {
		appLogger.Info("Prometheus metrics server not started (PROMETHEUS_METRICS_PORT not set).")
	}

	handler := httpAdapter.NewHandler(
		adUsecase,
		ratingUsecase,
		reportUsecase,
		promotionUsecase,
		favoriteUsecase,
		userUsecase,
		metricsManager,
		appLogger,
	)
	router := httpAdapter.NewRouter(handler, cfg.JWTSecret, cfg.ServiceName, appLogger)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	appLogger.Info("Application shutting down...")
}
