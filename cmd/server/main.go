package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/application"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/auth"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/cache"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/config"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/directions"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/ride"
	rideEvents "github.com/rohitbhanushali/uber-clone-source-code/internal/events"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/geocoding"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/handler"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/repository"
	pkgauth "github.com/rohitbhanushali/uber-clone-source-code/pkg/auth"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/database"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/health"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/kafka"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/logger"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/middleware"
)

const serviceName = "service-ride"

func main() {
	// Load configuration. Missing identity credentials stop the process here.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName, zap.String("config", cfg.String()))
	if warning := cfg.MapboxWarning(); warning != "" {
		log.Warn(warning)
	}

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(&repository.RideRequestModel{}); err != nil {
		log.Fatal("failed to run auto-migration", zap.Error(err))
	}

	jwtManager := pkgauth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.SessionTTL)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector()
	}

	// Redis when configured, otherwise a per-process cache.
	var responseCache cache.Cache = cache.NewMemory()
	if cfg.RedisConfig.Addr != "" {
		redisCache, err := cache.Dial(cfg.RedisConfig)
		if err != nil {
			log.Warn("redis unavailable, using in-process cache", zap.Error(err))
		} else {
			defer func() { _ = redisCache.Close() }()
			responseCache = redisCache
		}
	}

	// Hosted API clients
	geocoder := geocoding.NewCached(
		geocoding.NewClient(geocoding.Config{
			BaseURL: cfg.Mapbox.BaseURL,
			Token:   cfg.Mapbox.Token,
			Limit:   cfg.Mapbox.GeocodingLimit,
			Types:   cfg.Mapbox.GeocodingTypes,
			Timeout: cfg.Mapbox.RequestTimeout,
		}, log, collector),
		responseCache, cfg.RedisConfig.TTL, log, collector,
	)
	router := directions.NewCached(
		directions.NewClient(directions.Config{
			BaseURL: cfg.Mapbox.BaseURL,
			Token:   cfg.Mapbox.Token,
			Timeout: cfg.Mapbox.RequestTimeout,
		}, log, collector),
		responseCache, cfg.RedisConfig.TTL, log, collector,
	)
	identity := auth.NewFirebaseProvider(cfg.Firebase, cfg.IdentityBaseURL, log, collector)

	// Initialize application services
	rideRepo := repository.NewGormRideRepository(db)
	locationService := application.NewLocationService(
		geocoder,
		router,
		ride.NewPerMinutePricing(),
		ride.DefaultCatalog,
		log,
	)
	rideService := application.NewRideService(
		rideRepo,
		locationService,
		kafkaProducer,
		collector,
		log,
	)
	gate := auth.NewGate(identity, jwtManager, log)

	// Initialize and start driver event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "ride-service"
	driverConsumer := rideEvents.NewDriverEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		rideService,
		log,
	)
	defer func() { _ = driverConsumer.Close() }()

	go func() {
		log.Info("starting driver event consumer")
		if err := driverConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("driver event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	locationHandler := handler.NewLocationHandler(locationService, cfg.Mapbox.DebounceDelay, cfg.MapboxWarning(), collector, log)
	rideHandler := handler.NewRideHandler(rideService)
	authHandler := handler.NewAuthHandler(gate, cfg.Firebase, cfg.AppEnv == "production", collector, log)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Apply global middleware
	engine.Use(middleware.RecoveryMiddleware(log))
	engine.Use(middleware.LoggerMiddleware(log))
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(engine)
	if collector != nil {
		engine.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	// Register routes
	locationHandler.RegisterRoutes(&engine.RouterGroup)
	rideHandler.RegisterRoutes(&engine.RouterGroup, jwtManager)
	authHandler.RegisterRoutes(&engine.RouterGroup)

	// Create HTTP server. WriteTimeout is left unset: it would cut off the
	// long-lived map and search sockets.
	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
