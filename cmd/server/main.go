package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cartapp "github.com/flowershop/storefront/internal/application/cart"
	catalogapp "github.com/flowershop/storefront/internal/application/catalog"
	identityapp "github.com/flowershop/storefront/internal/application/identity"
	orderapp "github.com/flowershop/storefront/internal/application/order"
	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/flowershop/storefront/internal/infrastructure/auth"
	"github.com/flowershop/storefront/internal/infrastructure/cache"
	"github.com/flowershop/storefront/internal/infrastructure/config"
	"github.com/flowershop/storefront/internal/infrastructure/event"
	"github.com/flowershop/storefront/internal/infrastructure/logger"
	"github.com/flowershop/storefront/internal/infrastructure/messaging"
	"github.com/flowershop/storefront/internal/infrastructure/persistence"
	"github.com/flowershop/storefront/internal/infrastructure/printing"
	"github.com/flowershop/storefront/internal/infrastructure/storage"
	"github.com/flowershop/storefront/internal/infrastructure/telemetry"
	"github.com/flowershop/storefront/internal/interfaces/http/handler"
	"github.com/flowershop/storefront/internal/interfaces/http/middleware"
	"github.com/flowershop/storefront/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/flowershop/storefront/docs"
)

//	@title			Flower Shop Storefront API
//	@version		1.0
//	@description	Catalog, cart, checkout and back-office order processing of the flower shop

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := baseLog
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}

	// Telemetry first, so the bridged logger and instrumented DB see providers
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, loggerProvider, logger.ParseLevel(cfg.Log.Level))
		log = telemetry.NewBridgedLogger(baseLog, otelCore)
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	log.Info("Starting flower shop storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Database.SlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)
		if err := plugin.Register(db.DB); err != nil {
			log.Fatal("Failed to register DB tracing", zap.Error(err))
		}
	}
	log.Info("Database connected")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, using in-process fallbacks", zap.Error(err))
			redisClient = nil
		} else {
			defer func() { _ = redisClient.Close() }()
		}
	}

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(redisClientOrNil(redisClient))
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	var tokenBlacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		tokenBlacklist = auth.NewRedisTokenBlacklist(redisClient)
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// Event bus with audit and metrics subscribers
	eventBus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch(1024))
	eventBus.Subscribe(event.NewIdempotentHandler(orderapp.NewOrderAuditHandler(log), idempotencyStore, log))
	if meterProvider.IsEnabled() {
		orderMetrics, err := telemetry.NewOrderMetrics(meterProvider.Meter(telemetry.MeterName))
		if err != nil {
			log.Fatal("Failed to register order metrics", zap.Error(err))
		}
		eventBus.Subscribe(event.NewIdempotentHandler(orderapp.NewOrderMetricsHandler(orderMetrics), idempotencyStore, log))
	}
	var brokerPublisher *messaging.EventPublisher
	if cfg.Messaging.Enabled {
		brokerPublisher, err = messaging.Dial(cfg.Messaging, log,
			order.EventTypeOrderPlaced, order.EventTypeOrderConfirmed, order.EventTypeOrderCancelled)
		if err != nil {
			log.Fatal("Failed to connect to message broker", zap.Error(err))
		}
		eventBus.Subscribe(event.NewIdempotentHandler(brokerPublisher, idempotencyStore, log))
		log.Info("Forwarding order events", zap.String("exchange", cfg.Messaging.Exchange))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, log)
	authService.SetTokenBlacklist(tokenBlacklist)
	authService.SetEventPublisher(eventBus)

	categoryService := catalogapp.NewCategoryService(categoryRepo)
	productService := catalogapp.NewProductService(productRepo, categoryRepo)
	productService.SetEventPublisher(eventBus)
	productService.SetLogger(log)

	cartService := cartapp.NewCartService(cartRepo, productRepo)

	orderService := orderapp.NewOrderService(
		persistence.NewGormTransactionScope(db.DB),
		orderRepo,
		userRepo,
		orderapp.Options{
			CheckoutRetries: cfg.Order.CheckoutRetries,
			RejectOversell:  cfg.Order.RejectOversell,
			IdempotencyTTL:  cfg.Order.IdempotencyTTL,
		},
	)
	orderService.SetEventPublisher(eventBus)
	orderService.SetIdempotencyStore(idempotencyStore)
	orderService.SetLogger(log)

	var archive printing.ObjectArchive
	if cfg.Storage.Enabled {
		objectStorage, err := storage.NewS3ObjectStorage(ctx, cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			log.Warn("Failed to ensure storage bucket", zap.Error(err))
		}
		productService.SetObjectStorage(objectStorage)
		productService.SetConfig(catalogapp.ProductServiceConfig{
			UploadURLExpiry:   cfg.Storage.PresignExpiration,
			DownloadURLExpiry: cfg.Storage.PresignExpiration,
		})
		archive = objectStorage
	}

	if cfg.Printing.Enabled {
		renderer := printing.NewChromedpRenderer(printing.ChromedpConfig{
			RemoteURL:      cfg.Printing.ChromeURL,
			DefaultTimeout: cfg.Printing.Timeout,
			NoSandbox:      true,
			Logger:         log,
		})
		defer func() { _ = renderer.Close() }()

		printer, err := printing.NewReceiptPrinter(renderer, printing.ReceiptPrinterConfig{
			ShopName:    cfg.Printing.ShopName,
			CurrencyISO: cfg.Printing.CurrencyISO,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize receipt printer", zap.Error(err))
		}
		if archive != nil {
			printer.SetArchive(archive)
		}
		orderService.SetReceiptRenderer(printer)
	}

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up validator", zap.Error(err))
	}

	health := handler.NewHealthHandler(cfg.App.Name, telemetry.ServiceVersion)
	health.AddCheck("database", func(context.Context) error { return db.Ping() })
	if redisClient != nil {
		health.AddCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engineConfig := router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Logger:         log,
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		CORS:           corsConfig,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing:        tracerProvider.IsEnabled(),
		Swagger:        cfg.Swagger.Enabled,
	}
	if cfg.HTTP.RateLimitEnabled {
		engineConfig.RateLimiter, engineConfig.AuthRateLimiter = newRateLimiters(cfg.HTTP, redisClient)
	}

	engine := router.NewEngine(engineConfig, router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Catalog:      handler.NewCatalogHandler(categoryService, productService),
		AdminCatalog: handler.NewAdminCatalogHandler(categoryService, productService),
		Cart:         handler.NewCartHandler(cartService),
		Orders:       handler.NewOrderHandler(orderService),
		AdminOrders:  handler.NewAdminOrderHandler(orderService),
		Health:       health,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if brokerPublisher != nil {
		if err := brokerPublisher.Close(); err != nil {
			log.Error("Error closing message broker connection", zap.Error(err))
		}
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Error("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited")
}

// redisClientOrNil keeps a nil *redis.Client from becoming a non-nil interface
func redisClientOrNil(client *redis.Client) redis.UniversalClient {
	if client == nil {
		return nil
	}
	return client
}

func newRateLimiters(cfg config.HTTPConfig, client *redis.Client) (middleware.Limiter, middleware.Limiter) {
	if client != nil {
		return middleware.NewRedisRateLimiter(client, "shop:ratelimit:api:", cfg.RateLimitRequests, cfg.RateLimitWindow),
			middleware.NewRedisRateLimiter(client, "shop:ratelimit:auth:", cfg.AuthRateLimitRequests, cfg.AuthRateLimitWindow)
	}
	return middleware.NewInMemoryRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		middleware.NewInMemoryRateLimiter(cfg.AuthRateLimitRequests, cfg.AuthRateLimitWindow)
}
