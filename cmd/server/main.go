package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	inventoryapp "github.com/retailcore/backend/internal/application/inventory"
	purchasingapp "github.com/retailcore/backend/internal/application/purchasing"
	receivingapp "github.com/retailcore/backend/internal/application/receiving"
	"github.com/retailcore/backend/internal/domain/receiving"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/cache"
	"github.com/retailcore/backend/internal/infrastructure/config"
	"github.com/retailcore/backend/internal/infrastructure/event"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/infrastructure/persistence"
	"github.com/retailcore/backend/internal/interfaces/http/handler"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
	"github.com/retailcore/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting receiving engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	recordRepo := persistence.NewGormReceivingRecordRepository(db.DB)
	stockLevelRepo := persistence.NewGormStockLevelRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	auditSink := persistence.NewGormAuditSink(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)
	activityHandler := purchasingapp.NewOrderActivityHandler(log)
	eventBus.Subscribe(activityHandler)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Duplicate receipt guard, selected by configuration
	duplicatePolicy, cleanup := buildDuplicatePolicy(cfg, recordRepo, log)
	defer cleanup()

	validationOptions := receiving.ValidationOptions{
		AllowOverReceiving:   cfg.Receiving.AllowOverReceiving,
		TolerancePercentage:  decimal.NewFromFloat(cfg.Receiving.TolerancePercentage),
		RequireBatchTracking: cfg.Receiving.RequireBatchTracking,
		RequireExpiryDates:   cfg.Receiving.RequireExpiryDates,
	}

	// Application services
	receivingService := receivingapp.NewService(
		orderRepo, recordRepo, duplicatePolicy, txScope, auditSink, eventBus, log, validationOptions,
	)
	purchasingService := purchasingapp.NewService(orderRepo, eventBus, log)
	inventoryQueries := inventoryapp.NewQueryService(stockLevelRepo, movementRepo, productRepo, log)

	// HTTP layer
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	// Middleware order: request ID first so recovery and logging can tag
	// their output, recovery before logging so a panic still produces a line.
	engine.Use(
		middleware.RequestID(log),
		middleware.Recovery(log),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.HTTP.CORSAllowOrigins),
	)

	r := router.NewRouter(engine)
	r.Register(handler.NewPurchaseOrderHandler(purchasingService))
	r.Register(handler.NewReceivingHandler(receivingService))
	r.Register(handler.NewInventoryHandler(inventoryQueries))
	r.Setup()

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}

// buildDuplicatePolicy wires the configured duplicate guard. The idempotency
// key strategy needs a shared store; Redis backs it so replays are detected
// across instances.
func buildDuplicatePolicy(cfg *config.Config, records receiving.ReceivingRecordRepository, log *zap.Logger) (receiving.DuplicateReceiptPolicy, func()) {
	switch cfg.Receiving.DuplicateStrategy {
	case "idempotency_key":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		var store shared.IdempotencyStore = cache.NewRedisIdempotencyStore(client)
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unreachable, falling back to in-memory idempotency store", zap.Error(err))
			_ = client.Close()
			memStore := cache.NewInMemoryIdempotencyStore()
			return receiving.NewIdempotencyKeyPolicy(memStore, cfg.Receiving.IdempotencyTTL), func() { _ = memStore.Close() }
		}
		log.Info("Duplicate guard: idempotency key", zap.Duration("ttl", cfg.Receiving.IdempotencyTTL))
		return receiving.NewIdempotencyKeyPolicy(store, cfg.Receiving.IdempotencyTTL), func() { _ = client.Close() }
	default:
		log.Info("Duplicate guard: time window", zap.Duration("window", cfg.Receiving.DuplicateWindow))
		return receiving.NewTimeWindowPolicy(records, cfg.Receiving.DuplicateWindow), func() {}
	}
}
