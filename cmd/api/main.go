package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/cloudevents"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/errors"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/idempotency"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/kafka"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/logging"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/metrics"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/middleware"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/mongodb"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/outbox"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/tracing"

	"github.com/KubeStock-DevOps-project/kubestock-core/internal/application"
	"github.com/KubeStock-DevOps-project/kubestock-core/internal/infrastructure/catalog"
	mongoRepo "github.com/KubeStock-DevOps-project/kubestock-core/internal/infrastructure/mongodb"
)

const serviceName = "inventory-service"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting inventory-service API")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing - don't exit
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// Initialize MongoDB with instrumentation and circuit breaker
	mongoClient, err := mongodb.NewProductionClient(ctx, config.MongoDB, m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize idempotency indexes
	if err := idempotency.InitializeIndexes(ctx, mongoClient.Database()); err != nil {
		logger.WithError(err).Warn("Failed to initialize idempotency indexes")
	} else {
		logger.Info("Idempotency indexes initialized")
	}

	// Kafka producer with instrumentation and circuit breaker
	kafkaProducer := kafka.NewProductionProducer(config.Kafka, m, logger)
	defer kafkaProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize CloudEvents factory
	eventFactory := cloudevents.NewEventFactory("/inventory-service")

	// Initialize repositories
	stockRepo := mongoRepo.NewStockRepository(mongoClient.Database(), eventFactory)
	movementRepo := mongoRepo.NewMovementRepository(mongoClient.Database())
	alertRepo := mongoRepo.NewAlertRepository(mongoClient.Database())

	// Initialize idempotency repository on an instrumented collection so
	// key lookups show up in traces and Mongo operation metrics
	idempotencyKeyRepo := idempotency.NewMongoKeyRepositoryWithCollection(mongoClient.Collection(idempotency.CollectionName))
	logger.Info("Idempotency repository initialized")

	// Initialize catalog resolver for product names
	resolver := catalog.NewClient(config.CatalogBaseURL, m, logger)
	logger.Info("Catalog resolver initialized", "baseUrl", config.CatalogBaseURL)

	// Initialize and start the outbox publisher
	outboxPublisher := outbox.NewPublisher(
		stockRepo.GetOutboxRepository(),
		kafkaProducer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: config.OutboxPollInterval,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started", "pollInterval", config.OutboxPollInterval)

	// Initialize application services
	stockService := application.NewStockApplicationService(stockRepo, movementRepo, m, logger)
	alertService := application.NewAlertApplicationService(
		stockRepo,
		alertRepo,
		resolver,
		kafkaProducer,
		eventFactory,
		kafka.Topics.AlertEvents,
		m,
		logger,
	)

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	// Idempotency for mutating stock operations
	idempotencyConfig := idempotency.DefaultConfig(serviceName, idempotencyKeyRepo)
	idempotencyConfig.Metrics = idempotency.NewMetrics(nil)
	router.Use(idempotency.Middleware(idempotencyConfig))

	// Metrics and tracing middleware
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	api := router.Group("/api/v1/inventory")
	{
		// Static routes first (must come before wildcard routes)
		api.GET("", listStockHandler(stockService, logger))
		api.POST("", createStockHandler(stockService, logger))
		api.POST("/bulk-check", bulkCheckHandler(stockService, logger))
		api.POST("/reserve", reserveHandler(stockService, logger))
		api.POST("/release", releaseHandler(stockService, logger))
		api.POST("/deduct", deductHandler(stockService, logger))
		api.POST("/receive", receiveHandler(stockService, logger))
		api.POST("/return", returnHandler(stockService, logger))
		api.POST("/adjust", adjustHandler(stockService, logger))

		// Alerting and reorder suggestions
		api.GET("/alerts", activeAlertsHandler(alertService, logger))
		api.GET("/alerts/low-stock", scanLowStockHandler(alertService, logger))
		api.POST("/alerts/check", checkLowStockHandler(alertService, logger))
		api.GET("/alerts/stats", alertStatsHandler(alertService, logger))
		api.GET("/reorder-suggestions", reorderSuggestionsHandler(alertService, logger))

		// Wildcard product routes (must come after static routes)
		api.GET("/:productId", getStockHandler(stockService, logger))
		api.PUT("/:productId/levels", updateLevelsHandler(stockService, logger))
		api.GET("/:productId/movements", getMovementsHandler(stockService, logger))
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr         string
	CatalogBaseURL     string
	OutboxPollInterval time.Duration
	MongoDB            *mongodb.Config
	Kafka              *kafka.Config
}

func loadConfig() *Config {
	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	kafkaConfig.ClientID = serviceName

	return &Config{
		ServerAddr:         getEnv("SERVER_ADDR", ":8005"),
		CatalogBaseURL:     getEnv("CATALOG_SERVICE_URL", "http://localhost:8001"),
		OutboxPollInterval: getDurationEnv("OUTBOX_POLL_INTERVAL", time.Second),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "inventory_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
			Username:       getEnv("MONGODB_USERNAME", ""),
			Password:       getEnv("MONGODB_PASSWORD", ""),
			AuthDB:         getEnv("MONGODB_AUTH_DB", "admin"),
			ReplicaSet:     getEnv("MONGODB_REPLICA_SET", ""),
		},
		Kafka: kafkaConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func respondWithError(c *gin.Context, logger *logging.Logger, err error) {
	responder := middleware.NewErrorResponder(c, logger.Logger)
	if appErr, ok := errors.AsAppError(err); ok {
		responder.RespondWithAppError(appErr)
		return
	}
	responder.RespondInternalError(err)
}

func createStockHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID         string `json:"productId" binding:"required,product_id"`
			SKU               string `json:"sku" binding:"omitempty,sku"`
			InitialQuantity   int    `json:"initialQuantity" binding:"gte=0"`
			WarehouseLocation string `json:"warehouseLocation" binding:"omitempty,warehouse_location"`
			ReorderLevel      int    `json:"reorderLevel" binding:"gte=0"`
			MaxStockLevel     int    `json:"maxStockLevel" binding:"gte=0"`
			PerformedBy       string `json:"performedBy" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		cmd := application.CreateStockCommand{
			ProductID:         req.ProductID,
			SKU:               req.SKU,
			InitialQuantity:   req.InitialQuantity,
			WarehouseLocation: req.WarehouseLocation,
			ReorderLevel:      req.ReorderLevel,
			MaxStockLevel:     req.MaxStockLevel,
			PerformedBy:       req.PerformedBy,
		}

		record, err := service.CreateStock(c.Request.Context(), cmd)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, record)
	}
}

func listStockHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := application.ListStockQuery{
			LowStockOnly: c.Query("low_stock") == "true",
			Location:     c.Query("location"),
			Search:       c.Query("search"),
			Page:         queryInt(c, "page", 1),
			PageSize:     queryInt(c, "limit", 20),
		}

		page, err := service.ListStock(c.Request.Context(), query)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, page)
	}
}

func getStockHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := application.GetStockQuery{ProductID: c.Param("productId")}

		record, err := service.GetStock(c.Request.Context(), query)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func bulkCheckHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductIDs []string `json:"productIds" binding:"required,min=1,max=100,dive,product_id"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		results, err := service.BulkStockCheck(c.Request.Context(), application.BulkCheckQuery{ProductIDs: req.ProductIDs})
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

func reserveHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID string `json:"productId" binding:"required,product_id"`
			Quantity  int    `json:"quantity" binding:"required,gt=0"`
			OrderRef  string `json:"orderRef" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		cmd := application.ReserveCommand{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			OrderRef:  req.OrderRef,
		}

		record, err := service.Reserve(c.Request.Context(), cmd)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func releaseHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID string `json:"productId" binding:"required,product_id"`
			Quantity  int    `json:"quantity" binding:"required,gt=0"`
			OrderRef  string `json:"orderRef" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		cmd := application.ReleaseCommand{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			OrderRef:  req.OrderRef,
		}

		record, err := service.Release(c.Request.Context(), cmd)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func deductHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID string `json:"productId" binding:"required,product_id"`
			Quantity  int    `json:"quantity" binding:"required,gt=0"`
			OrderRef  string `json:"orderRef" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		cmd := application.DeductCommand{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			OrderRef:  req.OrderRef,
		}

		record, err := service.ConfirmDeduction(c.Request.Context(), cmd)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func receiveHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID   string `json:"productId" binding:"required,product_id"`
			Quantity    int    `json:"quantity" binding:"required,gt=0"`
			ReferenceID string `json:"referenceId" binding:"omitempty,safe_string"`
			Notes       string `json:"notes" binding:"omitempty,safe_string"`
			PerformedBy string `json:"performedBy" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		cmd := application.ReceiveCommand{
			ProductID:   req.ProductID,
			Quantity:    req.Quantity,
			ReferenceID: req.ReferenceID,
			Notes:       req.Notes,
			PerformedBy: req.PerformedBy,
		}

		record, err := service.Receive(c.Request.Context(), cmd)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func returnHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID string `json:"productId" binding:"required,product_id"`
			Quantity  int    `json:"quantity" binding:"required,gt=0"`
			OrderRef  string `json:"orderRef" binding:"required,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		cmd := application.ReturnCommand{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			OrderRef:  req.OrderRef,
		}

		record, err := service.Return(c.Request.Context(), cmd)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func adjustHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID   string `json:"productId" binding:"required,product_id"`
			NewQuantity *int   `json:"newQuantity" binding:"required,gte=0"`
			Reason      string `json:"reason" binding:"required,safe_string"`
			PerformedBy string `json:"performedBy" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		cmd := application.AdjustCommand{
			ProductID:   req.ProductID,
			NewQuantity: *req.NewQuantity,
			Reason:      req.Reason,
			PerformedBy: req.PerformedBy,
		}

		record, err := service.Adjust(c.Request.Context(), cmd)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func updateLevelsHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ReorderLevel      int    `json:"reorderLevel" binding:"gte=0"`
			MaxStockLevel     int    `json:"maxStockLevel" binding:"gte=0"`
			WarehouseLocation string `json:"warehouseLocation" binding:"omitempty,warehouse_location"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		cmd := application.UpdateLevelsCommand{
			ProductID:         c.Param("productId"),
			ReorderLevel:      req.ReorderLevel,
			MaxStockLevel:     req.MaxStockLevel,
			WarehouseLocation: req.WarehouseLocation,
		}

		record, err := service.UpdateLevels(c.Request.Context(), cmd)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func getMovementsHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := application.GetMovementsQuery{
			ProductID:    c.Param("productId"),
			MovementType: c.Query("type"),
			Page:         queryInt(c, "page", 1),
			PageSize:     queryInt(c, "limit", 20),
		}

		page, err := service.GetMovements(c.Request.Context(), query)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, page)
	}
}

func scanLowStockHandler(service *application.AlertApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := service.ScanLowStock(c.Request.Context())
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
	}
}

func checkLowStockHandler(service *application.AlertApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := service.CheckLowStock(c.Request.Context())
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

func activeAlertsHandler(service *application.AlertApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		alerts, err := service.GetActiveAlerts(c.Request.Context())
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"alerts": alerts,
			"count":  len(alerts),
		})
	}
}

func alertStatsHandler(service *application.AlertApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := service.GetAlertStats(c.Request.Context())
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

func reorderSuggestionsHandler(service *application.AlertApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		suggestions, err := service.GetReorderSuggestions(c.Request.Context())
		if err != nil {
			respondWithError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "count": len(suggestions)})
	}
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	if raw := c.Query(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}
	return defaultValue
}
