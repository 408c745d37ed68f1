package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tms-platform/tracking-service/pkg/cloudevents"
	"github.com/tms-platform/tracking-service/pkg/errors"
	"github.com/tms-platform/tracking-service/pkg/kafka"
	"github.com/tms-platform/tracking-service/pkg/logging"
	"github.com/tms-platform/tracking-service/pkg/metrics"
	"github.com/tms-platform/tracking-service/pkg/middleware"
	"github.com/tms-platform/tracking-service/pkg/mongodb"
	"github.com/tms-platform/tracking-service/pkg/tracing"

	"github.com/tms-platform/tracking-service/internal/api/dto"
	"github.com/tms-platform/tracking-service/internal/application"
	"github.com/tms-platform/tracking-service/internal/domain"
	"github.com/tms-platform/tracking-service/internal/infrastructure/auth"
	kafkaInfra "github.com/tms-platform/tracking-service/internal/infrastructure/kafka"
	mongoRepo "github.com/tms-platform/tracking-service/internal/infrastructure/mongodb"
	syncInfra "github.com/tms-platform/tracking-service/internal/infrastructure/sync"
)

const serviceName = "tracking-service"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting tracking-service API")

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

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer behind a circuit breaker
	producer := kafka.NewProducer(config.Kafka)
	cbProducer := kafka.NewCircuitBreakerProducer(producer, logger)
	defer cbProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceTracking)
	publisher := kafkaInfra.NewEventPublisher(cbProducer, eventFactory)

	// Initialize repositories
	db := mongoClient.Database()
	shipmentRepo := mongoRepo.NewShipmentRepository(db)
	eventRepo := mongoRepo.NewScanEventRepository(db)
	routeRepo := mongoRepo.NewRouteRepository(db)
	moveRepo := mongoRepo.NewInventoryMoveRepository(db)
	ticketRepo := mongoRepo.NewAccessTicketRepository(db)
	pingRepo := mongoRepo.NewTrackingPingRepository(db)
	rateCounter := mongoRepo.NewRateCounter(db)

	// Initialize external sync client
	syncClient := syncInfra.NewClient(config.Sync, m, logger)
	if config.Sync.Enabled {
		logger.Info("External sync enabled", "baseUrl", config.Sync.BaseURL)
	}

	// Initialize application services
	ingestionService := application.NewIngestionService(shipmentRepo, eventRepo, moveRepo, rateCounter, syncClient, publisher, m, logger)
	timelineService := application.NewTimelineService(eventRepo, shipmentRepo, ticketRepo, m, logger)
	routeService := application.NewRouteService(routeRepo, shipmentRepo, eventRepo, logger)
	shipmentService := application.NewShipmentService(shipmentRepo, routeRepo, moveRepo, publisher, logger)
	ticketService := application.NewTicketService(ticketRepo, shipmentRepo, publisher, logger)
	pingService := application.NewPingService(pingRepo, publisher, logger)

	// Authentication and authorization
	resolver := auth.NewStaticTokenResolver(getEnv("API_TOKENS", ""))
	if resolver.Size() == 0 {
		logger.Warn("No API tokens configured; all authenticated routes will reject")
	}
	policy := middleware.DefaultPolicy()

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	api := router.Group("/api/v1")
	api.Use(middleware.Authenticate(resolver))

	events := api.Group("/events", middleware.Authorize(policy, "events"))
	{
		events.POST("", ingestEventHandler(ingestionService, logger))
	}

	shipments := api.Group("/shipments", middleware.Authorize(policy, "shipments"))
	{
		shipments.GET("", listShipmentsHandler(shipmentService, logger))
		shipments.POST("", createShipmentHandler(shipmentService, logger))
		shipments.GET("/:shipmentCode", getShipmentHandler(shipmentService, logger))
		shipments.GET("/:shipmentCode/movements", getMovementsHandler(shipmentService, logger))
	}

	routes := api.Group("/routes", middleware.Authorize(policy, "routes"))
	{
		routes.POST("", createRouteHandler(routeService, logger))
		routes.GET("/:routeCode", getRouteDetailsHandler(routeService, logger))
	}

	trackingGroup := api.Group("/tracking", middleware.Authorize(policy, "tracking"))
	{
		trackingGroup.GET("/:token", getTimelineHandler(timelineService, logger))
	}

	pings := api.Group("/pings", middleware.Authorize(policy, "pings"))
	{
		pings.POST("", recordPingHandler(pingService, logger))
		pings.GET("/:shipmentCode", listPingsHandler(pingService, logger))
	}

	tickets := api.Group("/tickets", middleware.Authorize(policy, "tickets"))
	{
		tickets.POST("", issueTicketHandler(ticketService, logger))
		tickets.POST("/:token/revoke", revokeTicketHandler(ticketService, logger))
	}

	analytics := api.Group("/analytics", middleware.Authorize(policy, "analytics"))
	{
		analytics.GET("", getAnalyticsHandler(syncClient, logger))
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
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
	Sync       *syncInfra.Config
}

func loadConfig() *Config {
	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = []string{getEnv("KAFKA_BROKERS", "localhost:9092")}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8020"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "tms_tracking"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: kafkaConfig,
		Sync: &syncInfra.Config{
			Enabled:        getEnv("SYNC_ENABLED", "false") == "true",
			BaseURL:        getEnv("SYNC_BASE_URL", "http://localhost:8090"),
			APIKey:         getEnv("SYNC_API_KEY", ""),
			MaxRetries:     getEnvInt("SYNC_MAX_RETRIES", 3),
			BaseDelay:      time.Duration(getEnvInt("SYNC_BASE_DELAY_MS", 200)) * time.Millisecond,
			RequestTimeout: time.Duration(getEnvInt("SYNC_TIMEOUT_MS", 5000)) * time.Millisecond,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// HTTP Handlers

func ingestEventHandler(service *application.IngestionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req dto.IngestEventRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"event.form_code": req.FormCode,
			"event.type":      req.EventType,
		})

		idempotencyKey := req.IdempotencyKey
		if headerKey := c.GetHeader("Idempotency-Key"); headerKey != "" {
			idempotencyKey = headerKey
		}

		actor := req.Actor
		if actor == "" {
			if a := middleware.GetActor(c); a != nil {
				actor = a.ID
			}
		}

		cmd := application.IngestEventCommand{
			FormCode:       req.FormCode,
			ShipmentID:     req.ShipmentID,
			WarehouseID:    req.WarehouseID,
			EventType:      req.EventType,
			RefType:        req.RefType,
			Payload:        req.Payload,
			Actor:          actor,
			IdempotencyKey: idempotencyKey,
			Timestamp:      req.Timestamp,
		}

		result, err := service.IngestEvent(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, dto.EventAcceptedResponse{
			EventID:   result.EventID,
			EventType: result.EventType,
			Status:    "accepted",
		})
	}
}

func createShipmentHandler(service *application.ShipmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req dto.CreateShipmentRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		actor := middleware.GetActor(c)
		if actor == nil {
			responder.RespondWithAppError(errors.ErrUnauthorized(""))
			return
		}

		cmd := application.CreateShipmentCommand{
			ShipmentCode:    req.ShipmentCode,
			OrgID:           actor.Org,
			RouteCode:       req.RouteCode,
			OriginWarehouse: req.OriginWarehouse,
			Customer:        req.Customer,
			Origin:          req.Origin,
			Destination:     req.Destination,
			RoutePath:       req.RoutePath,
		}
		for _, line := range req.Lines {
			cmd.Lines = append(cmd.Lines, application.StockLineInput{
				ProductCode:   line.ProductCode,
				Description:   line.Description,
				WarehouseCode: line.WarehouseCode,
				Quantity:      line.Quantity,
			})
		}

		shipment, err := service.CreateShipment(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, dto.ToShipmentResponse(shipment))
	}
}

func getShipmentHandler(service *application.ShipmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		shipmentCode := c.Param("shipmentCode")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"shipment.code": shipmentCode,
		})

		shipment, err := service.GetShipment(c.Request.Context(), shipmentCode)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, dto.ToShipmentResponse(shipment))
	}
}

func listShipmentsHandler(service *application.ShipmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		query := application.ListShipmentsQuery{
			Status:    c.Query("status"),
			RouteCode: c.Query("routeCode"),
			Page:      parseInt64Query(c, "page", 1),
			PageSize:  parseInt64Query(c, "pageSize", 50),
		}
		if actor := middleware.GetActor(c); actor != nil && actor.Role != "admin" {
			query.OrgID = actor.Org
		}

		shipments, total, err := service.ListShipments(c.Request.Context(), query)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		response := dto.ShipmentListResponse{
			Shipments: make([]dto.ShipmentResponse, len(shipments)),
			Total:     total,
			Page:      query.Page,
			PageSize:  query.PageSize,
		}
		for i, s := range shipments {
			response.Shipments[i] = dto.ToShipmentResponse(s)
		}

		c.JSON(http.StatusOK, response)
	}
}

func getMovementsHandler(service *application.ShipmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		shipmentCode := c.Param("shipmentCode")
		moves, err := service.GetMovements(c.Request.Context(), shipmentCode)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		response := dto.MovementListResponse{
			Movements: make([]dto.MovementResponse, len(moves)),
			Total:     len(moves),
		}
		for i, mv := range moves {
			response.Movements[i] = dto.ToMovementResponse(mv)
		}

		c.JSON(http.StatusOK, response)
	}
}

func createRouteHandler(service *application.RouteService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req dto.CreateRouteRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		actor := middleware.GetActor(c)
		if actor == nil {
			responder.RespondWithAppError(errors.ErrUnauthorized(""))
			return
		}

		route := &domain.Route{
			RouteCode: req.RouteCode,
			OrgID:     actor.Org,
		}
		for i, stop := range req.Stops {
			route.Stops = append(route.Stops, domain.RouteStop{
				Sequence:         i,
				WarehouseCode:    stop.WarehouseCode,
				PlannedArrival:   stop.PlannedArrival,
				PlannedDeparture: stop.PlannedDeparture,
			})
		}

		if err := service.CreateRoute(c.Request.Context(), route); err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, route)
	}
}

func getRouteDetailsHandler(service *application.RouteService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		routeCode := c.Param("routeCode")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"route.code": routeCode,
		})

		details, err := service.GetRouteDetails(c.Request.Context(), routeCode)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, details)
	}
}

func getTimelineHandler(service *application.TimelineService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		token := c.Param("token")
		timeline, err := service.GetTimeline(c.Request.Context(), token)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, timeline)
	}
}

func recordPingHandler(service *application.PingService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req dto.RecordPingRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		driverID := req.DriverID
		if driverID == "" {
			if a := middleware.GetActor(c); a != nil {
				driverID = a.ID
			}
		}

		ping, err := service.RecordPing(c.Request.Context(), application.RecordPingCommand{
			ShipmentCode: req.ShipmentCode,
			DriverID:     driverID,
			Lat:          req.Lat,
			Lng:          req.Lng,
			SpeedKph:     req.SpeedKph,
			RecordedAt:   req.RecordedAt,
		})
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, dto.ToPingResponse(ping))
	}
}

func listPingsHandler(service *application.PingService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		shipmentCode := c.Param("shipmentCode")
		limit := parseInt64Query(c, "limit", 100)

		pings, err := service.ListPings(c.Request.Context(), shipmentCode, limit)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		response := dto.PingListResponse{
			Pings: make([]dto.PingResponse, len(pings)),
			Total: len(pings),
		}
		for i, p := range pings {
			response.Pings[i] = dto.ToPingResponse(p)
		}

		c.JSON(http.StatusOK, response)
	}
}

func issueTicketHandler(service *application.TicketService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req dto.IssueTicketRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		actor := middleware.GetActor(c)
		if actor == nil {
			responder.RespondWithAppError(errors.ErrUnauthorized(""))
			return
		}

		ticket, err := service.IssueTicket(c.Request.Context(), application.IssueTicketCommand{
			OrgID:         actor.Org,
			WarehouseCode: req.WarehouseCode,
			ShipmentCode:  req.ShipmentCode,
			IssuedBy:      actor.ID,
		})
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, dto.ToTicketResponse(ticket))
	}
}

func revokeTicketHandler(service *application.TicketService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		revokedBy := ""
		if a := middleware.GetActor(c); a != nil {
			revokedBy = a.ID
		}

		ticket, err := service.RevokeTicket(c.Request.Context(), application.RevokeTicketCommand{
			Token:     c.Param("token"),
			RevokedBy: revokedBy,
		})
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, dto.ToTicketResponse(ticket))
	}
}

func getAnalyticsHandler(gateway application.SyncGateway, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		actor := middleware.GetActor(c)
		if actor == nil {
			responder.RespondWithAppError(errors.ErrUnauthorized(""))
			return
		}

		query := application.AnalyticsQuery{OrgID: actor.Org}
		if warehouses := c.QueryArray("warehouse"); len(warehouses) > 0 {
			query.Warehouses = warehouses
		}
		if fromStr := c.Query("from"); fromStr != "" {
			if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
				query.From = parsed
			}
		}
		if toStr := c.Query("to"); toStr != "" {
			if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
				query.To = parsed
			}
		}

		report, err := gateway.FetchAnalytics(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithAppError(errors.ErrServiceUnavailable("analytics backend"))
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// respondDomainError maps domain errors onto the API error taxonomy
func respondDomainError(responder *middleware.ErrorResponder, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		responder.RespondWithAppError(appErr)
		return
	}

	switch {
	case stderrors.Is(err, domain.ErrDuplicateEvent):
		responder.RespondWithAppError(errors.ErrDuplicateEvent(""))
	case stderrors.Is(err, domain.ErrRouteLegMismatch),
		stderrors.Is(err, domain.ErrShipmentUnresolved):
		responder.RespondWithAppError(errors.ErrInvalidLeg(err.Error()))
	case stderrors.Is(err, domain.ErrInvalidEventType),
		stderrors.Is(err, domain.ErrFormCodeRequired),
		stderrors.Is(err, domain.ErrShipmentCodeRequired),
		stderrors.Is(err, domain.ErrOrganizationRequired),
		stderrors.Is(err, domain.ErrInvalidPingCoordinate),
		stderrors.Is(err, domain.ErrInvalidStatusChange):
		responder.RespondWithAppError(errors.ErrValidation(err.Error()))
	case stderrors.Is(err, domain.ErrShipmentNotFound),
		stderrors.Is(err, domain.ErrRouteNotFound),
		stderrors.Is(err, domain.ErrTicketNotFound),
		stderrors.Is(err, domain.ErrTimelineNotFound):
		responder.RespondWithAppError(errors.ErrNotFound("resource").Wrap(err))
	case stderrors.Is(err, domain.ErrTicketAlreadyRevoked):
		responder.RespondWithAppError(errors.ErrConflict(err.Error()))
	default:
		responder.RespondInternalError(err)
	}
}

func parseInt64Query(c *gin.Context, key string, defaultValue int64) int64 {
	if raw := c.Query(key); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
