package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/dto"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/metrics"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/service"
)

type Handler struct {
	analyticsService service.AnalyticsServicer
	router           *gin.Engine
	log              *zap.Logger
}

func NewHandler(analyticsService service.AnalyticsServicer, log *zap.Logger) *Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestMetrics(log))

	h := &Handler{
		analyticsService: analyticsService,
		router:           router,
		log:              log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/status", h.status)
	h.router.GET("/internal/metrics", gin.WrapH(metrics.Handler()))
	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	h.router.POST("/events", h.ingestEvent)
	h.router.POST("/events/bulk", h.ingestEventsBulk)

	h.router.GET("/analytics/events/stats", h.getEventStats)
	h.router.GET("/analytics/:entity_id", h.getDailyMetrics)

	h.router.POST("/subscriptions", h.subscribe)
	h.router.GET("/subscriptions/:id/updates", h.pollUpdates)
	h.router.DELETE("/subscriptions/:id", h.unsubscribe)
}

// requestMetrics records request counts and latency per route
func requestMetrics(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := metrics.NewTimer()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		metrics.APIRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		duration := timer.ObserveDuration(metrics.APIRequestDuration.WithLabelValues(route))

		log.Debug("Request served",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", duration))
	}
}

// respondError maps service errors onto status codes and the error body
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEvent), errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrCodeValidation, Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: dto.ErrCodeNotFound, Message: err.Error()})
	case errors.Is(err, domain.ErrStoreFailure), errors.Is(err, service.ErrArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: dto.ErrCodeUnavailable, Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.ErrCodeInternal, Message: err.Error()})
	}
}

func (h *Handler) validationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   dto.ErrCodeValidation,
		Message: err.Error(),
	})
}

// healthCheck handles GET /health
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// status handles GET /status
// @Summary Pipeline status
// @Description Report buffer depth, flush health and store reachability
// @Tags health
// @Produce json
// @Success 200 {object} dto.StatusResponse
// @Failure 503 {object} dto.StatusResponse
// @Router /status [get]
func (h *Handler) status(c *gin.Context) {
	response := h.analyticsService.Status(c.Request.Context())

	code := http.StatusOK
	if !response.StoreReachable {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

// ingestEvent handles POST /events
// @Summary Ingest a single event
// @Description Validate one analytics event and buffer it for aggregation
// @Tags events
// @Accept json
// @Produce json
// @Param event body dto.IngestEventRequest true "Event data"
// @Success 202 {object} dto.IngestEventResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /events [post]
func (h *Handler) ingestEvent(c *gin.Context) {
	var req dto.IngestEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid event request",
			zap.Error(err),
			zap.String("event_type", req.EventType))
		h.validationError(c, err)
		return
	}

	if err := h.analyticsService.ProcessEvent(c.Request.Context(), &req); err != nil {
		h.log.Warn("Failed to process event",
			zap.Error(err),
			zap.String("event_type", req.EventType),
			zap.String("entity_id", req.EntityID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.IngestEventResponse{Status: "accepted"})
}

// ingestEventsBulk handles POST /events/bulk
// @Summary Ingest multiple events
// @Description Buffer up to 1000 events; invalid events are reported without failing the batch
// @Tags events
// @Accept json
// @Produce json
// @Param events body dto.IngestEventsBulkRequest true "Bulk events data"
// @Success 202 {object} dto.IngestBulkEventsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /events/bulk [post]
func (h *Handler) ingestEventsBulk(c *gin.Context) {
	var bulkRequest dto.IngestEventsBulkRequest

	if err := c.ShouldBindJSON(&bulkRequest); err != nil {
		h.log.Warn("Invalid bulk event request", zap.Error(err))
		h.validationError(c, err)
		return
	}

	response, err := h.analyticsService.ProcessBulkEvents(c.Request.Context(), bulkRequest.Events)
	if err != nil {
		h.log.Error("Failed to process bulk events",
			zap.Error(err),
			zap.Int("event_count", len(bulkRequest.Events)))
		h.respondError(c, err)
		return
	}

	h.log.Info("Bulk events processed",
		zap.Int("accepted", response.Accepted),
		zap.Int("rejected", response.Rejected),
		zap.Int("total", len(bulkRequest.Events)))

	c.JSON(http.StatusAccepted, response)
}

// getDailyMetrics handles GET /analytics/:entity_id
// @Summary Get daily metrics
// @Description Return the stored daily aggregate of an entity, today (UTC) by default
// @Tags analytics
// @Produce json
// @Param entity_id path string true "Entity ID"
// @Param tenant_id query string true "Tenant owning the entity"
// @Param date query string false "Day formatted as YYYY-MM-DD"
// @Success 200 {object} dto.DailyMetricsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /analytics/{entity_id} [get]
func (h *Handler) getDailyMetrics(c *gin.Context) {
	var req dto.GetDailyMetricsRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.validationError(c, err)
		return
	}
	if err := c.ShouldBindUri(&req); err != nil {
		h.validationError(c, err)
		return
	}

	response, err := h.analyticsService.GetDailyMetrics(c.Request.Context(), &req)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.log.Error("Failed to get daily metrics",
				zap.Error(err),
				zap.String("tenant_id", req.TenantID),
				zap.String("entity_id", req.EntityID),
				zap.String("date", req.Date))
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// getEventStats handles GET /analytics/events/stats
// @Summary Get archived event counts
// @Description Count archived raw events, optionally grouped by event type or day
// @Tags analytics
// @Produce json
// @Param tenant_id query string true "Tenant to count events for"
// @Param entity_id query string false "Entity to filter by"
// @Param from query int true "Start timestamp (Unix epoch)"
// @Param to query int true "End timestamp (Unix epoch)"
// @Param group_by query string false "Field to group by" Enums(event_type, day)
// @Success 200 {object} dto.EventStatsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /analytics/events/stats [get]
func (h *Handler) getEventStats(c *gin.Context) {
	var req dto.GetEventStatsRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid event stats request", zap.Error(err))
		h.validationError(c, err)
		return
	}

	response, err := h.analyticsService.GetEventStats(c.Request.Context(), &req)
	if err != nil {
		h.log.Warn("Failed to get event stats",
			zap.Error(err),
			zap.String("tenant_id", req.TenantID),
			zap.Int64("from", req.From),
			zap.Int64("to", req.To))
		h.respondError(c, err)
		return
	}

	h.log.Info("Event stats retrieved",
		zap.String("tenant_id", req.TenantID),
		zap.Uint64("total_count", response.TotalCount))

	c.JSON(http.StatusOK, response)
}

// subscribe handles POST /subscriptions
// @Summary Subscribe to updates
// @Description Register a live dashboard subscription for a tenant, optionally limited to entities
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body dto.SubscribeRequest true "Subscription"
// @Success 201 {object} dto.SubscriptionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /subscriptions [post]
func (h *Handler) subscribe(c *gin.Context) {
	var req dto.SubscribeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid subscription request", zap.Error(err))
		h.validationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.analyticsService.Subscribe(&req))
}

// pollUpdates handles GET /subscriptions/:id/updates
// @Summary Poll updates
// @Description Drain the pending updates of a subscription
// @Tags subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.PollResponse
// @Router /subscriptions/{id}/updates [get]
func (h *Handler) pollUpdates(c *gin.Context) {
	c.JSON(http.StatusOK, h.analyticsService.Poll(c.Param("id")))
}

// unsubscribe handles DELETE /subscriptions/:id
// @Summary Unsubscribe
// @Description Remove a subscription; unknown ids are ignored
// @Tags subscriptions
// @Param id path string true "Subscription ID"
// @Success 204
// @Router /subscriptions/{id} [delete]
func (h *Handler) unsubscribe(c *gin.Context) {
	h.analyticsService.Unsubscribe(c.Param("id"))
	c.Status(http.StatusNoContent)
}
