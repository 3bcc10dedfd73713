package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/middlewares"
	"bitbucket.org/arcadeworks/arcade_backend/models"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"bitbucket.org/arcadeworks/arcade_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = "8080"

var tracer = otel.Tracer("arcade-backend")

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

// sessionScope resolves the session user and stamps the tenant scope
// (business id, user id, user name) onto the request context. Everything
// behind it is tenant-scoped.
func sessionScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := utils.GetUsernameFromContext(c.Request.Context())
		if !ok || username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		user, err := models.GetUserByUsername(c.Request.Context(), username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := utils.SetBusinessIdInContext(c.Request.Context(), user.BusinessId)
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUserNameInContext(ctx, user.Name)
		ctx = utils.SetIsAdminInContext(ctx, user.Role == models.UserRoleAdmin)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, ok := utils.GetIsAdminFromContext(c.Request.Context()); !ok || !isAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

type outboxReplayRequest struct {
	BusinessId string `json:"business_id"`
	RecordId   int    `json:"record_id"`
}

func outboxReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req outboxReplayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.BusinessId == "" || req.RecordId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "business_id and record_id are required"})
			return
		}

		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "db is nil"})
			return
		}
		now := time.Now().UTC()
		if err := db.WithContext(c.Request.Context()).
			Model(&models.MachineEventRecord{}).
			Where("id = ? AND business_id = ?", req.RecordId, req.BusinessId).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusFailed,
				"next_attempt_at":    &now,
				"locked_at":          nil,
				"locked_by":          nil,
				"last_publish_error": nil,
			}).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"business_id":     req.BusinessId,
			"record_id":       req.RecordId,
			"publish_status":  models.OutboxPublishStatusFailed,
			"next_attempt_at": now.Format(time.RFC3339Nano),
		})
	}
}

func outboxStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := models.ListOutboxStatus(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, counts)
	}
}

type outboxRequeueDeadRequest struct {
	BusinessId string `json:"business_id"`
}

func outboxRequeueDeadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req outboxRequeueDeadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.BusinessId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "business_id is required"})
			return
		}
		count, err := models.RequeueDeadEvents(c.Request.Context(), req.BusinessId)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"business_id": req.BusinessId,
			"requeued":    count,
		})
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func registerRoutes(r *gin.Engine) {
	r.POST("/auth/login", loginHandler)

	api := r.Group("/api", sessionScope())

	api.POST("/auth/logout", logoutHandler)
	api.POST("/auth/change-password", changePasswordHandler)

	api.GET("/users", adminOnly(), listUsersHandler)
	api.POST("/users", adminOnly(), createUserHandler)

	api.GET("/venues", listVenuesHandler)
	api.GET("/venues/all", listAllVenuesHandler)
	api.GET("/venues/:id", getVenueHandler)
	api.POST("/venues", createVenueHandler)
	api.PUT("/venues/:id", updateVenueHandler)
	api.DELETE("/venues/:id", deleteVenueHandler)
	api.PATCH("/venues/:id/active", toggleVenueHandler)

	api.GET("/machines", listMachinesHandler)
	api.GET("/machines/all", listAllMachinesHandler)
	api.GET("/machines/:id", getMachineHandler)
	api.POST("/machines", createMachineHandler)
	api.PUT("/machines/:id", updateMachineHandler)
	api.DELETE("/machines/:id", deleteMachineHandler)
	api.PATCH("/machines/:id/active", toggleMachineHandler)
	api.GET("/machines/:id/stock", machineStockHandler)
	api.GET("/machines/:id/maintenance-timeline", machineTimelineHandler)
	api.GET("/machines/:id/maintenance-stats", machineMaintenanceStatsHandler)

	// barcode scanning: one endpoint per step, so a client can also decode
	// on-device and call lookup directly
	api.POST("/barcode/decode", barcodeDecodeHandler)
	api.POST("/barcode/lookup", barcodeLookupHandler)

	api.GET("/prizes", listPrizesHandler)
	api.GET("/prizes/all", listAllPrizesHandler)
	api.GET("/prizes/:id", getPrizeHandler)
	api.POST("/prizes", createPrizeHandler)
	api.PUT("/prizes/:id", updatePrizeHandler)
	api.DELETE("/prizes/:id", deletePrizeHandler)
	api.PATCH("/prizes/:id/active", togglePrizeHandler)

	api.GET("/parts", listPartsHandler)
	api.GET("/parts/all", listAllPartsHandler)
	api.GET("/parts/:id", getPartHandler)
	api.POST("/parts", createPartHandler)
	api.PUT("/parts/:id", updatePartHandler)
	api.DELETE("/parts/:id", deletePartHandler)

	api.GET("/stock-movements", listStockMovementsHandler)
	api.GET("/stock-movements/:id", getStockMovementHandler)
	api.POST("/stock-movements", createStockMovementHandler)
	api.DELETE("/stock-movements/:id", deleteStockMovementHandler)

	api.GET("/machine-reports", listMachineReportsHandler)
	api.GET("/machine-reports/:id", getMachineReportHandler)
	api.POST("/machine-reports", createMachineReportHandler)
	api.PUT("/machine-reports/:id", updateMachineReportHandler)
	api.DELETE("/machine-reports/:id", deleteMachineReportHandler)

	api.GET("/job-reports", listJobReportsHandler)
	api.GET("/job-reports/:id", getJobReportHandler)
	api.POST("/job-reports", createJobReportHandler)
	api.PUT("/job-reports/:id", updateJobReportHandler)
	api.DELETE("/job-reports/:id", deleteJobReportHandler)

	api.GET("/maintenance-entries", listMaintenanceEntriesHandler)
	api.GET("/maintenance-entries/:id", getMaintenanceEntryHandler)
	api.POST("/maintenance-entries", createMaintenanceEntryHandler)
	api.PUT("/maintenance-entries/:id", updateMaintenanceEntryHandler)
	api.DELETE("/maintenance-entries/:id", deleteMaintenanceEntryHandler)

	api.GET("/equipment-hires", listEquipmentHiresHandler)
	api.GET("/equipment-hires/:id", getEquipmentHireHandler)
	api.POST("/equipment-hires", createEquipmentHireHandler)
	api.PUT("/equipment-hires/:id", updateEquipmentHireHandler)
	api.DELETE("/equipment-hires/:id", deleteEquipmentHireHandler)

	api.GET("/paywave-terminals", listPaywaveTerminalsHandler)
	api.GET("/paywave-terminals/:id", getPaywaveTerminalHandler)
	api.POST("/paywave-terminals", createPaywaveTerminalHandler)
	api.PUT("/paywave-terminals/:id", updatePaywaveTerminalHandler)
	api.DELETE("/paywave-terminals/:id", deletePaywaveTerminalHandler)

	api.GET("/reports/revenue-by-venue", revenueByVenueHandler)
	api.GET("/reports/revenue-by-machine", revenueByMachineHandler)
	api.GET("/reports/revenue-by-venue/export", revenueExportHandler)

	api.GET("/histories", listHistoriesHandler)

	api.POST("/uploads/machine-photo", uploadMachinePhotoHandler)
	api.POST("/uploads/venue-logo", uploadVenueLogoHandler)
	api.POST("/uploads/sign", signUploadHandler)
	api.POST("/uploads/complete", completeUploadHandler)
	api.GET("/uploads/object", uploadObjectHandler)

	// Ops tooling (admin only): replay outbox messages that were marked DEAD/FAILED.
	ops := api.Group("/internal/ops", adminOnly())
	ops.GET("/outbox/status", outboxStatusHandler())
	ops.POST("/outbox/replay", outboxReplayHandler())
	ops.POST("/outbox/requeue-dead", outboxRequeueDeadHandler())
}

func main() {
	port := os.Getenv("API_PORT_2")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	// One server span per request; DB spans hang off it via otelgorm.
	r.Use(func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+c.FullPath(),
			trace.WithSpanKind(trace.SpanKindServer))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		span.End()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
		models.InvalidateMaintenanceTableCache()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Start outbox dispatcher (publishes AFTER commit).
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	go workflow.NewOutboxDispatcher(db, logger).Run(dispatcherCtx)

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelDispatcher()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
