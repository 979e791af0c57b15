package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/controllers"
	"github.com/stimulico/compensation_backend/middlewares"
	"github.com/stimulico/compensation_backend/models"
	"github.com/stimulico/compensation_backend/workflow"
)

const defaultPort = "8080"

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// errorLogger logs only failed requests.
func errorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func registerRoutes(r *gin.Engine) {
	r.POST("/api/auth/login", controllers.Login)

	api := r.Group("/api", middlewares.AuthMiddleware())
	{
		api.GET("/profile", controllers.Profile)
		api.GET("/dashboard", controllers.GetDashboard)
		api.GET("/dashboard/export", controllers.ExportDashboard)

		api.GET("/employees", controllers.ListEmployees)
		api.GET("/employees/:id", controllers.GetEmployee)
		api.GET("/employees/export", controllers.ExportEmployees)

		api.GET("/requests", controllers.ListStimulusRequests)
		api.GET("/requests/:id", controllers.GetStimulusRequest)
		api.POST("/requests", controllers.CreateStimulusRequest)
		api.PUT("/requests/:id", controllers.UpdateStimulusRequest)
		api.DELETE("/requests/:id", controllers.DeleteStimulusRequest)

		api.GET("/campaigns", controllers.ListRequestCampaigns)
		api.GET("/campaigns/active", controllers.ListActiveCampaigns)
		api.GET("/campaigns/:id", controllers.GetRequestCampaign)

		api.GET("/periods", controllers.ListRecurringPeriods)
		api.GET("/periods/:id", controllers.GetRecurringPeriod)
		api.GET("/payments/:id/logs", controllers.ListRecurringPaymentLogs)

		api.GET("/divisions", controllers.ListDivisions)
		api.GET("/positions", controllers.ListPositions)
		api.GET("/staffing", controllers.ListPositionQuotas)
	}

	// Mutating routes beyond the request workflow are staff only.
	admin := r.Group("/api", middlewares.AuthMiddleware(), middlewares.StaffOnly())
	{
		admin.POST("/employees", controllers.CreateEmployee)
		admin.PUT("/employees/:id", controllers.UpdateEmployee)
		admin.DELETE("/employees/:id", controllers.DeleteEmployee)
		admin.POST("/employees/import", controllers.ImportEmployees)
		admin.POST("/assignments", controllers.CreateInternalAssignment)
		admin.DELETE("/assignments/:id", controllers.DeleteInternalAssignment)

		admin.POST("/requests/:id/status", controllers.ResolveStimulusRequest)
		admin.POST("/requests/bulk", controllers.BulkCreateStimulusRequests)
		admin.POST("/requests/bulk-delete", controllers.BulkDeleteStimulusRequests)

		admin.POST("/campaigns", controllers.CreateRequestCampaign)
		admin.PUT("/campaigns/:id", controllers.UpdateRequestCampaign)
		admin.DELETE("/campaigns/:id", controllers.DeleteRequestCampaign)
		admin.POST("/campaigns/:id/open", controllers.OpenRequestCampaign)
		admin.POST("/campaigns/:id/close", controllers.CloseRequestCampaign)
		admin.POST("/campaigns/:id/reopen", controllers.ReopenRequestCampaign)
		admin.POST("/campaigns/:id/archive", controllers.ArchiveRequestCampaign)

		admin.POST("/periods", controllers.CreateRecurringPeriod)
		admin.PUT("/periods/:id", controllers.UpdateRecurringPeriod)
		admin.DELETE("/periods/:id", controllers.DeleteRecurringPeriod)
		admin.POST("/periods/:id/open", controllers.OpenRecurringPeriod)
		admin.POST("/periods/:id/close", controllers.CloseRecurringPeriod)
		admin.POST("/payments", controllers.UpsertRecurringPayment)

		admin.GET("/budgets", controllers.ListBudgets)
		admin.GET("/budgets/:id", controllers.GetBudget)
		admin.POST("/budgets", controllers.CreateBudget)
		admin.PUT("/budgets/:id", controllers.UpdateBudget)
		admin.DELETE("/budgets/:id", controllers.DeleteBudget)
		admin.POST("/allocations", controllers.CreateBudgetAllocation)
		admin.DELETE("/allocations/:id", controllers.DeleteBudgetAllocation)
		admin.POST("/allocations/:id/reserve", controllers.ReserveAllocation)
		admin.POST("/allocations/:id/release", controllers.ReleaseAllocation)
		admin.POST("/allocations/:id/spend", controllers.SpendAllocation)

		admin.POST("/divisions", controllers.CreateDivision)
		admin.PUT("/divisions/:id", controllers.UpdateDivision)
		admin.DELETE("/divisions/:id", controllers.DeleteDivision)
		admin.POST("/positions", controllers.CreatePosition)
		admin.PUT("/positions/:id", controllers.UpdatePosition)
		admin.DELETE("/positions/:id", controllers.DeletePosition)
		admin.POST("/staffing", controllers.CreatePositionQuota)
		admin.PUT("/staffing/:id", controllers.UpdatePositionQuota)
		admin.DELETE("/staffing/:id", controllers.DeletePositionQuota)

		admin.GET("/one-time-payments", controllers.ListOneTimePayments)
		admin.POST("/one-time-payments", controllers.CreateOneTimePayment)
		admin.DELETE("/one-time-payments/:id", controllers.DeleteOneTimePayment)
	}
}

func main() {
	_ = godotenv.Load()

	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Open the port before the dependencies are up; app routes return 503
	// until the database is ready.
	r := gin.New()
	r.Use(middlewares.CorrelationIdMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(errorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedis()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.Migrate(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Background sweep for overdue campaigns.
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	sweepInterval := time.Hour
	if v := strings.TrimSpace(os.Getenv("AUTO_CLOSE_INTERVAL_MINUTES")); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			sweepInterval = time.Duration(minutes) * time.Minute
		}
	}
	go workflow.NewCampaignAutoCloser(sweepInterval).Run(workerCtx)

	logger.WithFields(logrus.Fields{"info": "Connection Established"}).Info("listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop the worker first so it cannot start a sweep mid-drain.
	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
