// Package server is the MyWatt dashboard web server: it renders the page
// views, proxies chart data to the MyWatt backend, and enforces the
// session/authorization gate through its route-guard middleware.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mywatt/dashboard/internal/api"
	"github.com/mywatt/dashboard/internal/config"
	"github.com/mywatt/dashboard/internal/session"
)

// Server represents the dashboard HTTP server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    zerolog.Logger
	apiClient *api.Client
	sessions  *session.Manager
	cookies   *session.CookieCodec
	store     session.Store
	version   string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	store, err := openStore(cfg, zlog)
	if err != nil {
		return nil, err
	}

	cipher, err := session.NewTokenCipher(cfg.Session.EncryptionKey)
	if err != nil {
		return nil, err
	}

	apiClient := api.New(cfg.Backend.URL, zlog)

	server := &Server{
		config:    cfg,
		logger:    zlog,
		apiClient: apiClient,
		sessions:  session.NewManager(store, apiClient, cipher, cfg.Session.TTL, zlog),
		cookies:   session.NewCookieCodec(cfg.Session.SigningSecret),
		store:     store,
		version:   version,
	}

	registerValidators()
	server.setupRouter()

	return server, nil
}

// openStore selects the session store backend: PostgreSQL when configured,
// otherwise the SQLite file.
func openStore(cfg *config.Config, zlog zerolog.Logger) (session.Store, error) {
	if cfg.Session.PostgresURL != "" {
		zlog.Debug().Msg("Using PostgreSQL session store")
		return session.NewPostgresStore(cfg.Session.PostgresURL)
	}
	zlog.Debug().Str("path", cfg.Session.DatabaseURL).Msg("Using SQLite session store")
	return session.NewSQLiteStore(cfg.Session.DatabaseURL, zlog)
}

// registerValidators adds custom validators to gin's binding engine
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Device names must be safe as identifiers: alphanumeric, hyphen, underscore
	_ = v.RegisterValidation("alphanumdash", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return false
		}
		for _, char := range value {
			if !((char >= 'a' && char <= 'z') ||
				(char >= 'A' && char <= 'Z') ||
				(char >= '0' && char <= '9') ||
				char == '-' ||
				char == '_') {
				return false
			}
		}
		return true
	})
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS applies to the chart-data endpoints fetched from page scripts
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.config.Server.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if s.config.Server.TemplatesGlob != "" {
		s.router.LoadHTMLGlob(s.config.Server.TemplatesGlob)
	}

	// Every route sees the resolved session; the guards below decide access
	s.router.Use(s.sessionMiddleware())

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints
	s.router.GET(loginRoute, s.showLogin)
	s.router.POST(loginRoute, s.login)
	s.router.GET("/logout", s.logout)

	// Routes for any authenticated user
	authed := s.router.Group("/")
	authed.Use(s.requireAuth())
	{
		authed.GET(changePasswordRoute, s.showChangePassword)
		authed.POST(changePasswordRoute, s.changePassword)

		// Device-user pages
		authed.GET(homeRoute, s.showHome)
		authed.GET("/daily", s.showDaily)
		authed.GET("/weekly", s.showWeekly)
		authed.GET("/monthly", s.showMonthly)
		authed.GET("/yearly", s.showYearly)
		authed.GET("/settings", s.showSettings)
		authed.POST("/settings/rate", s.updateRate)

		// Chart-data endpoints fetched by the page scripts
		data := authed.Group("/data")
		{
			data.GET("/current-usage", s.dataCurrentUsage)
			data.GET("/current-rate", s.dataCurrentRate)
			data.GET("/current-voltage", s.dataCurrentVoltage)
			data.GET("/today-usage", s.dataTodayUsage)
			data.GET("/daily-trends", s.dataDailyTrends)
			data.GET("/monthly-billing-history", s.dataBillingHistory)
			data.GET("/hourly-usage", s.dataHourlyUsage)
			data.GET("/daily-range-usage", s.dataDailyRangeUsage)
			data.GET("/total-cost-day-range", s.dataTotalCostRange)
			data.GET("/weekly-trends", s.dataWeeklyTrends)
			data.GET("/weekly-breakdown", s.dataWeeklyBreakdown)
			data.GET("/monthly-trends", s.dataMonthlyTrends)
			data.GET("/monthly-breakdown", s.dataMonthlyBreakdown)
			data.GET("/yearly-trends", s.dataYearlyTrends)
			data.GET("/yearly-breakdown", s.dataYearlyBreakdown)
		}
	}

	// Admin routes
	admin := s.router.Group("/admin")
	admin.Use(s.requireAuth(), s.requireAdmin())
	{
		admin.GET("/dashboard", s.showAdminDashboard)
		admin.POST("/devices", s.createDevice)
		admin.POST("/devices/:id/delete", s.deleteDevice)
		admin.POST("/devices/:id/reset-password", s.resetDevicePassword)
	}

	// Everything else lands on the role home page, or login
	s.router.NoRoute(func(c *gin.Context) {
		if sess, ok := CurrentSession(c); ok {
			c.Redirect(http.StatusFound, landingRoute(sess))
			return
		}
		c.Redirect(http.StatusFound, loginRoute)
	})
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "mywatt-dashboard",
		"version":   s.version,
	})
}

// Start starts the HTTP server and the session sweeper, blocking until a
// shutdown signal arrives
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Server.ListenAddr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	// Expired sessions are swept hourly
	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@hourly", s.sweepSessions); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	sweeper.Start()

	go func() {
		s.logger.Info().Str("addr", s.config.Server.ListenAddr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	sweeperCtx := sweeper.Stop()
	<-sweeperCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing session store")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}

func (s *Server) sweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := s.sessions.SweepExpired(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Session sweep failed")
		return
	}
	if purged > 0 {
		s.logger.Info().Int64("purged", purged).Msg("Expired sessions swept")
	}
}
