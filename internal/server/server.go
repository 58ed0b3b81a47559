// Package server wires the HTTP surface: routing, session gating, page
// rendering and the calls out to the identity provider.
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
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/myawesomesite/siteweb/internal/config"
	"github.com/myawesomesite/siteweb/internal/identity"
	"github.com/myawesomesite/siteweb/internal/session"
	"github.com/myawesomesite/siteweb/internal/settings"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
	sessions  *session.Manager
	settings  *settings.Store
	identity  *identity.Client
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger) (*Server, error) {
	// Seed the settings store: built-in defaults, optionally overridden
	// by a YAML seed file
	initial, err := initialSettings(cfg)
	if err != nil {
		return nil, err
	}

	// Session secret is per-process; a restart invalidates every session
	sessions, err := session.NewManager(cfg.Site.AdminEmail)
	if err != nil {
		return nil, err
	}

	server := &Server{
		config:    cfg,
		logger:    zlog,
		validator: validator.New(),
		sessions:  sessions,
		settings:  settings.NewStore(initial),
		identity:  identity.NewClient(cfg.Provider.URL, cfg.Provider.APIKey, nil),
	}

	if err := server.setupRouter(); err != nil {
		return nil, err
	}

	return server, nil
}

// initialSettings merges the optional YAML seed over the built-in defaults
func initialSettings(cfg *config.Config) (settings.Site, error) {
	site := settings.Defaults()

	seed, err := config.LoadSettingsSeed(cfg.Site.SettingsFile)
	if err != nil {
		return site, err
	}

	if seed.SiteName != "" {
		site.SiteName = seed.SiteName
	}
	if seed.SiteDescription != "" {
		site.SiteDescription = seed.SiteDescription
	}
	if seed.ContactEmail != "" {
		site.ContactEmail = seed.ContactEmail
	}
	if seed.SupportPhone != "" {
		site.SupportPhone = seed.SupportPhone
	}
	if seed.Address != "" {
		site.Address = seed.Address
	}

	return site, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() error {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	tmpl, err := loadTemplates()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	s.router.SetHTMLTemplate(tmpl)

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.config.Server.BaseURL},
		AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Resolve the session cookie once per request; handlers read it from
	// the request context, never from shared state
	s.router.Use(s.resolveSession())

	s.router.GET("/", s.landing)
	s.router.GET("/login", s.showLogin)
	s.router.POST("/login", s.login)
	s.router.GET("/register", s.showRegister)
	s.router.POST("/register", s.register)
	s.router.GET("/logout", s.logout)
	s.router.GET("/sitemap.xml", s.sitemap)

	authed := s.router.Group("/")
	authed.Use(s.requireSession())
	{
		authed.GET("/home", s.home)
		authed.GET("/user_settings", s.showUserSettings)
		authed.POST("/user_settings", s.updateUserSettings)
	}

	admin := s.router.Group("/site_settings")
	admin.Use(s.requireSession(), s.requireAdmin())
	{
		admin.GET("", s.showSiteSettings)
		admin.POST("", s.updateSiteSettings)
	}

	return nil
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := ulid.Make().String()
		c.Set("request_id", requestID)

		c.Next()

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// render draws an HTML page with the settings snapshot and any pending
// flash notices attached, as every page expects
func (s *Server) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Settings"] = s.settings.Snapshot()
	data["Flashes"] = session.TakeFlashes(c)
	if sess, ok := currentSession(c); ok {
		data["Session"] = sess
		data["IsAdmin"] = sess.Role == session.RoleAdmin
	}
	c.HTML(status, name, data)
}

// Start starts the HTTP server
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

	go func() {
		s.logger.Info().Str("addr", s.config.Server.ListenAddr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
