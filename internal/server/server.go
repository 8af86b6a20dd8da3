// Package server serves the forecasting dashboard over HTTP.
package server

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stock-forecaster/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	ServiceName        = "stock-forecaster"
	RequestIDHeaderKey = "X-Request-ID"
	requestIDKey       = "request_id"
	shutdownTimeout    = 10 * time.Second
	healthTimeout      = 2 * time.Second
)

// HealthCheck reports whether one dependency of the dashboard is usable.
type HealthCheck func(ctx context.Context) error

// Config holds server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Title        string
	Version      string
	Checks       map[string]HealthCheck
}

// Server is the dashboard HTTP server.
type Server struct {
	dash    *pipeline.Dashboard
	cfg     Config
	logger  zerolog.Logger
	started time.Time
}

// New creates a dashboard server.
func New(dash *pipeline.Dashboard, cfg Config, logger zerolog.Logger) *Server {
	if cfg.Title == "" {
		cfg.Title = "Stock Price Prediction App"
	}
	return &Server{
		dash:    dash,
		cfg:     cfg,
		logger:  logger.With().Str("component", "server").Logger(),
		started: time.Now(),
	}
}

// Router builds the gin engine with every route.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(s.logger))
	router.Use(gin.Recovery())

	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", s.handlePage)
	router.GET("/charts/:panel", s.handleChart)
	router.GET("/export/:file", s.handleExport)
	router.GET("/api/stocks", s.handleStocks)
	router.GET("/health", s.handleHealth)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("dashboard listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
