package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/guiyumin/teradl/internal/core/config"
	"github.com/guiyumin/teradl/internal/core/extractor"
	"github.com/guiyumin/teradl/internal/core/i18n"
	"github.com/guiyumin/teradl/internal/core/version"
	"github.com/sirupsen/logrus"
)

// Response is the envelope for non-extraction endpoints
type Response struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// GetInfoRequest is the request body for POST /api/get-info.
// "url" is accepted as an alias for "teraboxUrl".
type GetInfoRequest struct {
	TeraboxURL string `json:"teraboxUrl"`
	URL        string `json:"url"`
}

// InfoResponse is the response body for POST /api/get-info
type InfoResponse struct {
	Success    bool   `json:"success"`
	Title      string `json:"title,omitempty"`
	DirectLink string `json:"directLink,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Extractor resolves a share URL; *extractor.Service implements it
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*extractor.Result, error)
}

const (
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// Server is the HTTP server for teradl
type Server struct {
	port        int
	apiKey      string
	language    string
	corsOrigins []string
	extractor   Extractor

	mu      sync.Mutex
	server  *http.Server
	stopped bool
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, ext Extractor) *Server {
	return &Server{
		port:        cfg.Server.Port,
		apiKey:      cfg.Server.APIKey,
		language:    cfg.Language,
		corsOrigins: cfg.Server.CORSOrigins,
		extractor:   ext,
	}
}

// Handler builds the gin engine with all middleware and routes
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestIDMiddleware())
	engine.Use(s.loggingMiddleware())
	if len(s.corsOrigins) > 0 {
		engine.Use(cors.New(s.corsConfig()))
	}
	if s.apiKey != "" {
		engine.Use(s.authMiddleware())
	}

	api := engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/get-info", s.handleGetInfo)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{
			Code:    404,
			Data:    nil,
			Message: "not found",
		})
	})

	return engine
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	if !config.Exists() {
		t := i18n.T(s.language)
		logrus.Warn(t.Server.NoConfigWarning)
		logrus.Info(t.Server.RunInitHint)
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.port),
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// Browser extraction can take navigation timeout plus element wait
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.server = srv
	s.mu.Unlock()

	logrus.Infof("Starting teradl server on port %d", s.port)
	if s.apiKey != "" {
		logrus.Info("API key authentication enabled")
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server. A Start that has not begun
// listening yet returns without serving.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Run serves until ctx is cancelled and then shuts down gracefully. If the
// server fails to start, Run returns that error right away.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server...")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		logrus.WithError(err).Warn("shutdown did not complete cleanly")
	}
	return <-errCh
}

// Middleware

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "X-API-Key", requestIDHeader},
		MaxAge:       12 * time.Hour,
	}
	for _, origin := range s.corsOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = s.corsOrigins
	return cfg
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only extraction requires auth; health checks and CORS preflights don't
		if c.Request.URL.Path != "/api/get-info" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		apiKey := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, InfoResponse{
				Success: false,
				Message: i18n.T(s.language).Errors.Unauthorized,
			})
			return
		}
		c.Next()
	}
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"client_ip":  c.ClientIP(),
			"latency":    time.Since(start),
		}).Info("request")
	}
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"status":  "ok",
			"version": version.Version,
		},
		Message: "everything is good",
	})
}

func (s *Server) handleGetInfo(c *gin.Context) {
	var req GetInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, InfoResponse{
			Success: false,
			Message: i18n.T(s.language).Errors.InvalidInput,
		})
		return
	}

	rawURL := req.TeraboxURL
	if rawURL == "" {
		rawURL = req.URL
	}

	result, err := s.extractor.Extract(c.Request.Context(), rawURL)
	if err != nil {
		status, message := s.failure(err)
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"reason":     extractor.ReasonOf(err).String(),
		}).WithError(err).Warn("extraction failed")
		c.JSON(status, InfoResponse{Success: false, Message: message})
		return
	}

	c.JSON(http.StatusOK, InfoResponse{
		Success:    true,
		Title:      result.Title,
		DirectLink: result.DirectLink,
	})
}

// failure maps an extraction error to an HTTP status and a localized message
func (s *Server) failure(err error) (int, string) {
	t := i18n.T(s.language)
	switch extractor.ReasonOf(err) {
	case extractor.ReasonInvalidInput:
		return http.StatusBadRequest, t.Errors.InvalidInput
	case extractor.ReasonNotFound:
		return http.StatusNotFound, t.Errors.NotFound
	default:
		return http.StatusBadGateway, t.Errors.FetchFailed
	}
}
