package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fetscr/fetscr-backend/internal/auth/middleware"
	authservice "github.com/fetscr/fetscr-backend/internal/auth/service"
	"github.com/fetscr/fetscr-backend/internal/conf"
	"github.com/fetscr/fetscr-backend/internal/payment"
	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	scrapeservice "github.com/fetscr/fetscr-backend/internal/scrape/service"
	userservice "github.com/fetscr/fetscr-backend/internal/user/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HTTPServer struct {
	server *http.Server
	config *conf.Config
	logger *logger.Logger
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	authService *authservice.AuthService,
	userService *userservice.UserService,
	scrapeService *scrapeservice.ScrapeService,
	paymentService *payment.Service,
	authMiddleware gin.HandlerFunc,
	rateLimiter gin.HandlerFunc,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(middleware.CORS())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "FETSCR backend is running",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	authService.RegisterRoutes(router)
	userService.RegisterRoutes(router, authMiddleware)
	scrapeService.RegisterRoutes(router, authMiddleware, rateLimiter)
	paymentService.RegisterRoutes(router, authMiddleware)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		config: config,
		logger: log,
	}
}

// Start binds the shared listener and serves until shutdown. Every
// worker process calls this against the same address.
func (s *HTTPServer) Start() error {
	ln, err := NewSharedListener(s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind shared listener: %w", err)
	}

	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// LoggerMiddleware assigns each request an ID, threads it through the
// request context for downstream log enrichment, and logs the completed
// request.
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		log.WithContext(c.Request.Context()).Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
