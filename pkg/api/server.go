// Package api is the HTTP and WebSocket surface of the live core: operator
// control commands, the public overlay read path, token issuance, health and
// metrics. Handlers validate and bind, services decide; every service error
// is mapped to an HTTP status in one place.
package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/castlight-live/castlight/pkg/auth"
	"github.com/castlight-live/castlight/pkg/database"
	"github.com/castlight-live/castlight/pkg/events"
	"github.com/castlight-live/castlight/pkg/services"
)

// Server wires the HTTP routes to the domain services.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	dbClient *database.Client
	users    *services.UserService
	live     *services.LiveService
	tokens   *auth.Tokens
	hub      *events.Hub
}

// NewServer creates the API server and registers all routes.
func NewServer(dbClient *database.Client, users *services.UserService, live *services.LiveService, tokens *auth.Tokens, hub *events.Hub) *Server {
	s := &Server{
		echo:     echo.New(),
		dbClient: dbClient,
		users:    users,
		live:     live,
		tokens:   tokens,
		hub:      hub,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.Use(securityHeaders())
	e.Use(requestLogger())

	e.GET("/health", s.healthHandler)
	e.GET("/metrics", func(c *echo.Context) error {
		promhttp.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})
	e.GET("/ws", s.wsHandler)

	e.POST("/api/auth/register", s.registerHandler)
	e.POST("/api/auth/login", s.loginHandler)
	e.GET("/api/auth/me", s.currentUserHandler)

	e.POST("/api/scenes/:scene_id/push", s.pushSceneHandler)
	e.POST("/api/scenes/:scene_id/out", s.outSceneHandler)

	e.POST("/api/live/objects/:object_id/text", s.updateTextHandler)
	e.POST("/api/live/objects/:object_id/image", s.updateImageHandler)
	e.POST("/api/live/objects/:object_id/shape", s.updateShapeHandler)
	e.POST("/api/live/objects/:object_id/timer/:action", s.timerHandler)
	e.POST("/api/live/projects/:project_name/clear", s.clearHandler)
	e.GET("/api/live/projects/:project_name/state", s.liveStateHandler)

	// Overlay pages are display endpoints, not an admin surface; no token.
	e.GET("/api/overlay/scenes/:scene_id", s.overlaySceneHandler)
}

// Start runs the HTTP server on addr. Blocks until the server stops;
// returns http.ErrServerClosed after a graceful Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener serves on an existing listener. Tests use it to bind a
// random port before the server goroutine races the first request.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.Serve(ln)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// pathID parses a positive integer route parameter.
func pathID(c *echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}
