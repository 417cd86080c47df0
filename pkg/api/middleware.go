package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	echo "github.com/labstack/echo/v5"
)

// securityHeaders returns middleware that sets standard security response headers.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			return next(c)
		}
	}
}

// requestLogger returns middleware that logs each request with method, path
// and duration. Health and metrics probes are skipped to keep logs readable.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			path := c.Request().URL.Path
			if path == "/health" || path == "/metrics" {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			attrs := []any{
				"method", c.Request().Method,
				"path", path,
				"duration", time.Since(start),
			}
			if err != nil {
				attrs = append(attrs, "error", err)
				slog.Warn("Request failed", attrs...)
			} else {
				slog.Debug("Request handled", attrs...)
			}
			return err
		}
	}
}

// authenticate verifies the bearer token on the request and returns the
// authenticated user id. Handlers for protected routes call this first.
func (s *Server) authenticate(c *echo.Context) (int64, error) {
	return s.tokens.Verify(bearerToken(c.Request()))
}

// bearerToken extracts the token from the Authorization header. Returns
// an empty string when the header is missing or not a bearer scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
