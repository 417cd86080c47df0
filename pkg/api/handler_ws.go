package api

import (
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
)

// wsHandler upgrades HTTP connections to WebSocket and hands them to the hub.
// Identity is optional at connect time: a token query parameter joins the
// caller's rooms immediately, a user_id parameter lets unauthenticated
// overlay pages address their owner's rooms, and a bare connection can still
// join rooms later with explicit join messages.
func (s *Server) wsHandler(c *echo.Context) error {
	if s.hub == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "WebSocket not available")
	}

	var userIDHint int64
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "user_id must be a positive integer")
		}
		userIDHint = id
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		// Overlays load from OBS browser sources and file:// origins, which
		// send no usable Origin header. Room membership is enforced per join.
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}

	// HandleConnection blocks until the WebSocket closes.
	s.hub.HandleConnection(c.Request().Context(), conn, c.QueryParam("token"), userIDHint)
	return nil
}
