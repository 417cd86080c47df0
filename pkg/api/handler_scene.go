package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// pushSceneHandler takes a scene live on one playout channel. Any other
// scene live on that channel goes off air first.
func (s *Server) pushSceneHandler(c *echo.Context) error {
	return s.sceneCommand(c, true)
}

// outSceneHandler takes a scene off air on one playout channel.
func (s *Server) outSceneHandler(c *echo.Context) error {
	return s.sceneCommand(c, false)
}

func (s *Server) sceneCommand(c *echo.Context, live bool) error {
	userID, err := s.authenticate(c)
	if err != nil {
		return mapServiceError(err)
	}
	sceneID, err := pathID(c, "scene_id")
	if err != nil {
		return err
	}

	// The body is optional: no body means the default channel.
	var req SceneCommandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	var channel string
	if live {
		channel, err = s.live.PushScene(ctx, userID, sceneID, req.ChannelID)
	} else {
		channel, err = s.live.OutScene(ctx, userID, sceneID, req.ChannelID)
	}
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, SceneCommandResponse{
		Status:    "success",
		SceneID:   sceneID,
		ChannelID: channel,
	})
}
