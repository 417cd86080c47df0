package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// updateTextHandler overrides the content of a live text object.
func (s *Server) updateTextHandler(c *echo.Context) error {
	userID, err := s.authenticate(c)
	if err != nil {
		return mapServiceError(err)
	}
	objectID, err := pathID(c, "object_id")
	if err != nil {
		return err
	}
	var req UpdateTextRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	if err := s.live.UpdateText(c.Request().Context(), userID, objectID, req.ProjectName, req.ChannelID, req.Content); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, TextUpdateResponse{ObjectID: objectID, Content: req.Content})
}

// updateImageHandler overrides the source of a live image object.
func (s *Server) updateImageHandler(c *echo.Context) error {
	userID, err := s.authenticate(c)
	if err != nil {
		return mapServiceError(err)
	}
	objectID, err := pathID(c, "object_id")
	if err != nil {
		return err
	}
	var req UpdateImageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Src == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "src is required")
	}

	if err := s.live.UpdateImage(c.Request().Context(), userID, objectID, req.ProjectName, req.ChannelID, req.Src); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ImageUpdateResponse{ObjectID: objectID, Src: req.Src})
}

// updateShapeHandler overrides the fill color of a live shape object.
func (s *Server) updateShapeHandler(c *echo.Context) error {
	userID, err := s.authenticate(c)
	if err != nil {
		return mapServiceError(err)
	}
	objectID, err := pathID(c, "object_id")
	if err != nil {
		return err
	}
	var req UpdateShapeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Color == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "color is required")
	}

	if err := s.live.UpdateShapeColor(c.Request().Context(), userID, objectID, req.ProjectName, req.ChannelID, req.Color); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ShapeUpdateResponse{ObjectID: objectID, Color: req.Color})
}

// timerHandler starts, stops or resets a live timer object.
func (s *Server) timerHandler(c *echo.Context) error {
	userID, err := s.authenticate(c)
	if err != nil {
		return mapServiceError(err)
	}
	objectID, err := pathID(c, "object_id")
	if err != nil {
		return err
	}
	var req TimerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	state, err := s.live.ControlTimer(c.Request().Context(), userID, objectID, req.ProjectName, req.ChannelID, c.Param("action"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, TimerResponse{ObjectID: objectID, TimerState: state})
}

// clearHandler wipes the live state of one channel, or of the whole
// project when no channel is given.
func (s *Server) clearHandler(c *echo.Context) error {
	userID, err := s.authenticate(c)
	if err != nil {
		return mapServiceError(err)
	}
	var req ClearRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.live.ClearLiveState(c.Request().Context(), userID, c.Param("project_name"), req.ChannelID); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Live state cleared"})
}

// liveStateHandler returns the live snapshot of one project channel.
func (s *Server) liveStateHandler(c *echo.Context) error {
	userID, err := s.authenticate(c)
	if err != nil {
		return mapServiceError(err)
	}

	snapshot, err := s.live.ProjectLiveState(c.Request().Context(), userID, c.Param("project_name"), c.QueryParam("channel_id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, snapshot)
}
