package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// overlaySceneHandler returns a scene with live overrides merged into its
// objects, as rendered by overlay pages. Overlays run unauthenticated in
// browser sources, so this route takes no token.
func (s *Server) overlaySceneHandler(c *echo.Context) error {
	sceneID, err := pathID(c, "scene_id")
	if err != nil {
		return err
	}

	scene, err := s.live.MergedScene(c.Request().Context(), sceneID, c.QueryParam("channel_id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, scene)
}
