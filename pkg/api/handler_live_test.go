package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlight-live/castlight/pkg/services"
)

func TestUpdateTextHandler(t *testing.T) {
	f := setupAPIFixture(t)
	owner := f.createUser(t, "text_owner")
	projectID := f.createProject(t, owner, "rundown")
	sceneID := f.createScene(t, projectID, "titles")
	objectID := f.createObject(t, sceneID, "headline", "text", map[string]any{"content": "Hello"})
	token := f.token(t, owner)

	t.Run("override lands in store and response", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, objectPath(objectID, "text"), token,
			UpdateTextRequest{ProjectName: "rundown", Content: "Breaking"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp TextUpdateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, objectID, resp.ObjectID)
		assert.Equal(t, "Breaking", resp.Content)

		overrides := f.store.GetObjectOverrides("rundown", "default")
		require.Contains(t, overrides, objectID)
		assert.Equal(t, "Breaking", overrides[objectID].Properties["content"])
	})

	t.Run("empty content returns 400", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, objectPath(objectID, "text"), token,
			UpdateTextRequest{ProjectName: "rundown"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "content is required")
	})

	t.Run("missing project_name returns 400", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, objectPath(objectID, "text"), token,
			UpdateTextRequest{Content: "Breaking"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "project_name")
	})

	t.Run("missing token returns 401", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, objectPath(objectID, "text"), "",
			UpdateTextRequest{ProjectName: "rundown", Content: "Breaking"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUpdateImageAndShapeHandlers(t *testing.T) {
	f := setupAPIFixture(t)
	owner := f.createUser(t, "media_owner")
	projectID := f.createProject(t, owner, "gallery")
	sceneID := f.createScene(t, projectID, "stills")
	imageID := f.createObject(t, sceneID, "photo", "image", map[string]any{"src": "a.png"})
	shapeID := f.createObject(t, sceneID, "banner", "shape", map[string]any{"color": "#fff"})
	token := f.token(t, owner)

	t.Run("image src override", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, objectPath(imageID, "image"), token,
			UpdateImageRequest{ProjectName: "gallery", ChannelID: "stream2", Src: "b.png"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ImageUpdateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "b.png", resp.Src)
		assert.Equal(t, "b.png", f.store.GetObjectOverrides("gallery", "stream2")[imageID].Properties["src"])
	})

	t.Run("missing src returns 400", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, objectPath(imageID, "image"), token,
			UpdateImageRequest{ProjectName: "gallery"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "src is required")
	})

	t.Run("shape color override", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, objectPath(shapeID, "shape"), token,
			UpdateShapeRequest{ProjectName: "gallery", Color: "#ff0000"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ShapeUpdateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "#ff0000", resp.Color)
	})

	t.Run("type mismatch returns 400", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, objectPath(shapeID, "image"), token,
			UpdateImageRequest{ProjectName: "gallery", Src: "c.png"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "not a image object")
	})
}

func TestTimerHandler(t *testing.T) {
	f := setupAPIFixture(t)
	owner := f.createUser(t, "timer_owner")
	projectID := f.createProject(t, owner, "countdown")
	sceneID := f.createScene(t, projectID, "clock scene")
	timerID := f.createObject(t, sceneID, "clock", "timer", map[string]any{"timeFormat": "HH:MM:SS"})
	token := f.token(t, owner)

	t.Run("start returns running state", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, objectPath(timerID, "timer/start"), token,
			TimerRequest{ProjectName: "countdown"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp TimerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, timerID, resp.ObjectID)
		assert.True(t, resp.TimerState.IsRunning)
		assert.Equal(t, "00:00:00", resp.TimerState.CurrentTime)
		assert.Equal(t, "HH:MM:SS", resp.TimerState.TimeFormat)
	})

	t.Run("stop returns stopped state", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, objectPath(timerID, "timer/stop"), token,
			TimerRequest{ProjectName: "countdown"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp TimerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.TimerState.IsRunning)
	})

	t.Run("unknown action returns 400", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, objectPath(timerID, "timer/pause"), token,
			TimerRequest{ProjectName: "countdown"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "start, stop or reset")
	})
}

func TestClearHandler(t *testing.T) {
	f := setupAPIFixture(t)
	owner := f.createUser(t, "clear_owner")
	projectID := f.createProject(t, owner, "wipeout")
	sceneID := f.createScene(t, projectID, "card")
	objectID := f.createObject(t, sceneID, "label", "text", nil)
	token := f.token(t, owner)

	rec := f.request(t, http.MethodPost, objectPath(objectID, "text"), token,
		UpdateTextRequest{ProjectName: "wipeout", Content: "On air"})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("clears project state", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/live/projects/wipeout/clear", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp MessageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Live state cleared", resp.Message)
		assert.Empty(t, f.store.GetObjectOverrides("wipeout", "default"))
	})

	t.Run("unknown project returns 404", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/live/projects/missing/clear", token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLiveStateHandler(t *testing.T) {
	f := setupAPIFixture(t)
	owner := f.createUser(t, "state_owner")
	projectID := f.createProject(t, owner, "snapshot")
	sceneID := f.createScene(t, projectID, "scores")
	objectID := f.createObject(t, sceneID, "score", "text", nil)
	token := f.token(t, owner)

	rec := f.request(t, http.MethodPost, scenePath(sceneID, "push"), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.request(t, http.MethodPost, objectPath(objectID, "text"), token,
		UpdateTextRequest{ProjectName: "snapshot", Content: "3 - 1"})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("returns scene flags and overrides", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/live/projects/snapshot/state", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var snap services.LiveStateSnapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		require.Contains(t, snap.SceneStates, sceneID)
		assert.True(t, snap.SceneStates[sceneID].IsLive)
		require.Contains(t, snap.ObjectStates, objectID)
		assert.Equal(t, "3 - 1", snap.ObjectStates[objectID].Properties["content"])
	})

	t.Run("viewer grant may read", func(t *testing.T) {
		viewer := f.createUser(t, "state_viewer")
		f.grant(t, projectID, viewer, "viewer")

		rec := f.request(t, http.MethodGet, "/api/live/projects/snapshot/state", f.token(t, viewer), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stranger returns 403", func(t *testing.T) {
		stranger := f.createUser(t, "state_stranger")

		rec := f.request(t, http.MethodGet, "/api/live/projects/snapshot/state", f.token(t, stranger), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("untouched channel is empty", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/live/projects/snapshot/state?channel_id=backup", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var snap services.LiveStateSnapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		assert.Empty(t, snap.SceneStates)
		assert.Empty(t, snap.ObjectStates)
	})
}

func objectPath(objectID int64, command string) string {
	return "/api/live/objects/" + strconv.FormatInt(objectID, 10) + "/" + command
}
