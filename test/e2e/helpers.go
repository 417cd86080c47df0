package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────────────────
// HTTP Client Helpers
// ────────────────────────────────────────────────────────────

// RegisterUser creates an account through the API and returns the user id
// and a live token for it.
func (app *TestApp) RegisterUser(t *testing.T, username, password string) (int64, string) {
	t.Helper()
	resp := app.postJSON(t, "/api/auth/register", "", map[string]any{
		"username": username,
		"password": password,
	}, http.StatusCreated)

	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	user, _ := resp["user"].(map[string]any)
	require.NotNil(t, user)
	id, _ := user["id"].(float64)
	require.NotZero(t, id)
	return int64(id), token
}

// Login authenticates through the API and returns a token.
func (app *TestApp) Login(t *testing.T, username, password string) string {
	t.Helper()
	resp := app.postJSON(t, "/api/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	}, http.StatusOK)

	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// PushScene takes a scene live on a channel ("" for default).
func (app *TestApp) PushScene(t *testing.T, token string, sceneID int64, channel string) map[string]any {
	t.Helper()
	var body map[string]any
	if channel != "" {
		body = map[string]any{"channel_id": channel}
	}
	return app.postJSON(t, fmt.Sprintf("/api/scenes/%d/push", sceneID), token, body, http.StatusOK)
}

// OutScene takes a scene off air on a channel ("" for default).
func (app *TestApp) OutScene(t *testing.T, token string, sceneID int64, channel string) map[string]any {
	t.Helper()
	var body map[string]any
	if channel != "" {
		body = map[string]any{"channel_id": channel}
	}
	return app.postJSON(t, fmt.Sprintf("/api/scenes/%d/out", sceneID), token, body, http.StatusOK)
}

// UpdateText overrides a text object's live content.
func (app *TestApp) UpdateText(t *testing.T, token string, objectID int64, project, channel, content string) map[string]any {
	t.Helper()
	body := map[string]any{"project_name": project, "content": content}
	if channel != "" {
		body["channel_id"] = channel
	}
	return app.postJSON(t, fmt.Sprintf("/api/live/objects/%d/text", objectID), token, body, http.StatusOK)
}

// ControlTimer sends a timer action (start, stop, reset).
func (app *TestApp) ControlTimer(t *testing.T, token string, objectID int64, project, action string) map[string]any {
	t.Helper()
	body := map[string]any{"project_name": project}
	return app.postJSON(t, fmt.Sprintf("/api/live/objects/%d/timer/%s", objectID, action), token, body, http.StatusOK)
}

// ClearLiveState wipes a project's live state ("" clears all channels).
func (app *TestApp) ClearLiveState(t *testing.T, token, project, channel string) map[string]any {
	t.Helper()
	var body map[string]any
	if channel != "" {
		body = map[string]any{"channel_id": channel}
	}
	return app.postJSON(t, "/api/live/projects/"+project+"/clear", token, body, http.StatusOK)
}

// GetLiveState reads a project's live snapshot.
func (app *TestApp) GetLiveState(t *testing.T, token, project, channel string) map[string]any {
	t.Helper()
	path := "/api/live/projects/" + project + "/state"
	if channel != "" {
		path += "?channel_id=" + channel
	}
	return app.getJSON(t, path, token, http.StatusOK)
}

// GetOverlayScene reads the merged scene as an overlay would: no token.
func (app *TestApp) GetOverlayScene(t *testing.T, sceneID int64, channel string) map[string]any {
	t.Helper()
	path := fmt.Sprintf("/api/overlay/scenes/%d", sceneID)
	if channel != "" {
		path += "?channel_id=" + channel
	}
	return app.getJSON(t, path, "", http.StatusOK)
}

// GetHealth calls GET /health.
func (app *TestApp) GetHealth(t *testing.T) map[string]any {
	t.Helper()
	return app.getJSON(t, "/health", "", http.StatusOK)
}

func (app *TestApp) postJSON(t *testing.T, path, token string, body any, expectedStatus int) map[string]any {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, app.BaseURL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, expectedStatus, resp.StatusCode, "POST %s: unexpected status", path)
	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func (app *TestApp) getJSON(t *testing.T, path, token string, expectedStatus int) map[string]any {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, app.BaseURL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, expectedStatus, resp.StatusCode, "GET %s: unexpected status", path)
	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}
