// Package e2e provides end-to-end test infrastructure for the castlight
// server: a real HTTP listener, a real database, and real WebSocket clients.
package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castlight-live/castlight/pkg/api"
	"github.com/castlight-live/castlight/pkg/auth"
	"github.com/castlight-live/castlight/pkg/database"
	"github.com/castlight-live/castlight/pkg/events"
	"github.com/castlight-live/castlight/pkg/livestate"
	"github.com/castlight-live/castlight/pkg/services"
	"github.com/castlight-live/castlight/test/util"
)

// TestApp boots a complete castlight instance for e2e testing.
type TestApp struct {
	DB     *sql.DB
	Store  *livestate.Store
	Hub    *events.Hub
	Tokens *auth.Tokens
	Server *api.Server

	// Runtime
	BaseURL string // e.g. "http://127.0.0.1:54321"
	WSURL   string // e.g. "ws://127.0.0.1:54321/ws"

	t *testing.T
}

// testAppConfig holds options accumulated before creating the TestApp.
type testAppConfig struct {
	tickInterval time.Duration
}

// TestAppOption configures the test app.
type TestAppOption func(*testAppConfig)

// WithTickInterval sets the timer ticker interval. Tests asserting on tick
// events shorten it so they observe several ticks quickly.
func WithTickInterval(d time.Duration) TestAppOption {
	return func(c *testAppConfig) { c.tickInterval = d }
}

// NewTestApp creates and starts a full castlight test instance.
// Shutdown is registered via t.Cleanup automatically.
func NewTestApp(t *testing.T, opts ...TestAppOption) *TestApp {
	t.Helper()

	tc := &testAppConfig{tickInterval: time.Second}
	for _, opt := range opts {
		opt(tc)
	}

	// 1. Database with migrations applied.
	db := util.SetupTestDatabase(t)

	// 2. Domain services and auth.
	projects := services.NewProjectService(db)
	scenes := services.NewSceneService(db)
	users := services.NewUserService(db)
	gate := auth.NewGate(projects)

	tokens, err := auth.NewTokens("e2e-secret", 0)
	require.NoError(t, err)
	resolver := auth.NewRoomResolver(tokens, gate, projects)

	// 3. Live state store, hub, control core, ticker.
	store := livestate.NewStore()
	hub := events.NewHub(resolver, 5*time.Second)
	live := services.NewLiveService(store, hub, projects, scenes, gate)

	ticker := livestate.NewTicker(store, live, tc.tickInterval)
	ticker.Start(context.Background())

	// 4. HTTP server on a random port.
	server := api.NewServer(database.NewClientFromDB(db), users, live, tokens, hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = server.StartWithListener(ln)
	}()

	addr := ln.Addr().String()
	app := &TestApp{
		DB:      db,
		Store:   store,
		Hub:     hub,
		Tokens:  tokens,
		Server:  server,
		BaseURL: fmt.Sprintf("http://%s", addr),
		WSURL:   fmt.Sprintf("ws://%s/ws", addr),
		t:       t,
	}

	// Register cleanup in reverse-creation order.
	t.Cleanup(func() {
		ticker.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		// DB cleanup handled by util.SetupTestDatabase
	})

	return app
}

// --- seed helpers (the editor surface is out of scope, rows go in directly) ---

// SeedProject inserts a project owned by userID and returns its id.
func (app *TestApp) SeedProject(t *testing.T, ownerID int64, name string) int64 {
	t.Helper()
	var id int64
	err := app.DB.QueryRow(
		`INSERT INTO projects (user_id, name) VALUES ($1, $2) RETURNING id`,
		ownerID, name).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedGrant gives userID a permission level on a project.
func (app *TestApp) SeedGrant(t *testing.T, projectID, userID int64, level string) {
	t.Helper()
	_, err := app.DB.Exec(
		`INSERT INTO project_permissions (project_id, user_id, permission_type) VALUES ($1, $2, $3)`,
		projectID, userID, level)
	require.NoError(t, err)
}

// SeedScene inserts a scene and returns its id.
func (app *TestApp) SeedScene(t *testing.T, projectID int64, name string) int64 {
	t.Helper()
	var id int64
	err := app.DB.QueryRow(
		`INSERT INTO scenes (project_id, name) VALUES ($1, $2) RETURNING id`,
		projectID, name).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedObject inserts a scene object with the given baseline properties and
// returns its id.
func (app *TestApp) SeedObject(t *testing.T, sceneID int64, name, objType string, props map[string]any) int64 {
	t.Helper()
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := json.Marshal(props)
	require.NoError(t, err)

	var id int64
	err = app.DB.QueryRow(
		`INSERT INTO objects (scene_id, name, type, properties) VALUES ($1, $2, $3, $4) RETURNING id`,
		sceneID, name, objType, propsJSON).Scan(&id)
	require.NoError(t, err)
	return id
}
