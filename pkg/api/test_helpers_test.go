package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castlight-live/castlight/pkg/auth"
	"github.com/castlight-live/castlight/pkg/database"
	"github.com/castlight-live/castlight/pkg/events"
	"github.com/castlight-live/castlight/pkg/livestate"
	"github.com/castlight-live/castlight/pkg/services"
	"github.com/castlight-live/castlight/test/util"
)

// countingBroadcaster satisfies services.Broadcaster and records event names
// so handler tests can assert that commands reached the fan-out path.
type countingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *countingBroadcaster) Emit(event string, payload any, rooms ...events.Room) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *countingBroadcaster) seen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	copy(out, b.events)
	return out
}

// apiFixture is a full server wired against a migrated test database, with
// the hub replaced by a recorder on the control path.
type apiFixture struct {
	db     *sql.DB
	store  *livestate.Store
	emits  *countingBroadcaster
	tokens *auth.Tokens
	server *Server
}

func setupAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db := util.SetupTestDatabase(t)

	store := livestate.NewStore()
	emits := &countingBroadcaster{}
	projects := services.NewProjectService(db)
	scenes := services.NewSceneService(db)
	users := services.NewUserService(db)
	gate := auth.NewGate(projects)
	live := services.NewLiveService(store, emits, projects, scenes, gate)

	tokens, err := auth.NewTokens("api-test-secret", 0)
	require.NoError(t, err)
	hub := events.NewHub(auth.NewRoomResolver(tokens, gate, projects), time.Second)

	return &apiFixture{
		db:     db,
		store:  store,
		emits:  emits,
		tokens: tokens,
		server: NewServer(database.NewClientFromDB(db), users, live, tokens, hub),
	}
}

// request runs one JSON request through the full route table and middleware.
func (f *apiFixture) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.echo.ServeHTTP(rec, req)
	return rec
}

// --- seed helpers ---

func (f *apiFixture) createUser(t *testing.T, username string) int64 {
	t.Helper()
	var id int64
	err := f.db.QueryRow(
		`INSERT INTO users (username, password_hash) VALUES ($1, 'x') RETURNING id`,
		username).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *apiFixture) createProject(t *testing.T, ownerID int64, name string) int64 {
	t.Helper()
	var id int64
	err := f.db.QueryRow(
		`INSERT INTO projects (user_id, name) VALUES ($1, $2) RETURNING id`,
		ownerID, name).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *apiFixture) grant(t *testing.T, projectID, userID int64, level string) {
	t.Helper()
	_, err := f.db.Exec(
		`INSERT INTO project_permissions (project_id, user_id, permission_type) VALUES ($1, $2, $3)`,
		projectID, userID, level)
	require.NoError(t, err)
}

func (f *apiFixture) createScene(t *testing.T, projectID int64, name string) int64 {
	t.Helper()
	var id int64
	err := f.db.QueryRow(
		`INSERT INTO scenes (project_id, name) VALUES ($1, $2) RETURNING id`,
		projectID, name).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *apiFixture) createObject(t *testing.T, sceneID int64, name, objType string, props map[string]any) int64 {
	t.Helper()
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := json.Marshal(props)
	require.NoError(t, err)

	var id int64
	err = f.db.QueryRow(
		`INSERT INTO objects (scene_id, name, type, properties) VALUES ($1, $2, $3, $4) RETURNING id`,
		sceneID, name, objType, propsJSON).Scan(&id)
	require.NoError(t, err)
	return id
}

// token issues a signed token for a seeded user id.
func (f *apiFixture) token(t *testing.T, userID int64) string {
	t.Helper()
	token, err := f.tokens.Issue(userID)
	require.NoError(t, err)
	return token
}
