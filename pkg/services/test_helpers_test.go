package services

import (
	"database/sql"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castlight-live/castlight/pkg/auth"
	"github.com/castlight-live/castlight/pkg/events"
	"github.com/castlight-live/castlight/pkg/livestate"
	"github.com/castlight-live/castlight/test/util"
)

// recordedEmit is one Emit call captured by the recorder.
type recordedEmit struct {
	Event   string
	Payload any
	Rooms   []events.Room
}

// emitRecorder implements Broadcaster and captures fan-out calls instead of
// writing to sockets.
type emitRecorder struct {
	mu    sync.Mutex
	calls []recordedEmit
}

func (r *emitRecorder) Emit(event string, payload any, rooms ...events.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedEmit{Event: event, Payload: payload, Rooms: rooms})
}

func (r *emitRecorder) recorded() []recordedEmit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEmit, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *emitRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// roomKeys renders an emit's target rooms for assertions.
func roomKeys(rooms []events.Room) []string {
	keys := make([]string, 0, len(rooms))
	for _, room := range rooms {
		keys = append(keys, room.Key())
	}
	return keys
}

// liveFixture wires a LiveService against a migrated test database and a
// recording broadcaster.
type liveFixture struct {
	db       *sql.DB
	store    *livestate.Store
	emits    *emitRecorder
	users    *UserService
	projects *ProjectService
	scenes   *SceneService
	service  *LiveService
}

func setupLiveFixture(t *testing.T) *liveFixture {
	db := util.SetupTestDatabase(t)

	store := livestate.NewStore()
	emits := &emitRecorder{}
	projects := NewProjectService(db)
	scenes := NewSceneService(db)

	return &liveFixture{
		db:       db,
		store:    store,
		emits:    emits,
		users:    NewUserService(db),
		projects: projects,
		scenes:   scenes,
		service:  NewLiveService(store, emits, projects, scenes, auth.NewGate(projects)),
	}
}

// --- seed helpers ---

func (f *liveFixture) createUser(t *testing.T, username string) int64 {
	t.Helper()
	var id int64
	err := f.db.QueryRow(
		`INSERT INTO users (username, password_hash) VALUES ($1, 'x') RETURNING id`,
		username).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *liveFixture) createProject(t *testing.T, ownerID int64, name string) int64 {
	t.Helper()
	var id int64
	err := f.db.QueryRow(
		`INSERT INTO projects (user_id, name) VALUES ($1, $2) RETURNING id`,
		ownerID, name).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *liveFixture) grant(t *testing.T, projectID, userID int64, level string) {
	t.Helper()
	_, err := f.db.Exec(
		`INSERT INTO project_permissions (project_id, user_id, permission_type) VALUES ($1, $2, $3)`,
		projectID, userID, level)
	require.NoError(t, err)
}

func (f *liveFixture) createScene(t *testing.T, projectID int64, name string) int64 {
	t.Helper()
	var id int64
	err := f.db.QueryRow(
		`INSERT INTO scenes (project_id, name) VALUES ($1, $2) RETURNING id`,
		projectID, name).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *liveFixture) createObject(t *testing.T, sceneID int64, name, objType string, props map[string]any) int64 {
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
