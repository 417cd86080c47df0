// Package livestate holds the volatile, in-memory live state of every
// project: which scenes are on air, per-object property overrides, and
// server-ticked timers. State is keyed by (project name, channel id) and is
// deliberately never persisted — a process restart forgets everything and
// overlays fall back to baseline scene content.
package livestate

import (
	"slices"
	"sync"
	"time"
)

// DefaultChannel is the channel id used when a client does not name one.
const DefaultChannel = "default"

// NormalizeChannel maps an empty channel id to DefaultChannel.
func NormalizeChannel(channelID string) string {
	if channelID == "" {
		return DefaultChannel
	}
	return channelID
}

// SceneFlag is the on-air status of one scene on one channel.
type SceneFlag struct {
	IsLive      bool    `json:"is_live"`
	LastUpdated float64 `json:"last_updated"` // unix seconds
}

// ObjectOverride is the sparse set of live property overrides for one object.
// Only keys explicitly written since the last clear are present.
type ObjectOverride struct {
	Properties  map[string]any `json:"properties"`
	LastUpdated float64        `json:"last_updated"` // unix seconds
}

// TimerState is a point-in-time projection of one timer. For a running
// timer, Elapsed includes the in-progress interval.
type TimerState struct {
	IsRunning   bool    `json:"is_running"`
	Elapsed     float64 `json:"elapsed"` // seconds
	CurrentTime string  `json:"current_time"`
	TimeFormat  string  `json:"time_format"`
}

// RunningTimer identifies one running timer and its current projection.
// Returned by RunningTimers for the ticker.
type RunningTimer struct {
	Project  string
	Channel  string
	ObjectID int64
	State    TimerState
}

type stateKey struct {
	project string
	channel string
}

// channelState is all live state for one (project, channel) key. Its mutex
// serializes every operation on the key, so compound mutations (push clearing
// siblings) are atomic from any other reader or writer's viewpoint.
type channelState struct {
	mu        sync.Mutex
	scenes    map[int64]*sceneFlag
	overrides map[int64]*objectOverride
	timers    map[int64]*timerRecord
}

type sceneFlag struct {
	isLive      bool
	lastUpdated time.Time
}

type objectOverride struct {
	properties  map[string]any
	lastUpdated time.Time
}

type timerRecord struct {
	running   bool
	startedAt time.Time
	elapsed   time.Duration
	format    string
}

// Store owns all live state for the process. Safe for concurrent use.
// The outer lock guards the key map; each key carries its own lock, so
// operations on distinct (project, channel) keys run in parallel while
// operations on the same key are serialized.
type Store struct {
	mu    sync.RWMutex
	state map[stateKey]*channelState

	// now is replaceable in tests.
	now func() time.Time
}

// NewStore creates an empty live state store.
func NewStore() *Store {
	return &Store{
		state: make(map[stateKey]*channelState),
		now:   time.Now,
	}
}

// get returns the channel state for a key, or nil when none exists.
func (s *Store) get(project, channel string) *channelState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state[stateKey{project, channel}]
}

// getOrCreate returns the channel state for a key, creating it on first write.
func (s *Store) getOrCreate(project, channel string) *channelState {
	key := stateKey{project, channel}

	s.mu.RLock()
	cs := s.state[key]
	s.mu.RUnlock()
	if cs != nil {
		return cs
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cs = s.state[key]; cs == nil {
		cs = &channelState{
			scenes:    make(map[int64]*sceneFlag),
			overrides: make(map[int64]*objectOverride),
			timers:    make(map[int64]*timerRecord),
		}
		s.state[key] = cs
	}
	return cs
}

// SetSceneLive writes the on-air flag for one scene. It does not touch
// sibling scenes; the push policy lives in PushSceneLive.
func (s *Store) SetSceneLive(project, channel string, sceneID int64, isLive bool) {
	cs := s.getOrCreate(project, channel)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.setSceneLiveLocked(sceneID, isLive, s.now())
}

func (cs *channelState) setSceneLiveLocked(sceneID int64, isLive bool, now time.Time) {
	flag := cs.scenes[sceneID]
	if flag == nil {
		flag = &sceneFlag{}
		cs.scenes[sceneID] = flag
	}
	flag.isLive = isLive
	flag.lastUpdated = now
}

// PushSceneLive marks sceneID live and clears every other live scene on the
// channel as one atomic step. Returns the ids of the scenes that were
// cleared, in ascending id order, so the caller can emit their off-air
// events before the on-air event.
func (s *Store) PushSceneLive(project, channel string, sceneID int64) []int64 {
	cs := s.getOrCreate(project, channel)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := s.now()
	var cleared []int64
	for id, flag := range cs.scenes {
		if id != sceneID && flag.isLive {
			flag.isLive = false
			flag.lastUpdated = now
			cleared = append(cleared, id)
		}
	}
	slices.Sort(cleared)
	cs.setSceneLiveLocked(sceneID, true, now)
	return cleared
}

// GetLiveScenes returns a snapshot of every scene flag on the channel as
// scene id → is_live.
func (s *Store) GetLiveScenes(project, channel string) map[int64]bool {
	cs := s.get(project, channel)
	if cs == nil {
		return map[int64]bool{}
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make(map[int64]bool, len(cs.scenes))
	for id, flag := range cs.scenes {
		out[id] = flag.isLive
	}
	return out
}

// GetSceneStates returns a snapshot of every scene flag with its update time.
func (s *Store) GetSceneStates(project, channel string) map[int64]SceneFlag {
	cs := s.get(project, channel)
	if cs == nil {
		return map[int64]SceneFlag{}
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make(map[int64]SceneFlag, len(cs.scenes))
	for id, flag := range cs.scenes {
		out[id] = SceneFlag{IsLive: flag.isLive, LastUpdated: unixSeconds(flag.lastUpdated)}
	}
	return out
}

// UpdateObjectProperty writes one live override key for an object, creating
// the override record on first write. Repeated calls compose a partial
// overlay; existing keys the call does not name are left alone.
func (s *Store) UpdateObjectProperty(project, channel string, objectID int64, key string, value any) {
	cs := s.getOrCreate(project, channel)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	ov := cs.overrides[objectID]
	if ov == nil {
		ov = &objectOverride{properties: make(map[string]any)}
		cs.overrides[objectID] = ov
	}
	ov.properties[key] = value
	ov.lastUpdated = s.now()
}

// GetObjectOverrides returns a snapshot of every object override on the
// channel. Property maps are copied; callers may not mutate shared state.
func (s *Store) GetObjectOverrides(project, channel string) map[int64]ObjectOverride {
	cs := s.get(project, channel)
	if cs == nil {
		return map[int64]ObjectOverride{}
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make(map[int64]ObjectOverride, len(cs.overrides))
	for id, ov := range cs.overrides {
		props := make(map[string]any, len(ov.properties))
		for k, v := range ov.properties {
			props[k] = v
		}
		out[id] = ObjectOverride{Properties: props, LastUpdated: unixSeconds(ov.lastUpdated)}
	}
	return out
}

// StartTimer marks the timer running from now. Elapsed time accumulated by
// earlier run intervals is preserved; a timer that never ran starts from
// zero. Restarting a running timer re-bases its in-progress interval without
// losing previously accumulated time.
func (s *Store) StartTimer(project, channel string, objectID int64, format string) TimerState {
	cs := s.getOrCreate(project, channel)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := s.now()
	rec := cs.timers[objectID]
	if rec == nil {
		rec = &timerRecord{}
		cs.timers[objectID] = rec
	} else if rec.running {
		// Fold the in-progress interval into elapsed before re-basing.
		rec.elapsed += now.Sub(rec.startedAt)
	}
	rec.running = true
	rec.startedAt = now
	if format != "" {
		rec.format = format
	} else if rec.format == "" {
		rec.format = FormatMinSec
	}
	return rec.stateAt(now)
}

// StopTimer halts a running timer, folding the in-progress interval into
// elapsed. Stopping an already stopped timer is a no-op.
func (s *Store) StopTimer(project, channel string, objectID int64) TimerState {
	cs := s.getOrCreate(project, channel)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := s.now()
	rec := cs.timers[objectID]
	if rec == nil {
		rec = &timerRecord{format: FormatMinSec}
		cs.timers[objectID] = rec
	}
	if rec.running {
		rec.elapsed += now.Sub(rec.startedAt)
		rec.running = false
		rec.startedAt = time.Time{}
	}
	return rec.stateAt(now)
}

// ResetTimer returns the timer to zero elapsed, stopped. The display format
// is preserved so a later start keeps rendering the same way.
func (s *Store) ResetTimer(project, channel string, objectID int64) TimerState {
	cs := s.getOrCreate(project, channel)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	rec := cs.timers[objectID]
	if rec == nil {
		rec = &timerRecord{format: FormatMinSec}
		cs.timers[objectID] = rec
	}
	rec.running = false
	rec.startedAt = time.Time{}
	rec.elapsed = 0
	return rec.stateAt(s.now())
}

// GetTimerState returns the live projection of one timer. A timer that was
// never touched reports zero elapsed, stopped, formatted per fallbackFormat.
func (s *Store) GetTimerState(project, channel string, objectID int64, fallbackFormat string) TimerState {
	if fallbackFormat == "" {
		fallbackFormat = FormatMinSec
	}
	cs := s.get(project, channel)
	if cs == nil {
		return TimerState{TimeFormat: fallbackFormat, CurrentTime: FormatElapsed(0, fallbackFormat)}
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	rec := cs.timers[objectID]
	if rec == nil {
		return TimerState{TimeFormat: fallbackFormat, CurrentTime: FormatElapsed(0, fallbackFormat)}
	}
	return rec.stateAt(s.now())
}

// RunningTimers snapshots every running timer across all keys, projected to
// now. The ticker calls this once per tick; payload construction and
// delivery happen outside the store's locks.
func (s *Store) RunningTimers() []RunningTimer {
	s.mu.RLock()
	keys := make([]stateKey, 0, len(s.state))
	states := make([]*channelState, 0, len(s.state))
	for key, cs := range s.state {
		keys = append(keys, key)
		states = append(states, cs)
	}
	s.mu.RUnlock()

	now := s.now()
	var out []RunningTimer
	for i, cs := range states {
		cs.mu.Lock()
		for objectID, rec := range cs.timers {
			if !rec.running {
				continue
			}
			out = append(out, RunningTimer{
				Project:  keys[i].project,
				Channel:  keys[i].channel,
				ObjectID: objectID,
				State:    rec.stateAt(now),
			})
		}
		cs.mu.Unlock()
	}
	return out
}

// RunningTimerCount reports how many timers are currently running.
func (s *Store) RunningTimerCount() int {
	return len(s.RunningTimers())
}

// ClearProject removes all live state for a project. An empty channel drops
// every channel under the project; otherwise only the named channel is
// dropped. Removal is atomic: no reader can observe a partially cleared
// project.
func (s *Store) ClearProject(project, channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if channel != "" {
		delete(s.state, stateKey{project, channel})
		return
	}
	for key := range s.state {
		if key.project == project {
			delete(s.state, key)
		}
	}
}

// stateAt projects the record to a point in time. Caller holds the channel
// lock.
func (r *timerRecord) stateAt(now time.Time) TimerState {
	elapsed := r.elapsed
	if r.running && !r.startedAt.IsZero() {
		elapsed += now.Sub(r.startedAt)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	format := r.format
	if format == "" {
		format = FormatMinSec
	}
	secs := elapsed.Seconds()
	return TimerState{
		IsRunning:   r.running,
		Elapsed:     secs,
		CurrentTime: FormatElapsed(secs, format),
		TimeFormat:  format,
	}
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}
