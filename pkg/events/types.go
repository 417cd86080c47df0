// Package events provides the room registry and WebSocket fan-out for live
// state changes. Sessions join rooms; the control path and the timer ticker
// emit typed events into rooms; delivery to a single session is FIFO and
// best-effort across sessions.
package events

import "context"

// Event names carried in the "type" field of every outbound message.
const (
	EventSceneLiveUpdate  = "scene_live_update"
	EventObjectLiveUpdate = "object_live_update"
	EventTimerUpdate      = "timer_update"
	EventLiveStateCleared = "live_state_cleared"
	EventJoined           = "joined"
	EventError            = "error"
)

// Timer actions (TimerUpdatePayload.Action). The ticker emits "update";
// the control path emits the other three.
const (
	TimerActionStart  = "start"
	TimerActionStop   = "stop"
	TimerActionReset  = "reset"
	TimerActionUpdate = "update"
)

// ClientMessage is the JSON structure for client → server WebSocket messages.
type ClientMessage struct {
	Action    string `json:"action"`               // "join", "leave", "ping"
	Project   string `json:"project,omitempty"`    // project name to join
	Room      string `json:"room,omitempty"`       // explicit room name (overlays that know their target)
	UserID    int64  `json:"user_id,omitempty"`    // overlay binding to an owner's user room
	RoomType  string `json:"room_type,omitempty"`  // "user" restricts an authenticated join to the user room
	ChannelID string `json:"channel_id,omitempty"` // channel scope for overlay joins
	Token     string `json:"token,omitempty"`      // bearer token; overrides the query-string token
}

// JoinRequest is a normalized join attempt handed to the resolver.
type JoinRequest struct {
	Token     string
	Project   string
	Room      string
	UserID    int64
	RoomType  string
	ChannelID string
}

// JoinGrant is the resolver's answer: the rooms the session may enter, the
// resolved project name for the ack, and the authenticated user (0 when
// anonymous).
type JoinGrant struct {
	Rooms   []Room
	Project string
	UserID  int64
}

// JoinResolver applies the authorization rules to a join attempt.
// Implemented by auth.RoomResolver.
type JoinResolver interface {
	ResolveJoin(ctx context.Context, req *JoinRequest) (*JoinGrant, error)
}

// SceneLiveUpdatePayload announces a scene going on or off air.
type SceneLiveUpdatePayload struct {
	Type      string `json:"type"` // always EventSceneLiveUpdate
	SceneID   int64  `json:"scene_id"`
	IsLive    bool   `json:"is_live"`
	ChannelID string `json:"channel_id,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339Nano
}

// ObjectLiveUpdatePayload announces one live property override write.
type ObjectLiveUpdatePayload struct {
	Type      string `json:"type"` // always EventObjectLiveUpdate
	ObjectID  int64  `json:"object_id"`
	Property  string `json:"property"`
	Value     any    `json:"value"`
	ChannelID string `json:"channel_id,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339Nano
}

// TimerUpdatePayload announces timer control actions and per-second ticks.
type TimerUpdatePayload struct {
	Type        string  `json:"type"` // always EventTimerUpdate
	ObjectID    int64   `json:"object_id"`
	Action      string  `json:"action"` // start, stop, reset, update
	CurrentTime string  `json:"current_time"`
	Elapsed     float64 `json:"elapsed"` // seconds
	TimeFormat  string  `json:"time_format"`
	ChannelID   string  `json:"channel_id,omitempty"`
	Timestamp   string  `json:"timestamp"` // RFC3339Nano
}

// LiveStateClearedPayload announces that a project's live state was dropped.
// ChannelID is empty when every channel was cleared.
type LiveStateClearedPayload struct {
	Type        string `json:"type"` // always EventLiveStateCleared
	ProjectName string `json:"project_name"`
	ChannelID   string `json:"channel_id,omitempty"`
	Timestamp   string `json:"timestamp"` // RFC3339Nano
}

// JoinedPayload acknowledges a successful join to the acting session.
type JoinedPayload struct {
	Type    string   `json:"type"` // always EventJoined
	Project string   `json:"project,omitempty"`
	Rooms   []string `json:"rooms"`
}

// ErrorPayload reports a rejected action to the acting session.
type ErrorPayload struct {
	Type    string `json:"type"` // always EventError
	Message string `json:"message"`
}
