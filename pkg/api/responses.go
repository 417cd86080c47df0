package api

import (
	"github.com/castlight-live/castlight/pkg/livestate"
)

// AuthUser is the user summary embedded in auth responses.
type AuthUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string   `json:"message,omitempty"`
	Token   string   `json:"token"`
	User    AuthUser `json:"user"`
}

// CurrentUserResponse is returned by GET /api/auth/me.
type CurrentUserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsActive bool   `json:"is_active"`
}

// SceneCommandResponse is returned by scene push/out commands.
type SceneCommandResponse struct {
	Status    string `json:"status"`
	SceneID   int64  `json:"scene_id"`
	ChannelID string `json:"channel_id"`
}

// TextUpdateResponse is returned by the live text update endpoint.
type TextUpdateResponse struct {
	ObjectID int64  `json:"object_id"`
	Content  string `json:"content"`
}

// ImageUpdateResponse is returned by the live image update endpoint.
type ImageUpdateResponse struct {
	ObjectID int64  `json:"object_id"`
	Src      string `json:"src"`
}

// ShapeUpdateResponse is returned by the live shape update endpoint.
type ShapeUpdateResponse struct {
	ObjectID int64  `json:"object_id"`
	Color    string `json:"color"`
}

// TimerResponse is returned by the timer control endpoint.
type TimerResponse struct {
	ObjectID   int64               `json:"object_id"`
	TimerState livestate.TimerState `json:"timer_state"`
}

// MessageResponse is a generic confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}

// HealthCheck is a single named probe inside HealthResponse.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
