// Package models contains the persisted domain types and shared enums.
package models

import "time"

// PermissionLevel orders project permission grants by increasing authority.
type PermissionLevel int

const (
	PermissionViewer PermissionLevel = 0
	PermissionEditor PermissionLevel = 1
	PermissionOwner  PermissionLevel = 2
)

// String returns the lowercase grant name used in API payloads and logs.
func (l PermissionLevel) String() string {
	switch l {
	case PermissionViewer:
		return "viewer"
	case PermissionEditor:
		return "editor"
	case PermissionOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// ParsePermissionLevel converts a grant name to its level.
// Returns false for unknown names.
func ParsePermissionLevel(s string) (PermissionLevel, bool) {
	switch s {
	case "viewer":
		return PermissionViewer, true
	case "editor":
		return PermissionEditor, true
	case "owner":
		return PermissionOwner, true
	default:
		return 0, false
	}
}

// Object type tags for scene objects. The set is open-ended; these are the
// types the control surface validates against.
const (
	ObjectTypeText  = "text"
	ObjectTypeImage = "image"
	ObjectTypeShape = "shape"
	ObjectTypeTimer = "timer"
)

// User is an account that owns projects and holds permission grants.
// PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project is an operator workspace. Identified by (owner, name); live state
// keys use the name.
type Project struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectPermission grants a user a permission level on a project.
// The owner holds PermissionOwner implicitly, without a row.
type ProjectPermission struct {
	ProjectID int64           `json:"project_id"`
	UserID    int64           `json:"user_id"`
	Level     PermissionLevel `json:"level"`
}

// Scene is an ordered collection of renderable objects within a project.
// Duration is the editor's timeline length in milliseconds; the server never
// interprets it.
type Scene struct {
	ID        int64          `json:"id"`
	ProjectID int64          `json:"project_id"`
	Name      string         `json:"name"`
	Order     int            `json:"order"`
	Duration  int            `json:"duration"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Objects   []*SceneObject `json:"objects"`
}

// SceneObject is one renderable element of a scene. Properties holds the
// persisted baseline; live overrides are merged over it key-by-key when an
// overlay reads the scene. InMotion, OutMotion and Timing drive client-side
// animation and pass through the server untouched.
type SceneObject struct {
	ID         int64          `json:"id"`
	SceneID    int64          `json:"scene_id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Order      int            `json:"order"`
	Properties map[string]any `json:"properties"`
	InMotion   map[string]any `json:"in_motion"`
	OutMotion  map[string]any `json:"out_motion"`
	Timing     map[string]any `json:"timing"`
}
