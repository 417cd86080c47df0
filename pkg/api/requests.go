package api

// RegisterRequest is the HTTP request body for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// LoginRequest is the HTTP request body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SceneCommandRequest is the optional body for scene push/out commands.
// An empty body targets the default channel.
type SceneCommandRequest struct {
	ChannelID string `json:"channel_id,omitempty"`
}

// UpdateTextRequest is the body for POST /api/live/objects/:object_id/text.
type UpdateTextRequest struct {
	ProjectName string `json:"project_name"`
	ChannelID   string `json:"channel_id,omitempty"`
	Content     string `json:"content"`
}

// UpdateImageRequest is the body for POST /api/live/objects/:object_id/image.
type UpdateImageRequest struct {
	ProjectName string `json:"project_name"`
	ChannelID   string `json:"channel_id,omitempty"`
	Src         string `json:"src"`
}

// UpdateShapeRequest is the body for POST /api/live/objects/:object_id/shape.
type UpdateShapeRequest struct {
	ProjectName string `json:"project_name"`
	ChannelID   string `json:"channel_id,omitempty"`
	Color       string `json:"color"`
}

// TimerRequest is the body for POST /api/live/objects/:object_id/timer/:action.
type TimerRequest struct {
	ProjectName string `json:"project_name"`
	ChannelID   string `json:"channel_id,omitempty"`
}

// ClearRequest is the optional body for POST /api/live/projects/:project_name/clear.
// An empty channel clears every channel of the project.
type ClearRequest struct {
	ChannelID string `json:"channel_id,omitempty"`
}
