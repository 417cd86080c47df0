package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/castlight-live/castlight/pkg/events"
	"github.com/castlight-live/castlight/pkg/models"
)

// ProjectDirectory resolves project names for join requests. Implemented by
// services.ProjectService.
type ProjectDirectory interface {
	GetProjectByName(ctx context.Context, name string) (*models.Project, error)
}

// RoomResolver applies the join rules to WebSocket join attempts. Resolution
// order: an explicit room joins verbatim; a bearer token authenticates an
// editor session; everything else is an anonymous overlay binding.
type RoomResolver struct {
	tokens   *Tokens
	gate     *Gate
	projects ProjectDirectory
}

// NewRoomResolver creates a resolver. All three collaborators are required.
func NewRoomResolver(tokens *Tokens, gate *Gate, projects ProjectDirectory) *RoomResolver {
	if tokens == nil || gate == nil || projects == nil {
		panic("NewRoomResolver: nil collaborator")
	}
	return &RoomResolver{tokens: tokens, gate: gate, projects: projects}
}

// ResolveJoin implements events.JoinResolver.
func (r *RoomResolver) ResolveJoin(ctx context.Context, req *events.JoinRequest) (*events.JoinGrant, error) {
	// Explicit room names join verbatim; overlays that already know their
	// target room use this. Unparseable names are rejected rather than
	// creating unreachable groups.
	if req.Room != "" {
		room, ok := events.ParseRoomKey(req.Room)
		if !ok {
			return nil, fmt.Errorf("unknown room %q", req.Room)
		}
		return &events.JoinGrant{Rooms: []events.Room{room}}, nil
	}

	// A present token must verify. Invalid tokens reject the join instead
	// of downgrading to an anonymous binding.
	if req.Token != "" {
		userID, err := r.tokens.Verify(req.Token)
		if err != nil {
			return nil, err
		}
		return r.resolveAuthenticated(ctx, req, userID)
	}

	return r.resolveAnonymous(ctx, req)
}

// resolveAuthenticated admits an editor session: its own user room always,
// plus the project workspace room unless the client asked for the user room
// only. Requires viewer-or-higher on the project.
func (r *RoomResolver) resolveAuthenticated(ctx context.Context, req *events.JoinRequest, userID int64) (*events.JoinGrant, error) {
	if req.Project == "" {
		// Connect-time binding: a bare token joins the session's user room
		// before any explicit join message names a project.
		return &events.JoinGrant{
			Rooms:  []events.Room{events.UserRoom(userID)},
			UserID: userID,
		}, nil
	}

	project, err := r.projects.GetProjectByName(ctx, req.Project)
	if err != nil {
		return nil, err
	}
	if err := r.gate.RequireViewer(ctx, project, userID); err != nil {
		return nil, err
	}

	rooms := []events.Room{events.UserRoom(userID)}
	if req.RoomType != "user" {
		rooms = append([]events.Room{events.ProjectRoom(project.Name)}, rooms...)
	}
	return &events.JoinGrant{Rooms: rooms, Project: project.Name, UserID: userID}, nil
}

// resolveAnonymous admits an overlay page into the project owner's user room
// (or the client-provided user binding when one rides the request), plus the
// channel-scoped room when a channel id is named.
func (r *RoomResolver) resolveAnonymous(ctx context.Context, req *events.JoinRequest) (*events.JoinGrant, error) {
	if req.Project == "" {
		if req.UserID != 0 {
			// Connect-time binding: overlay pages identify themselves with a
			// bare user_id query parameter, the way the overlay URL embeds
			// the owner's id.
			return &events.JoinGrant{Rooms: r.overlayRooms(req.UserID, req.ChannelID)}, nil
		}
		return nil, errors.New("project name is required")
	}

	project, err := r.projects.GetProjectByName(ctx, req.Project)
	if err != nil {
		return nil, err
	}

	bindID := project.OwnerID
	if req.UserID != 0 {
		bindID = req.UserID
	}
	return &events.JoinGrant{Rooms: r.overlayRooms(bindID, req.ChannelID), Project: project.Name}, nil
}

func (r *RoomResolver) overlayRooms(userID int64, channelID string) []events.Room {
	rooms := []events.Room{events.UserRoom(userID)}
	if channelID != "" {
		rooms = append(rooms, events.UserChannelRoom(userID, channelID))
	}
	return rooms
}
