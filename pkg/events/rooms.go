package events

import (
	"fmt"
	"strconv"
	"strings"
)

// RoomKind enumerates the three room shapes the broadcaster fans out to.
type RoomKind int

const (
	// RoomProject is the editor workspace room for one project.
	RoomProject RoomKind = iota
	// RoomUser is the per-owner fan-out room; overlays of any of that
	// user's projects sit here.
	RoomUser
	// RoomUserChannel narrows RoomUser to a single output channel.
	RoomUserChannel
)

// Room identifies one fan-out group. Construct with ProjectRoom, UserRoom or
// UserChannelRoom; the zero value is not a valid room.
type Room struct {
	Kind      RoomKind
	Project   string // RoomProject
	UserID    int64  // RoomUser, RoomUserChannel
	ChannelID string // RoomUserChannel
}

// ProjectRoom is the room every editor session of a project joins.
func ProjectRoom(projectName string) Room {
	return Room{Kind: RoomProject, Project: projectName}
}

// UserRoom is the room overlay sessions bound to a user join.
func UserRoom(userID int64) Room {
	return Room{Kind: RoomUser, UserID: userID}
}

// UserChannelRoom scopes a user room to one output channel.
func UserChannelRoom(userID int64, channelID string) Room {
	return Room{Kind: RoomUserChannel, UserID: userID, ChannelID: channelID}
}

// Key renders the wire name of the room: "project_<name>", "user_<id>" or
// "user_<id>_channel_<channel>".
func (r Room) Key() string {
	switch r.Kind {
	case RoomProject:
		return "project_" + r.Project
	case RoomUser:
		return "user_" + strconv.FormatInt(r.UserID, 10)
	case RoomUserChannel:
		return fmt.Sprintf("user_%d_channel_%s", r.UserID, r.ChannelID)
	default:
		return ""
	}
}

// ParseRoomKey parses a wire room name back into a Room. Returns false for
// names that match none of the three shapes, so joins with made-up rooms are
// rejected instead of creating unreachable groups.
func ParseRoomKey(key string) (Room, bool) {
	if name, ok := strings.CutPrefix(key, "project_"); ok {
		if name == "" {
			return Room{}, false
		}
		return ProjectRoom(name), true
	}

	rest, ok := strings.CutPrefix(key, "user_")
	if !ok || rest == "" {
		return Room{}, false
	}
	if idStr, channel, found := strings.Cut(rest, "_channel_"); found {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || channel == "" {
			return Room{}, false
		}
		return UserChannelRoom(id, channel), true
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return Room{}, false
	}
	return UserRoom(id), true
}
