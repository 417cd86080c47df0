package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlight-live/castlight/pkg/events"
	"github.com/castlight-live/castlight/pkg/models"
)

var errDirectoryMiss = errors.New("project not found")

// fakeDirectory is an in-memory ProjectDirectory keyed by project name.
type fakeDirectory struct {
	projects map[string]*models.Project
}

func (f *fakeDirectory) GetProjectByName(_ context.Context, name string) (*models.Project, error) {
	if p, ok := f.projects[name]; ok {
		return p, nil
	}
	return nil, errDirectoryMiss
}

func grantKeys(t *testing.T, grant *events.JoinGrant) []string {
	t.Helper()
	keys := make([]string, 0, len(grant.Rooms))
	for _, room := range grant.Rooms {
		keys = append(keys, room.Key())
	}
	return keys
}

func newTestResolver(t *testing.T) (*RoomResolver, *Tokens, *fakePerms) {
	t.Helper()
	tokens, err := NewTokens("secret", time.Hour)
	require.NoError(t, err)

	perms := &fakePerms{}
	dir := &fakeDirectory{projects: map[string]*models.Project{
		"broadcast": {ID: 1, OwnerID: 10, Name: "broadcast"},
	}}
	return NewRoomResolver(tokens, NewGate(perms), dir), tokens, perms
}

func TestRoomResolver_ExplicitRoom(t *testing.T) {
	resolver, _, _ := newTestResolver(t)
	ctx := context.Background()

	t.Run("well-formed room names join verbatim", func(t *testing.T) {
		for _, key := range []string{"project_broadcast", "user_10", "user_10_channel_preview"} {
			grant, err := resolver.ResolveJoin(ctx, &events.JoinRequest{Room: key})
			require.NoError(t, err, key)
			assert.Equal(t, []string{key}, grantKeys(t, grant))
		}
	})

	t.Run("made-up room names are rejected", func(t *testing.T) {
		_, err := resolver.ResolveJoin(ctx, &events.JoinRequest{Room: "lobby"})
		assert.Error(t, err)
	})
}

func TestRoomResolver_Authenticated(t *testing.T) {
	resolver, tokens, perms := newTestResolver(t)
	ctx := context.Background()

	ownerToken, err := tokens.Issue(10)
	require.NoError(t, err)

	t.Run("the owner joins the workspace and user rooms", func(t *testing.T) {
		grant, err := resolver.ResolveJoin(ctx, &events.JoinRequest{
			Token:   ownerToken,
			Project: "broadcast",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"project_broadcast", "user_10"}, grantKeys(t, grant))
		assert.Equal(t, "broadcast", grant.Project)
		assert.Equal(t, int64(10), grant.UserID)
	})

	t.Run("room_type user narrows the join to the user room", func(t *testing.T) {
		grant, err := resolver.ResolveJoin(ctx, &events.JoinRequest{
			Token:    ownerToken,
			Project:  "broadcast",
			RoomType: "user",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"user_10"}, grantKeys(t, grant))
	})

	t.Run("a bare token binds the connection to its user room", func(t *testing.T) {
		grant, err := resolver.ResolveJoin(ctx, &events.JoinRequest{Token: ownerToken})
		require.NoError(t, err)
		assert.Equal(t, []string{"user_10"}, grantKeys(t, grant))
		assert.Equal(t, int64(10), grant.UserID)
		assert.Empty(t, grant.Project)
	})

	t.Run("a granted viewer may join the workspace", func(t *testing.T) {
		perms.grant(1, 30, models.PermissionViewer)
		viewerToken, err := tokens.Issue(30)
		require.NoError(t, err)

		grant, err := resolver.ResolveJoin(ctx, &events.JoinRequest{
			Token:   viewerToken,
			Project: "broadcast",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"project_broadcast", "user_30"}, grantKeys(t, grant))
	})

	t.Run("a stranger is denied", func(t *testing.T) {
		strangerToken, err := tokens.Issue(40)
		require.NoError(t, err)

		_, err = resolver.ResolveJoin(ctx, &events.JoinRequest{
			Token:   strangerToken,
			Project: "broadcast",
		})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("an invalid token rejects the join outright", func(t *testing.T) {
		_, err := resolver.ResolveJoin(ctx, &events.JoinRequest{
			Token:   "garbage",
			Project: "broadcast",
		})
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRoomResolver_Anonymous(t *testing.T) {
	resolver, _, _ := newTestResolver(t)
	ctx := context.Background()

	t.Run("a project join binds to the owner's user room", func(t *testing.T) {
		grant, err := resolver.ResolveJoin(ctx, &events.JoinRequest{Project: "broadcast"})
		require.NoError(t, err)
		assert.Equal(t, []string{"user_10"}, grantKeys(t, grant))
		assert.Equal(t, "broadcast", grant.Project)
		assert.Zero(t, grant.UserID)
	})

	t.Run("a channel id adds the channel-scoped room", func(t *testing.T) {
		grant, err := resolver.ResolveJoin(ctx, &events.JoinRequest{
			Project:   "broadcast",
			ChannelID: "preview",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"user_10", "user_10_channel_preview"}, grantKeys(t, grant))
	})

	t.Run("an explicit user binding overrides the owner", func(t *testing.T) {
		grant, err := resolver.ResolveJoin(ctx, &events.JoinRequest{
			Project: "broadcast",
			UserID:  77,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"user_77"}, grantKeys(t, grant))
	})

	t.Run("a bare user id binds the connection without a project", func(t *testing.T) {
		grant, err := resolver.ResolveJoin(ctx, &events.JoinRequest{UserID: 77, ChannelID: "preview"})
		require.NoError(t, err)
		assert.Equal(t, []string{"user_77", "user_77_channel_preview"}, grantKeys(t, grant))
	})

	t.Run("no project and no user binding is rejected", func(t *testing.T) {
		_, err := resolver.ResolveJoin(ctx, &events.JoinRequest{})
		assert.Error(t, err)
	})

	t.Run("unknown projects propagate the lookup error", func(t *testing.T) {
		_, err := resolver.ResolveJoin(ctx, &events.JoinRequest{Project: "missing"})
		assert.ErrorIs(t, err, errDirectoryMiss)
	})
}
