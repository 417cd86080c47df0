package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/castlight-live/castlight/test/util"
)

func TestUserService_Register(t *testing.T) {
	db := util.SetupTestDatabase(t)
	svc := NewUserService(db)
	ctx := context.Background()

	t.Run("creates a user with a hashed password", func(t *testing.T) {
		user, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
		require.NoError(t, err)

		assert.Positive(t, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.True(t, user.IsActive)
		assert.False(t, user.CreatedAt.IsZero())

		stored, err := svc.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "s3cret", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))
	})

	t.Run("trims surrounding whitespace from the username", func(t *testing.T) {
		user, err := svc.Register(ctx, "  bob  ", "", "pw")
		require.NoError(t, err)
		assert.Equal(t, "bob", user.Username)
	})

	t.Run("email is optional", func(t *testing.T) {
		user, err := svc.Register(ctx, "carol", "", "pw")
		require.NoError(t, err)
		assert.Empty(t, user.Email)

		// Two accounts without email must both be storable despite the
		// unique constraint on the column.
		_, err = svc.Register(ctx, "dave", "", "pw")
		assert.NoError(t, err)

		stored, err := svc.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Email)
	})

	t.Run("duplicate usernames are rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "erin", "", "pw")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "erin", "", "other")
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name     string
			username string
			password string
			field    string
		}{
			{
				name:     "missing username",
				username: "",
				password: "pw",
				field:    "username",
			},
			{
				name:     "whitespace-only username",
				username: "   ",
				password: "pw",
				field:    "username",
			},
			{
				name:     "username too long",
				username: strings.Repeat("x", 81),
				password: "pw",
				field:    "username",
			},
			{
				name:     "missing password",
				username: "frank",
				password: "",
				field:    "password",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Register(ctx, tt.username, "", tt.password)
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				assert.Contains(t, err.Error(), tt.field)
			})
		}
	})
}

func TestUserService_Authenticate(t *testing.T) {
	db := util.SetupTestDatabase(t)
	svc := NewUserService(db)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "alice@example.com", "correct-horse")
	require.NoError(t, err)

	t.Run("valid credentials return the user", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "alice", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "alice", "battery-staple")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown username is rejected identically", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody", "correct-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deactivated accounts are rejected", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, registered.ID)
		require.NoError(t, err)
		t.Cleanup(func() {
			_, err := db.ExecContext(context.Background(),
				`UPDATE users SET is_active = TRUE WHERE id = $1`, registered.ID)
			require.NoError(t, err)
		})

		_, err = svc.Authenticate(ctx, "alice", "correct-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("empty fields fail validation before any lookup", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "", "pw")
		assert.True(t, IsValidationError(err))

		_, err = svc.Authenticate(ctx, "alice", "")
		assert.True(t, IsValidationError(err))
	})
}

func TestUserService_GetUserByID(t *testing.T) {
	db := util.SetupTestDatabase(t)
	svc := NewUserService(db)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "", "pw")
	require.NoError(t, err)

	user, err := svc.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.GetUserByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
